package volume

import (
	"VoxelTerrain/internal/indexing"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidDimensions is returned when a volume is constructed with a negative dimension.
	ErrInvalidDimensions = errors.New("volume: width, height and depth must not be negative")
	// ErrShapeMismatch is returned when copying between volumes of different sizes.
	ErrShapeMismatch = errors.New("volume: volumes are not the same size")
	// ErrNotCreated is returned when an operation needs an allocated volume.
	ErrNotCreated = errors.New("volume: volume is not created")
)

// grid is the byte storage and addressing shared by every volume type.
// Its zero value is an unallocated grid.
type grid struct {
	width     int
	height    int
	depth     int
	data      []byte
	allocator Allocator
	created   bool
}

func newGrid(width, height, depth int, allocator Allocator) (grid, error) {
	if width < 0 || height < 0 || depth < 0 {
		return grid{}, errors.Wrapf(ErrInvalidDimensions, "got %dx%dx%d", width, height, depth)
	}
	return grid{
		width:     width,
		height:    height,
		depth:     depth,
		data:      allocator.allocate(width * height * depth),
		allocator: allocator,
		created:   true,
	}, nil
}

// Width is the number of samples along x.
func (g *grid) Width() int { return g.width }

// Height is the number of samples along y.
func (g *grid) Height() int { return g.height }

// Depth is the number of samples along z.
func (g *grid) Depth() int { return g.depth }

// Size returns (width, height, depth).
func (g *grid) Size() indexing.Int3 {
	return indexing.Int3{X: g.width, Y: g.height, Z: g.depth}
}

// Length is the number of samples, width*height*depth.
func (g *grid) Length() int {
	return g.width * g.height * g.depth
}

// IsCreated reports whether the sample buffer is allocated.
func (g *grid) IsCreated() bool {
	return g.created
}

// Allocator reports the allocation scope the volume was created with.
func (g *grid) Allocator() Allocator {
	return g.allocator
}

// Dispose releases the sample buffer. Calling it more than once is a no-op.
func (g *grid) Dispose() {
	if !g.created {
		return
	}
	g.allocator.release(g.data)
	g.data = nil
	g.created = false
}

// Contains reports whether (x, y, z) addresses a sample of the volume.
func (g *grid) Contains(x, y, z int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height && z >= 0 && z < g.depth
}

// Bytes exposes the raw quantized samples in row-major order, x fastest.
// The slice aliases the volume and is invalid after Dispose.
func (g *grid) Bytes() []byte {
	return g.data
}

// LoadBytes overwrites every sample with data, which must hold exactly Length bytes.
func (g *grid) LoadBytes(data []byte) error {
	if !g.created {
		return ErrNotCreated
	}
	if len(data) != len(g.data) {
		return errors.Wrapf(ErrShapeMismatch, "expected %d bytes, got %d", len(g.data), len(data))
	}
	copy(g.data, data)
	return nil
}

func (g *grid) index(x, y, z int) int {
	return indexing.XyzToIndex(x, y, z, g.width, g.height)
}

func (g *grid) copyFrom(source *grid) error {
	if !g.created || !source.created {
		return ErrNotCreated
	}
	if g.width != source.width || g.height != source.height || g.depth != source.depth {
		return errors.Wrapf(ErrShapeMismatch,
			"width: %d/%d, height: %d/%d, depth: %d/%d",
			g.width, source.width, g.height, source.height, g.depth, source.depth)
	}
	copy(g.data, source.data)
	return nil
}
