// Package volume stores quantized 3D sample grids.
//
// Samples are one byte each. A density in [-1, 1] is stored as
// round(127.5*(d+1)) and read back as b/127.5 - 1, so a round trip is off by
// at most half a quantization step.
package volume

import (
	"math"

	"VoxelTerrain/internal/indexing"

	"github.com/go-gl/mathgl/mgl32"
)

// DensityVolume is a width*height*depth grid of densities in [-1, 1].
// The zero value is not created; check IsCreated before use.
type DensityVolume struct {
	grid
}

// NewDensityVolume allocates a volume whose densities all read -1.
func NewDensityVolume(width, height, depth int, allocator Allocator) (*DensityVolume, error) {
	g, err := newGrid(width, height, depth, allocator)
	if err != nil {
		return nil, err
	}
	return &DensityVolume{grid: g}, nil
}

// NewCubicDensityVolume allocates a size*size*size volume.
func NewCubicDensityVolume(size int, allocator Allocator) (*DensityVolume, error) {
	return NewDensityVolume(size, size, size, allocator)
}

// NewDensityVolumeSize allocates a volume of the given 3D size.
func NewDensityVolumeSize(size indexing.Int3, allocator Allocator) (*DensityVolume, error) {
	return NewDensityVolume(size.X, size.Y, size.Z, allocator)
}

// SetDensity stores density at a linear index, clamped to [-1, 1].
func (v *DensityVolume) SetDensity(density float32, index int) {
	v.data[index] = EncodeDensity(density)
}

// SetDensityAt stores density at (x, y, z).
func (v *DensityVolume) SetDensityAt(density float32, x, y, z int) {
	v.SetDensity(density, v.index(x, y, z))
}

// SetDensityInt3 stores density at a local position.
func (v *DensityVolume) SetDensityInt3(density float32, localPosition indexing.Int3) {
	v.SetDensityAt(density, localPosition.X, localPosition.Y, localPosition.Z)
}

// GetDensity reads the density at a linear index.
func (v *DensityVolume) GetDensity(index int) float32 {
	return DecodeDensity(v.data[index])
}

// GetDensityAt reads the density at (x, y, z).
func (v *DensityVolume) GetDensityAt(x, y, z int) float32 {
	return v.GetDensity(v.index(x, y, z))
}

// GetDensityInt3 reads the density at a local position.
func (v *DensityVolume) GetDensityInt3(localPosition indexing.Int3) float32 {
	return v.GetDensityAt(localPosition.X, localPosition.Y, localPosition.Z)
}

// CopyFrom copies every density from source. The volumes must have the
// same dimensions; on mismatch v is left untouched.
func (v *DensityVolume) CopyFrom(source *DensityVolume) error {
	return v.copyFrom(&source.grid)
}

// EncodeDensity quantizes a density to a byte. NaN encodes as 0 (-1).
func EncodeDensity(density float32) byte {
	if density != density {
		return 0
	}
	clamped := mgl32.Clamp(density, -1, 1)
	return byte(math.Round(127.5 * float64(clamped+1)))
}

// DecodeDensity maps a stored byte back to [-1, 1].
func DecodeDensity(b byte) float32 {
	return float32(b)/127.5 - 1
}
