// Package marching extracts triangle surfaces from chunk density volumes
// with the marching cubes algorithm.
package marching

import (
	"math"
	"sync"

	"VoxelTerrain/internal/indexing"
	"VoxelTerrain/internal/mesh"
	"VoxelTerrain/internal/volume"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

const (
	// MaxTrianglesPerCell is the largest triangle count of any table entry.
	MaxTrianglesPerCell = 5

	// MaxChunkSize keeps the worst case vertex count addressable by 16-bit
	// indices.
	MaxChunkSize = 16

	interpolationEpsilon = 1e-5
)

var (
	// ErrVolumeSize is returned when a density volume is not sized
	// (chunkSize+1) on every axis.
	ErrVolumeSize = errors.New("density volume does not match chunk size")

	// ErrChunkSize is returned for chunk sizes outside [1, MaxChunkSize].
	ErrChunkSize = errors.New("chunk size out of range")
)

// MaxVertexCount is the worst case vertex count of a chunk.
func MaxVertexCount(chunkSize int) int {
	return MaxTrianglesPerCell * 3 * chunkSize * chunkSize * chunkSize
}

// Extractor triangulates the cells of one chunk. Execute may be called
// concurrently for distinct cells; output slots are claimed with an atomic
// counter so no further locking is needed.
type Extractor struct {
	volume    *volume.DensityVolume
	isolevel  float32
	chunkSize int

	vertices []mesh.Vertex
	indices  []uint16
	counter  *atomic.Int32
}

// NewExtractor prepares output buffers sized for the worst case. The volume
// must stay unmodified until the extractor is released.
func NewExtractor(densities *volume.DensityVolume, isolevel float32, chunkSize int) (*Extractor, error) {
	if chunkSize < 1 || chunkSize > MaxChunkSize {
		return nil, errors.Wrapf(ErrChunkSize, "chunk size %d", chunkSize)
	}
	if densities == nil || !densities.IsCreated() {
		return nil, volume.ErrNotCreated
	}
	expected := chunkSize + 1
	if densities.Width() != expected || densities.Height() != expected || densities.Depth() != expected {
		return nil, errors.Wrapf(ErrVolumeSize, "got %v, want %d per axis", densities.Size(), expected)
	}

	buffers := acquireBuffers(chunkSize)
	return &Extractor{
		volume:    densities,
		isolevel:  isolevel,
		chunkSize: chunkSize,
		vertices:  buffers.vertices,
		indices:   buffers.indices,
		counter:   atomic.NewInt32(0),
	}, nil
}

// CellCount returns the number of cells in the chunk.
func (e *Extractor) CellCount() int {
	return e.chunkSize * e.chunkSize * e.chunkSize
}

// Execute triangulates a single cell, x fastest.
func (e *Extractor) Execute(cellIndex int) {
	cell := indexing.IndexToXyz(cellIndex, e.chunkSize, e.chunkSize)

	var densities VoxelCorners[float32]
	cubeIndex := 0
	for i := 0; i < CornerCount; i++ {
		offset := cornerOffsets[i]
		density := e.volume.GetDensityAt(cell.X+offset[0], cell.Y+offset[1], cell.Z+offset[2])
		densities.Set(i, density)
		if density < e.isolevel {
			cubeIndex |= 1 << i
		}
	}
	if cubeIndex == 0 || cubeIndex == 255 {
		return
	}

	origin := cell.ToVec3()
	crossed := edgeTable[cubeIndex]
	var vertexList VertexList
	for edge := 0; edge < EdgeCount; edge++ {
		if crossed&(1<<edge) == 0 {
			continue
		}
		a, b := edgeCorners[edge][0], edgeCorners[edge][1]
		vertexList.Set(edge, interpolate(
			origin.Add(cornerPosition(a)),
			origin.Add(cornerPosition(b)),
			densities.At(a),
			densities.At(b),
			e.isolevel,
		))
	}

	row := &triangleTable[cubeIndex]
	for i := 0; row[i] != -1; i += 3 {
		a := vertexList.At(int(row[i]))
		b := vertexList.At(int(row[i+1]))
		c := vertexList.At(int(row[i+2]))
		e.emit(a, c, b)
	}
}

// ExecuteRange triangulates cells [start, end).
func (e *Extractor) ExecuteRange(start, end int) {
	for cellIndex := start; cellIndex < end; cellIndex++ {
		e.Execute(cellIndex)
	}
}

// emit writes one triangle into the next free slot. The winding a, b, c is
// counter-clockwise seen from the side of higher density.
func (e *Extractor) emit(a, b, c mgl32.Vec3) {
	normal := triangleNormal(a, b, c)
	slot := int(e.counter.Inc()) - 1
	base := slot * 3

	e.vertices[base] = mesh.Vertex{Position: a, Normal: normal}
	e.vertices[base+1] = mesh.Vertex{Position: b, Normal: normal}
	e.vertices[base+2] = mesh.Vertex{Position: c, Normal: normal}

	e.indices[base] = uint16(base)
	e.indices[base+1] = uint16(base + 1)
	e.indices[base+2] = uint16(base + 2)
}

// TriangleCount returns the number of triangles written so far.
func (e *Extractor) TriangleCount() int {
	return int(e.counter.Load())
}

// VertexCount returns the number of vertices written so far. Only read it
// after every Execute call has returned.
func (e *Extractor) VertexCount() int {
	return e.TriangleCount() * 3
}

// Vertices returns the written part of the vertex buffer. The slice aliases
// scratch memory that is reused after Release.
func (e *Extractor) Vertices() []mesh.Vertex {
	return e.vertices[:e.VertexCount()]
}

// Indices returns the written part of the index buffer. The slice aliases
// scratch memory that is reused after Release.
func (e *Extractor) Indices() []uint16 {
	return e.indices[:e.VertexCount()]
}

// Release returns the output buffers to the pool. It is safe to call more
// than once.
func (e *Extractor) Release() {
	if e.vertices == nil {
		return
	}
	releaseBuffers(e.chunkSize, &outputBuffers{vertices: e.vertices, indices: e.indices})
	e.vertices = nil
	e.indices = nil
	e.counter = nil
	e.volume = nil
}

func cornerPosition(corner int) mgl32.Vec3 {
	offset := cornerOffsets[corner]
	return mgl32.Vec3{float32(offset[0]), float32(offset[1]), float32(offset[2])}
}

func interpolate(p1, p2 mgl32.Vec3, d1, d2, isolevel float32) mgl32.Vec3 {
	var t float32
	if delta := d2 - d1; math.Abs(float64(delta)) >= interpolationEpsilon {
		t = (isolevel - d1) / delta
	}
	return p1.Add(p2.Sub(p1).Mul(t))
}

func triangleNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	normal := b.Sub(a).Cross(c.Sub(a))
	if normal.LenSqr() == 0 {
		return mgl32.Vec3{}
	}
	return normal.Normalize()
}

type outputBuffers struct {
	vertices []mesh.Vertex
	indices  []uint16
}

var outputPools sync.Map // chunk size -> *sync.Pool of *outputBuffers

func bufferPool(chunkSize int) *sync.Pool {
	if p, ok := outputPools.Load(chunkSize); ok {
		return p.(*sync.Pool)
	}
	p, _ := outputPools.LoadOrStore(chunkSize, &sync.Pool{
		New: func() interface{} {
			n := MaxVertexCount(chunkSize)
			return &outputBuffers{
				vertices: make([]mesh.Vertex, n),
				indices:  make([]uint16, n),
			}
		},
	})
	return p.(*sync.Pool)
}

func acquireBuffers(chunkSize int) *outputBuffers {
	return bufferPool(chunkSize).Get().(*outputBuffers)
}

func releaseBuffers(chunkSize int, buffers *outputBuffers) {
	bufferPool(chunkSize).Put(buffers)
}
