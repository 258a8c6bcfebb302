// Package mesh holds the CPU-side chunk meshes handed to rendering,
// collision and export code, and the sinks that receive them.
package mesh

import (
	"math"

	"VoxelTerrain/internal/indexing"

	"github.com/go-gl/mathgl/mgl32"
)

// FloatsPerVertex is the interleaved layout: position xyz then normal xyz.
const FloatsPerVertex = 6

// Vertex is one entry of a chunk vertex buffer.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
}

// Mesh is a triangle list for one chunk. Positions are chunk-local; Origin
// places the chunk in the world.
type Mesh struct {
	Name       string
	Coordinate indexing.Int3
	Origin     mgl32.Vec3
	Vertices   []Vertex
	Indices    []uint16

	BoundsMin            mgl32.Vec3
	BoundsMax            mgl32.Vec3
	BoundingSphereCenter mgl32.Vec3
	BoundingSphereRadius float32
}

// New builds a mesh that owns the given buffers and computes its bounds.
func New(name string, coordinate indexing.Int3, origin mgl32.Vec3, vertices []Vertex, indices []uint16) *Mesh {
	m := &Mesh{
		Name:       name,
		Coordinate: coordinate,
		Origin:     origin,
		Vertices:   vertices,
		Indices:    indices,
	}
	m.RecalculateBounds()
	return m
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// InterleavedData flattens the vertex buffer into the 6 floats per vertex
// layout uploaded to the GPU.
func (m *Mesh) InterleavedData() []float32 {
	data := make([]float32, 0, len(m.Vertices)*FloatsPerVertex)
	for _, v := range m.Vertices {
		data = append(data,
			v.Position.X(), v.Position.Y(), v.Position.Z(),
			v.Normal.X(), v.Normal.Y(), v.Normal.Z())
	}
	return data
}

// Positions returns the vertex positions as plain arrays.
func (m *Mesh) Positions() [][3]float32 {
	positions := make([][3]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		positions[i] = v.Position
	}
	return positions
}

// Normals returns the vertex normals as plain arrays.
func (m *Mesh) Normals() [][3]float32 {
	normals := make([][3]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		normals[i] = v.Normal
	}
	return normals
}

// RecalculateBounds refreshes the axis aligned box and the bounding sphere
// from the current vertices. Both are chunk-local.
func (m *Mesh) RecalculateBounds() {
	if len(m.Vertices) == 0 {
		m.BoundsMin = mgl32.Vec3{}
		m.BoundsMax = mgl32.Vec3{}
		m.BoundingSphereCenter = mgl32.Vec3{}
		m.BoundingSphereRadius = 0
		return
	}

	minV := m.Vertices[0].Position
	maxV := minV
	var center mgl32.Vec3
	for _, v := range m.Vertices {
		p := v.Position
		for axis := 0; axis < 3; axis++ {
			minV[axis] = float32(math.Min(float64(minV[axis]), float64(p[axis])))
			maxV[axis] = float32(math.Max(float64(maxV[axis]), float64(p[axis])))
		}
		center = center.Add(p)
	}
	center = center.Mul(1.0 / float32(len(m.Vertices)))

	var maxDistanceSq float32
	for _, v := range m.Vertices {
		distanceSq := v.Position.Sub(center).LenSqr()
		if distanceSq > maxDistanceSq {
			maxDistanceSq = distanceSq
		}
	}

	m.BoundsMin = minV
	m.BoundsMax = maxV
	m.BoundingSphereCenter = center
	m.BoundingSphereRadius = float32(math.Sqrt(float64(maxDistanceSq)))
}
