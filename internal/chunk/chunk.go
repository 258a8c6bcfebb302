// Package chunk ties a density volume to a chunk coordinate and drives
// parallel surface extraction for it.
package chunk

import (
	"fmt"
	"sync"

	"VoxelTerrain/internal/indexing"
	"VoxelTerrain/internal/mesh"
	"VoxelTerrain/internal/volume"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/atomic"
)

// Chunk is a cube of Size cells at a chunk grid coordinate. Its density
// volume holds Size+1 samples per axis.
type Chunk struct {
	Coordinate indexing.Int3
	Size       int
	Densities  *volume.DensityVolume

	hasChanges atomic.Bool

	mu   sync.RWMutex
	mesh *mesh.Mesh
}

// New creates a chunk that still needs meshing.
func New(coordinate indexing.Int3, size int, densities *volume.DensityVolume) *Chunk {
	c := &Chunk{
		Coordinate: coordinate,
		Size:       size,
		Densities:  densities,
	}
	c.hasChanges.Store(true)
	return c
}

// Name returns the chunk name used for meshes and exported files.
func (c *Chunk) Name() string {
	return fmt.Sprintf("Chunk_%d_%d_%d", c.Coordinate.X, c.Coordinate.Y, c.Coordinate.Z)
}

// Origin returns the world position of the chunk's first sample.
func (c *Chunk) Origin() mgl32.Vec3 {
	return c.Coordinate.Mul(c.Size).ToVec3()
}

// HasChanges reports whether the density data changed since the last mesh.
func (c *Chunk) HasChanges() bool {
	return c.hasChanges.Load()
}

// MarkChanged flags the chunk for remeshing.
func (c *Chunk) MarkChanged() {
	c.hasChanges.Store(true)
}

func (c *Chunk) clearChanges() {
	c.hasChanges.Store(false)
}

// Mesh returns the last mesh generated for the chunk, or nil.
func (c *Chunk) Mesh() *mesh.Mesh {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mesh
}

func (c *Chunk) setMesh(m *mesh.Mesh) {
	c.mu.Lock()
	c.mesh = m
	c.mu.Unlock()
}

// Dispose drops the chunk's mesh and its reference to the density volume.
// The volume stays with whoever created it.
func (c *Chunk) Dispose() {
	c.Densities = nil
	c.setMesh(nil)
}

// IsDisposed reports whether Dispose was called.
func (c *Chunk) IsDisposed() bool {
	return c.Densities == nil
}
