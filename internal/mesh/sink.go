package mesh

import (
	"sort"
	"sync"

	"VoxelTerrain/internal/indexing"
)

// Sink receives finished chunk meshes. Implementations own the mesh after
// Submit returns.
type Sink interface {
	Submit(m *Mesh) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(m *Mesh) error

func (f SinkFunc) Submit(m *Mesh) error {
	return f(m)
}

// MemorySink keeps the latest mesh per chunk coordinate.
type MemorySink struct {
	mu     sync.RWMutex
	meshes map[indexing.Int3]*Mesh
}

func NewMemorySink() *MemorySink {
	return &MemorySink{meshes: make(map[indexing.Int3]*Mesh)}
}

func (s *MemorySink) Submit(m *Mesh) error {
	s.mu.Lock()
	s.meshes[m.Coordinate] = m
	s.mu.Unlock()
	return nil
}

// Get returns the mesh last submitted for a chunk.
func (s *MemorySink) Get(coordinate indexing.Int3) (*Mesh, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meshes[coordinate]
	return m, ok
}

// Meshes returns every stored mesh ordered by chunk coordinate.
func (s *MemorySink) Meshes() []*Mesh {
	s.mu.RLock()
	meshes := make([]*Mesh, 0, len(s.meshes))
	for _, m := range s.meshes {
		meshes = append(meshes, m)
	}
	s.mu.RUnlock()

	sort.Slice(meshes, func(i, j int) bool {
		a, b := meshes[i].Coordinate, meshes[j].Coordinate
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return meshes
}

// Len returns the number of stored meshes.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meshes)
}
