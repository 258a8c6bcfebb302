package chunk

import (
	"testing"

	"VoxelTerrain/internal/indexing"
	"VoxelTerrain/internal/volume"

	"github.com/go-gl/mathgl/mgl32"
)

func TestChunkName(t *testing.T) {
	c := New(indexing.Int3{X: 1, Y: -2, Z: 3}, 16, nil)
	if c.Name() != "Chunk_1_-2_3" {
		t.Errorf("Expected Chunk_1_-2_3, got %s", c.Name())
	}
}

func TestChunkOrigin(t *testing.T) {
	c := New(indexing.Int3{X: 1, Y: -2, Z: 3}, 16, nil)
	expected := mgl32.Vec3{16, -32, 48}
	if c.Origin() != expected {
		t.Errorf("Expected origin %v, got %v", expected, c.Origin())
	}
}

func TestChunkChangeFlag(t *testing.T) {
	c := New(indexing.Int3{}, 8, nil)
	if !c.HasChanges() {
		t.Error("New chunk should need meshing")
	}
	c.clearChanges()
	if c.HasChanges() {
		t.Error("Flag should be cleared")
	}
	c.MarkChanged()
	if !c.HasChanges() {
		t.Error("MarkChanged should set the flag")
	}
}

func TestChunkDispose(t *testing.T) {
	densities, err := volume.NewCubicDensityVolume(9, volume.Scratch)
	if err != nil {
		t.Fatalf("NewCubicDensityVolume failed: %v", err)
	}
	defer densities.Dispose()

	c := New(indexing.Int3{}, 8, densities)
	c.Dispose()
	if !densities.IsCreated() {
		t.Error("Dispose should leave the density volume to its owner")
	}
	if !c.IsDisposed() {
		t.Error("Chunk should report itself disposed")
	}
	if c.Mesh() != nil {
		t.Error("Dispose should drop the mesh")
	}
}
