package chunk

import (
	"sync"
	"testing"

	"VoxelTerrain/internal/indexing"
	"VoxelTerrain/internal/marching"
	"VoxelTerrain/internal/mesh"
	"VoxelTerrain/internal/volume"

	"github.com/alitto/pond/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

func sphereChunk(t *testing.T, coordinate indexing.Int3, size int) *Chunk {
	t.Helper()
	densities, err := volume.NewCubicDensityVolume(size+1, volume.Persistent)
	if err != nil {
		t.Fatalf("NewCubicDensityVolume failed: %v", err)
	}
	center := mgl32.Vec3{float32(size) / 2, float32(size)/2 + 0.3, float32(size) / 2}
	radius := float32(size) / 3
	for index := 0; index < densities.Length(); index++ {
		p := indexing.IndexToXyz(index, size+1, size+1).ToVec3()
		densities.SetDensity((p.Sub(center).Len()-radius)/4, index)
	}
	return New(coordinate, size, densities)
}

func TestGenerateMesh(t *testing.T) {
	sink := mesh.NewMemorySink()
	g := NewGenerator(sink, 0, WithWorkers(4), WithBatchSize(64))
	defer g.Close()

	c := sphereChunk(t, indexing.Int3{X: 2, Y: 0, Z: -1}, 16)
	if err := g.GenerateMesh(c); err != nil {
		t.Fatalf("GenerateMesh failed: %v", err)
	}

	if c.HasChanges() {
		t.Error("GenerateMesh should clear the change flag")
	}

	m, ok := sink.Get(c.Coordinate)
	if !ok {
		t.Fatal("Mesh was not submitted to the sink")
	}
	if m != c.Mesh() {
		t.Error("Chunk should keep the submitted mesh")
	}
	if m.Name != "Chunk_2_0_-1" {
		t.Errorf("Expected mesh name Chunk_2_0_-1, got %s", m.Name)
	}
	if m.Origin != (mgl32.Vec3{32, 0, -16}) {
		t.Errorf("Expected origin (32,0,-16), got %v", m.Origin)
	}
	if m.IsEmpty() {
		t.Fatal("Sphere chunk should produce triangles")
	}
	if m.VertexCount()%3 != 0 {
		t.Errorf("Vertex count %d is not a multiple of 3", m.VertexCount())
	}
	if m.VertexCount() > marching.MaxVertexCount(16) {
		t.Errorf("Vertex count %d exceeds bound", m.VertexCount())
	}
	if len(m.Indices) != m.VertexCount() {
		t.Errorf("Expected %d indices, got %d", m.VertexCount(), len(m.Indices))
	}
	if cap(m.Vertices) != m.VertexCount() {
		t.Errorf("Vertex buffer should be truncated to %d, has capacity %d", m.VertexCount(), cap(m.Vertices))
	}
	if m.BoundingSphereRadius <= 0 {
		t.Error("Mesh bounds were not computed")
	}
}

func TestGenerateMeshBatchSizeDoesNotChangeOutput(t *testing.T) {
	var counts []int
	for _, batchSize := range []int{1, 7, 128, 100000} {
		sink := mesh.NewMemorySink()
		g := NewGenerator(sink, 0, WithBatchSize(batchSize))
		c := sphereChunk(t, indexing.Int3{}, 12)
		if err := g.GenerateMesh(c); err != nil {
			t.Fatalf("GenerateMesh with batch size %d failed: %v", batchSize, err)
		}
		counts = append(counts, c.Mesh().VertexCount())
		g.Close()
	}
	for i := 1; i < len(counts); i++ {
		if counts[i] != counts[0] {
			t.Errorf("Vertex counts differ between batch sizes: %v", counts)
		}
	}
}

func TestGenerateMeshEmptyChunk(t *testing.T) {
	sink := mesh.NewMemorySink()
	g := NewGenerator(sink, 0)
	defer g.Close()

	densities, _ := volume.NewCubicDensityVolume(9, volume.Persistent)
	c := New(indexing.Int3{}, 8, densities)
	if err := g.GenerateMesh(c); err != nil {
		t.Fatalf("GenerateMesh failed: %v", err)
	}
	if !c.Mesh().IsEmpty() {
		t.Errorf("Expected empty mesh, got %d vertices", c.Mesh().VertexCount())
	}
	if c.HasChanges() {
		t.Error("Empty chunk should still clear the change flag")
	}
}

func TestGenerateMeshWrongVolumeSize(t *testing.T) {
	g := NewGenerator(mesh.NewMemorySink(), 0)
	defer g.Close()

	densities, _ := volume.NewCubicDensityVolume(8, volume.Persistent)
	c := New(indexing.Int3{}, 8, densities)
	err := g.GenerateMesh(c)
	if !errors.Is(err, marching.ErrVolumeSize) {
		t.Errorf("Expected ErrVolumeSize, got %v", err)
	}
	if !c.HasChanges() {
		t.Error("Failed generation should keep the change flag")
	}
}

func TestGenerateMeshSinkFailure(t *testing.T) {
	sinkErr := errors.New("upload failed")
	g := NewGenerator(mesh.SinkFunc(func(*mesh.Mesh) error { return sinkErr }), 0)
	defer g.Close()

	c := sphereChunk(t, indexing.Int3{}, 8)
	err := g.GenerateMesh(c)
	if !errors.Is(err, sinkErr) {
		t.Errorf("Expected sink error, got %v", err)
	}
	if !c.HasChanges() {
		t.Error("Failed submission should keep the change flag")
	}
	if c.Mesh() != nil {
		t.Error("Failed submission should not store a mesh")
	}
}

// countReleases swaps in a release hook that counts calls.
func countReleases(t *testing.T) *int32 {
	t.Helper()
	var released int32
	previous := releaseExtractor
	releaseExtractor = func(e *marching.Extractor) {
		released++
		previous(e)
	}
	t.Cleanup(func() { releaseExtractor = previous })
	return &released
}

func TestGenerateMeshReleasesOnSinkFailure(t *testing.T) {
	released := countReleases(t)
	g := NewGenerator(mesh.SinkFunc(func(*mesh.Mesh) error { return errors.New("upload failed") }), 0)
	defer g.Close()

	if err := g.GenerateMesh(sphereChunk(t, indexing.Int3{}, 8)); err == nil {
		t.Fatal("Expected sink error")
	}
	if *released != 1 {
		t.Errorf("Expected 1 release, got %d", *released)
	}
}

func TestGenerateMeshReleasesOnPanickingBatch(t *testing.T) {
	released := countReleases(t)
	var finished atomic.Int32
	previous := executeBatch
	executeBatch = func(e *marching.Extractor, from, to int) {
		if from == 0 {
			panic("batch failed")
		}
		previous(e, from, to)
		finished.Inc()
	}
	defer func() { executeBatch = previous }()

	sink := mesh.NewMemorySink()
	g := NewGenerator(sink, 0, WithWorkers(4), WithBatchSize(64))
	defer g.Close()

	c := sphereChunk(t, indexing.Int3{}, 8)
	if err := g.GenerateMesh(c); err == nil {
		t.Fatal("Expected an error from the panicking batch")
	}
	if *released != 1 {
		t.Errorf("Expected 1 release, got %d", *released)
	}
	// 8^3 cells in batches of 64, one of which panicked.
	if finished.Load() != 7 {
		t.Errorf("Expected the other 7 batches to finish before returning, got %d", finished.Load())
	}
	if !c.HasChanges() {
		t.Error("Failed extraction should keep the change flag")
	}
	if sink.Len() != 0 {
		t.Error("Failed extraction should not submit a mesh")
	}
}

func TestGenerateChanged(t *testing.T) {
	sink := mesh.NewMemorySink()
	g := NewGenerator(sink, 0)
	defer g.Close()

	changed := sphereChunk(t, indexing.Int3{X: 0}, 8)
	unchanged := sphereChunk(t, indexing.Int3{X: 1}, 8)
	unchanged.clearChanges()
	broken := New(indexing.Int3{X: 2}, 8, nil)

	meshed, err := g.GenerateChanged([]*Chunk{changed, unchanged, broken})
	if meshed != 1 {
		t.Errorf("Expected 1 chunk meshed, got %d", meshed)
	}
	if !errors.Is(err, volume.ErrNotCreated) {
		t.Errorf("Expected ErrNotCreated from the broken chunk, got %v", err)
	}
	if sink.Len() != 1 {
		t.Errorf("Expected 1 mesh in sink, got %d", sink.Len())
	}
	if _, ok := sink.Get(unchanged.Coordinate); ok {
		t.Error("Unchanged chunk should not be meshed")
	}
}

func TestGeneratorSharedPool(t *testing.T) {
	pool := pond.NewPool(2)
	defer pool.StopAndWait()

	sink := mesh.NewMemorySink()
	g := NewGenerator(sink, 0, WithPool(pool))

	chunks := make([]*Chunk, 4)
	for x := range chunks {
		chunks[x] = sphereChunk(t, indexing.Int3{X: x}, 8)
	}

	var wg sync.WaitGroup
	for _, c := range chunks {
		wg.Add(1)
		go func(c *Chunk) {
			defer wg.Done()
			if err := g.GenerateMesh(c); err != nil {
				t.Errorf("GenerateMesh failed: %v", err)
			}
		}(c)
	}
	wg.Wait()
	g.Close()

	if sink.Len() != 4 {
		t.Errorf("Expected 4 meshes, got %d", sink.Len())
	}

	// Close must leave a caller owned pool usable.
	task := pool.Submit(func() {})
	if err := task.Wait(); err != nil {
		t.Errorf("Pool should still accept tasks after Close: %v", err)
	}
}
