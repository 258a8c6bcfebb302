package mesh

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"VoxelTerrain/internal/indexing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestGLTFRoundTrip(t *testing.T) {
	original := triangleMesh()

	var buf bytes.Buffer
	if err := EncodeGLTF(&buf, original); err != nil {
		t.Fatalf("EncodeGLTF failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("glTF")) {
		t.Fatal("Expected binary glTF header")
	}

	meshes, err := DecodeGLTF(&buf)
	if err != nil {
		t.Fatalf("DecodeGLTF failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("Expected 1 mesh, got %d", len(meshes))
	}

	decoded := meshes[0]
	if decoded.Name != original.Name {
		t.Errorf("Name mismatch: got %q, want %q", decoded.Name, original.Name)
	}
	if len(decoded.Vertices) != len(original.Vertices) {
		t.Fatalf("Vertices length mismatch: got %d, want %d", len(decoded.Vertices), len(original.Vertices))
	}
	for i, v := range original.Vertices {
		world := v.Position.Add(original.Origin)
		if !decoded.Vertices[i].Position.ApproxEqual(world) {
			t.Errorf("Vertex %d position: got %v, want %v", i, decoded.Vertices[i].Position, world)
		}
		if !decoded.Vertices[i].Normal.ApproxEqual(v.Normal) {
			t.Errorf("Vertex %d normal: got %v, want %v", i, decoded.Vertices[i].Normal, v.Normal)
		}
	}
	for i, index := range original.Indices {
		if decoded.Indices[i] != index {
			t.Errorf("Index %d: got %d, want %d", i, decoded.Indices[i], index)
		}
	}
}

func TestGLTFNormalsAreUnitLength(t *testing.T) {
	flat := mgl32.Vec3{1, 1, 1}
	m := New("Chunk_0_0_0", indexing.Int3{}, mgl32.Vec3{},
		[]Vertex{
			{Position: mgl32.Vec3{0, 0, 0}, Normal: mgl32.Vec3{0, 0, 2}},
			{Position: mgl32.Vec3{1, 0, 0}, Normal: mgl32.Vec3{0, 0, 2}},
			{Position: mgl32.Vec3{0, 1, 0}, Normal: mgl32.Vec3{0, 0, 2}},
			{Position: flat},
			{Position: flat},
			{Position: flat},
		},
		[]uint16{0, 1, 2, 3, 4, 5})

	var buf bytes.Buffer
	if err := EncodeGLTF(&buf, m); err != nil {
		t.Fatalf("EncodeGLTF failed: %v", err)
	}
	meshes, err := DecodeGLTF(&buf)
	if err != nil {
		t.Fatalf("DecodeGLTF failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("Expected 1 mesh, got %d", len(meshes))
	}
	for i, v := range meshes[0].Vertices {
		if length := v.Normal.Len(); length < 0.999 || length > 1.001 {
			t.Errorf("Vertex %d normal %v has length %f", i, v.Normal, length)
		}
	}
	if meshes[0].Vertices[0].Normal != (mgl32.Vec3{0, 0, 1}) {
		t.Errorf("Expected normalized (0,0,1), got %v", meshes[0].Vertices[0].Normal)
	}
	if m.Vertices[3].Normal != (mgl32.Vec3{}) {
		t.Error("Export should not modify the source mesh")
	}
}

func TestGLTFSinkSkipsEmptyMeshes(t *testing.T) {
	sink := NewGLTFSink()
	sink.Submit(triangleMesh())
	sink.Submit(New("Chunk_0_0_0", indexing.Int3{}, mgl32.Vec3{}, nil, nil))

	second := triangleMesh()
	second.Name = "Chunk_2_0_0"
	sink.Submit(second)

	doc := sink.Document()
	if len(doc.Meshes) != 2 {
		t.Errorf("Expected 2 glTF meshes, got %d", len(doc.Meshes))
	}
	if len(doc.Scenes[0].Nodes) != 2 {
		t.Errorf("Expected 2 scene nodes, got %d", len(doc.Scenes[0].Nodes))
	}
}

func TestGLTFSinkWriteFile(t *testing.T) {
	sink := NewGLTFSink()
	sink.Submit(triangleMesh())

	path := filepath.Join(t.TempDir(), "terrain.glb")
	if err := sink.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	meshes, err := DecodeGLTF(f)
	if err != nil {
		t.Fatalf("DecodeGLTF failed: %v", err)
	}
	if len(meshes) != 1 || meshes[0].TriangleCount() != 1 {
		t.Error("Written file does not contain the submitted triangle")
	}
}
