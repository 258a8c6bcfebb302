package mesh

import (
	"io"
	"math"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// GLTFSink collects chunk meshes into a single glTF scene, one node per
// chunk. Positions are written in world space.
type GLTFSink struct {
	mu  sync.Mutex
	doc *gltf.Document
}

// NewGLTFSink creates a sink holding an empty scene.
func NewGLTFSink() *GLTFSink {
	return &GLTFSink{doc: gltf.NewDocument()}
}

// Submit appends the mesh to the scene. Empty meshes are skipped since glTF
// does not allow zero length accessors.
func (s *GLTFSink) Submit(m *Mesh) error {
	if m.IsEmpty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	appendMesh(s.doc, m)
	return nil
}

// Document returns the collected scene.
func (s *GLTFSink) Document() *gltf.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Encode writes the scene as binary glTF.
func (s *GLTFSink) Encode(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return errors.Wrap(enc.Encode(s.doc), "encode glb")
}

// WriteFile writes the scene to a .glb file.
func (s *GLTFSink) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := s.Encode(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}

// EncodeGLTF writes a single mesh as a binary glTF document.
func EncodeGLTF(w io.Writer, m *Mesh) error {
	sink := NewGLTFSink()
	if err := sink.Submit(m); err != nil {
		return err
	}
	return sink.Encode(w)
}

// DecodeGLTF reads every triangle primitive of a glTF document back into
// meshes. Names come from the owning node.
func DecodeGLTF(r io.Reader) ([]*Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrap(err, "decode gltf")
	}

	meshes := make([]*Mesh, 0, len(doc.Meshes))
	for _, node := range doc.Nodes {
		if node.Mesh == nil {
			continue
		}
		for _, primitive := range doc.Meshes[*node.Mesh].Primitives {
			m, err := readPrimitive(doc, primitive)
			if err != nil {
				return nil, errors.Wrapf(err, "node %s", node.Name)
			}
			m.Name = node.Name
			meshes = append(meshes, m)
		}
	}
	return meshes, nil
}

func appendMesh(doc *gltf.Document, m *Mesh) {
	positions := m.Positions()
	for i := range positions {
		positions[i][0] += m.Origin.X()
		positions[i][1] += m.Origin.Y()
		positions[i][2] += m.Origin.Z()
	}

	positionAccessor := modeler.WritePosition(doc, positions)
	normalAccessor := modeler.WriteNormal(doc, unitNormals(m))
	indicesAccessor := modeler.WriteIndices(doc, m.Indices)

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: m.Name,
		Primitives: []*gltf.Primitive{{
			Indices: gltf.Index(indicesAccessor),
			Attributes: map[string]uint32{
				gltf.POSITION: positionAccessor,
				gltf.NORMAL:   normalAccessor,
			},
		}},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name: m.Name,
		Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
	})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
}

// glTF requires unit normals; zero-area triangles carry a zero normal and
// export as +Y.
func unitNormals(m *Mesh) [][3]float32 {
	normals := make([][3]float32, len(m.Vertices))
	for i, v := range m.Vertices {
		length := v.Normal.Len()
		if length < 1e-6 || math.IsNaN(float64(length)) {
			normals[i] = [3]float32{0, 1, 0}
			continue
		}
		normals[i] = v.Normal.Mul(1 / length)
	}
	return normals
}

func readPrimitive(doc *gltf.Document, primitive *gltf.Primitive) (*Mesh, error) {
	if primitive.Mode != gltf.PrimitiveTriangles {
		return nil, errors.Wrap(ErrInvalidMeshData, "only triangle primitives are supported")
	}
	positionIndex, ok := primitive.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.Wrap(ErrInvalidMeshData, "primitive has no positions")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[positionIndex], nil)
	if err != nil {
		return nil, errors.Wrap(err, "read positions")
	}

	var normals [][3]float32
	if normalIndex, ok := primitive.Attributes[gltf.NORMAL]; ok {
		normals, err = modeler.ReadNormal(doc, doc.Accessors[normalIndex], nil)
		if err != nil {
			return nil, errors.Wrap(err, "read normals")
		}
	}

	vertices := make([]Vertex, len(positions))
	for i, p := range positions {
		vertices[i].Position = p
		if i < len(normals) {
			vertices[i].Normal = normals[i]
		}
	}

	var indices []uint16
	if primitive.Indices != nil {
		raw, err := modeler.ReadIndices(doc, doc.Accessors[*primitive.Indices], nil)
		if err != nil {
			return nil, errors.Wrap(err, "read indices")
		}
		indices = make([]uint16, len(raw))
		for i, index := range raw {
			if int(index) >= len(vertices) || index > 0xFFFF {
				return nil, errors.Wrapf(ErrInvalidMeshData, "index %d out of range", index)
			}
			indices[i] = uint16(index)
		}
	}

	m := &Mesh{Vertices: vertices, Indices: indices}
	m.RecalculateBounds()
	return m, nil
}
