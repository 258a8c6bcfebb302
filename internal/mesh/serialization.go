package mesh

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"io"

	"VoxelTerrain/internal/indexing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

const (
	binaryMagic   = uint32(0x4D455348) // "MESH"
	binaryVersion = uint32(2)

	// maxNameLength guards the decoder against corrupt length prefixes.
	maxNameLength = 1 << 12
)

// ErrInvalidMeshData is returned when a binary mesh cannot be decoded.
var ErrInvalidMeshData = errors.New("invalid mesh data")

// EncodeBinary writes a mesh in the gzip compressed MESH format.
func EncodeBinary(m *Mesh) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteBinary(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteBinary streams a mesh in the gzip compressed MESH format.
func WriteBinary(w io.Writer, m *Mesh) error {
	gzWriter := gzip.NewWriter(w)

	header := []interface{}{
		binaryMagic,
		binaryVersion,
		int32(m.Coordinate.X), int32(m.Coordinate.Y), int32(m.Coordinate.Z),
		[3]float32(m.Origin),
	}
	for _, field := range header {
		if err := binary.Write(gzWriter, binary.LittleEndian, field); err != nil {
			return errors.Wrap(err, "write mesh header")
		}
	}

	if err := writeString(gzWriter, m.Name); err != nil {
		return err
	}
	if err := writeFloat32Slice(gzWriter, m.InterleavedData()); err != nil {
		return errors.Wrap(err, "write mesh vertices")
	}
	if err := writeUint16Slice(gzWriter, m.Indices); err != nil {
		return errors.Wrap(err, "write mesh indices")
	}

	return errors.Wrap(gzWriter.Close(), "close mesh writer")
}

// DecodeBinary decodes a mesh written by EncodeBinary and recomputes its
// bounds.
func DecodeBinary(data []byte) (*Mesh, error) {
	return ReadBinary(bytes.NewReader(data))
}

// ReadBinary decodes a mesh written by WriteBinary.
func ReadBinary(r io.Reader) (*Mesh, error) {
	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gzip reader")
	}
	defer gzReader.Close()

	var magic uint32
	if err := binary.Read(gzReader, binary.LittleEndian, &magic); err != nil {
		return nil, errors.Wrap(err, "read mesh magic")
	}
	if magic != binaryMagic {
		return nil, errors.Wrapf(ErrInvalidMeshData, "invalid mesh file magic: %x", magic)
	}

	var version uint32
	if err := binary.Read(gzReader, binary.LittleEndian, &version); err != nil {
		return nil, errors.Wrap(err, "read mesh version")
	}
	if version != binaryVersion {
		return nil, errors.Wrapf(ErrInvalidMeshData, "unsupported mesh version: %d", version)
	}

	var coordinate [3]int32
	if err := binary.Read(gzReader, binary.LittleEndian, &coordinate); err != nil {
		return nil, errors.Wrap(err, "read mesh coordinate")
	}
	var origin [3]float32
	if err := binary.Read(gzReader, binary.LittleEndian, &origin); err != nil {
		return nil, errors.Wrap(err, "read mesh origin")
	}

	name, err := readString(gzReader)
	if err != nil {
		return nil, err
	}

	interleaved, err := readFloat32Slice(gzReader)
	if err != nil {
		return nil, errors.Wrap(err, "read mesh vertices")
	}
	if len(interleaved)%FloatsPerVertex != 0 {
		return nil, errors.Wrapf(ErrInvalidMeshData, "vertex data length %d is not a multiple of %d", len(interleaved), FloatsPerVertex)
	}

	indices, err := readUint16Slice(gzReader)
	if err != nil {
		return nil, errors.Wrap(err, "read mesh indices")
	}

	vertices := make([]Vertex, len(interleaved)/FloatsPerVertex)
	for i := range vertices {
		f := interleaved[i*FloatsPerVertex : (i+1)*FloatsPerVertex]
		vertices[i] = Vertex{
			Position: mgl32.Vec3{f[0], f[1], f[2]},
			Normal:   mgl32.Vec3{f[3], f[4], f[5]},
		}
	}
	for _, index := range indices {
		if int(index) >= len(vertices) {
			return nil, errors.Wrapf(ErrInvalidMeshData, "index %d out of range for %d vertices", index, len(vertices))
		}
	}

	coord := indexing.Int3{X: int(coordinate[0]), Y: int(coordinate[1]), Z: int(coordinate[2])}
	return New(name, coord, mgl32.Vec3(origin), vertices, indices), nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(s))); err != nil {
		return errors.Wrap(err, "write mesh name")
	}
	_, err := io.WriteString(w, s)
	return errors.Wrap(err, "write mesh name")
}

func readString(r io.Reader) (string, error) {
	var length int32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", errors.Wrap(err, "read mesh name")
	}
	if length < 0 || length > maxNameLength {
		return "", errors.Wrapf(ErrInvalidMeshData, "mesh name length %d", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", errors.Wrap(err, "read mesh name")
	}
	return string(buf), nil
}

// Helper functions for binary encoding
func writeFloat32Slice(w io.Writer, data []float32) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(data))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, data)
}

func writeUint16Slice(w io.Writer, data []uint16) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(data))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, data)
}

func readFloat32Slice(r io.Reader) ([]float32, error) {
	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, errors.Wrapf(ErrInvalidMeshData, "negative length %d", count)
	}
	data := make([]float32, count)
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, err
	}
	return data, nil
}

func readUint16Slice(r io.Reader) ([]uint16, error) {
	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, errors.Wrapf(ErrInvalidMeshData, "negative length %d", count)
	}
	data := make([]uint16, count)
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, err
	}
	return data, nil
}
