package density

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"VoxelTerrain/internal/indexing"
	"VoxelTerrain/internal/logger"
	"VoxelTerrain/internal/volume"

	"github.com/Tnze/go-mc/nbt"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	storeVersion   = 1
	storeExtension = ".nbt.gz"
)

// ErrChunkSizeMismatch is returned when a store is asked for, or loads, a
// chunk of a different size than it was created with.
var ErrChunkSizeMismatch = errors.New("chunk size mismatch")

// chunkRecord is the NBT layout of one stored chunk volume.
type chunkRecord struct {
	Version   int32  `nbt:"Version"`
	X         int32  `nbt:"X"`
	Y         int32  `nbt:"Y"`
	Z         int32  `nbt:"Z"`
	ChunkSize int32  `nbt:"ChunkSize"`
	Densities []byte `nbt:"Densities"`
}

// Store keeps editable density volumes per chunk. Chunks are generated from
// the fallback provider the first time they are requested. Border samples
// are duplicated in every chunk that contains them and edits keep the copies
// in sync.
type Store struct {
	chunkSize int
	fallback  Provider

	mu      sync.RWMutex
	volumes map[indexing.Int3]*volume.DensityVolume
}

// NewStore creates an empty store. fallback may be nil, in which case new
// chunks start fully outside the surface.
func NewStore(chunkSize int, fallback Provider) *Store {
	return &Store{
		chunkSize: chunkSize,
		fallback:  fallback,
		volumes:   make(map[indexing.Int3]*volume.DensityVolume),
	}
}

// ChunkSize returns the number of cells per chunk axis.
func (s *Store) ChunkSize() int {
	return s.chunkSize
}

// DensityChunk returns the stored volume for a chunk. The store keeps
// ownership; callers must not dispose it.
func (s *Store) DensityChunk(coordinate indexing.Int3, chunkSize int) (*volume.DensityVolume, error) {
	if chunkSize != s.chunkSize {
		return nil, errors.Wrapf(ErrChunkSizeMismatch, "store has %d, requested %d", s.chunkSize, chunkSize)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreate(coordinate)
}

func (s *Store) getOrCreate(coordinate indexing.Int3) (*volume.DensityVolume, error) {
	if v, ok := s.volumes[coordinate]; ok {
		return v, nil
	}

	var v *volume.DensityVolume
	var err error
	if s.fallback != nil {
		v, err = s.fallback.DensityChunk(coordinate, s.chunkSize)
	} else {
		v, err = volume.NewCubicDensityVolume(s.chunkSize+1, volume.Persistent)
		if err == nil {
			Fill(v, indexing.Int3{}, Constant(1))
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "generate chunk %v", coordinate)
	}
	s.volumes[coordinate] = v
	return v, nil
}

// ContainingChunks returns every chunk whose volume holds the sample at a
// world position. Samples on a chunk border belong to up to eight chunks.
func ContainingChunks(worldPosition indexing.Int3, chunkSize int) []indexing.Int3 {
	var axes [3][]int
	for axis, p := range [3]int{worldPosition.X, worldPosition.Y, worldPosition.Z} {
		c := floorDiv(p, chunkSize)
		axes[axis] = []int{c}
		if p-c*chunkSize == 0 {
			axes[axis] = append(axes[axis], c-1)
		}
	}

	coordinates := make([]indexing.Int3, 0, 8)
	for _, x := range axes[0] {
		for _, y := range axes[1] {
			for _, z := range axes[2] {
				coordinates = append(coordinates, indexing.Int3{X: x, Y: y, Z: z})
			}
		}
	}
	return coordinates
}

// SetDensity edits the sample at a world position in every chunk that holds
// it and returns those chunk coordinates.
func (s *Store) SetDensity(worldPosition indexing.Int3, density float32) ([]indexing.Int3, error) {
	coordinates := ContainingChunks(worldPosition, s.chunkSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, coordinate := range coordinates {
		v, err := s.getOrCreate(coordinate)
		if err != nil {
			return nil, err
		}
		v.SetDensityInt3(density, worldPosition.Sub(coordinate.Mul(s.chunkSize)))
	}
	return coordinates, nil
}

// GetDensity returns the sample at a world position.
func (s *Store) GetDensity(worldPosition indexing.Int3) (float32, error) {
	coordinate := ContainingChunks(worldPosition, s.chunkSize)[0]

	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.getOrCreate(coordinate)
	if err != nil {
		return 0, err
	}
	return v.GetDensityInt3(worldPosition.Sub(coordinate.Mul(s.chunkSize))), nil
}

// Coordinates returns the coordinates of every loaded chunk in a stable
// order.
func (s *Store) Coordinates() []indexing.Int3 {
	s.mu.RLock()
	coordinates := make([]indexing.Int3, 0, len(s.volumes))
	for coordinate := range s.volumes {
		coordinates = append(coordinates, coordinate)
	}
	s.mu.RUnlock()

	sort.Slice(coordinates, func(i, j int) bool {
		a, b := coordinates[i], coordinates[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return coordinates
}

// Save writes every loaded chunk to dir as gzip compressed NBT.
func (s *Store) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var err error
	for coordinate, v := range s.volumes {
		path := filepath.Join(dir, chunkFileName(coordinate))
		err = multierr.Append(err, writeChunkFile(path, coordinate, s.chunkSize, v))
	}
	if err == nil {
		logger.Log.Info("Density store saved", zap.String("dir", dir), zap.Int("chunks", len(s.volumes)))
	}
	return err
}

// Load reads every chunk file in dir, replacing chunks already in memory.
func (s *Store) Load(dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+storeExtension))
	if err != nil {
		return errors.Wrapf(err, "list %s", dir)
	}

	loaded := make(map[indexing.Int3]*volume.DensityVolume, len(paths))
	for _, path := range paths {
		coordinate, v, readErr := readChunkFile(path, s.chunkSize)
		if readErr != nil {
			err = multierr.Append(err, readErr)
			continue
		}
		loaded[coordinate] = v
	}
	if err != nil {
		for _, v := range loaded {
			v.Dispose()
		}
		return err
	}

	s.mu.Lock()
	for coordinate, v := range loaded {
		if old, ok := s.volumes[coordinate]; ok {
			old.Dispose()
		}
		s.volumes[coordinate] = v
	}
	s.mu.Unlock()

	logger.Log.Info("Density store loaded", zap.String("dir", dir), zap.Int("chunks", len(loaded)))
	return nil
}

// Close releases every stored volume.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for coordinate, v := range s.volumes {
		v.Dispose()
		delete(s.volumes, coordinate)
	}
}

func chunkFileName(coordinate indexing.Int3) string {
	return fmt.Sprintf("chunk_%d_%d_%d%s", coordinate.X, coordinate.Y, coordinate.Z, storeExtension)
}

func writeChunkFile(path string, coordinate indexing.Int3, chunkSize int, v *volume.DensityVolume) error {
	data, err := nbt.Marshal(chunkRecord{
		Version:   storeVersion,
		X:         int32(coordinate.X),
		Y:         int32(coordinate.Y),
		Z:         int32(coordinate.Z),
		ChunkSize: int32(chunkSize),
		Densities: v.Bytes(),
	})
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	gz := gzip.NewWriter(f)
	_, err = gz.Write(data)
	err = multierr.Combine(err, gz.Close(), f.Close())
	return errors.Wrapf(err, "write %s", path)
}

func readChunkFile(path string, chunkSize int) (indexing.Int3, *volume.DensityVolume, error) {
	f, err := os.Open(path)
	if err != nil {
		return indexing.Int3{}, nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	record, err := decodeChunkRecord(bufio.NewReader(f))
	if err != nil {
		return indexing.Int3{}, nil, errors.Wrapf(err, "decode %s", path)
	}
	if record.Version != storeVersion {
		return indexing.Int3{}, nil, errors.Errorf("%s: unsupported version %d", path, record.Version)
	}
	if int(record.ChunkSize) != chunkSize {
		return indexing.Int3{}, nil, errors.Wrapf(ErrChunkSizeMismatch, "%s has chunk size %d, store has %d", path, record.ChunkSize, chunkSize)
	}

	v, err := volume.NewCubicDensityVolume(chunkSize+1, volume.Persistent)
	if err != nil {
		return indexing.Int3{}, nil, err
	}
	if err := v.LoadBytes(record.Densities); err != nil {
		v.Dispose()
		return indexing.Int3{}, nil, errors.Wrapf(err, "load %s", path)
	}

	coordinate := indexing.Int3{X: int(record.X), Y: int(record.Y), Z: int(record.Z)}
	return coordinate, v, nil
}

func decodeChunkRecord(r io.Reader) (chunkRecord, error) {
	var record chunkRecord
	gz, err := gzip.NewReader(r)
	if err != nil {
		return record, err
	}
	defer gz.Close()
	_, err = nbt.NewDecoder(gz).Decode(&record)
	return record, err
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
