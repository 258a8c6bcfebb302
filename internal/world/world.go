// Package world owns the chunks of a terrain, keeps them in sync with the
// density store and remeshes the ones that changed.
package world

import (
	"os"
	"sort"
	"sync"
	"time"

	"VoxelTerrain/internal/chunk"
	"VoxelTerrain/internal/density"
	"VoxelTerrain/internal/indexing"
	"VoxelTerrain/internal/logger"
	"VoxelTerrain/internal/mesh"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// World owns the density store and the loaded chunks, and remeshes the
// chunks whose densities changed. Chunks disposed by callers are unloaded
// on the next access and recreated from the store on demand.
type World struct {
	Config Config

	store     *density.Store
	generator *chunk.Generator

	mu     sync.Mutex
	chunks map[indexing.Int3]*chunk.Chunk
}

// New creates a world whose chunks are generated from the configured density
// field, or loaded from Config.StoreDir when it holds saved chunks. Meshes
// are handed to sink.
func New(config Config, sink mesh.Sink) (*World, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	field, err := config.Density.Func()
	if err != nil {
		return nil, err
	}

	store := density.NewStore(config.ChunkSize, density.NewFunctionProvider(field))
	if config.StoreDir != "" {
		if _, statErr := os.Stat(config.StoreDir); statErr == nil {
			if err := store.Load(config.StoreDir); err != nil {
				store.Close()
				return nil, errors.Wrap(err, "load density store")
			}
		}
	}

	world := &World{
		Config: config,
		store:  store,
		generator: chunk.NewGenerator(sink, config.Isolevel,
			chunk.WithBatchSize(config.BatchSize),
			chunk.WithWorkers(config.Workers)),
		chunks: make(map[indexing.Int3]*chunk.Chunk),
	}

	logger.Log.Info("World created",
		zap.Int("chunkSize", config.ChunkSize),
		zap.Float32("isolevel", config.Isolevel),
		zap.String("density", config.Density.Kind))
	return world, nil
}

// GetOrCreateChunk returns the chunk at a coordinate, creating it from the
// density store if needed. New chunks are flagged for meshing.
func (world *World) GetOrCreateChunk(coordinate indexing.Int3) (*chunk.Chunk, error) {
	world.mu.Lock()
	defer world.mu.Unlock()
	return world.getOrCreateChunk(coordinate)
}

func (world *World) getOrCreateChunk(coordinate indexing.Int3) (*chunk.Chunk, error) {
	if c, ok := world.chunks[coordinate]; ok && !c.IsDisposed() {
		return c, nil
	}
	densities, err := world.store.DensityChunk(coordinate, world.Config.ChunkSize)
	if err != nil {
		return nil, err
	}
	c := chunk.New(coordinate, world.Config.ChunkSize, densities)
	world.chunks[coordinate] = c
	return c, nil
}

// LoadArea creates every chunk with coordinates in [from, to].
func (world *World) LoadArea(from, to indexing.Int3) error {
	world.mu.Lock()
	defer world.mu.Unlock()
	for z := from.Z; z <= to.Z; z++ {
		for y := from.Y; y <= to.Y; y++ {
			for x := from.X; x <= to.X; x++ {
				if _, err := world.getOrCreateChunk(indexing.Int3{X: x, Y: y, Z: z}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// ChunkAtWorldPosition returns the loaded chunk containing a world position.
func (world *World) ChunkAtWorldPosition(worldPosition mgl32.Vec3) (*chunk.Chunk, bool) {
	coordinate := indexing.WorldPositionToCoordinate(worldPosition, world.Config.ChunkSize)

	world.mu.Lock()
	defer world.mu.Unlock()
	c, ok := world.chunks[coordinate]
	if !ok || c.IsDisposed() {
		return nil, false
	}
	return c, true
}

// SetDensity edits one density sample and flags every loaded chunk that
// holds it.
func (world *World) SetDensity(worldPosition indexing.Int3, d float32) error {
	world.mu.Lock()
	defer world.mu.Unlock()

	affected, err := world.store.SetDensity(worldPosition, d)
	if err != nil {
		return err
	}
	for _, coordinate := range affected {
		if c, ok := world.chunks[coordinate]; ok && !c.IsDisposed() {
			c.MarkChanged()
		}
	}
	return nil
}

// GetDensity returns the density sample at a world position.
func (world *World) GetDensity(worldPosition indexing.Int3) (float32, error) {
	world.mu.Lock()
	defer world.mu.Unlock()
	return world.store.GetDensity(worldPosition)
}

// Chunks returns the loaded chunks ordered by coordinate.
func (world *World) Chunks() []*chunk.Chunk {
	world.mu.Lock()
	chunks := make([]*chunk.Chunk, 0, len(world.chunks))
	for _, c := range world.chunks {
		if !c.IsDisposed() {
			chunks = append(chunks, c)
		}
	}
	world.mu.Unlock()

	sort.Slice(chunks, func(i, j int) bool {
		a, b := chunks[i].Coordinate, chunks[j].Coordinate
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return chunks
}

// Update remeshes every chunk with pending changes and returns how many were
// meshed.
func (world *World) Update() (int, error) {
	start := time.Now()

	// Edits wait for the update so no volume changes during extraction.
	world.mu.Lock()
	defer world.mu.Unlock()

	chunks := make([]*chunk.Chunk, 0, len(world.chunks))
	for coordinate, c := range world.chunks {
		if c.IsDisposed() {
			delete(world.chunks, coordinate)
			continue
		}
		chunks = append(chunks, c)
	}
	meshed, err := world.generator.GenerateChanged(chunks)

	if meshed > 0 {
		logger.Log.Info("World updated",
			zap.Int("meshed", meshed),
			zap.Int("chunks", len(chunks)),
			zap.Duration("elapsed", time.Since(start)))
	}
	if err != nil {
		logger.Log.Error("Chunk meshing failed", zap.Error(err))
	}
	return meshed, err
}

// Save persists the density store to Config.StoreDir.
func (world *World) Save() error {
	if world.Config.StoreDir == "" {
		return errors.Wrap(ErrInvalidConfig, "store_dir is not set")
	}
	world.mu.Lock()
	defer world.mu.Unlock()
	return world.store.Save(world.Config.StoreDir)
}

// Close stops the worker pool and releases every density volume.
func (world *World) Close() {
	world.generator.Close()

	world.mu.Lock()
	defer world.mu.Unlock()
	world.store.Close()
	world.chunks = make(map[indexing.Int3]*chunk.Chunk)
}
