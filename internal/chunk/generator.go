package chunk

import (
	"runtime"
	"time"

	"VoxelTerrain/internal/logger"
	"VoxelTerrain/internal/marching"
	"VoxelTerrain/internal/mesh"

	"github.com/alitto/pond/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultBatchSize is the number of cells handed to one pool task.
const DefaultBatchSize = 128

// Replaced in tests.
var (
	executeBatch = func(e *marching.Extractor, from, to int) {
		e.ExecuteRange(from, to)
	}
	releaseExtractor = func(e *marching.Extractor) {
		e.Release()
	}
)

// Generator meshes chunks on a bounded worker pool and hands the results
// to a sink.
type Generator struct {
	sink      mesh.Sink
	isolevel  float32
	batchSize int
	workers   int

	pool     pond.Pool
	ownsPool bool
}

// Option configures a Generator.
type Option func(*Generator)

// WithBatchSize sets the number of cells per task.
func WithBatchSize(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.batchSize = n
		}
	}
}

// WithWorkers sets the pool size. Zero means one worker per CPU.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithPool runs extraction on a caller owned pool. Close leaves it running.
func WithPool(pool pond.Pool) Option {
	return func(g *Generator) {
		g.pool = pool
	}
}

// NewGenerator creates a generator that extracts the surface at isolevel.
func NewGenerator(sink mesh.Sink, isolevel float32, opts ...Option) *Generator {
	g := &Generator{
		sink:      sink,
		isolevel:  isolevel,
		batchSize: DefaultBatchSize,
		workers:   runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.pool == nil {
		g.pool = pond.NewPool(g.workers)
		g.ownsPool = true
	}
	return g
}

// Isolevel returns the surface threshold.
func (g *Generator) Isolevel() float32 {
	return g.isolevel
}

// GenerateMesh extracts the chunk surface, submits the mesh to the sink and
// clears the chunk's change flag. The flag stays set if anything fails.
func (g *Generator) GenerateMesh(c *Chunk) error {
	start := time.Now()
	name := c.Name()

	extractor, err := marching.NewExtractor(c.Densities, g.isolevel, c.Size)
	if err != nil {
		return errors.Wrapf(err, "mesh %s", name)
	}
	defer releaseExtractor(extractor)

	// Every batch is joined before the buffers go back to the pool, even
	// when one of them fails.
	cells := extractor.CellCount()
	var tasks []pond.Task
	for first := 0; first < cells; first += g.batchSize {
		from, to := first, min(first+g.batchSize, cells)
		tasks = append(tasks, g.pool.Submit(func() {
			executeBatch(extractor, from, to)
		}))
	}
	var batchErr error
	for _, task := range tasks {
		batchErr = multierr.Append(batchErr, task.Wait())
	}
	if batchErr != nil {
		return errors.Wrapf(batchErr, "extract %s", name)
	}

	count := extractor.VertexCount()
	vertices := make([]mesh.Vertex, count)
	copy(vertices, extractor.Vertices())
	indices := make([]uint16, count)
	copy(indices, extractor.Indices())

	m := mesh.New(name, c.Coordinate, c.Origin(), vertices, indices)
	if err := g.sink.Submit(m); err != nil {
		return errors.Wrapf(err, "submit %s", name)
	}
	c.setMesh(m)
	c.clearChanges()

	logger.Log.Debug("Chunk meshed",
		zap.String("chunk", name),
		zap.Int("batches", len(tasks)),
		zap.Int("vertices", count),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// GenerateChanged meshes every chunk whose change flag is set, one after
// the other. Failures do not stop the remaining chunks.
func (g *Generator) GenerateChanged(chunks []*Chunk) (meshed int, err error) {
	for _, c := range chunks {
		if !c.HasChanges() {
			continue
		}
		if genErr := g.GenerateMesh(c); genErr != nil {
			err = multierr.Append(err, genErr)
			continue
		}
		meshed++
	}
	return meshed, err
}

// Close stops the worker pool if the generator created it.
func (g *Generator) Close() {
	if g.ownsPool {
		g.pool.StopAndWait()
	}
}
