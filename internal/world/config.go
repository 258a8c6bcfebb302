package world

import (
	"os"

	"VoxelTerrain/internal/chunk"
	"VoxelTerrain/internal/density"
	"VoxelTerrain/internal/marching"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate and LoadConfig.
var ErrInvalidConfig = errors.New("invalid world config")

// Density kinds.
const (
	DensitySphere   = "sphere"
	DensityBox      = "box"
	DensityPlane    = "plane"
	DensityPerlin   = "perlin"
	DensitySimplex  = "simplex"
	DensityImproved = "improved"
)

// Output formats.
const (
	FormatGLB  = "glb"
	FormatMesh = "mesh"
	FormatNone = "none"
)

// DensityConfig selects the density field and its parameters. Fields that
// do not apply to Kind are ignored.
type DensityConfig struct {
	Kind      string     `yaml:"kind"`
	Seed      int64      `yaml:"seed"`
	Scale     float64    `yaml:"scale"`
	Amplitude float32    `yaml:"amplitude"`
	Height    float32    `yaml:"height"`
	Falloff   float32    `yaml:"falloff"`
	Center    [3]float32 `yaml:"center"`
	Radius    float32    `yaml:"radius"`
	Size      [3]float32 `yaml:"size"`
}

// OutputConfig is where and how the CLI writes meshes.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// Config is the world configuration, usually loaded from YAML over
// DefaultConfig.
type Config struct {
	ChunkSize int           `yaml:"chunk_size"`
	Isolevel  float32       `yaml:"isolevel"`
	BatchSize int           `yaml:"batch_size"`
	Workers   int           `yaml:"workers"`
	StoreDir  string        `yaml:"store_dir"`
	Density   DensityConfig `yaml:"density"`
	Output    OutputConfig  `yaml:"output"`
}

// DefaultConfig returns a 16 cell chunk world over Perlin terrain.
func DefaultConfig() Config {
	terrain := density.DefaultTerrainParams()
	return Config{
		ChunkSize: 16,
		Isolevel:  0,
		BatchSize: chunk.DefaultBatchSize,
		Density: DensityConfig{
			Kind:      DensityPerlin,
			Seed:      1,
			Scale:     terrain.Scale,
			Amplitude: terrain.Amplitude,
			Height:    terrain.Height,
			Falloff:   terrain.Falloff,
			Center:    [3]float32{8, 8, 8},
			Radius:    6,
			Size:      [3]float32{4, 4, 4},
		},
		Output: OutputConfig{
			Dir:    "out",
			Format: FormatGLB,
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(ErrInvalidConfig, "parse %s: %v", path, err)
	}
	return config, config.Validate()
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.ChunkSize < 1 || c.ChunkSize > marching.MaxChunkSize {
		return errors.Wrapf(ErrInvalidConfig, "chunk_size %d must be in [1, %d]", c.ChunkSize, marching.MaxChunkSize)
	}
	if c.Isolevel < -1 || c.Isolevel > 1 {
		return errors.Wrapf(ErrInvalidConfig, "isolevel %f must be in [-1, 1]", c.Isolevel)
	}
	if c.BatchSize < 1 {
		return errors.Wrapf(ErrInvalidConfig, "batch_size %d must be positive", c.BatchSize)
	}
	if c.Workers < 0 {
		return errors.Wrapf(ErrInvalidConfig, "workers %d must not be negative", c.Workers)
	}

	switch c.Density.Kind {
	case DensitySphere:
		if c.Density.Radius <= 0 {
			return errors.Wrapf(ErrInvalidConfig, "sphere radius %f must be positive", c.Density.Radius)
		}
	case DensityBox:
		for _, s := range c.Density.Size {
			if s <= 0 {
				return errors.Wrapf(ErrInvalidConfig, "box size %v must be positive", c.Density.Size)
			}
		}
	case DensityPlane, DensityPerlin, DensitySimplex, DensityImproved:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown density kind %q", c.Density.Kind)
	}

	switch c.Output.Format {
	case FormatGLB, FormatMesh, FormatNone:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown output format %q", c.Output.Format)
	}
	return nil
}

// Func builds the density field described by the config.
func (d DensityConfig) Func() (density.Func, error) {
	falloff := d.Falloff
	if falloff <= 0 {
		falloff = 1
	}
	terrain := density.TerrainParams{
		Height:    d.Height,
		Amplitude: d.Amplitude,
		Scale:     d.Scale,
		Falloff:   falloff,
	}

	switch d.Kind {
	case DensitySphere:
		return density.Sphere(mgl32.Vec3(d.Center), d.Radius, falloff), nil
	case DensityBox:
		return density.Box(mgl32.Vec3(d.Center), mgl32.Vec3(d.Size)), nil
	case DensityPlane:
		return density.Plane(d.Height, falloff), nil
	case DensityPerlin:
		return density.PerlinTerrain(d.Seed, terrain), nil
	case DensitySimplex:
		return density.SimplexTerrain(d.Seed, terrain), nil
	case DensityImproved:
		return density.ImprovedTerrain(d.Seed, terrain), nil
	}
	return nil, errors.Wrapf(ErrInvalidConfig, "unknown density kind %q", d.Kind)
}
