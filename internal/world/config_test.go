package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if config.ChunkSize != 16 {
		t.Errorf("Expected ChunkSize 16, got %d", config.ChunkSize)
	}
	if config.BatchSize != 128 {
		t.Errorf("Expected BatchSize 128, got %d", config.BatchSize)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	data := []byte(`
chunk_size: 8
isolevel: 0.25
workers: 2
density:
  kind: sphere
  center: [4, 4, 4]
  radius: 3
output:
  format: mesh
  dir: meshes
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.ChunkSize != 8 {
		t.Errorf("Expected ChunkSize 8, got %d", config.ChunkSize)
	}
	if config.Isolevel != 0.25 {
		t.Errorf("Expected Isolevel 0.25, got %f", config.Isolevel)
	}
	if config.Workers != 2 {
		t.Errorf("Expected Workers 2, got %d", config.Workers)
	}
	if config.BatchSize != 128 {
		t.Errorf("Unset batch_size should keep the default, got %d", config.BatchSize)
	}
	if config.Density.Kind != DensitySphere || config.Density.Radius != 3 {
		t.Errorf("Unexpected density config %+v", config.Density)
	}
	if config.Density.Center != [3]float32{4, 4, 4} {
		t.Errorf("Expected center (4,4,4), got %v", config.Density.Center)
	}
	if config.Output.Format != FormatMesh || config.Output.Dir != "meshes" {
		t.Errorf("Unexpected output config %+v", config.Output)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	broken := filepath.Join(dir, "broken.yaml")
	os.WriteFile(broken, []byte("chunk_size: [oops"), 0o644)
	if _, err := LoadConfig(broken); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for bad YAML, got %v", err)
	}

	tooBig := filepath.Join(dir, "big.yaml")
	os.WriteFile(tooBig, []byte("chunk_size: 32\n"), 0o644)
	if _, err := LoadConfig(tooBig); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for chunk_size 32, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }},
		{"chunk size over 16", func(c *Config) { c.ChunkSize = 17 }},
		{"isolevel above 1", func(c *Config) { c.Isolevel = 1.5 }},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"unknown density", func(c *Config) { c.Density.Kind = "fractal" }},
		{"sphere without radius", func(c *Config) { c.Density.Kind = DensitySphere; c.Density.Radius = 0 }},
		{"flat box", func(c *Config) { c.Density.Kind = DensityBox; c.Density.Size[1] = 0 }},
		{"unknown format", func(c *Config) { c.Output.Format = "obj" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(&config)
			if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestDensityConfigFunc(t *testing.T) {
	for _, kind := range []string{DensitySphere, DensityBox, DensityPlane, DensityPerlin, DensitySimplex, DensityImproved} {
		config := DefaultConfig().Density
		config.Kind = kind
		f, err := config.Func()
		if err != nil {
			t.Errorf("Func for %s failed: %v", kind, err)
			continue
		}
		probe := mgl32.Vec3{8, -40, 8}
		if kind == DensitySphere || kind == DensityBox {
			probe = mgl32.Vec3(config.Center)
		}
		if f(probe) >= 0 {
			t.Errorf("%s should be solid at %v", kind, probe)
		}
	}

	config := DefaultConfig().Density
	config.Kind = "fractal"
	if _, err := config.Func(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
