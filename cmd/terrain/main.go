package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"VoxelTerrain/internal/indexing"
	"VoxelTerrain/internal/logger"
	"VoxelTerrain/internal/mesh"
	"VoxelTerrain/internal/world"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// int3Flag parses "x,y,z".
type int3Flag struct {
	value indexing.Int3
}

func (f *int3Flag) String() string {
	return fmt.Sprintf("%d,%d,%d", f.value.X, f.value.Y, f.value.Z)
}

func (f *int3Flag) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return errors.Errorf("expected x,y,z, got %q", s)
	}
	var v [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return errors.Wrapf(err, "coordinate %q", part)
		}
		v[i] = n
	}
	f.value = indexing.Int3{X: v[0], Y: v[1], Z: v[2]}
	return nil
}

func main() {
	configPath := flag.String("config", "", "YAML world config (defaults are used when empty)")
	outDir := flag.String("out", "", "output directory, overrides output.dir")
	format := flag.String("format", "", "output format: glb, mesh or none")
	verbose := flag.Bool("v", false, "debug logging")
	from := &int3Flag{}
	to := &int3Flag{value: indexing.Int3{X: 1, Y: 1, Z: 1}}
	flag.Var(from, "from", "first chunk coordinate x,y,z")
	flag.Var(to, "to", "last chunk coordinate x,y,z")
	flag.Parse()

	logger.Init()
	if *verbose {
		logger.SetLevel(zapcore.DebugLevel)
	}
	defer logger.Sync()

	config := world.DefaultConfig()
	if *configPath != "" {
		var err error
		if config, err = world.LoadConfig(*configPath); err != nil {
			logger.Log.Fatal("Could not load config", zap.String("path", *configPath), zap.Error(err))
		}
	}
	if *outDir != "" {
		config.Output.Dir = *outDir
	}
	if *format != "" {
		config.Output.Format = *format
	}

	if err := run(config, from.value, to.value); err != nil {
		logger.Log.Error("Terrain generation failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(config world.Config, from, to indexing.Int3) error {
	sink, finish, err := newSink(config.Output)
	if err != nil {
		return err
	}

	w, err := world.New(config, sink)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.LoadArea(from, to); err != nil {
		return errors.Wrap(err, "load chunks")
	}
	meshed, err := w.Update()
	if err != nil {
		return err
	}
	if err := finish(); err != nil {
		return err
	}
	if config.StoreDir != "" {
		if err := w.Save(); err != nil {
			return err
		}
	}

	logger.Log.Info("Terrain generated",
		zap.Int("chunks", meshed),
		zap.String("format", config.Output.Format),
		zap.String("dir", config.Output.Dir))
	return nil
}

// newSink returns the sink for the configured format and a function that
// flushes it once every chunk is meshed.
func newSink(output world.OutputConfig) (mesh.Sink, func() error, error) {
	if output.Format == world.FormatNone {
		return mesh.NewMemorySink(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(output.Dir, 0o755); err != nil {
		return nil, nil, errors.Wrapf(err, "create %s", output.Dir)
	}

	switch output.Format {
	case world.FormatGLB:
		sink := mesh.NewGLTFSink()
		path := filepath.Join(output.Dir, "terrain.glb")
		return sink, func() error { return sink.WriteFile(path) }, nil
	case world.FormatMesh:
		sink := mesh.SinkFunc(func(m *mesh.Mesh) error {
			data, err := mesh.EncodeBinary(m)
			if err != nil {
				return err
			}
			path := filepath.Join(output.Dir, m.Name+".mesh")
			return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
		})
		return sink, func() error { return nil }, nil
	}
	return nil, nil, errors.Wrapf(world.ErrInvalidConfig, "unknown output format %q", output.Format)
}
