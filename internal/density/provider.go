// Package density supplies chunk density volumes from procedural fields and
// from an editable on-disk store.
package density

import (
	"VoxelTerrain/internal/indexing"
	"VoxelTerrain/internal/volume"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Provider returns a populated volume of (chunkSize+1)^3 samples for a chunk.
type Provider interface {
	DensityChunk(coordinate indexing.Int3, chunkSize int) (*volume.DensityVolume, error)
}

// Func is a density field in world space. Negative values are inside the
// surface.
type Func func(p mgl32.Vec3) float32

// FunctionProvider samples a Func at every integer world position of a chunk.
type FunctionProvider struct {
	Density   Func
	Allocator volume.Allocator
}

// NewFunctionProvider creates a provider allocating persistent volumes.
func NewFunctionProvider(density Func) *FunctionProvider {
	return &FunctionProvider{Density: density, Allocator: volume.Persistent}
}

func (p *FunctionProvider) DensityChunk(coordinate indexing.Int3, chunkSize int) (*volume.DensityVolume, error) {
	if chunkSize < 1 {
		return nil, errors.Wrapf(volume.ErrInvalidDimensions, "chunk size %d", chunkSize)
	}
	densities, err := volume.NewCubicDensityVolume(chunkSize+1, p.Allocator)
	if err != nil {
		return nil, err
	}
	Fill(densities, coordinate.Mul(chunkSize), p.Density)
	return densities, nil
}

// Fill writes f sampled at origin+local into every sample of densities.
func Fill(densities *volume.DensityVolume, origin indexing.Int3, f Func) {
	width, height := densities.Width(), densities.Height()
	for index := 0; index < densities.Length(); index++ {
		worldPosition := indexing.IndexToXyz(index, width, height).Add(origin)
		densities.SetDensity(f(worldPosition.ToVec3()), index)
	}
}
