package density

import (
	"math"
	"testing"

	"VoxelTerrain/internal/indexing"
	"VoxelTerrain/internal/volume"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionProviderSamplesWorldSpace(t *testing.T) {
	provider := NewFunctionProvider(func(p mgl32.Vec3) float32 {
		return p.X() / 100
	})

	v, err := provider.DensityChunk(indexing.Int3{X: 2, Y: -1, Z: 0}, 4)
	require.NoError(t, err)
	defer v.Dispose()

	assert.Equal(t, indexing.Int3{X: 5, Y: 5, Z: 5}, v.Size())
	assert.Equal(t, volume.Persistent, v.Allocator())
	// local x 0 is world x 8
	assert.InDelta(t, 0.08, v.GetDensityAt(0, 3, 1), 1.0/127.5)
	assert.InDelta(t, 0.12, v.GetDensityAt(4, 0, 4), 1.0/127.5)
}

func TestFunctionProviderRejectsBadChunkSize(t *testing.T) {
	_, err := NewFunctionProvider(Constant(0)).DensityChunk(indexing.Int3{}, 0)
	assert.True(t, errors.Is(err, volume.ErrInvalidDimensions))
}

func TestSphere(t *testing.T) {
	f := Sphere(mgl32.Vec3{1, 2, 3}, 2, 1)
	assert.InDelta(t, -2, f(mgl32.Vec3{1, 2, 3}), 1e-6)
	assert.InDelta(t, 0, f(mgl32.Vec3{3, 2, 3}), 1e-6)
	assert.InDelta(t, 1, f(mgl32.Vec3{1, 5, 3}), 1e-6)
}

func TestBox(t *testing.T) {
	f := Box(mgl32.Vec3{}, mgl32.Vec3{2, 2, 2})
	assert.InDelta(t, -2, f(mgl32.Vec3{}), 1e-6)
	assert.InDelta(t, -1, f(mgl32.Vec3{1, 0, 0}), 1e-6)
	assert.InDelta(t, 0, f(mgl32.Vec3{2, 0, 0}), 1e-6)
	assert.InDelta(t, 3, f(mgl32.Vec3{0, 5, 0}), 1e-6)
	assert.InDelta(t, math.Sqrt(2), f(mgl32.Vec3{3, 3, 0}), 1e-6)
}

func TestPlaneAndCombinators(t *testing.T) {
	ground := Plane(4, 2)
	assert.InDelta(t, -1, ground(mgl32.Vec3{0, 2, 0}), 1e-6)
	assert.InDelta(t, 1, ground(mgl32.Vec3{0, 6, 0}), 1e-6)

	ball := Sphere(mgl32.Vec3{0, 10, 0}, 1, 1)
	union := Union(ground, ball)
	assert.Negative(t, union(mgl32.Vec3{0, 10, 0}))
	assert.Negative(t, union(mgl32.Vec3{0, 0, 0}))
	assert.Positive(t, union(mgl32.Vec3{0, 7, 0}))

	carved := Subtract(ground, Sphere(mgl32.Vec3{0, 0, 0}, 1, 1))
	assert.Positive(t, carved(mgl32.Vec3{0, 0, 0}))
	assert.Negative(t, carved(mgl32.Vec3{5, 0, 0}))
}

func TestImprovedNoiseIsDeterministic(t *testing.T) {
	a := NewImprovedNoise(42)
	b := NewImprovedNoise(42)
	c := NewImprovedNoise(7)

	different := false
	for i := 0; i < 50; i++ {
		x, y, z := float64(i)*0.37, float64(i)*0.11, float64(i)*0.73
		n := a.Noise3D(x, y, z)
		assert.Equal(t, n, b.Noise3D(x, y, z))
		assert.True(t, n >= -1.5 && n <= 1.5, "noise %f out of range", n)
		if n != c.Noise3D(x, y, z) {
			different = true
		}
	}
	assert.True(t, different, "different seeds should give different noise")
	assert.Equal(t, 0.0, a.Noise3D(3, 4, 5), "noise vanishes on lattice points")
}

func TestImprovedNoiseOctaves(t *testing.T) {
	noise := NewImprovedNoise(1)
	for i := 0; i < 20; i++ {
		x := float64(i) * 0.29
		turbulence := noise.Turbulence(x, 0.5, x, 4, 0.5)
		assert.True(t, turbulence >= -1.5 && turbulence <= 1.5)
		ridge := noise.Ridge(x, 0.5, x, 4, 0.5)
		assert.True(t, ridge >= 0 && ridge <= 1.875)
	}
	assert.Equal(t, 0.0, noise.Turbulence(1, 2, 3, 0, 0.5))
}

func TestTerrainsAreSolidBelowAndEmptyAbove(t *testing.T) {
	params := DefaultTerrainParams()
	terrains := map[string]Func{
		"perlin":   PerlinTerrain(3, params),
		"simplex":  SimplexTerrain(3, params),
		"improved": ImprovedTerrain(3, params),
	}
	for name, f := range terrains {
		for _, x := range []float32{-40, 0, 13, 57} {
			below := f(mgl32.Vec3{x, params.Height - 3*params.Amplitude, x})
			above := f(mgl32.Vec3{x, params.Height + 3*params.Amplitude, x})
			assert.Negative(t, below, "%s below ground at x=%f", name, x)
			assert.Positive(t, above, "%s above ground at x=%f", name, x)
		}
	}
}

func TestTerrainSeedIsReproducible(t *testing.T) {
	params := DefaultTerrainParams()
	p := mgl32.Vec3{12.5, 7, -3}
	assert.Equal(t, PerlinTerrain(9, params)(p), PerlinTerrain(9, params)(p))
	assert.Equal(t, SimplexTerrain(9, params)(p), SimplexTerrain(9, params)(p))
	assert.Equal(t, ImprovedTerrain(9, params)(p), ImprovedTerrain(9, params)(p))
}
