package density

import (
	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/ojrac/opensimplex-go"
)

// TerrainParams shape a heightfield terrain. Height is the base ground level,
// Amplitude the largest deviation from it and Scale the horizontal frequency.
// Falloff divides the vertical distance to the ground so the density ramps
// from -1 to 1 over 2*Falloff world units.
type TerrainParams struct {
	Height    float32
	Amplitude float32
	Scale     float64
	Falloff   float32
}

// DefaultTerrainParams returns parameters suited to 16 cell chunks.
func DefaultTerrainParams() TerrainParams {
	return TerrainParams{Height: 8, Amplitude: 6, Scale: 0.05, Falloff: 4}
}

func (t TerrainParams) heightfield(p mgl32.Vec3, noise float64) float32 {
	ground := t.Height + t.Amplitude*float32(noise)
	falloff := t.Falloff
	if falloff <= 0 {
		falloff = 1
	}
	return (p.Y() - ground) / falloff
}

// PerlinTerrain is a heightfield built from github.com/aquilax/go-perlin.
func PerlinTerrain(seed int64, params TerrainParams) Func {
	p := perlin.NewPerlin(2, 2, 3, seed)
	return func(pos mgl32.Vec3) float32 {
		n := p.Noise2D(float64(pos.X())*params.Scale, float64(pos.Z())*params.Scale)
		return params.heightfield(pos, n)
	}
}

// SimplexTerrain is a heightfield with 3D simplex overhangs.
func SimplexTerrain(seed int64, params TerrainParams) Func {
	noise := opensimplex.New(seed)
	return func(pos mgl32.Vec3) float32 {
		x, y, z := float64(pos.X())*params.Scale, float64(pos.Y())*params.Scale, float64(pos.Z())*params.Scale
		height := noise.Eval2(x, z)
		overhang := noise.Eval3(x*2, y*2, z*2) * 0.5
		return params.heightfield(pos, height) + float32(overhang)
	}
}

// ImprovedTerrain is a ridged mountain heightfield.
func ImprovedTerrain(seed int64, params TerrainParams) Func {
	noise := NewImprovedNoise(seed)
	return func(pos mgl32.Vec3) float32 {
		x, z := float64(pos.X())*params.Scale, float64(pos.Z())*params.Scale
		ridge := noise.Ridge(x, 0, z, 4, 0.5)/1.875 - 0.5
		return params.heightfield(pos, ridge)
	}
}
