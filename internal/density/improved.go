package density

import (
	"math"
	"math/rand"
)

// ImprovedNoise is Ken Perlin's 2002 noise with quintic fade and the twelve
// cube edge gradients.
type ImprovedNoise struct {
	perm [512]int
}

var improvedGradients = [12][3]float64{
	{1, 1, 0}, {-1, 1, 0}, {1, -1, 0}, {-1, -1, 0},
	{1, 0, 1}, {-1, 0, 1}, {1, 0, -1}, {-1, 0, -1},
	{0, 1, 1}, {0, -1, 1}, {0, 1, -1}, {0, -1, -1},
}

// NewImprovedNoise shuffles the permutation table with seed.
func NewImprovedNoise(seed int64) *ImprovedNoise {
	noise := &ImprovedNoise{}
	rng := rand.New(rand.NewSource(seed))

	for i := 0; i < 256; i++ {
		noise.perm[i] = i
	}
	for i := 255; i > 0; i-- {
		j := rng.Intn(i + 1)
		noise.perm[i], noise.perm[j] = noise.perm[j], noise.perm[i]
	}
	// doubled to avoid wrapping
	copy(noise.perm[256:], noise.perm[:256])

	return noise
}

// 6t^5 - 15t^4 + 10t^3
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func (noise *ImprovedNoise) grad(hash int, x, y, z float64) float64 {
	g := improvedGradients[hash%12]
	return g[0]*x + g[1]*y + g[2]*z
}

// Noise3D returns noise in roughly [-1, 1].
func (noise *ImprovedNoise) Noise3D(x, y, z float64) float64 {
	fx, fy, fz := math.Floor(x), math.Floor(y), math.Floor(z)
	X := int(fx) & 255
	Y := int(fy) & 255
	Z := int(fz) & 255
	x, y, z = x-fx, y-fy, z-fz

	u, v, w := fade(x), fade(y), fade(z)

	p := &noise.perm
	A := p[X] + Y
	AA := p[A] + Z
	AB := p[A+1] + Z
	B := p[X+1] + Y
	BA := p[B] + Z
	BB := p[B+1] + Z

	return lerp(w,
		lerp(v,
			lerp(u, noise.grad(p[AA], x, y, z), noise.grad(p[BA], x-1, y, z)),
			lerp(u, noise.grad(p[AB], x, y-1, z), noise.grad(p[BB], x-1, y-1, z))),
		lerp(v,
			lerp(u, noise.grad(p[AA+1], x, y, z-1), noise.grad(p[BA+1], x-1, y, z-1)),
			lerp(u, noise.grad(p[AB+1], x, y-1, z-1), noise.grad(p[BB+1], x-1, y-1, z-1))))
}

// Turbulence sums octaves of noise, normalized back to [-1, 1].
func (noise *ImprovedNoise) Turbulence(x, y, z float64, octaves int, persistence float64) float64 {
	value, maxValue := 0.0, 0.0
	amplitude, frequency := 1.0, 1.0
	for i := 0; i < octaves; i++ {
		value += noise.Noise3D(x*frequency, y*frequency, z*frequency) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	if maxValue == 0 {
		return 0
	}
	return value / maxValue
}

// Ridge is ridged multifractal noise in [0, octaves].
func (noise *ImprovedNoise) Ridge(x, y, z float64, octaves int, persistence float64) float64 {
	value := 0.0
	amplitude, frequency := 1.0, 1.0
	for i := 0; i < octaves; i++ {
		n := 1 - math.Abs(noise.Noise3D(x*frequency, y*frequency, z*frequency))
		value += n * n * amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return value
}
