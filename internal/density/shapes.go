package density

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Sphere is the signed distance to a sphere scaled by 1/falloff.
func Sphere(center mgl32.Vec3, radius, falloff float32) Func {
	return func(p mgl32.Vec3) float32 {
		return (p.Sub(center).Len() - radius) / falloff
	}
}

// Box is the signed distance to an axis aligned box with the given half
// extents.
func Box(center, halfSize mgl32.Vec3) Func {
	return func(p mgl32.Vec3) float32 {
		q := p.Sub(center)
		var d, outside mgl32.Vec3
		for axis := 0; axis < 3; axis++ {
			d[axis] = mgl32.Abs(q[axis]) - halfSize[axis]
			outside[axis] = float32(math.Max(float64(d[axis]), 0))
		}
		inside := math.Min(math.Max(float64(d[0]), math.Max(float64(d[1]), float64(d[2]))), 0)
		return outside.Len() + float32(inside)
	}
}

// Plane is solid below height.
func Plane(height, falloff float32) Func {
	return func(p mgl32.Vec3) float32 {
		return (p.Y() - height) / falloff
	}
}

// Union keeps the solid parts of every field.
func Union(fields ...Func) Func {
	return func(p mgl32.Vec3) float32 {
		d := float32(math.Inf(1))
		for _, f := range fields {
			if v := f(p); v < d {
				d = v
			}
		}
		return d
	}
}

// Subtract carves b out of a.
func Subtract(a, b Func) Func {
	return func(p mgl32.Vec3) float32 {
		return float32(math.Max(float64(a(p)), float64(-b(p))))
	}
}

// Constant is the same density everywhere.
func Constant(d float32) Func {
	return func(mgl32.Vec3) float32 {
		return d
	}
}
