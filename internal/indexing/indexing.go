// Package indexing maps 3D grid coordinates to linear buffer indices and
// snaps world positions onto the chunk grid.
//
// Layout is row-major with x varying fastest:
//
//	index = x + y*width + z*width*height
package indexing

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Int3 is an integer grid coordinate.
type Int3 struct {
	X, Y, Z int
}

func (i Int3) Add(other Int3) Int3 {
	return Int3{i.X + other.X, i.Y + other.Y, i.Z + other.Z}
}

func (i Int3) Sub(other Int3) Int3 {
	return Int3{i.X - other.X, i.Y - other.Y, i.Z - other.Z}
}

func (i Int3) Mul(factor int) Int3 {
	return Int3{i.X * factor, i.Y * factor, i.Z * factor}
}

func (i Int3) ToVec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(i.X), float32(i.Y), float32(i.Z)}
}

func (i Int3) String() string {
	return fmt.Sprintf("(%d, %d, %d)", i.X, i.Y, i.Z)
}

// XyzToIndex converts a coordinate inside a width*height*depth grid to its
// linear index. The depth is not needed.
func XyzToIndex(x, y, z, width, height int) int {
	return x + y*width + z*width*height
}

// XyzToIndexInt3 is XyzToIndex for a packed coordinate.
func XyzToIndexInt3(p Int3, width, height int) int {
	return XyzToIndex(p.X, p.Y, p.Z, width, height)
}

// IndexToXyz is the inverse of XyzToIndex.
func IndexToXyz(index, width, height int) Int3 {
	layer := width * height
	z := index / layer
	rem := index - z*layer
	y := rem / width
	x := rem - y*width
	return Int3{x, y, z}
}

// FloorToMultipleOfX snaps each component of n down to the nearest multiple
// of x. Negative inputs floor away from zero: -0.1 with x=16 gives -16.
// It panics if x < 1.
func FloorToMultipleOfX(n mgl32.Vec3, x int) Int3 {
	return WorldPositionToCoordinate(n, x).Mul(x)
}

// WorldPositionToCoordinate returns the coordinate of the chunk containing
// the world position. It panics if chunkSize < 1.
func WorldPositionToCoordinate(worldPosition mgl32.Vec3, chunkSize int) Int3 {
	if chunkSize < 1 {
		panic(fmt.Sprintf("indexing: chunk size %d must be at least 1", chunkSize))
	}
	size := float64(chunkSize)
	return Int3{
		X: int(math.Floor(float64(worldPosition.X()) / size)),
		Y: int(math.Floor(float64(worldPosition.Y()) / size)),
		Z: int(math.Floor(float64(worldPosition.Z()) / size)),
	}
}
