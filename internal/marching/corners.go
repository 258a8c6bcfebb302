package marching

import "fmt"

// CornerCount is the number of corners of a cube cell.
const CornerCount = 8

// EdgeCount is the number of edges of a cube cell.
const EdgeCount = 12

// cornerOffsets are the corner positions of a unit cell in table order.
var cornerOffsets = [CornerCount][3]int{
	{0, 0, 0},
	{1, 0, 0},
	{1, 1, 0},
	{0, 1, 0},
	{0, 0, 1},
	{1, 0, 1},
	{1, 1, 1},
	{0, 1, 1},
}

// edgeCorners are the two corners joined by each edge in table order. Each
// pair runs from the lower corner to the upper one, so neighbouring cells
// interpolate a shared edge with identical arithmetic.
var edgeCorners = [EdgeCount][2]int{
	{0, 1}, {1, 2}, {3, 2}, {0, 3},
	{4, 5}, {5, 6}, {7, 6}, {4, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// VoxelCorners holds one value per cell corner. The zero value has every
// corner set to the zero value of T.
type VoxelCorners[T any] struct {
	values [CornerCount]T
}

// At returns the value of corner i. It panics if i is not in [0, 8).
func (c *VoxelCorners[T]) At(i int) T {
	checkCorner(i)
	return c.values[i]
}

// Set assigns the value of corner i. It panics if i is not in [0, 8).
func (c *VoxelCorners[T]) Set(i int, value T) {
	checkCorner(i)
	c.values[i] = value
}

// Len returns CornerCount.
func (c *VoxelCorners[T]) Len() int {
	return CornerCount
}

func checkCorner(i int) {
	if i < 0 || i >= CornerCount {
		panic(fmt.Sprintf("marching: corner index %d out of range [0, %d)", i, CornerCount))
	}
}
