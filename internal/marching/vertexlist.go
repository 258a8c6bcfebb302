package marching

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexList holds the interpolated crossing point of each cell edge. Only
// entries for edges flagged in the edge table are meaningful.
type VertexList struct {
	values [EdgeCount]mgl32.Vec3
}

// At returns the vertex on edge i. It panics if i is not in [0, 12).
func (l *VertexList) At(i int) mgl32.Vec3 {
	checkEdge(i)
	return l.values[i]
}

// Set assigns the vertex on edge i. It panics if i is not in [0, 12).
func (l *VertexList) Set(i int, v mgl32.Vec3) {
	checkEdge(i)
	l.values[i] = v
}

// Len returns EdgeCount.
func (l *VertexList) Len() int {
	return EdgeCount
}

func checkEdge(i int) {
	if i < 0 || i >= EdgeCount {
		panic(fmt.Sprintf("marching: edge index %d out of range [0, %d)", i, EdgeCount))
	}
}
