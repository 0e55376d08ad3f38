package projection

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point3 is a location in 3D space.
type Point3 = r3.Vec

// Origin is the coordinate origin.
var Origin = Point3{}

// Vector3 is a directed segment from Tail to Head.
type Vector3 struct {
	Tail Point3
	Head Point3
}

// FromOrigin returns the vector from the origin to p.
func FromOrigin(p Point3) Vector3 {
	return Vector3{Tail: Origin, Head: p}
}

// Offset returns Head - Tail.
func (v Vector3) Offset() Point3 {
	return r3.Sub(v.Head, v.Tail)
}

// Length returns the Euclidean length of the vector.
func (v Vector3) Length() float64 {
	return r3.Norm(v.Offset())
}

func isFinite(p Point3) bool {
	for _, c := range []float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func toSlice(p Point3) []float64 {
	return []float64{p.X, p.Y, p.Z}
}
