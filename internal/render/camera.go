package render

import (
	"math"

	"github.com/banshee-data/ssp.report/internal/projection"
	"github.com/banshee-data/ssp.report/internal/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is an orthographic view looking at the origin from the given
// azimuth and elevation. Right and Up span the screen plane.
type Camera struct {
	Right r3.Vec
	Up    r3.Vec
}

// NewCamera builds the screen basis for v.
func NewCamera(v scene.View) Camera {
	az := v.Azimuth * math.Pi / 180
	el := v.Elevation * math.Pi / 180
	return Camera{
		Right: r3.Vec{X: -math.Sin(az), Y: math.Cos(az)},
		Up:    r3.Vec{X: -math.Cos(az) * math.Sin(el), Y: -math.Sin(az) * math.Sin(el), Z: math.Cos(el)},
	}
}

// Forward is the unit viewing direction, orthogonal to the screen.
func (c Camera) Forward() r3.Vec {
	return r3.Cross(c.Right, c.Up)
}

// Project returns the screen coordinates of p.
func (c Camera) Project(p projection.Point3) (x, y float64) {
	return r3.Dot(p, c.Right), r3.Dot(p, c.Up)
}

// Corners returns the eight corners of the limits box.
func Corners(l scene.Limits) []projection.Point3 {
	out := make([]projection.Point3, 0, 8)
	for _, x := range []float64{l.X.Min, l.X.Max} {
		for _, y := range []float64{l.Y.Min, l.Y.Max} {
			for _, z := range []float64{l.Z.Min, l.Z.Max} {
				out = append(out, projection.Point3{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

// arrowWings returns the two barb end points of a's head. The barbs lie in
// the plane spanned by the shaft and a vector orthogonal to both the shaft
// and normal. ok is false for a zero-length arrow.
func arrowWings(a scene.Arrow, normal r3.Vec) (left, right projection.Point3, ok bool) {
	tip := a.Tip()
	shaft := r3.Sub(tip, a.Tail)
	length := r3.Norm(shaft)
	if length <= projection.DegenerateTolerance {
		return left, right, false
	}
	u := r3.Scale(1/length, shaft)

	side := r3.Cross(u, normal)
	if r3.Norm(side) <= 1e-9 {
		// Shaft parallel to normal; pick any other orthogonal direction.
		side = r3.Cross(u, r3.Vec{X: 1})
		if r3.Norm(side) <= 1e-9 {
			side = r3.Cross(u, r3.Vec{Y: 1})
		}
	}
	side = r3.Unit(side)

	ratio := a.HeadRatio
	if ratio <= 0 {
		ratio = 0.1
	}
	head := ratio * length
	back := r3.Sub(tip, r3.Scale(head, u))
	left = r3.Add(back, r3.Scale(0.4*head, side))
	right = r3.Sub(back, r3.Scale(0.4*head, side))
	return left, right, true
}
