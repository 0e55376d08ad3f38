package scene

import (
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/ssp.report/internal/projection"
	"gonum.org/v1/gonum/spatial/r3"
)

// Arrow geometry for the dashed "projection" arrow drawn from a point to its
// projection. The shaft stops just short of the target marker.
const (
	projectionArrowLength = 0.96
	arrowHeadRatio        = 0.1
)

// DefaultMeshStep is the grid spacing of the orthogonal plane mesh.
const DefaultMeshStep = 0.1

// Params are the rendering-independent settings shared by all builders.
type Params struct {
	Limits   Limits
	View     View
	MeshStep float64
}

// DefaultParams returns the default limits, view and mesh step.
func DefaultParams() Params {
	return Params{
		Limits:   DefaultLimits(),
		View:     DefaultView(),
		MeshStep: DefaultMeshStep,
	}
}

// NewAxisScene illustrates projecting the vector from the origin to point
// onto the kept axes.
func NewAxisScene(p Params, point projection.Point3, keep ...projection.Axis) (*Scene, error) {
	m, err := projection.BuildAxisProjection(keep...)
	if err != nil {
		return nil, fmt.Errorf("axis scene: %w", err)
	}

	names := make([]string, len(keep))
	for i, a := range keep {
		names[i] = a.String()
	}

	s := &Scene{
		Name:   "axis_" + strings.Join(names, ""),
		Title:  fmt.Sprintf("Projection onto %s", strings.Join(names, "-")),
		Limits: p.Limits,
		View:   p.View,
		Matrix: m,
	}
	addProjectedVector(s, point)
	return s, nil
}

// NewOrthogonalScene illustrates removing the contribution of effect from
// point by projecting onto the plane orthogonal to effect.
func NewOrthogonalScene(p Params, point, effect projection.Point3) (*Scene, error) {
	m, err := projection.BuildOrthogonalProjection(effect)
	if err != nil {
		return nil, fmt.Errorf("orthogonal scene: %w", err)
	}

	plane, err := OrthogonalPlane(effect, p.Limits, p.MeshStep)
	if err != nil {
		return nil, fmt.Errorf("orthogonal scene: %w", err)
	}

	s := &Scene{
		Name:   "orthogonal",
		Title:  fmt.Sprintf("Projection orthogonal to %s", FormatPoint(effect, 2)),
		Limits: p.Limits,
		View:   p.View,
		Matrix: m,
	}
	s.add(
		Mesh{Points: plane, Style: Style{Color: ColorC2, Alpha: 0.25}},
		Arrow{
			Tail:      projection.Origin,
			Delta:     effect,
			Length:    1,
			HeadRatio: arrowHeadRatio,
			Style:     Style{Color: ColorC2, Alpha: 0.5},
		},
	)
	addProjectedVector(s, point)

	s.add(
		Label{
			At:    r3.Add(point, projection.Point3{X: 0.1, Y: 0.1, Z: 0.1}),
			Text:  FormatPoint(point, 2),
			Style: Style{Color: ColorBlack},
		},
		Label{
			At:    r3.Add(s.Projected, projection.Point3{X: -0.2, Y: -0.2, Z: -0.2}),
			Text:  FormatPoint(s.Projected, 2),
			Align: AlignRight,
			Style: Style{Color: ColorC0},
		},
	)
	return s, nil
}

// addProjectedVector draws the original vector and point in black, their
// projection in C0 and a dashed C1 arrow from the point to its projection.
func addProjectedVector(s *Scene, point projection.Point3) {
	tail, head := projection.ApplyToVector(s.Matrix, projection.Origin, point)
	s.Original = point
	s.Projected = head

	s.add(
		Segment{From: projection.Origin, To: point, Style: Style{Color: ColorBlack}},
		Marker{At: point, Style: Style{Color: ColorBlack}},
		Segment{From: tail, To: head, Style: Style{Color: ColorC0}},
		Marker{At: head, Style: Style{Color: ColorC0}},
		Arrow{
			Tail:      point,
			Delta:     r3.Sub(head, point),
			Length:    projectionArrowLength,
			HeadRatio: arrowHeadRatio,
			Style:     Style{Color: ColorC1, Width: 1, Dashed: true},
		},
	)
}

// MaxMeshSamples bounds the grid sampled by OrthogonalPlane.
const MaxMeshSamples = 1 << 20

// OrthogonalPlane samples the plane through the origin with the given normal
// at spacing step. The plane is solved for the axis with the largest normal
// component (z on ties) over a grid spanning the limits of the other two
// axes; only samples whose solved coordinate lies within its limits are kept.
func OrthogonalPlane(normal projection.Point3, limits Limits, step float64) ([]projection.Point3, error) {
	n := [3]float64{normal.X, normal.Y, normal.Z}
	ranges := [3]Range{limits.X, limits.Y, limits.Z}
	for _, c := range n {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: plane normal %v is not finite", projection.ErrInvalidArgument, normal)
		}
	}

	solve := 2
	for i := 0; i < 2; i++ {
		if math.Abs(n[i]) > math.Abs(n[solve]) {
			solve = i
		}
	}
	if math.Abs(n[solve]) <= projection.DegenerateTolerance {
		return nil, fmt.Errorf("%w: plane normal %v has zero length", projection.ErrDegenerateInput, normal)
	}
	u, v := planeAxes(solve)

	if err := CheckMeshStep(ranges[u], ranges[v], step); err != nil {
		return nil, err
	}

	us := linspace(ranges[u], step)
	vs := linspace(ranges[v], step)
	pts := make([]projection.Point3, 0, len(us)*len(vs))
	for _, b := range vs {
		for _, a := range us {
			var p [3]float64
			p[u], p[v] = a, b
			p[solve] = (-n[u]*a - n[v]*b) / n[solve]
			if !ranges[solve].Contains(p[solve]) {
				continue
			}
			pts = append(pts, projection.Point3{X: p[0], Y: p[1], Z: p[2]})
		}
	}
	return pts, nil
}

// planeAxes returns the two grid axes, in x, y, z order, left once solve is
// removed.
func planeAxes(solve int) (int, int) {
	switch solve {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	default:
		return 0, 1
	}
}

// CheckMeshStep reports whether step is a usable spacing for a grid over
// the ranges a and b: positive, finite and yielding at most MaxMeshSamples.
func CheckMeshStep(a, b Range, step float64) error {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return fmt.Errorf("%w: mesh step must be positive, got %v", projection.ErrInvalidArgument, step)
	}
	if samples := gridCount(a, step) * gridCount(b, step); samples > MaxMeshSamples {
		return fmt.Errorf("%w: mesh step %v gives %.0f samples, max %d", projection.ErrInvalidArgument, step, samples, MaxMeshSamples)
	}
	return nil
}

// gridCount is the number of linspace samples over r, as a float so that
// tiny steps cannot overflow.
func gridCount(r Range, step float64) float64 {
	n := math.Round((r.Max-r.Min)/step) + 1
	if n < 1 || math.IsNaN(n) {
		return 1
	}
	return n
}

// linspace returns evenly spaced samples covering r inclusively.
func linspace(r Range, step float64) []float64 {
	n := int(gridCount(r, step))
	if n < 2 {
		return []float64{r.Min}
	}
	out := make([]float64, n)
	span := r.Max - r.Min
	for i := range out {
		out[i] = r.Min + span*float64(i)/float64(n-1)
	}
	return out
}
