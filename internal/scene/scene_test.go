package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/ssp.report/internal/projection"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func countKinds(els []Element) map[string]int {
	counts := make(map[string]int)
	for _, e := range els {
		switch e.(type) {
		case Segment:
			counts["segment"]++
		case Marker:
			counts["marker"]++
		case Arrow:
			counts["arrow"]++
		case Mesh:
			counts["mesh"]++
		case Label:
			counts["label"]++
		}
	}
	return counts
}

func TestNewAxisScene(t *testing.T) {
	s, err := NewAxisScene(DefaultParams(), projection.Point3{X: 3, Y: 2, Z: 5}, projection.AxisX, projection.AxisY)
	require.NoError(t, err)

	assert.Equal(t, "axis_xy", s.Name)
	assert.Equal(t, "Projection onto x-y", s.Title)
	assert.Equal(t, projection.Point3{X: 3, Y: 2, Z: 5}, s.Original)
	assert.Equal(t, projection.Point3{X: 3, Y: 2, Z: 0}, s.Projected)
	assert.Equal(t, map[string]int{"segment": 2, "marker": 2, "arrow": 1}, countKinds(s.Elements))

	var arrow Arrow
	for _, e := range s.Elements {
		if a, ok := e.(Arrow); ok {
			arrow = a
		}
	}
	assert.True(t, arrow.Style.Dashed)
	assert.Equal(t, ColorC1, arrow.Style.Color)
	assert.Equal(t, projection.Point3{Z: -5}, arrow.Delta)
	assert.InDelta(t, 5-0.96*5, arrow.Tip().Z, 1e-12)
}

func TestNewAxisScene_InvalidAxes(t *testing.T) {
	_, err := NewAxisScene(DefaultParams(), projection.Point3{X: 1})
	assert.True(t, errors.Is(err, projection.ErrInvalidArgument))
}

func TestNewOrthogonalScene(t *testing.T) {
	effect := projection.Point3{X: 3, Y: -1, Z: 1}
	s, err := NewOrthogonalScene(DefaultParams(), projection.Point3{X: 3, Y: 2, Z: 5}, effect)
	require.NoError(t, err)

	assert.Equal(t, "orthogonal", s.Name)
	assert.InDelta(t, 0, r3.Dot(s.Projected, effect), 1e-9)
	assert.Equal(t, map[string]int{"segment": 2, "marker": 2, "arrow": 2, "mesh": 1, "label": 2}, countKinds(s.Elements))

	var labels []Label
	for _, e := range s.Elements {
		if l, ok := e.(Label); ok {
			labels = append(labels, l)
		}
	}
	require.Len(t, labels, 2)
	assert.Equal(t, "(3, 2, 5)", labels[0].Text)
	assert.Equal(t, "(-0.27, 3.09, 3.91)", labels[1].Text)
	assert.Equal(t, AlignRight, labels[1].Align)
	if diff := cmp.Diff(projection.Point3{X: 3.1, Y: 2.1, Z: 5.1}, labels[0].At, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("label position mismatch (-want +got):\n%s", diff)
	}
}

func TestNewOrthogonalScene_Degenerate(t *testing.T) {
	_, err := NewOrthogonalScene(DefaultParams(), projection.Point3{X: 3}, projection.Point3{})
	assert.True(t, errors.Is(err, projection.ErrDegenerateInput))
}

func TestNewOrthogonalScene_HorizontalEffect(t *testing.T) {
	effect := projection.Point3{X: 1, Y: 1}
	s, err := NewOrthogonalScene(DefaultParams(), projection.Point3{X: 3, Y: 2, Z: 5}, effect)
	require.NoError(t, err)

	if diff := cmp.Diff(projection.Point3{X: 0.5, Y: -0.5, Z: 5}, s.Projected, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("projected mismatch (-want +got):\n%s", diff)
	}
	var mesh Mesh
	for _, e := range s.Elements {
		if m, ok := e.(Mesh); ok {
			mesh = m
		}
	}
	require.NotEmpty(t, mesh.Points)
	for _, p := range mesh.Points {
		assert.InDelta(t, 0, r3.Dot(p, effect), 1e-9)
	}
}

func TestNewOrthogonalScene_TinyMeshStep(t *testing.T) {
	p := DefaultParams()
	p.MeshStep = 1e-7
	s, err := NewOrthogonalScene(p, projection.Point3{X: 3, Y: 2, Z: 5}, projection.Point3{X: 3, Y: -1, Z: 1})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, projection.ErrInvalidArgument)
}

func TestOrthogonalPlane(t *testing.T) {
	lim := DefaultLimits()
	for _, normal := range []projection.Point3{
		{X: 3, Y: -1, Z: 1},
		{X: 1, Y: 1},
		{Y: -2, Z: 0.5},
		{Z: 1},
	} {
		pts, err := OrthogonalPlane(normal, lim, DefaultMeshStep)
		require.NoError(t, err, "normal %v", normal)
		require.NotEmpty(t, pts, "normal %v", normal)
		assert.LessOrEqual(t, len(pts), 61*61)

		for _, p := range pts {
			assert.InDelta(t, 0, r3.Dot(p, normal), 1e-9)
			in := lim.X.Contains(p.X) && lim.Y.Contains(p.Y) && lim.Z.Contains(p.Z)
			assert.True(t, in, "normal %v: sample out of range: %v", normal, p)
		}
	}
}

func TestOrthogonalPlane_GridSize(t *testing.T) {
	// A horizontal plane at z=0 keeps the whole 61x61 grid.
	pts, err := OrthogonalPlane(projection.Point3{Z: 1}, DefaultLimits(), 0.1)
	require.NoError(t, err)
	assert.Len(t, pts, 61*61)
	assert.Equal(t, projection.Point3{X: -1, Y: -1}, pts[0])
	assert.Equal(t, projection.Point3{X: 5, Y: 5}, pts[len(pts)-1])
}

func TestOrthogonalPlane_VerticalPlane(t *testing.T) {
	// Normal along x: the plane x=0 spans the y-z limits.
	pts, err := OrthogonalPlane(projection.Point3{X: 1}, DefaultLimits(), 0.1)
	require.NoError(t, err)
	assert.Len(t, pts, 61*51)
	for _, p := range pts {
		assert.InDelta(t, 0, p.X, 1e-12)
	}
}

func TestOrthogonalPlane_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		normal projection.Point3
		step   float64
		want   error
	}{
		{"zero normal", projection.Point3{}, 0.1, projection.ErrDegenerateInput},
		{"NaN normal", projection.Point3{X: math.NaN(), Z: 1}, 0.1, projection.ErrInvalidArgument},
		{"zero step", projection.Point3{Z: 1}, 0, projection.ErrInvalidArgument},
		{"negative step", projection.Point3{Z: 1}, -0.1, projection.ErrInvalidArgument},
		{"infinite step", projection.Point3{Z: 1}, math.Inf(1), projection.ErrInvalidArgument},
		{"tiny step", projection.Point3{X: 3, Y: -1, Z: 1}, 1e-7, projection.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts, err := OrthogonalPlane(tt.normal, DefaultLimits(), tt.step)
			assert.Nil(t, pts)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCheckMeshStep(t *testing.T) {
	lim := DefaultLimits()
	assert.NoError(t, CheckMeshStep(lim.X, lim.Y, DefaultMeshStep))
	// 6/0.006 + 1 = 1001 samples per axis stays under the cap.
	assert.NoError(t, CheckMeshStep(lim.X, lim.Y, 0.006))
	assert.ErrorIs(t, CheckMeshStep(lim.X, lim.Y, 0.005), projection.ErrInvalidArgument)
	assert.ErrorIs(t, CheckMeshStep(lim.X, lim.Y, 1e-300), projection.ErrInvalidArgument)
}

func TestFormatPoint(t *testing.T) {
	assert.Equal(t, "(3, 2, 5)", FormatPoint(projection.Point3{X: 3, Y: 2, Z: 5}, 2))
	assert.Equal(t, "(0, 1.5, -0.33)", FormatPoint(projection.Point3{X: -0.001, Y: 1.5, Z: -1.0 / 3}, 2))
}

func TestColor(t *testing.T) {
	assert.Equal(t, "#1f77b4", ColorC0.Hex())
	assert.Equal(t, "#000000", Color("nope").Hex())

	c := ColorC2.RGBA(0.5)
	assert.Equal(t, uint8(127), c.A)
	assert.Equal(t, uint8(0xff), ColorC1.RGBA(0).A)
}
