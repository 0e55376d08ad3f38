// Package scene assembles the numeric content of a projection illustration:
// the segments, markers, arrows, meshes and labels a renderer draws. It does
// no drawing itself.
package scene

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/ssp.report/internal/projection"
)

// Color names a palette entry.
type Color string

const (
	ColorBlack Color = "k"
	ColorC0    Color = "C0"
	ColorC1    Color = "C1"
	ColorC2    Color = "C2"
)

var palette = map[Color]color.RGBA{
	ColorBlack: {R: 0x00, G: 0x00, B: 0x00, A: 0xff},
	ColorC0:    {R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	ColorC1:    {R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	ColorC2:    {R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
}

// RGBA returns the palette colour with alpha in [0,1] applied. Unknown
// names fall back to black.
func (c Color) RGBA(alpha float64) color.RGBA {
	rgba, ok := palette[c]
	if !ok {
		rgba = palette[ColorBlack]
	}
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	// image/color expects premultiplied alpha.
	return color.RGBA{
		R: uint8(float64(rgba.R) * alpha),
		G: uint8(float64(rgba.G) * alpha),
		B: uint8(float64(rgba.B) * alpha),
		A: uint8(255 * alpha),
	}
}

// Hex returns the colour as #rrggbb.
func (c Color) Hex() string {
	rgba, ok := palette[c]
	if !ok {
		rgba = palette[ColorBlack]
	}
	return fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
}

// Style is shared by every element kind.
type Style struct {
	Color  Color
	Alpha  float64 // 0 means opaque
	Width  float64 // points; 0 means renderer default
	Dashed bool
}

// Align is the horizontal anchor of a label.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Element is one drawable item. The concrete types are Segment, Marker,
// Arrow, Mesh and Label.
type Element interface {
	element()
}

// Segment is a straight line between two points.
type Segment struct {
	From, To projection.Point3
	Style    Style
}

// Marker is a single point drawn with a glyph.
type Marker struct {
	At    projection.Point3
	Style Style
}

// Arrow starts at Tail and points along Delta. Length scales Delta and
// HeadRatio is the arrow head size relative to the drawn length.
type Arrow struct {
	Tail      projection.Point3
	Delta     projection.Point3
	Length    float64
	HeadRatio float64
	Style     Style
}

// Tip returns the end point of the drawn shaft.
func (a Arrow) Tip() projection.Point3 {
	l := a.Length
	if l == 0 {
		l = 1
	}
	return projection.Point3{
		X: a.Tail.X + l*a.Delta.X,
		Y: a.Tail.Y + l*a.Delta.Y,
		Z: a.Tail.Z + l*a.Delta.Z,
	}
}

// Mesh is a sampled surface.
type Mesh struct {
	Points []projection.Point3
	Style  Style
}

// Label is text anchored at a point.
type Label struct {
	At    projection.Point3
	Text  string
	Align Align
	Style Style
}

func (Segment) element() {}
func (Marker) element()  {}
func (Arrow) element()   {}
func (Mesh) element()    {}
func (Label) element()   {}

// Range is a closed interval.
type Range struct {
	Min, Max float64
}

// Contains reports whether v lies in r.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Limits are the visible axis ranges.
type Limits struct {
	X, Y, Z Range
}

// DefaultLimits returns x,y in [-1,5] and z in [0,5].
func DefaultLimits() Limits {
	return Limits{
		X: Range{Min: -1, Max: 5},
		Y: Range{Min: -1, Max: 5},
		Z: Range{Min: 0, Max: 5},
	}
}

// View is the camera orientation in degrees.
type View struct {
	Azimuth   float64
	Elevation float64
}

// DefaultView returns azimuth -105°, elevation 20°.
func DefaultView() View {
	return View{Azimuth: -105, Elevation: 20}
}

// Scene is one illustration ready to hand to a renderer.
type Scene struct {
	Name     string
	Title    string
	Limits   Limits
	View     View
	Elements []Element

	// Matrix is the projection the scene illustrates, with the point before
	// and after applying it.
	Matrix    projection.Matrix
	Original  projection.Point3
	Projected projection.Point3
}

func (s *Scene) add(e ...Element) {
	s.Elements = append(s.Elements, e...)
}

// FormatPoint renders p as "(x, y, z)" with each coordinate rounded to
// decimals places and trailing zeros dropped.
func FormatPoint(p projection.Point3, decimals int) string {
	parts := make([]string, 0, 3)
	for _, v := range []float64{p.X, p.Y, p.Z} {
		parts = append(parts, formatCoord(v, decimals))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatCoord(v float64, decimals int) string {
	scale := math.Pow(10, float64(decimals))
	r := math.Round(v*scale) / scale
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// CSS returns the colour as an rgba() string with alpha in [0,1] applied.
func (c Color) CSS(alpha float64) string {
	rgba, ok := palette[c]
	if !ok {
		rgba = palette[ColorBlack]
	}
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%.2f)", rgba.R, rgba.G, rgba.B, alpha)
}
