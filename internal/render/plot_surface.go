package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/banshee-data/ssp.report/internal/projection"
	"github.com/banshee-data/ssp.report/internal/scene"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	frameColor  = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
	dashPattern = []vg.Length{vg.Points(4), vg.Points(3)}
)

// plotSurface draws a scene as a static orthographic view on a gonum plot.
type plotSurface struct {
	p      *plot.Plot
	cam    Camera
	limits scene.Limits
	format string
	width  vg.Length
	height vg.Length
}

func newPlotSurface(sc *scene.Scene, format string, o Options) *plotSurface {
	p := plot.New()
	p.Title.Text = sc.Title
	p.HideAxes()

	s := &plotSurface{
		p:      p,
		cam:    NewCamera(sc.View),
		limits: sc.Limits,
		format: format,
		width:  vg.Length(o.Width) * vg.Inch,
		height: vg.Length(o.Height) * vg.Inch,
	}
	s.drawFrame()
	return s
}

// drawFrame draws the three axis edges of the limits box from its minimum
// corner, labelled x, y and z.
func (s *plotSurface) drawFrame() {
	l := s.limits
	origin := projection.Point3{X: l.X.Min, Y: l.Y.Min, Z: l.Z.Min}
	ends := []struct {
		name string
		to   projection.Point3
	}{
		{"x", projection.Point3{X: l.X.Max, Y: l.Y.Min, Z: l.Z.Min}},
		{"y", projection.Point3{X: l.X.Min, Y: l.Y.Max, Z: l.Z.Min}},
		{"z", projection.Point3{X: l.X.Min, Y: l.Y.Min, Z: l.Z.Max}},
	}
	for _, e := range ends {
		line, err := plotter.NewLine(s.xys(origin, e.to))
		if err != nil {
			continue
		}
		line.Color = frameColor
		line.Width = vg.Points(0.5)
		s.p.Add(line)

		lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: s.xys(e.to), Labels: []string{e.name}})
		if err != nil {
			continue
		}
		for i := range lbl.TextStyle {
			lbl.TextStyle[i].Color = frameColor
		}
		s.p.Add(lbl)
	}
}

func (s *plotSurface) xys(pts ...projection.Point3) plotter.XYs {
	out := make(plotter.XYs, len(pts))
	for i, p := range pts {
		out[i].X, out[i].Y = s.cam.Project(p)
	}
	return out
}

func lineStyle(st scene.Style) draw.LineStyle {
	ls := draw.LineStyle{
		Color: st.Color.RGBA(st.Alpha),
		Width: vg.Points(1.5),
	}
	if st.Width > 0 {
		ls.Width = vg.Points(st.Width)
	}
	if st.Dashed {
		ls.Dashes = dashPattern
	}
	return ls
}

func (s *plotSurface) addLine(st scene.Style, pts ...projection.Point3) error {
	line, err := plotter.NewLine(s.xys(pts...))
	if err != nil {
		return fmt.Errorf("line: %w", err)
	}
	line.LineStyle = lineStyle(st)
	s.p.Add(line)
	return nil
}

func (s *plotSurface) DrawSegment(seg scene.Segment) error {
	return s.addLine(seg.Style, seg.From, seg.To)
}

func (s *plotSurface) DrawMarker(m scene.Marker) error {
	sc, err := plotter.NewScatter(s.xys(m.At))
	if err != nil {
		return fmt.Errorf("marker: %w", err)
	}
	sc.GlyphStyle = draw.GlyphStyle{
		Color:  m.Style.Color.RGBA(m.Style.Alpha),
		Radius: vg.Points(3),
		Shape:  draw.CircleGlyph{},
	}
	s.p.Add(sc)
	return nil
}

func (s *plotSurface) DrawArrow(a scene.Arrow) error {
	tip := a.Tip()
	if err := s.addLine(a.Style, a.Tail, tip); err != nil {
		return err
	}
	left, right, ok := arrowWings(a, s.cam.Forward())
	if !ok {
		return nil
	}
	head := a.Style
	head.Dashed = false
	return s.addLine(head, left, tip, right)
}

func (s *plotSurface) DrawMesh(m scene.Mesh) error {
	if len(m.Points) == 0 {
		return nil
	}
	sc, err := plotter.NewScatter(s.xys(m.Points...))
	if err != nil {
		return fmt.Errorf("mesh: %w", err)
	}
	sc.GlyphStyle = draw.GlyphStyle{
		Color:  m.Style.Color.RGBA(m.Style.Alpha),
		Radius: vg.Points(1),
		Shape:  draw.CircleGlyph{},
	}
	s.p.Add(sc)
	return nil
}

func (s *plotSurface) DrawLabel(l scene.Label) error {
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: s.xys(l.At), Labels: []string{l.Text}})
	if err != nil {
		return fmt.Errorf("label: %w", err)
	}
	for i := range lbl.TextStyle {
		lbl.TextStyle[i].Color = l.Style.Color.RGBA(l.Style.Alpha)
		if l.Align == scene.AlignRight {
			lbl.TextStyle[i].XAlign = text.XRight
		}
	}
	s.p.Add(lbl)
	return nil
}

// WriteTo fixes the data range to the projected limits box, so content
// outside the limits is clipped, and encodes the plot.
func (s *plotSurface) WriteTo(w io.Writer) (int64, error) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range Corners(s.limits) {
		x, y := s.cam.Project(c)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	s.p.X.Min, s.p.X.Max = minX, maxX
	s.p.Y.Min, s.p.Y.Max = minY, maxY

	wt, err := s.p.WriterTo(s.width, s.height, s.format)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", s.format, err)
	}
	return wt.WriteTo(w)
}
