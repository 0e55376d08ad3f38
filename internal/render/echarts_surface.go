package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/banshee-data/ssp.report/internal/projection"
	"github.com/banshee-data/ssp.report/internal/scene"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"gonum.org/v1/gonum/spatial/r3"
)

const pixelsPerInch = 96

// echartsSurface draws a scene into a single interactive grid3D. Lines go in
// as line3D series and markers, meshes and labels as scatter3D series on the
// same chart so they share one set of axes.
type echartsSurface struct {
	chart  *charts.Line3D
	series int
}

func newEChartsSurface(sc *scene.Scene, o Options) *echartsSurface {
	c := charts.NewLine3D()
	c.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  sc.Title,
			Width:      fmt.Sprintf("%dpx", int(o.Width*pixelsPerInch)),
			Height:     fmt.Sprintf("%dpx", int(o.Height*pixelsPerInch)),
			AssetsHost: o.AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{Title: sc.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "x", Min: sc.Limits.X.Min, Max: sc.Limits.X.Max}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "y", Min: sc.Limits.Y.Min, Max: sc.Limits.Y.Max}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "z", Min: sc.Limits.Z.Min, Max: sc.Limits.Z.Max}),
	)
	return &echartsSurface{chart: c}
}

func (s *echartsSurface) nextName(kind string) string {
	s.series++
	return fmt.Sprintf("%s-%d", kind, s.series)
}

func chartData(pts ...projection.Point3) []opts.Chart3DData {
	out := make([]opts.Chart3DData, len(pts))
	for i, p := range pts {
		out[i] = opts.Chart3DData{Value: []interface{}{p.X, p.Y, p.Z}}
	}
	return out
}

func (s *echartsSurface) addLine(kind string, st scene.Style, pts ...projection.Point3) {
	ls := opts.LineStyle{Color: st.Color.CSS(st.Alpha), Width: 2, Type: "solid"}
	if st.Width > 0 {
		ls.Width = float32(st.Width)
	}
	if st.Dashed {
		ls.Type = "dashed"
	}
	s.chart.AddSeries(s.nextName(kind), chartData(pts...), charts.WithLineStyleOpts(ls))
}

// addScatter appends a scatter3D series to the line chart.
func (s *echartsSurface) addScatter(kind string, data []opts.Chart3DData, options ...charts.SeriesOpts) {
	series := charts.SingleSeries{
		Name:        s.nextName(kind),
		Type:        types.ChartScatter3D,
		Data:        data,
		CoordSystem: types.ChartCartesian3D,
	}
	series.ConfigureSeriesOpts(options...)
	s.chart.MultiSeries = append(s.chart.MultiSeries, series)
}

func (s *echartsSurface) DrawSegment(seg scene.Segment) error {
	s.addLine("segment", seg.Style, seg.From, seg.To)
	return nil
}

func (s *echartsSurface) DrawMarker(m scene.Marker) error {
	s.addScatter("marker", chartData(m.At),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: m.Style.Color.CSS(m.Style.Alpha)}),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}),
	)
	return nil
}

func (s *echartsSurface) DrawArrow(a scene.Arrow) error {
	tip := a.Tip()
	s.addLine("arrow", a.Style, a.Tail, tip)

	// Barbs lie in a plane containing the vertical axis where possible.
	left, right, ok := arrowWings(a, r3.Vec{Z: 1})
	if !ok {
		return nil
	}
	head := a.Style
	head.Dashed = false
	s.addLine("arrowhead", head, left, tip, right)
	return nil
}

func (s *echartsSurface) DrawMesh(m scene.Mesh) error {
	if len(m.Points) == 0 {
		return nil
	}
	s.addScatter("mesh", chartData(m.Points...),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: m.Style.Color.CSS(m.Style.Alpha)}),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}),
	)
	return nil
}

func (s *echartsSurface) DrawLabel(l scene.Label) error {
	data := chartData(l.At)
	data[0].Name = l.Text
	position := "right"
	if l.Align == scene.AlignRight {
		position = "left"
	}
	s.addScatter("label", data,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "rgba(0,0,0,0)"}),
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 1}),
		charts.WithLabelOpts(opts.Label{
			Show:      opts.Bool(true),
			Position:  position,
			Formatter: "{b}",
			Color:     l.Style.Color.CSS(l.Style.Alpha),
		}),
	)
	return nil
}

func (s *echartsSurface) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if err := s.chart.Render(&buf); err != nil {
		return 0, fmt.Errorf("render chart: %w", err)
	}
	return buf.WriteTo(w)
}
