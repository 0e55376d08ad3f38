package render

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/banshee-data/ssp.report/internal/monitoring"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Traces is multichannel data for a butterfly plot: one row per channel,
// one column per sample.
type Traces struct {
	Title      string
	Data       mat.Matrix
	SampleRate float64
	// YMin and YMax fix the amplitude axis when YMax > YMin, so several
	// plots of the same recording share a scale.
	YMin, YMax float64
}

func (t Traces) validate() error {
	if t.Data == nil {
		return fmt.Errorf("nil trace data")
	}
	if r, c := t.Data.Dims(); r == 0 || c == 0 {
		return fmt.Errorf("empty trace data (%dx%d)", r, c)
	}
	if !(t.SampleRate > 0) || math.IsInf(t.SampleRate, 0) {
		return fmt.Errorf("sample rate must be positive, got %v", t.SampleRate)
	}
	return nil
}

func (t Traces) time(j int) float64 {
	return float64(j) / t.SampleRate
}

// RenderButterfly overlays every channel of tr against time in seconds and
// writes the figure to w.
func RenderButterfly(b Backend, tr Traces, o Options, w io.Writer) (int64, error) {
	if err := tr.validate(); err != nil {
		return 0, err
	}
	o = o.withDefaults()

	var (
		n   int64
		err error
	)
	switch b {
	case BackendPlotPNG:
		n, err = butterflyPlot(tr, "png", o, w)
	case BackendPlotSVG:
		n, err = butterflyPlot(tr, "svg", o, w)
	case BackendECharts:
		n, err = butterflyECharts(tr, o, w)
	default:
		return 0, fmt.Errorf("unknown render backend %q", b)
	}
	if err != nil {
		return n, fmt.Errorf("butterfly %q: %w", tr.Title, err)
	}
	channels, samples := tr.Data.Dims()
	monitoring.Logf("render: butterfly %q: %d channels x %d samples, %d bytes (%s)", tr.Title, channels, samples, n, b)
	return n, nil
}

func butterflyPlot(tr Traces, format string, o Options, w io.Writer) (int64, error) {
	p := plot.New()
	p.Title.Text = tr.Title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Amplitude"
	p.Add(plotter.NewGrid())

	channels, samples := tr.Data.Dims()
	colors := channelColors(channels)
	for i := 0; i < channels; i++ {
		pts := make(plotter.XYs, samples)
		for j := range pts {
			pts[j] = plotter.XY{X: tr.time(j), Y: tr.Data.At(i, j)}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return 0, err
		}
		line.Color = colors[i]
		line.Width = vg.Points(0.75)
		p.Add(line)
	}
	if tr.YMax > tr.YMin {
		p.Y.Min, p.Y.Max = tr.YMin, tr.YMax
	}

	wt, err := p.WriterTo(vg.Length(o.Width)*vg.Inch, vg.Length(o.Height)*vg.Inch, format)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", format, err)
	}
	return wt.WriteTo(w)
}

func butterflyECharts(tr Traces, o Options, w io.Writer) (int64, error) {
	channels, samples := tr.Data.Dims()

	yAxis := opts.YAxis{Name: "Amplitude"}
	if tr.YMax > tr.YMin {
		yAxis.Min, yAxis.Max = tr.YMin, tr.YMax
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  tr.Title,
			Width:      fmt.Sprintf("%dpx", int(o.Width*pixelsPerInch)),
			Height:     fmt.Sprintf("%dpx", int(o.Height*pixelsPerInch)),
			AssetsHost: o.AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{Title: tr.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)"}),
		charts.WithYAxisOpts(yAxis),
	)

	xs := make([]string, samples)
	for j := range xs {
		xs[j] = strconv.FormatFloat(tr.time(j), 'f', 3, 64)
	}
	line.SetXAxis(xs)

	colors := channelColors(channels)
	for i := 0; i < channels; i++ {
		data := make([]opts.LineData, samples)
		for j := range data {
			data[j] = opts.LineData{Value: tr.Data.At(i, j)}
		}
		line.AddSeries(fmt.Sprintf("ch%02d", i), data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: hexColor(colors[i]), Width: 1}),
		)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return 0, fmt.Errorf("render chart: %w", err)
	}
	return buf.WriteTo(w)
}
