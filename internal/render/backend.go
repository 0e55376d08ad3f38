// Package render draws scenes onto explicit drawing surfaces.
//
// A Surface is created for one scene and one backend, receives every element
// through Draw, and is then written out. There is no package-level figure or
// axes state: callers hold the surface handle.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/ssp.report/internal/monitoring"
	"github.com/banshee-data/ssp.report/internal/scene"
)

// Backend selects a rendering implementation.
type Backend string

const (
	// BackendPlotPNG renders a static orthographic view with gonum/plot.
	BackendPlotPNG Backend = "plot-png"
	// BackendPlotSVG is BackendPlotPNG written as SVG.
	BackendPlotSVG Backend = "plot-svg"
	// BackendECharts renders an interactive 3D HTML page with go-echarts.
	BackendECharts Backend = "echarts-html"
)

// Backends lists every supported backend.
func Backends() []Backend {
	return []Backend{BackendPlotPNG, BackendPlotSVG, BackendECharts}
}

// ParseBackend resolves a backend name. "png", "svg" and "html" are
// accepted as short forms.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(BackendPlotPNG), "png":
		return BackendPlotPNG, nil
	case string(BackendPlotSVG), "svg":
		return BackendPlotSVG, nil
	case string(BackendECharts), "echarts", "html":
		return BackendECharts, nil
	}
	return "", fmt.Errorf("unknown render backend %q (supported: %v)", s, Backends())
}

// Extension returns the file extension written by the backend.
func (b Backend) Extension() string {
	switch b {
	case BackendPlotPNG:
		return ".png"
	case BackendPlotSVG:
		return ".svg"
	case BackendECharts:
		return ".html"
	default:
		return ""
	}
}

// DefaultAssetsHost is where the echarts backend loads its javascript from.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// Options size the output. Width and Height are in inches; the HTML backend
// converts at 96 px per inch.
type Options struct {
	Width      float64
	Height     float64
	AssetsHost string
}

// DefaultOptions returns an 8x8 inch canvas.
func DefaultOptions() Options {
	return Options{Width: 8, Height: 8, AssetsHost: DefaultAssetsHost}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.AssetsHost == "" {
		o.AssetsHost = d.AssetsHost
	}
	return o
}

// Surface is a drawing target for one scene.
type Surface interface {
	DrawSegment(scene.Segment) error
	DrawMarker(scene.Marker) error
	DrawArrow(scene.Arrow) error
	DrawMesh(scene.Mesh) error
	DrawLabel(scene.Label) error

	// WriteTo encodes everything drawn so far.
	io.WriterTo
}

// NewSurface returns an empty surface for sc on backend b.
func NewSurface(b Backend, sc *scene.Scene, o Options) (Surface, error) {
	if sc == nil {
		return nil, fmt.Errorf("nil scene")
	}
	o = o.withDefaults()
	switch b {
	case BackendPlotPNG:
		return newPlotSurface(sc, "png", o), nil
	case BackendPlotSVG:
		return newPlotSurface(sc, "svg", o), nil
	case BackendECharts:
		return newEChartsSurface(sc, o), nil
	}
	return nil, fmt.Errorf("unknown render backend %q", b)
}

// Draw sends every element of sc to s in order.
func Draw(s Surface, sc *scene.Scene) error {
	for i, e := range sc.Elements {
		var err error
		switch el := e.(type) {
		case scene.Segment:
			err = s.DrawSegment(el)
		case scene.Marker:
			err = s.DrawMarker(el)
		case scene.Arrow:
			err = s.DrawArrow(el)
		case scene.Mesh:
			err = s.DrawMesh(el)
		case scene.Label:
			err = s.DrawLabel(el)
		default:
			err = fmt.Errorf("unsupported element %T", e)
		}
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// RenderScene draws sc with backend b and writes the result to w.
func RenderScene(b Backend, sc *scene.Scene, o Options, w io.Writer) (int64, error) {
	s, err := NewSurface(b, sc, o)
	if err != nil {
		return 0, err
	}
	if err := Draw(s, sc); err != nil {
		return 0, fmt.Errorf("draw %s: %w", sc.Name, err)
	}
	n, err := s.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", sc.Name, err)
	}
	monitoring.Logf("render: scene %s: %d elements, %d bytes (%s)", sc.Name, len(sc.Elements), n, b)
	return n, nil
}
