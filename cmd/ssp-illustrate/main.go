// Command ssp-illustrate renders the projection illustrations: a point
// projected onto coordinate axes, the same point with a trigger effect
// direction projected out, and a simulated multichannel recording shown with
// its artifact projector off and on.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/ssp.report/internal/config"
	"github.com/banshee-data/ssp.report/internal/fsutil"
	"github.com/banshee-data/ssp.report/internal/monitoring"
	"github.com/banshee-data/ssp.report/internal/projection"
	"github.com/banshee-data/ssp.report/internal/render"
	"github.com/banshee-data/ssp.report/internal/scene"
	"github.com/banshee-data/ssp.report/internal/ssp"
	"github.com/banshee-data/ssp.report/internal/version"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

var (
	configPath   = flag.String("config", "", "Path to a JSON illustration config (optional)")
	backendName  = flag.String("backend", "", "Render backend: plot-png, plot-svg or echarts-html (overrides config)")
	outDir       = flag.String("out", "", "Output directory (overrides config)")
	illustration = flag.String("illustration", "all", "Illustration to render: axis, orthogonal, ssp or all")
	runID        = flag.String("run-id", "", "Name of the run directory under -out (default: random UUID)")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

const manifestName = "manifest.json"

// Manifest describes one run's outputs.
type Manifest struct {
	RunID         string    `json:"run_id"`
	Version       string    `json:"version"`
	Backend       string    `json:"backend"`
	CreatedAt     time.Time `json:"created_at"`
	Illustrations []Entry   `json:"illustrations"`
}

// Entry is one rendered figure. Scene figures carry the matrix and points;
// SSP figures carry the projector state.
type Entry struct {
	Name      string             `json:"name"`
	Title     string             `json:"title"`
	File      string             `json:"file"`
	Bytes     int64              `json:"bytes"`
	Matrix    *projection.Matrix `json:"matrix,omitempty"`
	Original  *projection.Point3 `json:"original,omitempty"`
	Projected *projection.Point3 `json:"projected,omitempty"`
	SSP       *SSPInfo           `json:"ssp,omitempty"`
}

// SSPInfo records how an SSP figure was produced.
type SSPInfo struct {
	Proj              bool      `json:"proj"`
	Projectors        []string  `json:"projectors"`
	Rank              int       `json:"rank"`
	ExplainedVariance []float64 `json:"explained_variance"`
	Channels          int       `json:"channels"`
	Samples           int       `json:"samples"`
}

// Illustration names accepted by -illustration.
const (
	illustrationAxis       = "axis"
	illustrationOrthogonal = "orthogonal"
	illustrationSSP        = "ssp"
	illustrationAll        = "all"
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("ssp-illustrate", version.String())
		return
	}

	fsys := fsutil.OSFileSystem{}
	cfg, err := loadConfig(fsys, *configPath, *backendName, *outDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	m, dir, err := run(fsys, cfg, *illustration, *runID, time.Now())
	if err != nil {
		log.Fatalf("illustration failed: %v", err)
	}
	log.Printf("wrote %d illustrations to %s", len(m.Illustrations), dir)
}

// loadConfig layers the config file, SSP_* environment and flags, in that
// order of increasing precedence.
func loadConfig(fsys fsutil.FileSystem, path, backend, out string) (*config.IllustrationConfig, error) {
	cfg := &config.IllustrationConfig{}
	if path != "" {
		var err error
		if cfg, err = config.LoadIllustrationConfig(fsys, path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if backend != "" {
		cfg.Backend = &backend
	}
	if out != "" {
		cfg.OutputDir = &out
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// selected reports whether illustration name is included by which.
func selected(which, name string) bool {
	return which == illustrationAll || which == name
}

// buildScenes returns the 3D scenes selected by which.
func buildScenes(cfg *config.IllustrationConfig, which string) ([]*scene.Scene, error) {
	params := cfg.SceneParams()
	point := cfg.GetPoint()

	var scenes []*scene.Scene
	if selected(which, illustrationAxis) {
		sc, err := scene.NewAxisScene(params, point, cfg.GetKeepAxes()...)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, sc)
	}
	if selected(which, illustrationOrthogonal) {
		sc, err := scene.NewOrthogonalScene(params, point, cfg.GetTriggerEffect())
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, sc)
	}
	return scenes, nil
}

// sspFigures is the simulated recording before and after projection.
type sspFigures struct {
	sim       ssp.Simulation
	projector *ssp.Projector
	rank      int
	// data is indexed by the proj flag: false then true.
	data [2]*mat.Dense
}

// buildSSP simulates a recording with a heartbeat artifact, estimates a
// one-component projector from the artifact and applies it.
func buildSSP() (*sspFigures, error) {
	sim := ssp.DefaultSimulation()
	rec, err := sim.Simulate()
	if err != nil {
		return nil, fmt.Errorf("failed to simulate recording: %w", err)
	}
	p, err := ssp.ComputeProjector("ecg", rec.Artifact, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to compute projector: %w", err)
	}
	set := ssp.NewSet()
	if err := set.Add(p); err != nil {
		return nil, err
	}
	_, rank, err := set.Matrix()
	if err != nil {
		return nil, err
	}

	f := &sspFigures{sim: sim, projector: p, rank: rank}
	for i, proj := range []bool{false, true} {
		if f.data[i], err = set.Apply(rec.Data, proj); err != nil {
			return nil, fmt.Errorf("failed to apply projectors (proj=%t): %w", proj, err)
		}
	}
	return f, nil
}

// amplitudeRange returns a symmetric range covering every value of ms.
func amplitudeRange(ms ...*mat.Dense) (float64, float64) {
	var peak float64
	for _, m := range ms {
		peak = math.Max(peak, math.Max(mat.Max(m), -mat.Min(m)))
	}
	peak *= 1.05
	return -peak, peak
}

// run renders the selected illustrations into <output dir>/<id> and writes
// the manifest alongside them. It returns the manifest and the run directory.
// An existing run directory is never overwritten.
func run(fsys fsutil.FileSystem, cfg *config.IllustrationConfig, which, id string, now time.Time) (*Manifest, string, error) {
	which = strings.ToLower(which)
	switch which {
	case illustrationAxis, illustrationOrthogonal, illustrationSSP, illustrationAll:
	default:
		return nil, "", fmt.Errorf("unknown illustration %q (want axis, orthogonal, ssp or all)", which)
	}

	scenes, err := buildScenes(cfg, which)
	if err != nil {
		return nil, "", err
	}
	var figs *sspFigures
	if selected(which, illustrationSSP) {
		if figs, err = buildSSP(); err != nil {
			return nil, "", err
		}
	}

	if id == "" {
		id = uuid.NewString()
	}
	dir := filepath.Join(cfg.GetOutputDir(), id)
	if fsys.Exists(dir) {
		return nil, "", fmt.Errorf("run directory %s already exists", dir)
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create output dir: %w", err)
	}

	logf := monitoring.Prefixed("ssp-illustrate: ")
	backend := cfg.GetBackend()
	opts := cfg.RenderOptions()
	m := &Manifest{
		RunID:     id,
		Version:   version.Version,
		Backend:   string(backend),
		CreatedAt: now.UTC(),
	}

	for _, sc := range scenes {
		name := sc.Name + backend.Extension()
		n, err := writeFile(fsys, filepath.Join(dir, name), func(w io.Writer) (int64, error) {
			return render.RenderScene(backend, sc, opts, w)
		})
		if err != nil {
			return nil, "", err
		}
		logf("rendered %s (%s, %d bytes): %v -> %v", sc.Name, backend, n, sc.Original, sc.Projected)

		m.Illustrations = append(m.Illustrations, Entry{
			Name:      sc.Name,
			Title:     sc.Title,
			File:      name,
			Bytes:     n,
			Matrix:    &sc.Matrix,
			Original:  &sc.Original,
			Projected: &sc.Projected,
		})
	}

	if figs != nil {
		entries, err := writeSSP(fsys, dir, backend, opts, figs)
		if err != nil {
			return nil, "", err
		}
		for _, e := range entries {
			logf("rendered %s (%s, %d bytes): rank %d removed", e.Name, backend, e.Bytes, e.SSP.Rank)
		}
		m.Illustrations = append(m.Illustrations, entries...)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := fsys.WriteFile(filepath.Join(dir, manifestName), data, 0644); err != nil {
		return nil, "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return m, dir, nil
}

// writeSSP renders one butterfly plot per proj setting on a shared
// amplitude scale.
func writeSSP(fsys fsutil.FileSystem, dir string, b render.Backend, o render.Options, f *sspFigures) ([]Entry, error) {
	lo, hi := amplitudeRange(f.data[:]...)
	channels, samples := f.data[0].Dims()

	var entries []Entry
	for i, proj := range []bool{false, true} {
		name := fmt.Sprintf("ssp_proj_%t", proj)
		file := name + b.Extension()
		tr := render.Traces{
			Title:      fmt.Sprintf("proj=%t", proj),
			Data:       f.data[i],
			SampleRate: f.sim.SampleRate,
			YMin:       lo,
			YMax:       hi,
		}
		n, err := writeFile(fsys, filepath.Join(dir, file), func(w io.Writer) (int64, error) {
			return render.RenderButterfly(b, tr, o, w)
		})
		if err != nil {
			return nil, err
		}

		info := &SSPInfo{
			Proj:              proj,
			Projectors:        []string{f.projector.Name},
			ExplainedVariance: f.projector.ExplainedVariance,
			Channels:          channels,
			Samples:           samples,
		}
		if proj {
			info.Rank = f.rank
		}
		entries = append(entries, Entry{Name: name, Title: tr.Title, File: file, Bytes: n, SSP: info})
	}
	return entries, nil
}

// writeFile creates path and streams the output of write into it.
func writeFile(fsys fsutil.FileSystem, path string, write func(io.Writer) (int64, error)) (int64, error) {
	f, err := fsys.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	n, err := write(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close %s: %w", path, cerr)
	}
	return n, err
}
