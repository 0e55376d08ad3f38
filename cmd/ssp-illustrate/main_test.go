package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/ssp.report/internal/config"
	"github.com/banshee-data/ssp.report/internal/fsutil"
	"github.com/banshee-data/ssp.report/internal/monitoring"
	"github.com/banshee-data/ssp.report/internal/projection"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func init() {
	monitoring.SetLogger(nil)
}

func TestFlagDefaults(t *testing.T) {
	if *illustration != "all" {
		t.Errorf("expected -illustration default 'all', got %q", *illustration)
	}
	if *configPath != "" || *backendName != "" || *outDir != "" || *runID != "" {
		t.Error("expected string flags to default to empty")
	}
	if *showVersion {
		t.Error("expected -version default false")
	}
}

func svgConfig(out string) *config.IllustrationConfig {
	cfg := config.DefaultIllustrationConfig()
	backend := "plot-svg"
	cfg.Backend = &backend
	cfg.OutputDir = &out
	return cfg
}

func TestRun_All(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	m, dir, err := run(mfs, svgConfig("/plots"), "all", "run-1", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/plots", "run-1"), dir)

	assert.Equal(t, []string{
		"/plots/run-1/axis_xy.svg",
		"/plots/run-1/manifest.json",
		"/plots/run-1/orthogonal.svg",
		"/plots/run-1/ssp_proj_false.svg",
		"/plots/run-1/ssp_proj_true.svg",
	}, mfs.Files("/plots"))

	svg, err := mfs.ReadFile("/plots/run-1/orthogonal.svg")
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
	axisSVG, err := mfs.ReadFile("/plots/run-1/axis_xy.svg")
	require.NoError(t, err)

	data, err := mfs.ReadFile("/plots/run-1/manifest.json")
	require.NoError(t, err)
	var got Manifest
	require.NoError(t, json.Unmarshal(data, &got))
	if diff := cmp.Diff(*m, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("manifest on disk differs (-returned +disk):\n%s", diff)
	}

	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "plot-svg", got.Backend)
	assert.True(t, now.Equal(got.CreatedAt), "created_at = %v", got.CreatedAt)
	require.Len(t, got.Illustrations, 4)

	axis := got.Illustrations[0]
	assert.Equal(t, "axis_xy", axis.Name)
	assert.Equal(t, "axis_xy.svg", axis.File)
	assert.Equal(t, int64(len(axisSVG)), axis.Bytes)
	require.NotNil(t, axis.Projected)
	assert.Equal(t, projection.Point3{X: 3, Y: 2, Z: 0}, *axis.Projected)
	assert.Nil(t, axis.SSP)

	ortho := got.Illustrations[1]
	require.NotNil(t, ortho.Matrix)
	assert.True(t, ortho.Matrix.IsIdempotent(projection.DefaultTolerance))
	assert.InDelta(t, 43.0/11, ortho.Projected.Z, 1e-9)

	assert.Equal(t, "ssp_proj_false", got.Illustrations[2].Name)
	assert.Equal(t, "ssp_proj_true", got.Illustrations[3].Name)
}

func TestRun_SSP(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	m, dir, err := run(mfs, svgConfig("/plots"), "ssp", "ssp-run", time.Now())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/plots/ssp-run/manifest.json",
		"/plots/ssp-run/ssp_proj_false.svg",
		"/plots/ssp-run/ssp_proj_true.svg",
	}, mfs.Files("/plots"))

	require.Len(t, m.Illustrations, 2)
	for i, proj := range []bool{false, true} {
		e := m.Illustrations[i]
		require.NotNil(t, e.SSP, e.Name)
		assert.Nil(t, e.Matrix)
		assert.Nil(t, e.Projected)

		assert.Equal(t, proj, e.SSP.Proj)
		assert.Equal(t, []string{"ecg"}, e.SSP.Projectors)
		assert.Equal(t, 8, e.SSP.Channels)
		assert.Equal(t, 600, e.SSP.Samples)
		require.Len(t, e.SSP.ExplainedVariance, 1)
		assert.Greater(t, e.SSP.ExplainedVariance[0], 0.9)

		svg, err := mfs.ReadFile(filepath.Join(dir, e.File))
		require.NoError(t, err)
		assert.Equal(t, int64(len(svg)), e.Bytes)
		assert.Contains(t, string(svg), "<svg")
		assert.Contains(t, string(svg), e.Title)
	}
	assert.Equal(t, "proj=false", m.Illustrations[0].Title)
	assert.Equal(t, 0, m.Illustrations[0].SSP.Rank)
	assert.Equal(t, "proj=true", m.Illustrations[1].Title)
	assert.Equal(t, 1, m.Illustrations[1].SSP.Rank)

	data, err := mfs.ReadFile(filepath.Join(dir, manifestName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"proj": true`)
	assert.NotContains(t, string(data), `"matrix"`)
}

func TestRun_SSPHTML(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	cfg := svgConfig("/out")
	html := "echarts-html"
	cfg.Backend = &html

	m, dir, err := run(mfs, cfg, "SSP", "h", time.Now())
	require.NoError(t, err)
	require.Len(t, m.Illustrations, 2)
	page, err := mfs.ReadFile(filepath.Join(dir, "ssp_proj_true.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "proj=true")
	assert.Contains(t, string(page), "ch07")
}

func TestBuildSSP(t *testing.T) {
	figs, err := buildSSP()
	require.NoError(t, err)
	assert.Equal(t, 1, figs.rank)
	assert.Equal(t, "ecg", figs.projector.Name)

	// proj=false is the raw recording; proj=true has lower power.
	raw, clean := figs.data[0], figs.data[1]
	assert.Less(t, mat.Norm(clean, 2), mat.Norm(raw, 2))

	lo, hi := amplitudeRange(raw, clean)
	assert.Equal(t, -hi, lo)
	assert.GreaterOrEqual(t, hi, mat.Max(raw))
	assert.GreaterOrEqual(t, -lo, -mat.Min(clean))
}

func TestRun_SingleIllustrationAndRandomID(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	cfg := svgConfig("/out")
	html := "html"
	cfg.Backend = &html

	m, dir, err := run(mfs, cfg, "Orthogonal", "", time.Now())
	require.NoError(t, err)

	_, err = uuid.Parse(m.RunID)
	assert.NoError(t, err, "run id should be a uuid")
	assert.Equal(t, filepath.Join("/out", m.RunID), dir)
	require.Len(t, m.Illustrations, 1)
	assert.Equal(t, "orthogonal.html", m.Illustrations[0].File)
	assert.True(t, mfs.Exists(filepath.Join(dir, "orthogonal.html")))
}

func TestRun_Errors(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()

	_, _, err := run(mfs, svgConfig("/out"), "browser", "x", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown illustration")

	cfg := svgConfig("/out")
	cfg.TriggerEffect = &[3]float64{0, 0, 0}
	_, _, err = run(mfs, cfg, "orthogonal", "x", time.Now())
	assert.True(t, errors.Is(err, projection.ErrDegenerateInput))

	// The axis illustration does not depend on the trigger effect.
	_, _, err = run(mfs, cfg, "axis", "x", time.Now())
	assert.NoError(t, err)

	// A second run with the same id must not overwrite the first.
	before, err := mfs.ReadFile("/out/x/manifest.json")
	require.NoError(t, err)
	_, _, err = run(mfs, svgConfig("/out"), "all", "x", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	after, err := mfs.ReadFile("/out/x/manifest.json")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.False(t, mfs.Exists("/out/x/orthogonal.svg"))
}

func TestRun_HorizontalTriggerEffect(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	cfg := svgConfig("/out")
	cfg.TriggerEffect = &[3]float64{1, 1, 0}

	m, _, err := run(mfs, cfg, "orthogonal", "flat", time.Now())
	require.NoError(t, err)
	require.Len(t, m.Illustrations, 1)
	assert.InDelta(t, 0.5, m.Illustrations[0].Projected.X, 1e-9)
	assert.InDelta(t, -0.5, m.Illustrations[0].Projected.Y, 1e-9)
}

func TestLoadConfig_Precedence(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("/etc", 0755))
	require.NoError(t, mfs.WriteFile("/etc/ssp.json", []byte(`{"backend": "svg", "output_dir": "/from-file", "keep_axes": "xz"}`), 0644))

	t.Setenv("SSP_OUTPUT_DIR", "/from-env")
	t.Setenv("SSP_BACKEND", "")
	t.Setenv("SSP_KEEP_AXES", "")

	cfg, err := loadConfig(mfs, "/etc/ssp.json", "html", "")
	require.NoError(t, err)
	assert.Equal(t, "echarts-html", string(cfg.GetBackend()))
	assert.Equal(t, "/from-env", cfg.GetOutputDir())
	assert.Equal(t, []projection.Axis{projection.AxisX, projection.AxisZ}, cfg.GetKeepAxes())

	cfg, err = loadConfig(mfs, "", "", "/from-flag")
	require.NoError(t, err)
	assert.Equal(t, "/from-flag", cfg.GetOutputDir())

	_, err = loadConfig(mfs, "", "matplotlib", "")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown render backend"))
}
