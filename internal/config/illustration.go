// Package config loads the settings for projection illustrations.
//
// Settings come from an optional JSON file, then SSP_* environment
// variables, then command-line flags. Every JSON field is optional; the Get*
// methods fall back to the defaults for anything not set.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"

	"github.com/banshee-data/ssp.report/internal/fsutil"
	"github.com/banshee-data/ssp.report/internal/projection"
	"github.com/banshee-data/ssp.report/internal/render"
	"github.com/banshee-data/ssp.report/internal/scene"
	"github.com/caarlos0/env/v11"
)

// maxConfigSize bounds the config file (1MB).
const maxConfigSize = 1 * 1024 * 1024

// Defaults used when a field is not set.
const (
	DefaultBackend   = render.BackendPlotPNG
	DefaultOutputDir = "plots"
	DefaultKeepAxes  = "xy"
)

var (
	defaultPoint         = [3]float64{3, 2, 5}
	defaultTriggerEffect = [3]float64{3, -1, 1}
)

// IllustrationConfig is the root configuration for ssp-illustrate.
type IllustrationConfig struct {
	// Rendering
	Backend    *string  `json:"backend,omitempty"`
	OutputDir  *string  `json:"output_dir,omitempty"`
	Width      *float64 `json:"width_inches,omitempty"`
	Height     *float64 `json:"height_inches,omitempty"`
	AssetsHost *string  `json:"assets_host,omitempty"`

	// Geometry
	Point         *[3]float64 `json:"point,omitempty"`
	TriggerEffect *[3]float64 `json:"trigger_effect,omitempty"`
	KeepAxes      *string     `json:"keep_axes,omitempty"` // e.g. "xy" or "x,z"
	MeshStep      *float64    `json:"mesh_step,omitempty"`

	// Camera, degrees
	Azimuth   *float64 `json:"azimuth,omitempty"`
	Elevation *float64 `json:"elevation,omitempty"`
}

// envOverrides are read from the process environment by ApplyEnv.
type envOverrides struct {
	Backend   string `env:"SSP_BACKEND"`
	OutputDir string `env:"SSP_OUTPUT_DIR"`
	KeepAxes  string `env:"SSP_KEEP_AXES"`
}

func ptrString(v string) *string { return &v }

// DefaultIllustrationConfig returns a config with every field set to its
// default value.
func DefaultIllustrationConfig() *IllustrationConfig {
	backend := string(DefaultBackend)
	outputDir := DefaultOutputDir
	keep := DefaultKeepAxes
	point := defaultPoint
	effect := defaultTriggerEffect
	view := scene.DefaultView()
	step := scene.DefaultMeshStep
	opts := render.DefaultOptions()
	return &IllustrationConfig{
		Backend:       &backend,
		OutputDir:     &outputDir,
		Width:         &opts.Width,
		Height:        &opts.Height,
		AssetsHost:    &opts.AssetsHost,
		Point:         &point,
		TriggerEffect: &effect,
		KeepAxes:      &keep,
		MeshStep:      &step,
		Azimuth:       &view.Azimuth,
		Elevation:     &view.Elevation,
	}
}

// LoadIllustrationConfig reads a JSON config through fsys. The file must have
// a .json extension and be at most 1MB. Omitted fields stay nil.
func LoadIllustrationConfig(fsys fsutil.FileSystem, path string) (*IllustrationConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &IllustrationConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SSP_BACKEND, SSP_OUTPUT_DIR and
// SSP_KEEP_AXES in the process environment.
func (c *IllustrationConfig) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return c.applyOverrides(o)
}

// ApplyEnvFrom is ApplyEnv reading from environ instead of the process.
func (c *IllustrationConfig) ApplyEnvFrom(environ map[string]string) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return c.applyOverrides(o)
}

func (c *IllustrationConfig) applyOverrides(o envOverrides) error {
	if o.Backend != "" {
		c.Backend = ptrString(o.Backend)
	}
	if o.OutputDir != "" {
		c.OutputDir = ptrString(o.OutputDir)
	}
	if o.KeepAxes != "" {
		c.KeepAxes = ptrString(o.KeepAxes)
	}
	return c.Validate()
}

// Validate checks that the set fields are usable.
func (c *IllustrationConfig) Validate() error {
	if c.Backend != nil {
		if _, err := render.ParseBackend(*c.Backend); err != nil {
			return err
		}
	}
	if c.OutputDir != nil && *c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if c.KeepAxes != nil {
		if _, err := projection.ParseAxes(*c.KeepAxes); err != nil {
			return fmt.Errorf("keep_axes: %w", err)
		}
	}
	if c.MeshStep != nil {
		lim := scene.DefaultLimits()
		if err := scene.CheckMeshStep(lim.X, lim.Y, *c.MeshStep); err != nil {
			return fmt.Errorf("mesh_step: %w", err)
		}
	}
	for name, v := range map[string]*float64{"width_inches": c.Width, "height_inches": c.Height} {
		if v != nil && (!(*v > 0) || *v > 100) {
			return fmt.Errorf("%s must be in (0, 100], got %v", name, *v)
		}
	}
	for name, v := range map[string]*float64{"azimuth": c.Azimuth, "elevation": c.Elevation} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%s must be finite", name)
		}
	}
	for name, v := range map[string]*[3]float64{"point": c.Point, "trigger_effect": c.TriggerEffect} {
		if v == nil {
			continue
		}
		for _, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("%s must be finite, got %v", name, *v)
			}
		}
	}
	return nil
}

// GetBackend returns the configured backend or the default.
func (c *IllustrationConfig) GetBackend() render.Backend {
	if c.Backend == nil {
		return DefaultBackend
	}
	b, err := render.ParseBackend(*c.Backend)
	if err != nil {
		return DefaultBackend
	}
	return b
}

// GetOutputDir returns the output directory or the default.
func (c *IllustrationConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return DefaultOutputDir
	}
	return *c.OutputDir
}

// GetPoint returns the illustrated point or the default (3, 2, 5).
func (c *IllustrationConfig) GetPoint() projection.Point3 {
	return toPoint(c.Point, defaultPoint)
}

// GetTriggerEffect returns the direction to project out or the default
// (3, -1, 1).
func (c *IllustrationConfig) GetTriggerEffect() projection.Point3 {
	return toPoint(c.TriggerEffect, defaultTriggerEffect)
}

func toPoint(v *[3]float64, def [3]float64) projection.Point3 {
	if v == nil {
		v = &def
	}
	return projection.Point3{X: v[0], Y: v[1], Z: v[2]}
}

// GetKeepAxes returns the axes kept by the axis projection or the default x,y.
func (c *IllustrationConfig) GetKeepAxes() []projection.Axis {
	if c.KeepAxes != nil {
		if axes, err := projection.ParseAxes(*c.KeepAxes); err == nil {
			return axes
		}
	}
	return []projection.Axis{projection.AxisX, projection.AxisY}
}

// SceneParams returns the scene settings with defaults applied.
func (c *IllustrationConfig) SceneParams() scene.Params {
	p := scene.DefaultParams()
	if c.Azimuth != nil {
		p.View.Azimuth = *c.Azimuth
	}
	if c.Elevation != nil {
		p.View.Elevation = *c.Elevation
	}
	if c.MeshStep != nil && *c.MeshStep > 0 {
		p.MeshStep = *c.MeshStep
	}
	return p
}

// RenderOptions returns the output size and asset host with defaults applied.
func (c *IllustrationConfig) RenderOptions() render.Options {
	o := render.DefaultOptions()
	if c.Width != nil {
		o.Width = *c.Width
	}
	if c.Height != nil {
		o.Height = *c.Height
	}
	if c.AssetsHost != nil && *c.AssetsHost != "" {
		o.AssetsHost = *c.AssetsHost
	}
	return o
}
