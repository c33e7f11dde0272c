// Package config loads engine settings from a YAML file, the environment
// and the host profile, in increasing order of precedence: profile defaults,
// file, FRAMECOMP_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/renderer"
	"github.com/ivlev/framecomp/internal/system"
)

// Canvas is the output geometry. A non-empty Preset overrides Width and
// Height.
type Canvas struct {
	Preset string  `yaml:"preset,omitempty"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FPS    float64 `yaml:"fps"`
}

type Render struct {
	Workers       int           `yaml:"workers"`
	CacheSize     int           `yaml:"cache_size"` // frames; 0 sizes from available memory
	FrameEpsilon  float64       `yaml:"frame_epsilon"`
	SourceTimeout time.Duration `yaml:"source_timeout"`
	WipeSoftness  float64       `yaml:"wipe_softness"`
	ExportWorkers int           `yaml:"export_workers"`
}

type Sources struct {
	PageDuration float64 `yaml:"page_duration"`
	DPI          int     `yaml:"dpi"`
	PageCache    int     `yaml:"page_cache"`
	ImageCache   int     `yaml:"image_cache"`
	ImageFPS     float64 `yaml:"image_fps"`
}

type Slideshow struct {
	Transition string  `yaml:"transition"`
	Fade       float64 `yaml:"fade"`
	Variation  float64 `yaml:"variation"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Config is the complete engine configuration.
type Config struct {
	Canvas    Canvas    `yaml:"canvas"`
	Render    Render    `yaml:"render"`
	Sources   Sources   `yaml:"sources"`
	Slideshow Slideshow `yaml:"slideshow"`
	Logging   Logging   `yaml:"logging"`

	cacheBudget uint64
}

// Presets maps canvas preset names to width and height.
var Presets = map[string][2]int{
	"16:9": {1280, 720},
	"9:16": {720, 1280},
	"4:5":  {1080, 1350},
}

// Default sizes the worker pool and the cache budget from p.
func Default(p system.Profile) Config {
	workers := p.CPUs
	if workers < 1 {
		workers = 1
	}
	return Config{
		Canvas: Canvas{Width: 1280, Height: 720, FPS: 25},
		Render: Render{
			Workers:       workers,
			FrameEpsilon:  1e-3,
			SourceTimeout: 2 * time.Second,
			WipeSoftness:  0.05,
			ExportWorkers: workers,
		},
		Sources: Sources{
			PageDuration: 5,
			DPI:          150,
			PageCache:    16,
			ImageCache:   64,
			ImageFPS:     25,
		},
		Slideshow: Slideshow{
			Transition: "crossfade",
			Fade:       0.5,
			Variation:  0.15,
		},
		Logging:     Logging{Level: "info", Format: "text"},
		cacheBudget: p.CacheBudget,
	}
}

// Load builds the configuration. An empty path skips the file.
func Load(path string, p system.Profile) (*Config, error) {
	cfg := Default(p)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if c.Canvas.Preset != "" {
		size, ok := Presets[c.Canvas.Preset]
		if !ok {
			return fmt.Errorf("%w: unknown canvas preset %q", errdefs.ErrValidation, c.Canvas.Preset)
		}
		c.Canvas.Width, c.Canvas.Height = size[0], size[1]
	}
	if c.Render.CacheSize <= 0 {
		c.Render.CacheSize = system.CacheEntries(c.cacheBudget, c.Canvas.Width, c.Canvas.Height)
	}
	if c.Render.ExportWorkers <= 0 {
		c.Render.ExportWorkers = c.Render.Workers
	}
	return nil
}

// Validate reports every setting outside its domain.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{errdefs.ErrValidation}, args...)...))
		}
	}
	check(c.Canvas.Width > 0 && c.Canvas.Height > 0, "canvas %dx%d", c.Canvas.Width, c.Canvas.Height)
	check(c.Canvas.FPS > 0, "fps %v", c.Canvas.FPS)
	check(c.Render.Workers > 0, "workers %d", c.Render.Workers)
	check(c.Render.FrameEpsilon > 0, "frame epsilon %v", c.Render.FrameEpsilon)
	check(c.Render.SourceTimeout > 0, "source timeout %v", c.Render.SourceTimeout)
	check(c.Render.WipeSoftness >= 0 && c.Render.WipeSoftness <= 1, "wipe softness %v", c.Render.WipeSoftness)
	check(c.Sources.PageDuration > 0, "page duration %v", c.Sources.PageDuration)
	check(c.Sources.DPI > 0, "dpi %d", c.Sources.DPI)
	check(c.Slideshow.Fade >= 0, "fade %v", c.Slideshow.Fade)
	check(c.Slideshow.Variation >= 0 && c.Slideshow.Variation < 1, "variation %v", c.Slideshow.Variation)
	check(c.Logging.Format == "text" || c.Logging.Format == "json", "log format %q", c.Logging.Format)
	return errors.Join(errs...)
}

// RendererConfig maps the render settings onto the compositor.
func (c *Config) RendererConfig() renderer.Config {
	return renderer.Config{
		Width:         c.Canvas.Width,
		Height:        c.Canvas.Height,
		FrameEpsilon:  c.Render.FrameEpsilon,
		Workers:       c.Render.Workers,
		CacheSize:     c.Render.CacheSize,
		SourceTimeout: c.Render.SourceTimeout,
		WipeSoftness:  c.Render.WipeSoftness,
	}
}
