// Package renderer turns a timeline into composite frames.
//
// A render resolves the scene at t, prepares each clip layer on a bounded
// worker pool (source fetch, effects, chroma key, keyframed geometry and
// opacity, transitions) and composites the layers back to front with the
// over operator. Text overlays are stamped last. Results are cached by
// quantized time and timeline version.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/frame"
	"github.com/ivlev/framecomp/internal/source"
	"github.com/ivlev/framecomp/internal/system"
	"github.com/ivlev/framecomp/internal/text"
	"github.com/ivlev/framecomp/internal/timeline"
)

// Mode selects how out-of-range times are handled.
type Mode int

const (
	// ModeSeek fails with ErrOutOfRange outside [0, duration].
	ModeSeek Mode = iota
	// ModePlayback clamps t into [0, duration].
	ModePlayback
)

func (m Mode) String() string {
	if m == ModePlayback {
		return "playback"
	}
	return "seek"
}

// Config sizes the canvas and the render machinery.
type Config struct {
	Width  int
	Height int
	// FrameEpsilon is the time quantum of the cache; requests closer than
	// this share a frame.
	FrameEpsilon float64
	// Workers bounds concurrent layer preparation.
	Workers int
	// CacheSize is the number of composite frames kept.
	CacheSize int
	// SourceTimeout bounds each source fetch. A fetch that times out is
	// treated as a missing source.
	SourceTimeout time.Duration
	// WipeSoftness is the edge width of wipe transitions.
	WipeSoftness float64
}

// DefaultConfig is a 720p canvas at millisecond resolution.
func DefaultConfig() Config {
	return Config{
		Width:         1280,
		Height:        720,
		FrameEpsilon:  1e-3,
		Workers:       4,
		CacheSize:     64,
		SourceTimeout: 2 * time.Second,
	}
}

func (c Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: canvas %dx%d", errdefs.ErrValidation, c.Width, c.Height)
	}
	if !(c.FrameEpsilon > 0) {
		return fmt.Errorf("%w: frame epsilon %v", errdefs.ErrValidation, c.FrameEpsilon)
	}
	if c.Workers <= 0 || c.CacheSize <= 0 {
		return fmt.Errorf("%w: workers %d, cache size %d", errdefs.ErrValidation, c.Workers, c.CacheSize)
	}
	if c.SourceTimeout <= 0 {
		return fmt.Errorf("%w: source timeout %v", errdefs.ErrValidation, c.SourceTimeout)
	}
	if c.WipeSoftness < 0 || c.WipeSoftness > 1 {
		return fmt.Errorf("%w: wipe softness %v", errdefs.ErrValidation, c.WipeSoftness)
	}
	return nil
}

// CompositeFrame is one rendered instant. It is shared through the cache
// and must not be modified.
type CompositeFrame struct {
	// Frame holds premultiplied RGBA.
	Frame   *frame.Frame
	Time    float64
	Version uint64
	// Degraded is set when at least one layer substituted a missing source.
	Degraded      bool
	DegradedClips []timeline.ClipID
}

type cacheKey struct {
	tick    int64
	version uint64
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger for render diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Renderer) { r.log = l }
}

// WithRasterizer replaces the default text rasterizer.
func WithRasterizer(tr text.Rasterizer) Option {
	return func(r *Renderer) { r.text = tr }
}

// WithFramePool sets the pool scratch layers are recycled through.
func WithFramePool(p *system.FramePool) Option {
	return func(r *Renderer) { r.pool = p }
}

// Renderer is safe for concurrent use.
type Renderer struct {
	cfg  Config
	tl   *timeline.Timeline
	src  source.Accessor
	text text.Rasterizer
	pool *system.FramePool
	log  logrus.FieldLogger

	cache  *lru.Cache[cacheKey, *CompositeFrame]
	flight singleflight.Group
}

// New returns a renderer for tl reading frames from src.
func New(tl *timeline.Timeline, src source.Accessor, cfg Config, opts ...Option) (*Renderer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cache, err := lru.New[cacheKey, *CompositeFrame](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("render cache: %w", err)
	}

	r := &Renderer{
		cfg:   cfg,
		tl:    tl,
		src:   src,
		pool:  system.NewFramePool(),
		log:   logrus.StandardLogger(),
		cache: cache,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.text == nil {
		fr, err := text.NewFontRasterizer()
		if err != nil {
			return nil, fmt.Errorf("text rasterizer: %w", err)
		}
		r.text = fr
	}
	return r, nil
}

// Config returns the renderer configuration.
func (r *Renderer) Config() Config { return r.cfg }

// CacheLen reports how many frames are cached.
func (r *Renderer) CacheLen() int { return r.cache.Len() }

// RenderFrameAt renders the composite frame at timeline time t.
//
// Requests within FrameEpsilon of each other at the same timeline version
// return the same frame. Concurrent identical requests share one render.
func (r *Renderer) RenderFrameAt(ctx context.Context, t float64, mode Mode) (*CompositeFrame, error) {
	duration := r.tl.Duration()
	if math.IsNaN(t) {
		return nil, fmt.Errorf("%w: t is NaN", errdefs.ErrOutOfRange)
	}
	if t < 0 || t > duration {
		if mode == ModeSeek {
			return nil, fmt.Errorf("%w: %v not in [0, %v]", errdefs.ErrOutOfRange, t, duration)
		}
		t = math.Max(0, math.Min(t, duration))
	}

	tick := int64(math.Round(t / r.cfg.FrameEpsilon))
	key := cacheKey{tick: tick, version: r.tl.Version()}
	if cf, ok := r.cache.Get(key); ok {
		return cf, nil
	}

	v, err, _ := r.flight.Do(fmt.Sprintf("%d/%d", key.tick, key.version), func() (any, error) {
		if cf, ok := r.cache.Get(key); ok {
			return cf, nil
		}
		qt := math.Max(0, math.Min(float64(tick)*r.cfg.FrameEpsilon, duration))
		cf, err := r.render(ctx, qt)
		if err != nil {
			return nil, err
		}
		r.cache.Add(cacheKey{tick: tick, version: cf.Version}, cf)
		return cf, nil
	})
	if err != nil {
		if ctx.Err() == nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			// joined a render whose caller went away
			return r.RenderFrameAt(ctx, t, mode)
		}
		return nil, err
	}
	return v.(*CompositeFrame), nil
}

func (r *Renderer) render(ctx context.Context, t float64) (*CompositeFrame, error) {
	start := time.Now()
	scene := r.tl.Snapshot(t)
	log := r.log.WithFields(logrus.Fields{
		"request": uuid.NewString(),
		"t":       t,
		"version": scene.Version,
	})

	layers, err := r.prepareLayers(ctx, scene, t, log)
	if err != nil {
		return nil, err
	}

	cf := &CompositeFrame{
		Frame:   frame.New(r.cfg.Width, r.cfg.Height),
		Time:    t,
		Version: scene.Version,
	}
	for _, l := range layers {
		frame.Over(cf.Frame, l.img)
		r.pool.Put(l.img)
		cf.DegradedClips = append(cf.DegradedClips, l.degraded...)
	}
	cf.Degraded = len(cf.DegradedClips) > 0

	for _, o := range scene.Overlays {
		r.stampOverlay(cf.Frame, o, t, log)
	}

	log.WithFields(logrus.Fields{
		"layers":   len(layers),
		"overlays": len(scene.Overlays),
		"degraded": cf.Degraded,
		"elapsed":  time.Since(start),
	}).Debug("frame rendered")
	return cf, nil
}
