package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/framecomp/internal/chroma"
	"github.com/ivlev/framecomp/internal/effects"
	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/frame"
	"github.com/ivlev/framecomp/internal/keyframe"
	"github.com/ivlev/framecomp/internal/timeline"
	"github.com/ivlev/framecomp/internal/transition"
)

// job is one slot in the z-order: a plain clip or a transition pair.
type job struct {
	z     int
	clip  *timeline.Clip
	trans *timeline.ActiveTransition
}

type layer struct {
	img      *frame.Frame
	degraded []timeline.ClipID
}

// plan orders the scene into jobs. A transition takes the place of its
// outgoing clip on the same track, or of the lower of the two clips across
// tracks; the other clip of the pair is not drawn on its own.
func plan(scene timeline.Scene) []job {
	consumed := make(map[timeline.ClipID]bool)
	var jobs []job

	for i := range scene.Transitions {
		tr := &scene.Transitions[i]
		if consumed[tr.From] || consumed[tr.To] {
			continue
		}
		z := tr.Outgoing.Track
		if tr.Incoming.Track != z {
			z = min(z, tr.Incoming.Track)
		}
		jobs = append(jobs, job{z: z, trans: tr})
		consumed[tr.From], consumed[tr.To] = true, true
	}
	for _, c := range scene.Clips {
		if !consumed[c.ID] {
			jobs = append(jobs, job{z: c.Track, clip: c})
		}
	}

	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].z < jobs[j].z })
	return jobs
}

// prepareLayers runs every job on the worker pool and returns the layers in
// z-order. Only cancellation of ctx aborts; source failures degrade a layer.
func (r *Renderer) prepareLayers(ctx context.Context, scene timeline.Scene, t float64, log logrus.FieldLogger) ([]layer, error) {
	jobs := plan(scene)
	layers := make([]layer, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, j := range jobs {
		g.Go(func() error {
			l, err := r.prepareJob(gctx, j, t, log)
			if err != nil {
				return err
			}
			layers[i] = l
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return layers, nil
}

func (r *Renderer) prepareJob(ctx context.Context, j job, t float64, log logrus.FieldLogger) (layer, error) {
	if j.trans == nil {
		img, ok, err := r.prepareClip(ctx, j.clip, t, log)
		if err != nil {
			return layer{}, err
		}
		l := layer{img: img}
		if !ok {
			l.degraded = []timeline.ClipID{j.clip.ID}
		}
		return l, nil
	}

	tr := j.trans
	out, outOK, err := r.prepareClip(ctx, tr.Outgoing, t, log)
	if err != nil {
		return layer{}, err
	}
	in, inOK, err := r.prepareClip(ctx, tr.Incoming, t, log)
	if err != nil {
		return layer{}, err
	}

	var l layer
	if !outOK {
		l.degraded = append(l.degraded, tr.From)
	}
	if !inOK {
		l.degraded = append(l.degraded, tr.To)
	}

	blend, err := transition.Evaluate(tr.Kind, out, in, tr.Progress, transition.Options{Softness: r.cfg.WipeSoftness})
	if err != nil {
		// kinds are validated on insert; keep the outgoing layer
		log.WithFields(logrus.Fields{"from": tr.From, "to": tr.To, "error": err}).Warn("transition failed")
		r.pool.Put(in)
		l.img = out
		return l, nil
	}
	r.pool.Put(out)
	r.pool.Put(in)
	l.img = blend
	return l, nil
}

// prepareClip produces the straight-alpha canvas-sized layer of c at t.
// ok is false when the source was replaced by black.
func (r *Renderer) prepareClip(ctx context.Context, c *timeline.Clip, t float64, log logrus.FieldLogger) (img *frame.Frame, ok bool, err error) {
	w, h := r.cfg.Width, r.cfg.Height
	local := r.sourceTime(c, t)
	clog := log.WithFields(logrus.Fields{"clip": c.ID, "source": c.Source, "local": local})

	ok = true
	raw, err := r.fetch(ctx, c.Source, local)
	switch {
	case err == nil:
		img = frame.Fit(frame.FromImage(raw), w, h)
	case ctx.Err() != nil:
		return nil, false, ctx.Err()
	default:
		clog.WithError(err).Warn("source unavailable, substituting black")
		img = r.pool.Get(w, h)
		img.Fill(0, 0, 0, 1)
		ok = false
	}

	if fx, err := c.Effects.Apply(img, effects.Context{Seed: seed(c.ID, local)}); err != nil {
		clog.WithError(err).Warn("effect pipeline failed, layer left unprocessed")
	} else {
		img = fx
	}

	if c.Chroma != nil {
		keyed, _, err := chroma.Apply(img, *c.Chroma)
		if err != nil {
			clog.WithError(err).Warn("chroma key failed")
		} else {
			img = keyed
		}
	}

	pos := c.Eval(keyframe.Position, t)
	scale := c.Eval(keyframe.Scale, t)
	g := frame.Geometry{
		OffsetX:  pos[0],
		OffsetY:  pos[1],
		ScaleX:   scale[0],
		ScaleY:   scale[1],
		Rotation: c.Eval(keyframe.Rotation, t)[0],
	}
	if !g.IsIdentity() {
		img = frame.Transform(img, g)
	}

	opacity := frame.Clamp01(float32(c.Eval(keyframe.Opacity, t)[0]))
	img.ScaleAlpha(opacity)
	return img, ok, nil
}

// sourceTime maps t into the source of c, clamped to the source bounds.
// Incoming clips of a transition are sampled before their start, which
// reads the handle before the trim point when the source has one.
func (r *Renderer) sourceTime(c *timeline.Clip, t float64) float64 {
	local := c.SourceTime(t)
	lo, hi, err := r.src.Bounds(c.Source)
	if err != nil {
		return math.Max(local, 0)
	}
	return math.Max(lo, math.Min(local, hi))
}

// fetch reads one source frame, giving up after the configured timeout.
func (r *Renderer) fetch(ctx context.Context, ref string, local float64) (image.Image, error) {
	fctx, cancel := context.WithTimeout(ctx, r.cfg.SourceTimeout)
	defer cancel()

	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := r.src.Frame(fctx, ref, local)
		done <- result{img, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, errdefs.ErrMissingSource) {
				return nil, res.err
			}
			return nil, fmt.Errorf("%w: %s: %v", errdefs.ErrMissingSource, ref, res.err)
		}
		if res.img == nil || res.img.Bounds().Empty() {
			return nil, fmt.Errorf("%w: %s: empty frame", errdefs.ErrMissingSource, ref)
		}
		return res.img, nil
	case <-fctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", errdefs.ErrMissingSource, ref, fctx.Err())
	}
}

// seed derives a per-clip, per-instant noise seed so renders are repeatable.
func seed(id timeline.ClipID, local float64) uint64 {
	return uint64(id)*0x9e3779b97f4a7c15 ^ math.Float64bits(local)
}
