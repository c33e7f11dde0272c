package project

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/framecomp/internal/director"
	"github.com/ivlev/framecomp/internal/effects"
	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/frame"
	"github.com/ivlev/framecomp/internal/source"
	"github.com/ivlev/framecomp/internal/timeline"
	"github.com/ivlev/framecomp/internal/transition"
)

// SlideshowOptions lays a sequence of stills end to end on one track.
type SlideshowOptions struct {
	Total      float64 // seconds for the whole show
	Fade       float64 // transition length; 0 cuts
	Transition transition.Kind
	// Variation is the maximum relative change between neighbouring slide
	// durations. Zero gives equal durations.
	Variation float64
	Seed      uint64
	Track     int
	Effects   []effects.Instance // applied to every slide
}

// PageDurations splits total into n durations. Each duration differs from
// the previous one by at most ±variation, none is shorter than 1.1*fade
// before rescaling, and the result sums to total.
func PageDurations(n int, total, fade, variation float64, rng *rand.Rand) []float64 {
	if n <= 0 {
		return nil
	}
	base := total / float64(n)
	durations := make([]float64, n)
	jitter := func() float64 {
		if variation <= 0 || rng == nil {
			return 0
		}
		return rng.Float64()*2*variation - variation
	}

	durations[0] = base * (1 + jitter())
	for i := 1; i < n; i++ {
		durations[i] = durations[i-1] * (1 + jitter())
		if durations[i] < fade*1.1 {
			durations[i] = fade * 1.1
		}
	}

	sum := 0.0
	for _, d := range durations {
		sum += d
	}
	scale := total / sum
	for i := range durations {
		durations[i] *= scale
	}
	return durations
}

// Slideshow places one clip per ref on opts.Track, back to back from time
// 0, joined by transitions of opts.Fade seconds. A fade that does not fit
// the shortest slide is halved against it.
func Slideshow(p *Project, refs []string, opts SlideshowOptions) ([]timeline.ClipID, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: slideshow without slides", errdefs.ErrValidation)
	}
	if !(opts.Total > 0) || math.IsInf(opts.Total, 0) {
		return nil, fmt.Errorf("%w: slideshow length %v", errdefs.ErrValidation, opts.Total)
	}
	if opts.Fade < 0 || math.IsNaN(opts.Fade) {
		return nil, fmt.Errorf("%w: fade %v", errdefs.ErrValidation, opts.Fade)
	}
	kind := opts.Transition
	if kind == "" {
		kind = transition.Crossfade
	}
	if opts.Fade > 0 {
		if _, err := transition.Parse(string(kind)); err != nil {
			return nil, err
		}
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	fade := opts.Fade
	durations := PageDurations(len(refs), opts.Total, fade, opts.Variation, rng)
	if shortest := minOf(durations); len(refs) > 1 && fade >= shortest {
		fade = shortest / 2
		rng = rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
		durations = PageDurations(len(refs), opts.Total, fade, opts.Variation, rng)
	}

	ids := make([]timeline.ClipID, 0, len(refs))
	start := 0.0
	for i, ref := range refs {
		id, err := p.Timeline.PlaceClip(opts.Track, ref, start, durations[i], 0)
		if err != nil {
			return ids, fmt.Errorf("slide %d: %w", i, err)
		}
		for _, e := range opts.Effects {
			if _, err := p.Timeline.AddEffect(id, e.Kind, e.Params); err != nil {
				return ids, fmt.Errorf("slide %d: %w", i, err)
			}
		}
		if i > 0 && fade > 0 {
			d := math.Min(fade, durations[i-1])
			if err := p.Timeline.SetTransition(ids[i-1], id, kind, d); err != nil {
				return ids, fmt.Errorf("slide %d: %w", i, err)
			}
		}
		ids = append(ids, id)
		start += durations[i]
	}
	return ids, nil
}

func minOf(v []float64) float64 {
	m := math.Inf(1)
	for _, x := range v {
		m = math.Min(m, x)
	}
	return m
}

// Direct runs block detection on the first frame of each clip and animates a
// camera path over it. Clips without detectable content keep a static view.
func Direct(ctx context.Context, p *Project, src source.Accessor, det director.Detector, d *director.Director, ids []timeline.ClipID, log logrus.FieldLogger) error {
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		c, err := p.Timeline.Clip(id)
		if err != nil {
			return err
		}
		img, err := src.Frame(ctx, c.Source, c.TrimIn)
		if err != nil {
			return fmt.Errorf("clip %d: %w", id, err)
		}
		f := frame.Fit(frame.FromImage(img), p.Canvas.Width, p.Canvas.Height)

		blocks, err := det.Detect(f)
		if err != nil {
			return fmt.Errorf("clip %d: %w", id, err)
		}
		shots, err := d.Plan(blocks, c.Duration)
		if errors.Is(err, errdefs.ErrNotFound) {
			log.WithField("clip", id).Info("no content blocks, keeping static view")
			continue
		}
		if err != nil {
			return fmt.Errorf("clip %d: %w", id, err)
		}
		if err := d.Apply(p.Timeline, id, shots); err != nil {
			return fmt.Errorf("clip %d: %w", id, err)
		}
		log.WithFields(logrus.Fields{"clip": id, "blocks": len(blocks), "shots": len(shots)}).Debug("camera path planned")
	}
	return nil
}
