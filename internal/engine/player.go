package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/renderer"
)

// Player renders at a fixed rate with at most one render in flight. A tick
// that arrives while the previous frame is still rendering is dropped and
// counted; the playhead still advances with the wall clock.
type Player struct {
	r   FrameRenderer
	tl  Duration
	fps float64
	log logrus.FieldLogger

	dropped  atomic.Uint64
	rendered atomic.Uint64
}

// NewPlayer returns a player ticking fps times per second.
func NewPlayer(r FrameRenderer, tl Duration, fps float64, log logrus.FieldLogger) (*Player, error) {
	if !(fps > 0) {
		return nil, fmt.Errorf("%w: fps %v", errdefs.ErrValidation, fps)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Player{r: r, tl: tl, fps: fps, log: log}, nil
}

// Dropped is the number of ticks skipped because a render was in flight.
func (p *Player) Dropped() uint64 { return p.dropped.Load() }

// Rendered is the number of frames handed to the sink.
func (p *Player) Rendered() uint64 { return p.rendered.Load() }

// Play runs from timeline time from to the end of the timeline, calling sink
// for every rendered frame in playhead order. It returns when the end is
// reached and the last render finished, or when ctx is done.
func (p *Player) Play(ctx context.Context, from float64, sink func(*renderer.CompositeFrame)) error {
	period := time.Duration(float64(time.Second) / p.fps)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var (
		busy atomic.Bool
		wg   sync.WaitGroup
	)
	defer wg.Wait()

	render := func(t float64) {
		defer wg.Done()
		defer busy.Store(false)

		cf, err := p.r.RenderFrameAt(ctx, t, renderer.ModePlayback)
		if err != nil {
			if ctx.Err() == nil {
				p.log.WithFields(logrus.Fields{"t": t, "error": err}).Warn("playback render failed")
			}
			return
		}
		p.rendered.Add(1)
		sink(cf)
	}

	log := p.log.WithFields(logrus.Fields{"from": from, "fps": p.fps})
	log.Debug("playback started")

	for tick := 0; ; tick++ {
		t := from + float64(tick)/p.fps
		if t > p.tl.Duration() {
			log.WithFields(logrus.Fields{
				"rendered": p.Rendered(),
				"dropped":  p.Dropped(),
			}).Debug("playback finished")
			return nil
		}

		if busy.CompareAndSwap(false, true) {
			wg.Add(1)
			go render(t)
		} else {
			p.dropped.Add(1)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
