package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/framecomp/internal/renderer"
)

// Result is a delivered scrub render.
type Result struct {
	Seq   uint64
	Time  float64
	Frame *renderer.CompositeFrame
	Err   error
}

// Scrubber renders seek requests with latest-wins semantics. A new request
// cancels the one in flight; results of superseded requests are discarded,
// so Results never yields an older request after a newer one.
type Scrubber struct {
	r   FrameRenderer
	log logrus.FieldLogger

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	out     chan Result
	closed  bool
	pending sync.WaitGroup
}

// NewScrubber returns a scrubber over r.
func NewScrubber(r FrameRenderer, log logrus.FieldLogger) *Scrubber {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scrubber{r: r, log: log, out: make(chan Result, 1)}
}

// Results delivers the outcome of the latest request. The channel holds at
// most one result; an undelivered result is replaced by a newer one.
func (s *Scrubber) Results() <-chan Result { return s.out }

// Request moves the playhead to t and returns the request sequence number.
func (s *Scrubber) Request(ctx context.Context, t float64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}

	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	rctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		cf, err := s.r.RenderFrameAt(rctx, t, renderer.ModeSeek)
		s.deliver(Result{Seq: seq, Time: t, Frame: cf, Err: err})
	}()
	return seq
}

func (s *Scrubber) deliver(res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || res.Seq != s.seq {
		s.log.WithFields(logrus.Fields{"seq": res.Seq, "t": res.Time}).Debug("discarding superseded scrub")
		return
	}
	if errors.Is(res.Err, context.Canceled) {
		return
	}

	// drop an unread older result
	select {
	case <-s.out:
	default:
	}
	s.out <- res
}

// Wait blocks until every request issued so far has finished rendering.
func (s *Scrubber) Wait() { s.pending.Wait() }

// Close cancels the request in flight, waits for it and closes Results.
func (s *Scrubber) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.pending.Wait()
	close(s.out)
}
