package engine

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/framecomp/internal/frame"
	"github.com/ivlev/framecomp/internal/renderer"
	"github.com/ivlev/framecomp/internal/source"
	"github.com/ivlev/framecomp/internal/text"
	"github.com/ivlev/framecomp/internal/timeline"
)

type noText struct{}

func (noText) RenderText(string, text.Style, text.State) (*frame.Frame, error) {
	return frame.New(0, 0), nil
}

// gatedSource blocks frames of "slow" until the request is cancelled and
// reports each cancellation. Other references resolve immediately.
type gatedSource struct {
	cancelled chan struct{}
	delay     time.Duration
}

func (g *gatedSource) Frame(ctx context.Context, ref string, _ float64) (image.Image, error) {
	switch ref {
	case "slow":
		<-ctx.Done()
		if g.cancelled != nil {
			g.cancelled <- struct{}{}
		}
		return nil, ctx.Err()
	case "delayed":
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return frame.Solid(4, 4, 1, 0, 0, 1), nil
}

func (g *gatedSource) Bounds(string) (float64, float64, error) { return 0, source.Unbounded, nil }

func newRenderer(t *testing.T, tl *timeline.Timeline, src source.Accessor) *renderer.Renderer {
	t.Helper()
	cfg := renderer.DefaultConfig()
	cfg.Width, cfg.Height = 4, 4
	cfg.SourceTimeout = 5 * time.Second
	r, err := renderer.New(tl, src, cfg, renderer.WithRasterizer(noText{}))
	require.NoError(t, err)
	return r
}

func receive(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("no scrub result")
		return Result{}
	}
}

func TestScrubberCancelsSupersededRequest(t *testing.T) {
	tl := timeline.New()
	_, err := tl.PlaceClip(0, "slow", 0, 1, 0)
	require.NoError(t, err)
	_, err = tl.PlaceClip(0, "fast", 1, 1, 0)
	require.NoError(t, err)

	src := &gatedSource{cancelled: make(chan struct{}, 1)}
	s := NewScrubber(newRenderer(t, tl, src), nil)
	defer s.Close()

	first := s.Request(context.Background(), 0.5)
	second := s.Request(context.Background(), 1.5)
	assert.Greater(t, second, first)

	select {
	case <-src.cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("superseded render was not cancelled")
	}

	res := receive(t, s.Results())
	require.NoError(t, res.Err)
	assert.Equal(t, second, res.Seq)
	assert.InDelta(t, 1.5, res.Time, 1e-9)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, res.Frame.Frame.Pixel(0, 0))
}

func TestScrubberDeliversInOrder(t *testing.T) {
	tl := timeline.New()
	_, err := tl.PlaceClip(0, "fast", 0, 10, 0)
	require.NoError(t, err)
	s := NewScrubber(newRenderer(t, tl, &gatedSource{}), nil)

	var last uint64
	for i := 0; i < 20; i++ {
		last = s.Request(context.Background(), float64(i)*0.4)
	}

	var seen []uint64
	for {
		res := receive(t, s.Results())
		seen = append(seen, res.Seq)
		if res.Seq == last {
			break
		}
	}
	s.Close()

	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
	_, open := <-s.Results()
	assert.False(t, open)
}

func TestScrubberWaitKeepsFinalResult(t *testing.T) {
	tl := timeline.New()
	_, err := tl.PlaceClip(0, "delayed", 0, 1, 0)
	require.NoError(t, err)
	s := NewScrubber(newRenderer(t, tl, &gatedSource{delay: 20 * time.Millisecond}), nil)

	seq := s.Request(context.Background(), 0.25)
	s.Wait()
	s.Close()

	res, ok := <-s.Results()
	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.Equal(t, seq, res.Seq)
	_, open := <-s.Results()
	assert.False(t, open)
}

func TestScrubberReportsSeekErrors(t *testing.T) {
	tl := timeline.New()
	_, err := tl.PlaceClip(0, "fast", 0, 1, 0)
	require.NoError(t, err)
	s := NewScrubber(newRenderer(t, tl, &gatedSource{}), nil)
	defer s.Close()

	s.Request(context.Background(), 7)
	res := receive(t, s.Results())
	assert.Error(t, res.Err)
	assert.Nil(t, res.Frame)
}

func TestPlayerDropsTicksWhenSlow(t *testing.T) {
	tl := timeline.New()
	_, err := tl.PlaceClip(0, "delayed", 0, 0.3, 0)
	require.NoError(t, err)
	src := &gatedSource{delay: 40 * time.Millisecond}

	p, err := NewPlayer(newRenderer(t, tl, src), tl, 100, nil)
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		times []float64
	)
	err = p.Play(context.Background(), 0, func(cf *renderer.CompositeFrame) {
		mu.Lock()
		times = append(times, cf.Time)
		mu.Unlock()
	})
	require.NoError(t, err)

	assert.Positive(t, p.Dropped())
	assert.Equal(t, uint64(len(times)), p.Rendered())
	require.NotEmpty(t, times)
	for i := 1; i < len(times); i++ {
		assert.Greater(t, times[i], times[i-1])
	}
}

func TestPlayerStopsOnCancel(t *testing.T) {
	tl := timeline.New()
	_, err := tl.PlaceClip(0, "fast", 0, 60, 0)
	require.NoError(t, err)
	p, err := NewPlayer(newRenderer(t, tl, &gatedSource{}), tl, 50, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = p.Play(ctx, 0, func(*renderer.CompositeFrame) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewPlayerRejectsBadFPS(t *testing.T) {
	_, err := NewPlayer(nil, timeline.New(), 0, nil)
	assert.Error(t, err)
}

func TestExportWritesFrames(t *testing.T) {
	tl := timeline.New()
	_, err := tl.PlaceClip(0, "fast", 0, 1, 0)
	require.NoError(t, err)
	dir := t.TempDir()

	opts := ExportOptions{Dir: dir, From: 0, To: 1, FPS: 4, Workers: 3}
	require.Equal(t, 4, opts.FrameCount())

	stats, err := Export(context.Background(), newRenderer(t, tl, &gatedSource{}), opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Frames)
	assert.Zero(t, stats.Degraded)

	for i := 0; i < 4; i++ {
		f, err := os.Open(filepath.Join(dir, "frame_00000"+string(rune('0'+i))+".png"))
		require.NoError(t, err)
		img, err := png.Decode(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
	}
}

func TestExportValidation(t *testing.T) {
	tests := []struct {
		name string
		opts ExportOptions
	}{
		{"no dir", ExportOptions{From: 0, To: 1, FPS: 1, Workers: 1}},
		{"zero fps", ExportOptions{Dir: "x", From: 0, To: 1, Workers: 1}},
		{"empty range", ExportOptions{Dir: "x", From: 1, To: 1, FPS: 1, Workers: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Export(context.Background(), nil, tt.opts, nil)
			assert.Error(t, err)
		})
	}
}
