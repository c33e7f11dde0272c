package engine

import (
	"context"
	"fmt"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/renderer"
)

// ExportOptions describes a frame sequence to write.
type ExportOptions struct {
	Dir     string
	From    float64
	To      float64
	FPS     float64
	Workers int
	// Pattern is a fmt pattern taking the frame index.
	Pattern string
}

// ExportStats summarizes an export run.
type ExportStats struct {
	Frames   int
	Degraded int
	Elapsed  time.Duration
	// FPS is the effective render rate.
	FPS float64
}

// FrameCount is the number of frames in [From, To) at FPS.
func (o ExportOptions) FrameCount() int {
	return int(math.Ceil((o.To-o.From)*o.FPS - 1e-9))
}

func (o ExportOptions) validate() error {
	if o.Dir == "" {
		return fmt.Errorf("%w: empty export directory", errdefs.ErrValidation)
	}
	if !(o.FPS > 0) || o.Workers <= 0 {
		return fmt.Errorf("%w: fps %v, workers %d", errdefs.ErrValidation, o.FPS, o.Workers)
	}
	if o.From < 0 || !(o.To > o.From) {
		return fmt.Errorf("%w: export range [%v, %v)", errdefs.ErrValidation, o.From, o.To)
	}
	return nil
}

// Export renders every frame of [From, To) and writes them as PNG files.
// Frames are rendered by a pool of workers; the first failure stops the
// run.
func Export(ctx context.Context, r FrameRenderer, opts ExportOptions, log logrus.FieldLogger) (ExportStats, error) {
	if err := opts.validate(); err != nil {
		return ExportStats{}, err
	}
	if opts.Pattern == "" {
		opts.Pattern = "frame_%06d.png"
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return ExportStats{}, fmt.Errorf("create export dir: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	total := opts.FrameCount()
	workers := min(opts.Workers, max(total, 1))
	start := time.Now()

	jobs := make(chan int, total)
	for i := 0; i < total; i++ {
		jobs <- i
	}
	close(jobs)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
		done     atomic.Int64
		degraded atomic.Int64
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				t := opts.From + float64(i)/opts.FPS
				cf, err := r.RenderFrameAt(ctx, t, renderer.ModePlayback)
				if err != nil {
					fail(fmt.Errorf("frame %d at %.3fs: %w", i, t, err))
					return
				}
				if cf.Degraded {
					degraded.Add(1)
				}
				path := filepath.Join(opts.Dir, fmt.Sprintf(opts.Pattern, i))
				if err := WritePNG(path, cf); err != nil {
					fail(err)
					return
				}
				n := done.Add(1)
				log.WithFields(logrus.Fields{"frame": i, "done": n, "total": total}).Debug("frame written")
			}
		}()
	}
	wg.Wait()

	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	elapsed := time.Since(start)
	stats := ExportStats{
		Frames:   int(done.Load()),
		Degraded: int(degraded.Load()),
		Elapsed:  elapsed,
	}
	if elapsed > 0 {
		stats.FPS = float64(stats.Frames) / elapsed.Seconds()
	}
	return stats, firstErr
}

// WritePNG encodes a composite frame as an 8-bit PNG.
func WritePNG(path string, cf *renderer.CompositeFrame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, cf.Frame.ToRGBA()); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
