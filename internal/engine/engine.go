// Package engine drives the renderer from its two triggers: interactive
// scrubbing, where only the latest request matters, and playback, which
// renders one frame per tick and drops ticks it cannot keep up with. It also
// exports frame sequences through a worker pool.
package engine

import (
	"context"

	"github.com/ivlev/framecomp/internal/renderer"
)

// FrameRenderer is the renderer surface the engine drives.
type FrameRenderer interface {
	RenderFrameAt(ctx context.Context, t float64, mode renderer.Mode) (*renderer.CompositeFrame, error)
}

// Duration reports the timeline length the engine plays against.
type Duration interface {
	Duration() float64
}
