// Package director plans camera moves over a still clip: it detects blocks
// of content and animates position and scale keyframes so the view visits
// each block in reading order before returning to the full frame.
package director

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/keyframe"
	"github.com/ivlev/framecomp/internal/timeline"
)

// Block is a detected region of interest in canvas pixels.
type Block struct {
	Rect       image.Rectangle
	Confidence float64
}

// Shot is one camera stop.
type Shot struct {
	Time  float64 // clip-local seconds
	Focus string
	Rect  image.Rectangle
	Zoom  float64
}

// KeyframeSetter receives the planned animation. *timeline.Timeline
// satisfies it.
type KeyframeSetter interface {
	SetKeyframe(id timeline.ClipID, p keyframe.Property, t float64, value []float64) error
}

// Director generates camera paths for a viewport.
type Director struct {
	ViewportWidth  int
	ViewportHeight int
	MinDwell       float64 // seconds per block
	MaxDwell       float64
	MaxZoom        float64
	// Intro and outro hold the full view this long.
	Intro float64
}

// NewDirector creates a new Director with default settings
func NewDirector(viewportWidth, viewportHeight int) *Director {
	return &Director{
		ViewportWidth:  viewportWidth,
		ViewportHeight: viewportHeight,
		MinDwell:       1,
		MaxDwell:       3,
		MaxZoom:        3,
		Intro:          1,
	}
}

// Plan lays out shots over a clip lasting duration: the full view, each
// block in reading order, then the full view again. Shots never run past
// the clip end.
func (d *Director) Plan(blocks []Block, duration float64) ([]Shot, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: no blocks detected", errdefs.ErrNotFound)
	}
	if !(duration > 0) {
		return nil, fmt.Errorf("%w: duration %v", errdefs.ErrValidation, duration)
	}

	sorted := d.sortBlocks(blocks)
	dwell := d.dwellTime(duration, len(sorted))
	full := image.Rect(0, 0, d.ViewportWidth, d.ViewportHeight)

	shots := []Shot{{Time: 0, Focus: "full_view", Rect: full, Zoom: 1}}
	current := math.Min(d.Intro, duration/2)
	for i, b := range sorted {
		shots = append(shots, Shot{
			Time:  current,
			Focus: fmt.Sprintf("region_%d", i+1),
			Rect:  b.Rect,
			Zoom:  d.zoom(b.Rect),
		})
		current += dwell
	}
	shots = append(shots, Shot{Time: current, Focus: "full_view", Rect: full, Zoom: 1})

	// squeeze into the clip when the dwell floor overruns it
	if end := shots[len(shots)-1].Time; end > duration {
		k := duration / end
		for i := range shots {
			shots[i].Time *= k
		}
	}
	return shots, nil
}

// sortBlocks orders blocks top to bottom, then left to right within a row.
func (d *Director) sortBlocks(blocks []Block) []Block {
	sorted := make([]Block, len(blocks))
	copy(sorted, blocks)

	const rowTolerance = 20
	sort.SliceStable(sorted, func(i, j int) bool {
		dy := sorted[i].Rect.Min.Y - sorted[j].Rect.Min.Y
		if dy > rowTolerance || dy < -rowTolerance {
			return dy < 0
		}
		return sorted[i].Rect.Min.X < sorted[j].Rect.Min.X
	})
	return sorted
}

func (d *Director) dwellTime(duration float64, n int) float64 {
	available := duration - 2*d.Intro
	if available <= 0 {
		available = duration
	}
	return math.Max(d.MinDwell, math.Min(d.MaxDwell, available/float64(n)))
}

// zoom fits the block into 90% of the viewport, within [1, MaxZoom].
func (d *Director) zoom(r image.Rectangle) float64 {
	if r.Dx() == 0 || r.Dy() == 0 {
		return 1
	}
	const padding = 0.9
	z := math.Min(
		float64(d.ViewportWidth)*padding/float64(r.Dx()),
		float64(d.ViewportHeight)*padding/float64(r.Dy()),
	)
	return math.Max(1, math.Min(d.MaxZoom, z))
}

// Geometry returns the position and scale keyframe values that center the
// shot's region in the viewport.
func (d *Director) Geometry(s Shot) (position, scale []float64) {
	cx, cy := float64(d.ViewportWidth)/2, float64(d.ViewportHeight)/2
	bx := float64(s.Rect.Min.X+s.Rect.Max.X) / 2
	by := float64(s.Rect.Min.Y+s.Rect.Max.Y) / 2
	return []float64{-s.Zoom * (bx - cx), -s.Zoom * (by - cy)}, []float64{s.Zoom, s.Zoom}
}

// Apply writes the shots as position and scale keyframes on clip id.
func (d *Director) Apply(tl KeyframeSetter, id timeline.ClipID, shots []Shot) error {
	for _, s := range shots {
		pos, scale := d.Geometry(s)
		if err := tl.SetKeyframe(id, keyframe.Position, s.Time, pos); err != nil {
			return fmt.Errorf("shot %s: %w", s.Focus, err)
		}
		if err := tl.SetKeyframe(id, keyframe.Scale, s.Time, scale); err != nil {
			return fmt.Errorf("shot %s: %w", s.Focus, err)
		}
	}
	return nil
}
