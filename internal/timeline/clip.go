package timeline

import (
	"github.com/ivlev/framecomp/internal/chroma"
	"github.com/ivlev/framecomp/internal/effects"
	"github.com/ivlev/framecomp/internal/keyframe"
)

// ClipID identifies a clip for its whole lifetime. IDs are never reused.
type ClipID uint64

// Clip is a placed, time-bounded reference into a source.
//
// Keyframe times are local to the clip: 0 is the clip start, so animation
// travels with the clip when it moves.
type Clip struct {
	ID       ClipID
	Track    int
	Start    float64
	Duration float64
	TrimIn   float64
	Source   string

	Effects   effects.Pipeline
	Chroma    *chroma.Params
	Keyframes map[keyframe.Property]*keyframe.Track
}

// End is the exclusive end of the clip on the timeline.
func (c *Clip) End() float64 { return c.Start + c.Duration }

// TrimOut is the source offset of the clip end.
func (c *Clip) TrimOut() float64 { return c.TrimIn + c.Duration }

// Contains reports whether t falls in [Start, End).
func (c *Clip) Contains(t float64) bool { return t >= c.Start && t < c.End() }

// Local converts timeline time to clip-local time.
func (c *Clip) Local(t float64) float64 { return t - c.Start }

// SourceTime converts timeline time to the offset into the source.
func (c *Clip) SourceTime(t float64) float64 { return c.TrimIn + c.Local(t) }

// Eval evaluates property p at timeline time t.
func (c *Clip) Eval(p keyframe.Property, t float64) []float64 {
	return keyframe.Eval(c.Keyframes[p], p, c.Local(t))
}

// Clone returns a deep copy safe to use outside the timeline lock.
func (c *Clip) Clone() *Clip {
	cp := *c
	if c.Effects != nil {
		cp.Effects = make(effects.Pipeline, len(c.Effects))
		for i, e := range c.Effects {
			cp.Effects[i] = e.Clone()
		}
	}
	if c.Chroma != nil {
		ck := *c.Chroma
		cp.Chroma = &ck
	}
	cp.Keyframes = cloneKeyframes(c.Keyframes)
	return &cp
}

func cloneKeyframes(m map[keyframe.Property]*keyframe.Track) map[keyframe.Property]*keyframe.Track {
	out := make(map[keyframe.Property]*keyframe.Track, len(m))
	for p, tr := range m {
		out[p] = tr.Clone()
	}
	return out
}

func overlaps(aStart, aEnd, bStart, bEnd float64) bool {
	return aStart < bEnd && bStart < aEnd
}
