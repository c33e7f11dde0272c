package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/transition"
)

// adjacency tolerance for same-track transitions
const adjacentEps = 1e-9

// Transition schedules a blend from one clip into another.
//
// On one track the clips must be adjacent and the window is the last
// Duration seconds of the outgoing clip; the incoming clip is sampled before
// its own start during the window. Across tracks the clips must overlap and
// the window opens at the start of the overlap.
type Transition struct {
	From     ClipID
	To       ClipID
	Kind     transition.Kind
	Duration float64
}

// ActiveTransition is a transition whose window contains the queried time.
type ActiveTransition struct {
	Transition
	Outgoing *Clip
	Incoming *Clip
	Start    float64
	End      float64
	Progress float64
}

// window returns the blend interval of a transition, or ok=false when the
// clips no longer satisfy its geometry.
func window(out, in *Clip, d float64) (start, end float64, ok bool) {
	if out.Track == in.Track {
		if math.Abs(out.End()-in.Start) > adjacentEps {
			return 0, 0, false
		}
		return math.Max(in.Start-d, out.Start), in.Start, true
	}

	ovStart := math.Max(out.Start, in.Start)
	ovEnd := math.Min(out.End(), in.End())
	if ovEnd <= ovStart {
		return 0, 0, false
	}
	return ovStart, math.Min(ovStart+d, ovEnd), true
}

// SetTransition schedules kind between from and to, replacing any transition
// already leaving from.
func (tl *Timeline) SetTransition(from, to ClipID, kind transition.Kind, duration float64) error {
	return tl.setTransition(from, to, kind, duration, true)
}

// RestoreTransition stores a transition without checking that its clips are
// adjacent or overlapping. It rebuilds saved state, where a transition may be
// inert because its clips were moved apart after it was set; such a
// transition stays inert until its clips qualify again.
func (tl *Timeline) RestoreTransition(from, to ClipID, kind transition.Kind, duration float64) error {
	return tl.setTransition(from, to, kind, duration, false)
}

func (tl *Timeline) setTransition(from, to ClipID, kind transition.Kind, duration float64, checkGeometry bool) error {
	if _, err := transition.Parse(string(kind)); err != nil {
		return err
	}
	if !finite(duration) || duration <= 0 {
		return fmt.Errorf("%w: transition duration %v", errdefs.ErrValidation, duration)
	}
	if from == to {
		return fmt.Errorf("%w: transition from clip %d to itself", errdefs.ErrValidation, from)
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	out, err := tl.clip(from)
	if err != nil {
		return err
	}
	in, err := tl.clip(to)
	if err != nil {
		return err
	}
	if _, _, ok := window(out, in, duration); checkGeometry && !ok {
		if out.Track == in.Track {
			return fmt.Errorf("%w: clips %d and %d are not adjacent", errdefs.ErrValidation, from, to)
		}
		return fmt.Errorf("%w: clips %d and %d do not overlap", errdefs.ErrValidation, from, to)
	}

	tl.transitions[from] = &Transition{From: from, To: to, Kind: kind, Duration: duration}
	tl.bump()
	return nil
}

// ClearTransition removes the transition leaving from.
func (tl *Timeline) ClearTransition(from ClipID) error {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if _, ok := tl.transitions[from]; !ok {
		return fmt.Errorf("%w: no transition from clip %d", errdefs.ErrNotFound, from)
	}
	delete(tl.transitions, from)
	tl.bump()
	return nil
}

// Transitions lists every scheduled transition ordered by outgoing clip.
func (tl *Timeline) Transitions() []Transition {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	return tl.transitionList()
}

func (tl *Timeline) transitionList() []Transition {
	out := make([]Transition, 0, len(tl.transitions))
	for _, tr := range tl.transitions {
		out = append(out, *tr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}

// TransitionsAt returns the transitions whose window contains t.
func (tl *Timeline) TransitionsAt(t float64) []ActiveTransition {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	return tl.transitionsAt(t)
}

func (tl *Timeline) transitionsAt(t float64) []ActiveTransition {
	var active []ActiveTransition
	for _, tr := range tl.transitions {
		out, in := tl.clips[tr.From], tl.clips[tr.To]
		if out == nil || in == nil || tl.isHidden(out.Track) || tl.isHidden(in.Track) {
			continue
		}
		start, end, ok := window(out, in, tr.Duration)
		if !ok || t < start || t >= end {
			continue
		}
		active = append(active, ActiveTransition{
			Transition: *tr,
			Outgoing:   out.Clone(),
			Incoming:   in.Clone(),
			Start:      start,
			End:        end,
			Progress:   transition.Progress(t, start, end),
		})
	}
	sort.Slice(active, func(i, j int) bool { return active[i].From < active[j].From })
	return active
}

func (tl *Timeline) isHidden(i int) bool {
	tr, ok := tl.tracks[i]
	return ok && tr.hidden
}
