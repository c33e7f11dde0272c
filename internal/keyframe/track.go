// Package keyframe implements per-property animation curves.
//
// A Track holds keyframes sorted and unique by time. Evaluation clamps
// outside the keyed range and interpolates linearly between the bracketing
// pair. Rotation is interpolated on the raw angle: 350 to 10 degrees passes
// through 180, not through 0.
package keyframe

import (
	"fmt"
	"math"
	"sort"

	"github.com/ivlev/framecomp/internal/errdefs"
)

// Keyframe anchors a property value at a time.
type Keyframe struct {
	Time  float64   `yaml:"time"`
	Value []float64 `yaml:"value"`
}

// Track is the animation curve of one property. The zero value is not usable;
// construct with NewTrack.
type Track struct {
	prop Property
	keys []Keyframe
}

// NewTrack returns an empty curve for p.
func NewTrack(p Property) *Track {
	return &Track{prop: p}
}

// Property returns the animated property.
func (t *Track) Property() Property { return t.prop }

// Len returns the number of keyframes.
func (t *Track) Len() int { return len(t.keys) }

// Set inserts a keyframe, replacing the value of an existing keyframe at the
// same time.
func (t *Track) Set(time float64, value []float64) error {
	if math.IsNaN(time) || math.IsInf(time, 0) {
		return fmt.Errorf("%w: keyframe time %v", errdefs.ErrValidation, time)
	}
	if len(value) != t.prop.Arity() {
		return fmt.Errorf("%w: %s takes %d components, got %d",
			errdefs.ErrValidation, t.prop, t.prop.Arity(), len(value))
	}
	for _, v := range value {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s value %v", errdefs.ErrValidation, t.prop, value)
		}
	}

	v := append([]float64(nil), value...)
	i := t.search(time)
	if i < len(t.keys) && t.keys[i].Time == time {
		t.keys[i].Value = v
		return nil
	}

	t.keys = append(t.keys, Keyframe{})
	copy(t.keys[i+1:], t.keys[i:])
	t.keys[i] = Keyframe{Time: time, Value: v}
	return nil
}

// Remove deletes the keyframe at exactly time.
func (t *Track) Remove(time float64) error {
	i := t.search(time)
	if i >= len(t.keys) || t.keys[i].Time != time {
		return fmt.Errorf("%w: no %s keyframe at %v", errdefs.ErrNotFound, t.prop, time)
	}
	t.keys = append(t.keys[:i], t.keys[i+1:]...)
	return nil
}

// ValueAt evaluates the curve at time. The result is a fresh slice.
func (t *Track) ValueAt(time float64) []float64 {
	if len(t.keys) == 0 {
		return t.prop.Default()
	}

	// If before first keyframe, use first keyframe
	first := t.keys[0]
	if time <= first.Time {
		return clone(first.Value)
	}

	// If after last keyframe, use last keyframe
	last := t.keys[len(t.keys)-1]
	if time >= last.Time {
		return clone(last.Value)
	}

	// keys[i-1].Time <= time < keys[i].Time
	i := sort.Search(len(t.keys), func(i int) bool { return t.keys[i].Time > time })
	prev, next := t.keys[i-1], t.keys[i]
	if time == prev.Time {
		return clone(prev.Value)
	}

	alpha := (time - prev.Time) / (next.Time - prev.Time)
	out := make([]float64, len(prev.Value))
	for c := range out {
		out[c] = lerp(prev.Value[c], next.Value[c], alpha)
	}
	return out
}

// Keyframes returns a copy of the keyframes in time order.
func (t *Track) Keyframes() []Keyframe {
	out := make([]Keyframe, len(t.keys))
	for i, k := range t.keys {
		out[i] = Keyframe{Time: k.Time, Value: clone(k.Value)}
	}
	return out
}

// Clone returns a deep copy.
func (t *Track) Clone() *Track {
	return &Track{prop: t.prop, keys: t.Keyframes()}
}

// Split cuts the curve at time and returns the two halves. The right half is
// re-based so that time maps to 0. Both halves carry a keyframe at the cut
// when the curve is animated there, so each evaluates exactly as before.
func (t *Track) Split(time float64) (left, right *Track) {
	left, right = NewTrack(t.prop), NewTrack(t.prop)
	if len(t.keys) == 0 {
		return left, right
	}

	cut := t.ValueAt(time)
	for _, k := range t.keys {
		switch {
		case k.Time < time:
			left.keys = append(left.keys, Keyframe{Time: k.Time, Value: clone(k.Value)})
		case k.Time > time:
			right.keys = append(right.keys, Keyframe{Time: k.Time - time, Value: clone(k.Value)})
		}
	}
	left.keys = append(left.keys, Keyframe{Time: time, Value: clone(cut)})
	right.keys = append([]Keyframe{{Time: 0, Value: cut}}, right.keys...)
	return left, right
}

// search returns the index of the first keyframe at or after time.
func (t *Track) search(time float64) int {
	return sort.Search(len(t.keys), func(i int) bool { return t.keys[i].Time >= time })
}

// Eval evaluates tr at time, falling back to the property default for a nil
// track.
func Eval(tr *Track, p Property, time float64) []float64 {
	if tr == nil {
		return p.Default()
	}
	return tr.ValueAt(time)
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
