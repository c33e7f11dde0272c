package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/framecomp/internal/chroma"
	"github.com/ivlev/framecomp/internal/effects"
	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/keyframe"
)

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func validTrack(i int) error {
	if i < 0 || i >= MaxTracks {
		return fmt.Errorf("%w: track %d not in [0,%d)", errdefs.ErrValidation, i, MaxTracks)
	}
	return nil
}

// ensureTrack returns the track at index i, creating it if needed.
// Callers hold the write lock.
func (tl *Timeline) ensureTrack(i int) *track {
	tr, ok := tl.tracks[i]
	if !ok {
		tr = &track{}
		tl.tracks[i] = tr
	}
	return tr
}

func (tl *Timeline) unlocked(i int) error {
	if tr, ok := tl.tracks[i]; ok && tr.locked {
		return fmt.Errorf("%w: track %d", errdefs.ErrTrackLocked, i)
	}
	return nil
}

// checkFree fails with ErrOverlap if [start, end) intersects a clip on track
// i other than skip.
func (tl *Timeline) checkFree(i int, start, end float64, skip ClipID) error {
	tr, ok := tl.tracks[i]
	if !ok {
		return nil
	}
	for _, id := range tr.clips {
		if id == skip {
			continue
		}
		c := tl.clips[id]
		if c.Start >= end {
			break
		}
		if overlaps(start, end, c.Start, c.End()) {
			return fmt.Errorf("%w: [%g, %g) hits clip %d [%g, %g) on track %d",
				errdefs.ErrOverlap, start, end, id, c.Start, c.End(), i)
		}
	}
	return nil
}

// checkSource validates a source range against the accessor bounds. Sources
// whose bounds cannot be read are accepted; rendering degrades them later.
func (tl *Timeline) checkSource(ref string, trimIn, trimOut float64) error {
	if tl.bounds == nil {
		return nil
	}
	lo, hi, err := tl.bounds.Bounds(ref)
	if err != nil {
		tl.log.WithFields(logrus.Fields{"source": ref, "error": err}).Debug("source bounds unavailable")
		return nil
	}
	const eps = 1e-9
	if trimIn < lo-eps || trimOut > hi+eps {
		return fmt.Errorf("%w: trim [%g, %g] outside source bounds [%g, %g]",
			errdefs.ErrValidation, trimIn, trimOut, lo, hi)
	}
	return nil
}

func (tl *Timeline) insert(c *Clip) {
	tr := tl.ensureTrack(c.Track)
	i := sort.Search(len(tr.clips), func(i int) bool {
		return tl.clips[tr.clips[i]].Start > c.Start
	})
	tr.clips = append(tr.clips, 0)
	copy(tr.clips[i+1:], tr.clips[i:])
	tr.clips[i] = c.ID
	tl.clips[c.ID] = c
}

func (tl *Timeline) detach(c *Clip) {
	tr := tl.tracks[c.Track]
	for i, id := range tr.clips {
		if id == c.ID {
			tr.clips = append(tr.clips[:i], tr.clips[i+1:]...)
			return
		}
	}
}

// PlaceClip puts a new clip on a track.
func (tl *Timeline) PlaceClip(trackIndex int, ref string, start, duration, trimIn float64) (ClipID, error) {
	if err := validTrack(trackIndex); err != nil {
		return 0, err
	}
	if !finite(start) || start < 0 {
		return 0, fmt.Errorf("%w: start %v", errdefs.ErrValidation, start)
	}
	if !finite(duration) || duration <= 0 {
		return 0, fmt.Errorf("%w: duration %v", errdefs.ErrValidation, duration)
	}
	if !finite(trimIn) || trimIn < 0 {
		return 0, fmt.Errorf("%w: trim in %v", errdefs.ErrValidation, trimIn)
	}
	if ref == "" {
		return 0, fmt.Errorf("%w: empty source reference", errdefs.ErrValidation)
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	if err := tl.unlocked(trackIndex); err != nil {
		return 0, err
	}
	if err := tl.checkFree(trackIndex, start, start+duration, 0); err != nil {
		return 0, err
	}
	if err := tl.checkSource(ref, trimIn, trimIn+duration); err != nil {
		return 0, err
	}

	tl.nextClip++
	c := &Clip{
		ID:        tl.nextClip,
		Track:     trackIndex,
		Start:     start,
		Duration:  duration,
		TrimIn:    trimIn,
		Source:    ref,
		Keyframes: make(map[keyframe.Property]*keyframe.Track),
	}
	tl.insert(c)
	tl.bump()

	tl.log.WithFields(logrus.Fields{
		"clip":  c.ID,
		"track": trackIndex,
		"start": start,
		"end":   c.End(),
	}).Debug("clip placed")
	return c.ID, nil
}

// MoveClip relocates a clip. The move is atomic: on error nothing changes.
func (tl *Timeline) MoveClip(id ClipID, newTrack int, newStart float64) error {
	if err := validTrack(newTrack); err != nil {
		return err
	}
	if !finite(newStart) || newStart < 0 {
		return fmt.Errorf("%w: start %v", errdefs.ErrValidation, newStart)
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	c, err := tl.clip(id)
	if err != nil {
		return err
	}
	if err := tl.unlocked(c.Track); err != nil {
		return err
	}
	if err := tl.unlocked(newTrack); err != nil {
		return err
	}
	if err := tl.checkFree(newTrack, newStart, newStart+c.Duration, id); err != nil {
		return err
	}

	tl.detach(c)
	c.Track, c.Start = newTrack, newStart
	tl.insert(c)
	tl.bump()
	return nil
}

// TrimClip sets the source range of a clip. The clip keeps its start and
// its duration becomes newTrimOut - newTrimIn.
func (tl *Timeline) TrimClip(id ClipID, newTrimIn, newTrimOut float64) error {
	if !finite(newTrimIn) || !finite(newTrimOut) || newTrimIn < 0 {
		return fmt.Errorf("%w: trim [%v, %v]", errdefs.ErrValidation, newTrimIn, newTrimOut)
	}
	duration := newTrimOut - newTrimIn
	if duration <= 0 {
		return fmt.Errorf("%w: trim [%v, %v] leaves no duration", errdefs.ErrValidation, newTrimIn, newTrimOut)
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	c, err := tl.clip(id)
	if err != nil {
		return err
	}
	if err := tl.unlocked(c.Track); err != nil {
		return err
	}
	if err := tl.checkSource(c.Source, newTrimIn, newTrimOut); err != nil {
		return err
	}
	if err := tl.checkFree(c.Track, c.Start, c.Start+duration, id); err != nil {
		return err
	}

	c.TrimIn, c.Duration = newTrimIn, duration
	tl.bump()
	return nil
}

// RemoveClip deletes a clip along with its keyframes, effects and any
// transition that references it.
func (tl *Timeline) RemoveClip(id ClipID) error {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	c, err := tl.clip(id)
	if err != nil {
		return err
	}
	if err := tl.unlocked(c.Track); err != nil {
		return err
	}

	tl.detach(c)
	delete(tl.clips, id)
	delete(tl.transitions, id)
	for from, tr := range tl.transitions {
		if tr.To == id {
			delete(tl.transitions, from)
		}
	}
	tl.bump()

	tl.log.WithField("clip", id).Debug("clip removed")
	return nil
}

// SplitClip cuts a clip at timeline time t into two adjacent clips and
// returns the ID of the right part. Effects and chroma settings are copied;
// keyframes are cut so both parts animate exactly as the original did.
func (tl *Timeline) SplitClip(id ClipID, t float64) (ClipID, error) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	c, err := tl.clip(id)
	if err != nil {
		return 0, err
	}
	if err := tl.unlocked(c.Track); err != nil {
		return 0, err
	}
	if !(t > c.Start && t < c.End()) {
		return 0, fmt.Errorf("%w: split point %v outside clip (%v, %v)", errdefs.ErrValidation, t, c.Start, c.End())
	}

	local := c.Local(t)
	right := c.Clone()
	tl.nextClip++
	right.ID = tl.nextClip
	right.Start = t
	right.Duration = c.Duration - local
	right.TrimIn = c.TrimIn + local

	for p, tr := range c.Keyframes {
		l, r := tr.Split(local)
		c.Keyframes[p] = l
		right.Keyframes[p] = r
	}
	c.Duration = local

	if tr, ok := tl.transitions[id]; ok {
		delete(tl.transitions, id)
		tr.From = right.ID
		tl.transitions[right.ID] = tr
	}

	tl.insert(right)
	tl.bump()
	return right.ID, nil
}

// SetKeyframe sets a clip property value at clip-local time t.
func (tl *Timeline) SetKeyframe(id ClipID, p keyframe.Property, t float64, value []float64) error {
	if p.Arity() == 0 {
		return fmt.Errorf("%w: unknown property %q", errdefs.ErrValidation, p)
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	c, err := tl.clip(id)
	if err != nil {
		return err
	}
	tr := c.Keyframes[p]
	if tr == nil {
		tr = keyframe.NewTrack(p)
	}
	if err := tr.Set(t, value); err != nil {
		return err
	}
	c.Keyframes[p] = tr
	tl.bump()
	return nil
}

// RemoveKeyframe deletes the keyframe of p at exactly clip-local time t.
func (tl *Timeline) RemoveKeyframe(id ClipID, p keyframe.Property, t float64) error {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	c, err := tl.clip(id)
	if err != nil {
		return err
	}
	tr := c.Keyframes[p]
	if tr == nil {
		return fmt.Errorf("%w: clip %d has no %s keyframes", errdefs.ErrNotFound, id, p)
	}
	if err := tr.Remove(t); err != nil {
		return err
	}
	if tr.Len() == 0 {
		delete(c.Keyframes, p)
	}
	tl.bump()
	return nil
}

// AddEffect appends an effect to a clip and returns its index. Parameters
// are clamped to the effect schema.
func (tl *Timeline) AddEffect(id ClipID, kind string, params effects.Params) (int, error) {
	in, err := effects.NewInstance(kind, params)
	if err != nil {
		return 0, err
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	c, err := tl.clip(id)
	if err != nil {
		return 0, err
	}
	c.Effects = append(c.Effects, in)
	tl.bump()
	return len(c.Effects) - 1, nil
}

// RemoveEffect deletes the effect at index.
func (tl *Timeline) RemoveEffect(id ClipID, index int) error {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	c, err := tl.clip(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(c.Effects) {
		return fmt.Errorf("%w: clip %d has no effect %d", errdefs.ErrNotFound, id, index)
	}
	c.Effects = append(c.Effects[:index], c.Effects[index+1:]...)
	tl.bump()
	return nil
}

// ReorderEffect moves the effect at from to position to.
func (tl *Timeline) ReorderEffect(id ClipID, from, to int) error {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	c, err := tl.clip(id)
	if err != nil {
		return err
	}
	n := len(c.Effects)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: effect move %d -> %d with %d effects", errdefs.ErrValidation, from, to, n)
	}
	if from == to {
		return nil
	}

	e := c.Effects[from]
	c.Effects = append(c.Effects[:from], c.Effects[from+1:]...)
	c.Effects = append(c.Effects[:to], append(effects.Pipeline{e}, c.Effects[to:]...)...)
	tl.bump()
	return nil
}

// SetChromaKey configures background keying for a clip. nil disables it.
func (tl *Timeline) SetChromaKey(id ClipID, p *chroma.Params) error {
	if p != nil {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	c, err := tl.clip(id)
	if err != nil {
		return err
	}
	if p == nil {
		c.Chroma = nil
	} else {
		ck := *p
		c.Chroma = &ck
	}
	tl.bump()
	return nil
}

// LockTrack makes a track refuse structural edits.
func (tl *Timeline) LockTrack(i int) error { return tl.setLocked(i, true) }

// UnlockTrack re-enables edits on a track.
func (tl *Timeline) UnlockTrack(i int) error { return tl.setLocked(i, false) }

func (tl *Timeline) setLocked(i int, locked bool) error {
	if err := validTrack(i); err != nil {
		return err
	}
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.ensureTrack(i).locked = locked
	tl.bump()
	return nil
}

// SetTrackHidden excludes or includes a track in rendering.
func (tl *Timeline) SetTrackHidden(i int, hidden bool) error {
	if err := validTrack(i); err != nil {
		return err
	}
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.ensureTrack(i).hidden = hidden
	tl.bump()
	return nil
}

// SetTrackName labels a track.
func (tl *Timeline) SetTrackName(i int, name string) error {
	if err := validTrack(i); err != nil {
		return err
	}
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.ensureTrack(i).name = name
	tl.bump()
	return nil
}
