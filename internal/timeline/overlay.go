package timeline

import (
	"fmt"
	"math"

	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/keyframe"
	"github.com/ivlev/framecomp/internal/text"
)

// OverlayID identifies a text overlay.
type OverlayID uint64

// Overlay is a text element composited above every track. Its keyframe times
// are local to the overlay start.
type Overlay struct {
	ID        OverlayID
	Text      string
	Start     float64
	Duration  float64
	Style     text.Style
	Animation text.Animation
	// Position anchors the text block center in canvas fractions. Nil
	// centers it on the canvas.
	Position  *[2]float64
	Keyframes map[keyframe.Property]*keyframe.Track
}

// overlayProperties are the properties an overlay may animate.
var overlayProperties = map[keyframe.Property]bool{
	keyframe.Opacity:  true,
	keyframe.Position: true,
	keyframe.Scale:    true,
}

// End is the exclusive end of the overlay.
func (o *Overlay) End() float64 { return o.Start + o.Duration }

// Contains reports whether t falls in [Start, End).
func (o *Overlay) Contains(t float64) bool { return t >= o.Start && t < o.End() }

// Anchor returns the resolved Position.
func (o *Overlay) Anchor() [2]float64 {
	if o.Position == nil {
		return [2]float64{0.5, 0.5}
	}
	return *o.Position
}

// Eval evaluates property p at timeline time t.
func (o *Overlay) Eval(p keyframe.Property, t float64) []float64 {
	return keyframe.Eval(o.Keyframes[p], p, t-o.Start)
}

// Clone returns a deep copy.
func (o *Overlay) Clone() *Overlay {
	cp := *o
	if o.Position != nil {
		pos := *o.Position
		cp.Position = &pos
	}
	cp.Keyframes = cloneKeyframes(o.Keyframes)
	return &cp
}

func validateOverlay(o *Overlay) error {
	if !finite(o.Start) || o.Start < 0 {
		return fmt.Errorf("%w: overlay start %v", errdefs.ErrValidation, o.Start)
	}
	if !(o.Duration > 0) || math.IsInf(o.Duration, 0) {
		return fmt.Errorf("%w: overlay duration %v", errdefs.ErrValidation, o.Duration)
	}
	if o.Position != nil && (!finite(o.Position[0]) || !finite(o.Position[1])) {
		return fmt.Errorf("%w: overlay position %v", errdefs.ErrValidation, *o.Position)
	}
	if err := o.Style.Validate(); err != nil {
		return err
	}
	return o.Animation.Validate()
}

// AddOverlay stores a copy of o and returns its new ID.
func (tl *Timeline) AddOverlay(o Overlay) (OverlayID, error) {
	if err := validateOverlay(&o); err != nil {
		return 0, err
	}
	for p := range o.Keyframes {
		if !overlayProperties[p] {
			return 0, fmt.Errorf("%w: overlays cannot animate %s", errdefs.ErrValidation, p)
		}
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	tl.nextOverlay++
	o.ID = tl.nextOverlay
	stored := o.Clone()
	tl.overlays[o.ID] = stored
	tl.bump()

	tl.log.WithField("overlay", o.ID).Debug("overlay added")
	return o.ID, nil
}

// RemoveOverlay deletes an overlay.
func (tl *Timeline) RemoveOverlay(id OverlayID) error {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if _, ok := tl.overlays[id]; !ok {
		return fmt.Errorf("%w: overlay %d", errdefs.ErrNotFound, id)
	}
	delete(tl.overlays, id)
	tl.bump()
	return nil
}

// SetOverlayKeyframe animates an overlay property at overlay-local time t.
func (tl *Timeline) SetOverlayKeyframe(id OverlayID, p keyframe.Property, t float64, value []float64) error {
	if !overlayProperties[p] {
		return fmt.Errorf("%w: overlays cannot animate %s", errdefs.ErrValidation, p)
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	o, ok := tl.overlays[id]
	if !ok {
		return fmt.Errorf("%w: overlay %d", errdefs.ErrNotFound, id)
	}
	tr := o.Keyframes[p]
	if tr == nil {
		tr = keyframe.NewTrack(p)
	}
	if err := tr.Set(t, value); err != nil {
		return err
	}
	if o.Keyframes == nil {
		o.Keyframes = make(map[keyframe.Property]*keyframe.Track)
	}
	o.Keyframes[p] = tr
	tl.bump()
	return nil
}

// Overlay returns a snapshot of one overlay.
func (tl *Timeline) Overlay(id OverlayID) (*Overlay, error) {
	tl.mu.RLock()
	defer tl.mu.RUnlock()

	o, ok := tl.overlays[id]
	if !ok {
		return nil, fmt.Errorf("%w: overlay %d", errdefs.ErrNotFound, id)
	}
	return o.Clone(), nil
}

// Overlays returns snapshots of every overlay in ID order.
func (tl *Timeline) Overlays() []*Overlay {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	return tl.overlaysWhere(func(*Overlay) bool { return true })
}
