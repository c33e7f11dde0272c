// Package errdefs defines the error taxonomy shared by the compositing engine.
//
// Every error returned by the engine wraps one of these sentinels, so callers
// classify failures with errors.Is rather than by message.
package errdefs

import "errors"

// Placement errors.
var (
	// ErrOverlap indicates a placement, move or trim would make two clips on
	// the same track intersect. The timeline is left unchanged.
	ErrOverlap = errors.New("clip interval overlaps an existing clip")

	// ErrTrackLocked indicates the destination track refuses edits.
	ErrTrackLocked = errors.New("track is locked")

	// ErrNotFound indicates an unknown clip, overlay, track or keyframe.
	ErrNotFound = errors.New("not found")
)

// Parameter errors.
var (
	// ErrValidation indicates a parameter outside its declared domain.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownEffect indicates an effect kind with no registered implementation.
	ErrUnknownEffect = errors.New("unknown effect kind")

	// ErrUnknownTransition indicates a transition kind with no registered implementation.
	ErrUnknownTransition = errors.New("unknown transition kind")
)

// Render errors.
var (
	// ErrMissingSource indicates the source accessor could not produce a frame.
	// The renderer recovers from it by substituting a black layer.
	ErrMissingSource = errors.New("source frame unavailable")

	// ErrOutOfRange indicates an explicit seek outside [0, duration].
	ErrOutOfRange = errors.New("render time out of range")
)
