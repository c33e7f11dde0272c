// Package source resolves opaque clip source references into raw frames.
//
// A reference has the form "scheme:location", for example
// "image:/media/logo.png", "pdf:/decks/q3.pdf" or "slate:camera-a". The
// Router dispatches each reference to the accessor registered for its scheme.
package source

import (
	"context"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"

	"github.com/ivlev/framecomp/internal/errdefs"
)

// Accessor produces raw frames for source references.
type Accessor interface {
	// Frame returns the source frame at local seconds into the source.
	Frame(ctx context.Context, ref string, local float64) (image.Image, error)
	// Bounds returns the usable time range of the source in seconds.
	Bounds(ref string) (min, max float64, err error)
}

// Unbounded is the upper bound of sources without an intrinsic length,
// such as still images and slates.
var Unbounded = math.Inf(1)

// Split separates a reference into scheme and location.
func Split(ref string) (scheme, location string, err error) {
	scheme, location, ok := strings.Cut(ref, ":")
	if !ok || scheme == "" || location == "" {
		return "", "", fmt.Errorf("%w: malformed source reference %q", errdefs.ErrMissingSource, ref)
	}
	return scheme, location, nil
}

// Router dispatches references by scheme.
type Router struct {
	mu       sync.RWMutex
	accessor map[string]Accessor
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{accessor: make(map[string]Accessor)}
}

// Handle registers a for references with the given scheme. Accessors
// receive the location part only.
func (r *Router) Handle(scheme string, a Accessor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accessor[scheme] = a
}

func (r *Router) route(ref string) (Accessor, string, error) {
	scheme, location, err := Split(ref)
	if err != nil {
		return nil, "", err
	}
	r.mu.RLock()
	a, ok := r.accessor[scheme]
	r.mu.RUnlock()
	if !ok {
		return nil, "", fmt.Errorf("%w: no accessor for scheme %q", errdefs.ErrMissingSource, scheme)
	}
	return a, location, nil
}

// Frame implements Accessor.
func (r *Router) Frame(ctx context.Context, ref string, local float64) (image.Image, error) {
	a, location, err := r.route(ref)
	if err != nil {
		return nil, err
	}
	return a.Frame(ctx, location, local)
}

// Bounds implements Accessor.
func (r *Router) Bounds(ref string) (float64, float64, error) {
	a, location, err := r.route(ref)
	if err != nil {
		return 0, 0, err
	}
	return a.Bounds(location)
}

// index maps local seconds onto one of n items shown for step seconds each,
// clamped to the valid range.
func index(local, step float64, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(math.Floor(local / step))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
