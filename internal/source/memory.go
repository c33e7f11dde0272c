package source

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/ivlev/framecomp/internal/errdefs"
)

type clipFrames struct {
	fps    float64
	frames []image.Image
	still  bool
}

// Memory serves frames held in process, for embedding and tests.
type Memory struct {
	mu    sync.RWMutex
	items map[string]clipFrames
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]clipFrames)}
}

// PutStill stores a single image with unbounded duration.
func (m *Memory) PutStill(location string, img image.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[location] = clipFrames{fps: 1, frames: []image.Image{img}, still: true}
}

// PutSequence stores frames played at fps.
func (m *Memory) PutSequence(location string, fps float64, frames ...image.Image) {
	if fps <= 0 {
		fps = 25
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[location] = clipFrames{fps: fps, frames: frames}
}

// Delete removes a stored item.
func (m *Memory) Delete(location string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, location)
}

func (m *Memory) get(location string) (clipFrames, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[location]
	if !ok || len(it.frames) == 0 {
		return clipFrames{}, fmt.Errorf("%w: %q not in memory", errdefs.ErrMissingSource, location)
	}
	return it, nil
}

// Frame implements Accessor.
func (m *Memory) Frame(ctx context.Context, location string, local float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	it, err := m.get(location)
	if err != nil {
		return nil, err
	}
	return it.frames[index(local, 1/it.fps, len(it.frames))], nil
}

// Bounds implements Accessor.
func (m *Memory) Bounds(location string) (float64, float64, error) {
	it, err := m.get(location)
	if err != nil {
		return 0, 0, err
	}
	if it.still {
		return 0, Unbounded, nil
	}
	return 0, float64(len(it.frames)) / it.fps, nil
}
