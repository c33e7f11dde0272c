package system

import (
	"fmt"
	"sync"

	"github.com/ivlev/framecomp/internal/frame"
)

// FramePool reuses scratch frames between renders to keep GC pressure low
// during playback. Frames are pooled per dimension.
type FramePool struct {
	pools map[string]*sync.Pool
	mu    sync.RWMutex
}

// NewFramePool returns an empty pool.
func NewFramePool() *FramePool {
	return &FramePool{pools: make(map[string]*sync.Pool)}
}

func poolKey(width, height int) string {
	return fmt.Sprintf("%dx%d", width, height)
}

// Get returns a fully transparent frame of the given size.
func (p *FramePool) Get(width, height int) *frame.Frame {
	key := poolKey(width, height)
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[key]
		if !exists {
			pool = &sync.Pool{
				New: func() any {
					return frame.New(width, height)
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	f := pool.Get().(*frame.Frame)
	clear(f.Pix)
	return f
}

// Put returns f for reuse. Frames of a size never requested through Get are
// dropped.
func (p *FramePool) Put(f *frame.Frame) {
	if f == nil {
		return
	}
	p.mu.RLock()
	pool, exists := p.pools[poolKey(f.Width, f.Height)]
	p.mu.RUnlock()

	if exists {
		pool.Put(f)
	}
}
