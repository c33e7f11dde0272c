// Package raster holds the single-channel image operations shared by effects
// and the chroma keyer: grayscale, Sobel gradients, morphology and Gaussian
// blur.
package raster

import "github.com/ivlev/framecomp/internal/frame"

// Plane is a single float32 channel, row-major.
type Plane struct {
	Width  int
	Height int
	V      []float32
}

// NewPlane returns a zeroed plane.
func NewPlane(width, height int) *Plane {
	return &Plane{Width: width, Height: height, V: make([]float32, width*height)}
}

// At returns the value at (x, y) with coordinates clamped to the edge.
func (p *Plane) At(x, y int) float32 {
	return p.V[clampIndex(y, p.Height)*p.Width+clampIndex(x, p.Width)]
}

// Set writes v at (x, y).
func (p *Plane) Set(x, y int, v float32) {
	p.V[y*p.Width+x] = v
}

// Clone returns a deep copy.
func (p *Plane) Clone() *Plane {
	c := NewPlane(p.Width, p.Height)
	copy(c.V, p.V)
	return c
}

// Gray converts the color channels of f to luma in [0,1] (Rec. 601 weights).
func Gray(f *frame.Frame) *Plane {
	p := NewPlane(f.Width, f.Height)
	for i := range p.V {
		j := i * 4
		p.V[i] = 0.299*f.Pix[j] + 0.587*f.Pix[j+1] + 0.114*f.Pix[j+2]
	}
	return p
}

// Channel extracts channel c (0..3) of f.
func Channel(f *frame.Frame, c int) *Plane {
	p := NewPlane(f.Width, f.Height)
	for i := range p.V {
		p.V[i] = f.Pix[i*4+c]
	}
	return p
}

// SetChannel writes p into channel c of f.
func SetChannel(f *frame.Frame, c int, p *Plane) {
	for i, v := range p.V {
		f.Pix[i*4+c] = v
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
