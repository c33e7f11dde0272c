package raster

import (
	"math"

	"github.com/ivlev/framecomp/internal/frame"
)

// GaussianKernel returns a normalized 1D kernel of odd length size. A
// non-positive sigma is derived from the size the way OpenCV does it.
func GaussianKernel(size int, sigma float64) []float32 {
	if size < 1 {
		size = 1
	}
	if size%2 == 0 {
		size++
	}
	if sigma <= 0 {
		sigma = 0.3*(float64(size-1)*0.5-1) + 0.8
	}

	half := size / 2
	weights := make([]float64, size)
	var sum float64
	for i := range weights {
		d := float64(i - half)
		weights[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += weights[i]
	}

	kernel := make([]float32, size)
	for i, w := range weights {
		kernel[i] = float32(w / sum)
	}
	return kernel
}

// Blur convolves p with a separable Gaussian of odd length size.
// Sizes below 3 return a copy.
func Blur(p *Plane, size int) *Plane {
	if size < 3 {
		return p.Clone()
	}
	k := GaussianKernel(size, 0)
	return convolveV(convolveH(p, k), k)
}

// BlurFrame applies Blur to each channel of f, including alpha.
func BlurFrame(f *frame.Frame, size int) *frame.Frame {
	out := f.Clone()
	if size < 3 {
		return out
	}
	for c := 0; c < 4; c++ {
		SetChannel(out, c, Blur(Channel(f, c), size))
	}
	return out
}

func convolveH(p *Plane, k []float32) *Plane {
	out := NewPlane(p.Width, p.Height)
	half := len(k) / 2
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			var sum float32
			for i, w := range k {
				sum += p.At(x+i-half, y) * w
			}
			out.Set(x, y, sum)
		}
	}
	return out
}

func convolveV(p *Plane, k []float32) *Plane {
	out := NewPlane(p.Width, p.Height)
	half := len(k) / 2
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			var sum float32
			for i, w := range k {
				sum += p.At(x, y+i-half) * w
			}
			out.Set(x, y, sum)
		}
	}
	return out
}
