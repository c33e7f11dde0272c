package raster

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/framecomp/internal/frame"
)

func TestGaussianKernelNormalized(t *testing.T) {
	for _, size := range []int{1, 3, 4, 11} {
		k := GaussianKernel(size, 0)
		require.Equal(t, 1, len(k)%2, "kernel length must be odd")

		var sum float32
		for _, w := range k {
			sum += w
		}
		assert.InDelta(t, 1, sum, 1e-5)
		assert.InDelta(t, k[0], k[len(k)-1], 1e-7, "kernel must be symmetric")
	}
}

func TestBlurPreservesUniformPlane(t *testing.T) {
	p := NewPlane(6, 6)
	for i := range p.V {
		p.V[i] = 0.4
	}

	out := Blur(p, 5)
	for _, v := range out.V {
		assert.InDelta(t, 0.4, v, 1e-5)
	}
}

func TestBlurSpreadsImpulse(t *testing.T) {
	p := NewPlane(7, 7)
	p.Set(3, 3, 1)

	out := Blur(p, 3)
	assert.Less(t, out.At(3, 3), float32(1))
	assert.Greater(t, out.At(2, 3), float32(0))
	assert.Equal(t, float32(0), out.At(0, 0))
}

func TestOpenRemovesSpeckle(t *testing.T) {
	p := NewPlane(5, 5)
	p.Set(2, 2, 1)

	out := Open(p)
	for _, v := range out.V {
		assert.Equal(t, float32(0), v)
	}
}

func TestCloseFillsPinhole(t *testing.T) {
	p := NewPlane(5, 5)
	for i := range p.V {
		p.V[i] = 1
	}
	p.Set(2, 2, 0)

	out := Close(p)
	assert.Equal(t, float32(1), out.At(2, 2))
}

func TestGradientFlatIsZero(t *testing.T) {
	f := frame.Solid(4, 4, 0.5, 0.5, 0.5, 1)
	mag := Gradient(Gray(f))
	for _, v := range mag.V {
		assert.InDelta(t, 0, v, 1e-4)
	}
}

func TestHysteresisKeepsOnlyConnectedWeakEdges(t *testing.T) {
	mag := NewPlane(5, 1)
	copy(mag.V, []float32{300, 150, 150, 0, 150})

	edges := Hysteresis(mag, 100, 200)
	assert.Equal(t, []float32{1, 1, 1, 0, 0}, edges.V)
}

func TestChannelRoundTrip(t *testing.T) {
	f := frame.Solid(2, 2, 0.1, 0.2, 0.3, 0.4)
	a := Channel(f, 3)
	for _, v := range a.V {
		assert.Equal(t, float32(0.4), v)
	}

	a.V[0] = 1
	SetChannel(f, 3, a)
	assert.Equal(t, float32(1), f.Pix[3])
}

func TestComponentsBoundingBoxes(t *testing.T) {
	p := NewPlane(10, 6)
	for y := 1; y <= 2; y++ {
		for x := 1; x <= 3; x++ {
			p.Set(x, y, 1)
		}
	}
	p.Set(8, 4, 1)
	p.Set(8, 5, 1)

	boxes := Components(p, 0.5)
	require.Len(t, boxes, 2)
	assert.Equal(t, image.Rect(1, 1, 4, 3), boxes[0])
	assert.Equal(t, image.Rect(8, 4, 9, 6), boxes[1])
}
