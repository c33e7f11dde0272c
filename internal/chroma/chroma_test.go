package chroma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/frame"
)

func green() Params {
	p, _ := Preset("green_screen")
	return p
}

// halfGreen returns a frame whose left half is pure key green and right half
// is opaque gray.
func halfGreen(w, h int) *frame.Frame {
	f := frame.Solid(w, h, 0.5, 0.5, 0.5, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			f.SetPixel(x, y, [4]float32{0, 1, 0, 1})
		}
	}
	return f
}

func TestZeroToleranceWithoutKeyPixelsGivesEmptyMask(t *testing.T) {
	f := frame.Solid(12, 12, 0.1, 0.9, 0.1, 1) // green-ish but not exact
	f.SetPixel(3, 3, [4]float32{0, 0.99, 0, 1})

	p := green()
	p.Tolerance = 0

	out, mask, err := Apply(f, p)
	require.NoError(t, err)
	for _, v := range mask.V {
		require.Equal(t, float32(0), v)
	}
	for i := 3; i < len(out.Pix); i += 4 {
		assert.Equal(t, float32(1), out.Pix[i])
	}
}

func TestKeyRegionIsRemoved(t *testing.T) {
	p := green()
	p.EdgeSoftness = 0
	p.SpillSuppression = 0

	out, mask, err := Apply(halfGreen(16, 8), p)
	require.NoError(t, err)

	assert.Equal(t, float32(1), mask.At(2, 4))
	assert.Equal(t, float32(0), mask.At(13, 4))
	assert.Equal(t, float32(0), out.Pixel(2, 4)[3])
	assert.Equal(t, float32(1), out.Pixel(13, 4)[3])
}

func TestOpeningRemovesIsolatedKeyPixels(t *testing.T) {
	f := frame.Solid(9, 9, 0.5, 0.5, 0.5, 1)
	f.SetPixel(4, 4, [4]float32{0, 1, 0, 1})

	p := green()
	p.EdgeSoftness = 0

	_, mask, err := Apply(f, p)
	require.NoError(t, err)
	assert.Equal(t, float32(0), mask.At(4, 4))
}

func TestEdgeSoftnessFeathersMatte(t *testing.T) {
	p := green()
	p.EdgeSoftness = 0.25
	p.SpillSuppression = 0

	_, mask, err := Apply(halfGreen(32, 8), p)
	require.NoError(t, err)

	edge := mask.At(16, 4)
	assert.Greater(t, edge, float32(0))
	assert.Less(t, edge, float32(1))
}

func TestSpillSuppressionDesaturatesBandOnly(t *testing.T) {
	f := frame.Solid(30, 4, 0.4, 0.8, 0.4, 1) // greenish foreground
	for y := 0; y < 4; y++ {
		for x := 0; x < 10; x++ {
			f.SetPixel(x, y, [4]float32{0, 1, 0, 1})
		}
	}

	p := green()
	p.EdgeSoftness = 0
	p.SpillSuppression = 1

	out, _, err := Apply(f, p)
	require.NoError(t, err)

	near := out.Pixel(10, 2)
	far := out.Pixel(25, 2)
	assert.InDelta(t, near[0], near[1], 1e-5, "adjacent pixel fully desaturated")
	assert.Equal(t, [4]float32{0.4, 0.8, 0.4, 1}, far)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Params)
	}{
		{"tolerance", func(p *Params) { p.Tolerance = 1.5 }},
		{"softness", func(p *Params) { p.EdgeSoftness = -0.1 }},
		{"spill", func(p *Params) { p.SpillSuppression = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := green()
			tt.mod(&p)
			_, _, err := Apply(frame.New(2, 2), p)
			assert.ErrorIs(t, err, errdefs.ErrValidation)
		})
	}
}

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"blue_screen", "fast", "green_screen", "high_quality", "red_screen"}, PresetNames())
	for _, name := range PresetNames() {
		p, err := Preset(name)
		require.NoError(t, err)
		assert.NoError(t, p.Validate())
	}

	_, err := Preset("purple")
	assert.ErrorIs(t, err, errdefs.ErrValidation)
}

func TestHSVRoundTrip(t *testing.T) {
	for _, c := range [][3]float32{{1, 0, 0}, {0.2, 0.6, 0.4}, {0.9, 0.1, 0.7}, {0.5, 0.5, 0.5}} {
		r, g, b := fromHSV(toHSV(c[0], c[1], c[2]))
		assert.InDelta(t, c[0], r, 1e-5)
		assert.InDelta(t, c[1], g, 1e-5)
		assert.InDelta(t, c[2], b, 1e-5)
	}
}
