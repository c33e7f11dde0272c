package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/frame"
)

func TestRegistryHasAllKinds(t *testing.T) {
	assert.Equal(t, []string{
		"blur", "brightness", "contrast", "edge_detection", "noise",
		"pixelate", "sepia", "sharpen", "vignette",
	}, Kinds())
}

func TestNewInstanceUnknownKind(t *testing.T) {
	_, err := NewInstance("hologram", nil)
	assert.ErrorIs(t, err, errdefs.ErrUnknownEffect)
}

func TestNewInstanceClampsAndDefaults(t *testing.T) {
	tests := []struct {
		name   string
		kind   string
		params Params
		want   Params
	}{
		{"default", "blur", nil, Params{"strength": 1}},
		{"above max", "brightness", Params{"factor": 9}, Params{"factor": 3}},
		{"below min", "pixelate", Params{"pixel_size": -4}, Params{"pixel_size": 1}},
		{"unknown dropped", "sepia", Params{"warmth": 2}, Params{"intensity": 1}},
		{"two params", "edge_detection", Params{"threshold2": 5000}, Params{"threshold1": 100, "threshold2": 1500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := NewInstance(tt.kind, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, in.Params)
		})
	}
}

func TestEmptyPipelineIsIdentity(t *testing.T) {
	f := frame.Solid(3, 3, 0.2, 0.3, 0.4, 0.5)
	out, err := Pipeline(nil).Apply(f, Context{})
	require.NoError(t, err)
	assert.Equal(t, f.Pix, out.Pix)
}

func TestPipelineAppliesInOrder(t *testing.T) {
	bright, err := NewInstance("brightness", Params{"factor": 2})
	require.NoError(t, err)
	con, err := NewInstance("contrast", Params{"factor": 0})
	require.NoError(t, err)

	f := frame.Solid(1, 1, 0.2, 0.2, 0.2, 1)

	out, err := Pipeline{bright, con}.Apply(f, Context{})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, out.Pix[0], 1e-6, "contrast 0 flattens to mid-gray last")

	out, err = Pipeline{con, bright}.Apply(f, Context{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out.Pix[0], 1e-6)
}

func TestPipelineDoesNotMutateInput(t *testing.T) {
	in, err := NewInstance("sepia", nil)
	require.NoError(t, err)

	f := frame.Solid(2, 2, 0.1, 0.9, 0.1, 1)
	before := f.Clone()
	_, err = Pipeline{in}.Apply(f, Context{})
	require.NoError(t, err)
	assert.Equal(t, before.Pix, f.Pix)
}

func TestEffectsPreserveAlpha(t *testing.T) {
	f := frame.Solid(8, 8, 0.3, 0.6, 0.9, 0.7)
	for _, kind := range []string{"brightness", "contrast", "sepia", "sharpen", "vignette", "noise", "pixelate", "edge_detection"} {
		t.Run(kind, func(t *testing.T) {
			in, err := NewInstance(kind, nil)
			require.NoError(t, err)
			out, err := Pipeline{in}.Apply(f, Context{Seed: 7})
			require.NoError(t, err)
			for i := 3; i < len(out.Pix); i += 4 {
				assert.InDelta(t, 0.7, out.Pix[i], 1e-6)
			}
		})
	}
}

func TestKernelSize(t *testing.T) {
	assert.Equal(t, 1, KernelSize(0))
	assert.Equal(t, 5, KernelSize(1))
	assert.Equal(t, 11, KernelSize(2))
	assert.Equal(t, 51, KernelSize(10))
}

func TestNoiseIsReproducible(t *testing.T) {
	in, err := NewInstance("noise", Params{"amount": 0.3})
	require.NoError(t, err)
	f := frame.Solid(4, 4, 0.5, 0.5, 0.5, 1)

	a, err := Pipeline{in}.Apply(f, Context{Seed: 42})
	require.NoError(t, err)
	b, err := Pipeline{in}.Apply(f, Context{Seed: 42})
	require.NoError(t, err)
	c, err := Pipeline{in}.Apply(f, Context{Seed: 43})
	require.NoError(t, err)

	assert.Equal(t, a.Pix, b.Pix)
	assert.NotEqual(t, a.Pix, c.Pix)
}

func TestPixelateAveragesBlocks(t *testing.T) {
	f := frame.New(2, 1)
	f.SetPixel(0, 0, [4]float32{1, 0, 0, 1})
	f.SetPixel(1, 0, [4]float32{0, 0, 1, 1})

	in, err := NewInstance("pixelate", Params{"pixel_size": 2})
	require.NoError(t, err)
	out, err := Pipeline{in}.Apply(f, Context{})
	require.NoError(t, err)

	assert.Equal(t, [4]float32{0.5, 0, 0.5, 1}, out.Pixel(0, 0))
	assert.Equal(t, [4]float32{0.5, 0, 0.5, 1}, out.Pixel(1, 0))
}

func TestVignetteDarkensCorners(t *testing.T) {
	in, err := NewInstance("vignette", Params{"strength": 1})
	require.NoError(t, err)
	out, err := Pipeline{in}.Apply(frame.Solid(9, 9, 1, 1, 1, 1), Context{})
	require.NoError(t, err)

	assert.InDelta(t, 1, out.Pixel(4, 4)[0], 1e-6)
	assert.InDelta(t, 0, out.Pixel(0, 0)[0], 1e-6)
}

func TestEdgeDetectionFindsStep(t *testing.T) {
	f := frame.Solid(6, 6, 0, 0, 0, 1)
	for y := 0; y < 6; y++ {
		for x := 3; x < 6; x++ {
			f.SetPixel(x, y, [4]float32{1, 1, 1, 1})
		}
	}

	in, err := NewInstance("edge_detection", nil)
	require.NoError(t, err)
	out, err := Pipeline{in}.Apply(f, Context{})
	require.NoError(t, err)

	assert.Equal(t, float32(1), out.Pixel(3, 2)[0])
	assert.Equal(t, float32(0), out.Pixel(0, 2)[0])
}
