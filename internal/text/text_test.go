package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/framecomp/internal/errdefs"
)

func TestAnimateNone(t *testing.T) {
	assert.Equal(t, Static, Animate(Animation{Mode: None}, 0.1, 5, 10))
	assert.Equal(t, Static, Animate(Animation{}, 3, 5, 10))
}

func TestAnimateFade(t *testing.T) {
	a := Animation{Mode: Fade, Ramp: 1}
	tests := []struct {
		local float64
		want  float64
	}{
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{2.5, 1},
		{4.5, 0.5},
		{5, 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, Animate(a, tt.local, 5, 0).Opacity, 1e-9, "local=%v", tt.local)
	}
}

func TestAnimateFadeShortOverlay(t *testing.T) {
	// ramp longer than half the overlay is shortened to fit
	st := Animate(Animation{Mode: Fade, Ramp: 2}, 0.5, 1, 0)
	assert.InDelta(t, 1, st.Opacity, 1e-9)
}

func TestAnimateSlide(t *testing.T) {
	tests := []struct {
		dir    Direction
		dx, dy float64
	}{
		{FromLeft, -0.5, 0},
		{"", -0.5, 0},
		{FromRight, 0.5, 0},
		{FromTop, 0, -0.5},
		{FromBottom, 0, 0.5},
	}

	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			st := Animate(Animation{Mode: Slide, Ramp: 1, Direction: tt.dir}, 0.5, 3, 0)
			assert.InDelta(t, tt.dx, st.OffsetX, 1e-9)
			assert.InDelta(t, tt.dy, st.OffsetY, 1e-9)
		})
	}

	done := Animate(Animation{Mode: Slide, Ramp: 1}, 2, 3, 0)
	assert.Equal(t, 0.0, done.OffsetX)
}

func TestAnimateTypewriter(t *testing.T) {
	a := Animation{Mode: Typewriter, Ramp: 2}
	assert.Equal(t, 0, Animate(a, 0, 5, 10).Chars)
	assert.Equal(t, 5, Animate(a, 1, 5, 10).Chars)
	assert.Equal(t, 3, Animate(a, 0.7, 5, 10).Chars)
	assert.Equal(t, 10, Animate(a, 4, 5, 10).Chars)
}

func TestAnimateScaleUsesDefaultRamp(t *testing.T) {
	st := Animate(Animation{Mode: Scale}, DefaultRamp/2, 5, 0)
	assert.InDelta(t, 0.5, st.Scale, 1e-9)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultStyle().Validate())
	assert.ErrorIs(t, Style{Size: 0}.Validate(), errdefs.ErrValidation)
	assert.ErrorIs(t, Style{Size: 10, Align: "justify"}.Validate(), errdefs.ErrValidation)
	assert.ErrorIs(t, Animation{Mode: "spin"}.Validate(), errdefs.ErrValidation)
	assert.ErrorIs(t, Animation{Mode: Slide, Direction: "diagonal"}.Validate(), errdefs.ErrValidation)
}

func TestTemplates(t *testing.T) {
	for _, name := range TemplateNames() {
		tpl, err := LookupTemplate(name)
		require.NoError(t, err)
		assert.NoError(t, tpl.Style.Validate(), name)
		assert.NoError(t, tpl.Animation.Validate(), name)
	}
	_, err := LookupTemplate("credits")
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
}

func TestFontRasterizerDrawsOpaqueGlyphs(t *testing.T) {
	r, err := NewFontRasterizer()
	require.NoError(t, err)

	f, err := r.RenderText("Hi", DefaultStyle(), Static)
	require.NoError(t, err)
	require.Greater(t, f.Width, 0)
	require.Greater(t, f.Height, 0)

	var maxA float32
	for i := 3; i < len(f.Pix); i += 4 {
		maxA = max(maxA, f.Pix[i])
	}
	assert.InDelta(t, 1, maxA, 0.01)
}

func TestFontRasterizerAppliesState(t *testing.T) {
	r, err := NewFontRasterizer()
	require.NoError(t, err)
	style := DefaultStyle()

	full, err := r.RenderText("Hello", style, Static)
	require.NoError(t, err)

	half, err := r.RenderText("Hello", style, State{Opacity: 1, Scale: 1, Chars: 2})
	require.NoError(t, err)
	assert.Less(t, half.Width, full.Width)

	none, err := r.RenderText("Hello", style, State{Opacity: 1, Scale: 1, Chars: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, none.Width)

	faded, err := r.RenderText("Hello", style, State{Opacity: 0.5, Scale: 1, Chars: -1})
	require.NoError(t, err)
	var maxA float32
	for i := 3; i < len(faded.Pix); i += 4 {
		maxA = max(maxA, faded.Pix[i])
	}
	assert.InDelta(t, 0.5, maxA, 0.01)
}

func TestFontRasterizerBoundsFaceCache(t *testing.T) {
	r, err := NewFontRasterizer()
	require.NoError(t, err)

	for i := 0; i < 2*faceCacheSize+10; i++ {
		st := State{Opacity: 1, Scale: 0.1 + float64(i)/100, Chars: -1}
		_, err := r.RenderText("A", DefaultStyle(), st)
		require.NoError(t, err)
	}
	assert.Equal(t, faceCacheSize, r.faces.Len())
}
