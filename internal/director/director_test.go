package director

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/frame"
	"github.com/ivlev/framecomp/internal/keyframe"
	"github.com/ivlev/framecomp/internal/timeline"
)

func TestContrastDetectorFindsBlocks(t *testing.T) {
	f := frame.Solid(120, 80, 1, 1, 1, 1)
	fill := func(r image.Rectangle) {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				f.SetPixel(x, y, [4]float32{0, 0, 0, 1})
			}
		}
	}
	fill(image.Rect(10, 10, 40, 30))
	fill(image.Rect(70, 50, 110, 70))

	d := NewContrastDetector()
	d.MinBlockArea = 100
	blocks, err := d.Detect(f)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.True(t, blocks[0].Rect.Overlaps(image.Rect(10, 10, 40, 30)))
	assert.True(t, blocks[1].Rect.Overlaps(image.Rect(70, 50, 110, 70)))
}

func TestContrastDetectorIgnoresFlatFrame(t *testing.T) {
	blocks, err := NewContrastDetector().Detect(frame.Solid(64, 64, 0.5, 0.5, 0.5, 1))
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestNewDetector(t *testing.T) {
	d, err := NewDetector("")
	require.NoError(t, err)
	assert.IsType(t, &ContrastDetector{}, d)

	_, err = NewDetector("ocr")
	assert.ErrorIs(t, err, errdefs.ErrValidation)
}

func TestPlan(t *testing.T) {
	d := NewDirector(1280, 720)
	blocks := []Block{
		{Rect: image.Rect(50, 150, 300, 250)},
		{Rect: image.Rect(400, 55, 600, 100)},
		{Rect: image.Rect(50, 50, 200, 100)},
	}

	shots, err := d.Plan(blocks, 10)
	require.NoError(t, err)
	require.Len(t, shots, 5)

	assert.Equal(t, "full_view", shots[0].Focus)
	assert.Equal(t, "full_view", shots[4].Focus)
	assert.Equal(t, image.Rect(50, 50, 200, 100), shots[1].Rect, "reading order")
	assert.Equal(t, image.Rect(400, 55, 600, 100), shots[2].Rect)
	for i := 1; i < len(shots); i++ {
		assert.Greater(t, shots[i].Time, shots[i-1].Time)
	}
	assert.LessOrEqual(t, shots[4].Time, 10.0)
	for _, s := range shots {
		assert.GreaterOrEqual(t, s.Zoom, 1.0)
		assert.LessOrEqual(t, s.Zoom, d.MaxZoom)
	}
}

func TestPlanSqueezesIntoShortClip(t *testing.T) {
	d := NewDirector(100, 100)
	blocks := make([]Block, 6)
	for i := range blocks {
		blocks[i] = Block{Rect: image.Rect(i*10, 0, i*10+10, 10)}
	}

	shots, err := d.Plan(blocks, 2)
	require.NoError(t, err)
	assert.InDelta(t, 2, shots[len(shots)-1].Time, 1e-9)

	_, err = d.Plan(nil, 2)
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
}

func TestGeometryCentersRegion(t *testing.T) {
	d := NewDirector(100, 100)
	pos, scale := d.Geometry(Shot{Rect: image.Rect(60, 60, 80, 80), Zoom: 2})
	assert.Equal(t, []float64{-40, -40}, pos)
	assert.Equal(t, []float64{2, 2}, scale)

	pos, scale = d.Geometry(Shot{Rect: image.Rect(0, 0, 100, 100), Zoom: 1})
	assert.Equal(t, []float64{0, 0}, pos)
	assert.Equal(t, []float64{1, 1}, scale)
}

func TestApplyWritesKeyframes(t *testing.T) {
	tl := timeline.New()
	id, err := tl.PlaceClip(0, "image:page.png", 0, 6, 0)
	require.NoError(t, err)

	d := NewDirector(100, 100)
	shots, err := d.Plan([]Block{{Rect: image.Rect(60, 60, 80, 80)}}, 6)
	require.NoError(t, err)
	require.NoError(t, d.Apply(tl, id, shots))

	c, err := tl.Clip(id)
	require.NoError(t, err)
	assert.Equal(t, len(shots), c.Keyframes[keyframe.Position].Len())
	assert.Equal(t, []float64{1, 1}, c.Eval(keyframe.Scale, 0))
	assert.Equal(t, []float64{d.MaxZoom, d.MaxZoom}, c.Eval(keyframe.Scale, shots[1].Time))
}
