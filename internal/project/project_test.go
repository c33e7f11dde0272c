package project

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/framecomp/internal/chroma"
	"github.com/ivlev/framecomp/internal/director"
	"github.com/ivlev/framecomp/internal/effects"
	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/frame"
	"github.com/ivlev/framecomp/internal/keyframe"
	"github.com/ivlev/framecomp/internal/source"
	"github.com/ivlev/framecomp/internal/text"
	"github.com/ivlev/framecomp/internal/timeline"
	"github.com/ivlev/framecomp/internal/transition"
)

var hd = Canvas{Width: 1280, Height: 720, FPS: 25}

func sample(t *testing.T) *Project {
	t.Helper()
	p, err := New("demo", hd)
	require.NoError(t, err)
	tl := p.Timeline

	a, err := tl.PlaceClip(0, "image:a.png", 0, 4, 0)
	require.NoError(t, err)
	b, err := tl.PlaceClip(0, "image:b.png", 4, 3, 1)
	require.NoError(t, err)
	c, err := tl.PlaceClip(1, "slate:sync", 1, 2, 0)
	require.NoError(t, err)

	_, err = tl.AddEffect(a, "sepia", effects.Params{"intensity": 0.5})
	require.NoError(t, err)
	key, err := chroma.Preset("green_screen")
	require.NoError(t, err)
	require.NoError(t, tl.SetChromaKey(c, &key))
	require.NoError(t, tl.SetKeyframe(b, keyframe.Opacity, 0, []float64{0}))
	require.NoError(t, tl.SetKeyframe(b, keyframe.Opacity, 1, []float64{1}))
	require.NoError(t, tl.SetKeyframe(c, keyframe.Position, 0, []float64{10, -20}))
	require.NoError(t, tl.SetTransition(a, b, transition.WipeHorizontal, 0.5))

	oid, err := tl.AddOverlay(timeline.Overlay{
		Text:      "Chapter 1",
		Start:     0.5,
		Duration:  2,
		Style:     text.DefaultStyle(),
		Animation: text.Animation{Mode: text.Fade, Ramp: 0.4},
		Position:  &[2]float64{0.5, 0.8},
	})
	require.NoError(t, err)
	require.NoError(t, tl.SetOverlayKeyframe(oid, keyframe.Scale, 0, []float64{1, 1}))
	require.NoError(t, tl.SetOverlayKeyframe(oid, keyframe.Scale, 2, []float64{1.5, 1.5}))

	require.NoError(t, tl.SetTrackName(1, "slates"))
	require.NoError(t, tl.SetTrackHidden(1, true))
	require.NoError(t, tl.LockTrack(0))
	return p
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := sample(t)
	path := filepath.Join(t.TempDir(), "nested", "demo.yaml")
	require.NoError(t, Save(p, path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, p.ID, loaded.ID)
	assert.Equal(t, p.Canvas, loaded.Canvas)
	assert.Equal(t, p.Document(), loaded.Document())

	tracks := loaded.Timeline.Tracks()
	require.Len(t, tracks, 2)
	assert.True(t, tracks[0].Locked)
	assert.True(t, tracks[1].Hidden)
	assert.Len(t, loaded.Timeline.TransitionsAt(3.75), 1)
}

func TestSaveLoadKeepsInertTransition(t *testing.T) {
	p, err := New("edited", hd)
	require.NoError(t, err)
	a, err := p.Timeline.PlaceClip(0, "image:a.png", 0, 4, 0)
	require.NoError(t, err)
	b, err := p.Timeline.PlaceClip(0, "image:b.png", 4, 3, 0)
	require.NoError(t, err)
	require.NoError(t, p.Timeline.SetTransition(a, b, transition.Crossfade, 1))
	require.NoError(t, p.Timeline.MoveClip(b, 0, 5))

	path := filepath.Join(t.TempDir(), "edited.yaml")
	require.NoError(t, Save(p, path))
	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, p.Document(), loaded.Document())
	assert.Empty(t, loaded.Timeline.TransitionsAt(3.5))

	ids := loaded.Timeline.Tracks()[0].Clips
	require.Len(t, ids, 2)
	require.NoError(t, loaded.Timeline.MoveClip(ids[1], 0, 4))
	assert.Len(t, loaded.Timeline.TransitionsAt(3.5), 1)
}

func TestBuildRevalidates(t *testing.T) {
	t.Run("overlap", func(t *testing.T) {
		doc := &Document{Canvas: hd, Clips: []ClipDoc{
			{ID: 1, Source: "x", Start: 0, Duration: 2},
			{ID: 2, Source: "x", Start: 1, Duration: 2},
		}}
		_, err := Build(doc)
		assert.ErrorIs(t, err, errdefs.ErrOverlap)
	})

	t.Run("dangling transition", func(t *testing.T) {
		doc := &Document{Canvas: hd,
			Clips:       []ClipDoc{{ID: 1, Source: "x", Duration: 2}},
			Transitions: []TransitionDoc{{From: 1, To: 7, Kind: transition.Crossfade, Duration: 1}},
		}
		_, err := Build(doc)
		assert.ErrorIs(t, err, errdefs.ErrNotFound)
	})

	t.Run("unknown transition kind", func(t *testing.T) {
		doc := &Document{Canvas: hd,
			Clips: []ClipDoc{
				{ID: 1, Source: "x", Duration: 2},
				{ID: 2, Source: "x", Start: 2, Duration: 2},
			},
			Transitions: []TransitionDoc{{From: 1, To: 2, Kind: "spin", Duration: 1}},
		}
		_, err := Build(doc)
		assert.ErrorIs(t, err, errdefs.ErrUnknownTransition)
	})

	t.Run("bad canvas", func(t *testing.T) {
		_, err := Build(&Document{Canvas: Canvas{Width: 0, Height: 10, FPS: 25}})
		assert.ErrorIs(t, err, errdefs.ErrValidation)
	})

	t.Run("bad id", func(t *testing.T) {
		_, err := Build(&Document{ID: "not-a-uuid", Canvas: hd})
		assert.ErrorIs(t, err, errdefs.ErrValidation)
	})
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.yaml")
	recent := filepath.Join(dir, "recent.yaml")
	require.NoError(t, os.WriteFile(old, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(recent, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	now := time.Now()
	require.NoError(t, os.Chtimes(old, now.Add(-time.Hour), now.Add(-time.Hour)))
	require.NoError(t, os.Chtimes(recent, now, now))

	got, err := FindLatest(dir)
	require.NoError(t, err)
	assert.Equal(t, recent, got)

	_, err = FindLatest(t.TempDir())
	assert.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	p := DefaultPath("out", "")
	assert.Equal(t, "out", filepath.Dir(p))
	assert.Regexp(t, `^project_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.yaml$`, filepath.Base(p))
}

func TestPageDurations(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	durations := PageDurations(12, 60, 0.5, 0.15, rng)
	require.Len(t, durations, 12)

	sum := 0.0
	for i, d := range durations {
		sum += d
		if i > 0 {
			ratio := d / durations[i-1]
			assert.GreaterOrEqual(t, ratio, 0.85-1e-9)
			assert.LessOrEqual(t, ratio, 1.15+1e-9)
		}
	}
	assert.InDelta(t, 60, sum, 1e-9)

	assert.Equal(t, []float64{2, 2, 2}, PageDurations(3, 6, 0, 0, nil))
	assert.Nil(t, PageDurations(0, 6, 0, 0, nil))
}

func TestSlideshow(t *testing.T) {
	p, err := New("show", hd)
	require.NoError(t, err)

	ids, err := Slideshow(p, []string{"image:1.png", "image:2.png", "image:3.png"}, SlideshowOptions{
		Total: 9, Fade: 0.5, Transition: transition.Crossfade,
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)

	for i, id := range ids {
		c, err := p.Timeline.Clip(id)
		require.NoError(t, err)
		assert.InDelta(t, float64(i)*3, c.Start, 1e-9)
		assert.InDelta(t, 3, c.Duration, 1e-9)
	}
	trs := p.Timeline.Transitions()
	require.Len(t, trs, 2)
	assert.Equal(t, ids[0], trs[0].From)
	assert.Equal(t, ids[1], trs[0].To)
	assert.InDelta(t, 9, p.Timeline.Duration(), 1e-9)
}

func TestSlideshowShrinksOversizedFade(t *testing.T) {
	p, err := New("show", hd)
	require.NoError(t, err)

	_, err = Slideshow(p, []string{"a", "b"}, SlideshowOptions{Total: 2, Fade: 1.5})
	require.NoError(t, err)

	trs := p.Timeline.Transitions()
	require.Len(t, trs, 1)
	assert.Equal(t, transition.Crossfade, trs[0].Kind)
	assert.InDelta(t, 0.377, trs[0].Duration, 1e-3)
	assert.InDelta(t, 2, p.Timeline.Duration(), 1e-9)
}

func TestSlideshowValidation(t *testing.T) {
	p, err := New("show", hd)
	require.NoError(t, err)

	_, err = Slideshow(p, nil, SlideshowOptions{Total: 2})
	assert.ErrorIs(t, err, errdefs.ErrValidation)
	_, err = Slideshow(p, []string{"a"}, SlideshowOptions{Total: 0})
	assert.ErrorIs(t, err, errdefs.ErrValidation)
	_, err = Slideshow(p, []string{"a", "b"}, SlideshowOptions{Total: 4, Fade: 1, Transition: "spin"})
	assert.ErrorIs(t, err, errdefs.ErrUnknownTransition)
}

func TestDirectAnimatesDetectedContent(t *testing.T) {
	canvas := Canvas{Width: 120, Height: 80, FPS: 25}
	p, err := New("direct", canvas)
	require.NoError(t, err)

	page := frame.Solid(120, 80, 1, 1, 1, 1)
	for y := 20; y < 50; y++ {
		for x := 20; x < 70; x++ {
			page.SetPixel(x, y, [4]float32{0, 0, 0, 1})
		}
	}
	mem := source.NewMemory()
	mem.PutStill("page", page)
	mem.PutStill("blank", frame.Solid(120, 80, 1, 1, 1, 1))

	ids, err := Slideshow(p, []string{"page", "blank"}, SlideshowOptions{Total: 20})
	require.NoError(t, err)

	det := director.NewContrastDetector()
	det.MinBlockArea = 100
	logger, hook := logtest.NewNullLogger()
	require.NoError(t, Direct(context.Background(), p, mem, det, director.NewDirector(120, 80), ids, logger))

	animated, err := p.Timeline.Clip(ids[0])
	require.NoError(t, err)
	assert.NotNil(t, animated.Keyframes[keyframe.Scale])
	assert.NotNil(t, animated.Keyframes[keyframe.Position])

	static, err := p.Timeline.Clip(ids[1])
	require.NoError(t, err)
	assert.Empty(t, static.Keyframes)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "no content blocks, keeping static view", hook.LastEntry().Message)
}
