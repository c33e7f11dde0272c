package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/framecomp/internal/project"
	"github.com/ivlev/framecomp/internal/transition"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func sampleProject(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	red := filepath.Join(dir, "red.png")
	blue := filepath.Join(dir, "blue.png")
	writePNG(t, red, color.NRGBA{R: 255, A: 255})
	writePNG(t, blue, color.NRGBA{B: 255, A: 255})

	p, err := project.New("cli", project.Canvas{Width: 16, Height: 16, FPS: 10})
	require.NoError(t, err)
	ids, err := project.Slideshow(p, []string{"image:" + red, "image:" + blue}, project.SlideshowOptions{
		Total: 2, Fade: 0.5, Transition: transition.Crossfade,
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	path = filepath.Join(dir, "cli.yaml")
	require.NoError(t, project.Save(p, path))
	return dir, path
}

func TestPresetsCommand(t *testing.T) {
	out, err := run(t, "presets")
	require.NoError(t, err)
	for _, want := range []string{"sepia", "wipe_circular", "green_screen", "lower_third", "9:16"} {
		assert.Contains(t, out, want)
	}
}

func TestInspectCommand(t *testing.T) {
	_, path := sampleProject(t)
	out, err := run(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Tracks")
	assert.Contains(t, out, "red.png")
	assert.Contains(t, out, "crossfade")
}

func TestRenderCommandWritesPNG(t *testing.T) {
	dir, path := sampleProject(t)
	target := filepath.Join(dir, "frame.png")

	out, err := run(t, "render", path, "--at", "0.2", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, target)

	f, err := os.Open(target)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	r, g, b, a := img.At(8, 8).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)
	assert.Equal(t, uint32(0xffff), a)
}

func TestRenderCommandRejectsOutOfRange(t *testing.T) {
	_, path := sampleProject(t)
	_, err := run(t, "render", path, "--at", "30", "-o", filepath.Join(t.TempDir(), "x.png"))
	assert.Error(t, err)
}

func TestSequenceCommand(t *testing.T) {
	dir, path := sampleProject(t)
	frames := filepath.Join(dir, "frames")

	out, err := run(t, "sequence", path, "-o", frames, "--to", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Export")

	entries, err := os.ReadDir(frames)
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}

func TestSlideshowCommandFromImageDir(t *testing.T) {
	dir := t.TempDir()
	slides := filepath.Join(dir, "slides")
	require.NoError(t, os.Mkdir(slides, 0o755))
	writePNG(t, filepath.Join(slides, "01.png"), color.NRGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(slides, "02.png"), color.NRGBA{G: 255, A: 255})
	writePNG(t, filepath.Join(slides, "03.png"), color.NRGBA{B: 255, A: 255})
	target := filepath.Join(dir, "show.yaml")

	_, err := run(t, "slideshow", slides, "-o", target, "-d", "6", "--seed", "3", "--title", "Hello")
	require.NoError(t, err)

	p, err := project.Load(target)
	require.NoError(t, err)
	st := p.Timeline.State()
	assert.Len(t, st.Clips, 3)
	assert.Len(t, st.Transitions, 2)
	assert.Len(t, st.Overlays, 1)
	assert.InDelta(t, 6, p.Timeline.Duration(), 1e-9)
}
