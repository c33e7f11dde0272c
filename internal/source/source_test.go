package source

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/framecomp/internal/errdefs"
)

func solid(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, solid(c)))
}

func TestSplit(t *testing.T) {
	scheme, loc, err := Split("pdf:/tmp/a:b.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf", scheme)
	assert.Equal(t, "/tmp/a:b.pdf", loc)

	for _, bad := range []string{"", "noscheme", ":x", "mem:"} {
		_, _, err := Split(bad)
		assert.ErrorIs(t, err, errdefs.ErrMissingSource, bad)
	}
}

func TestRouterDispatchesByScheme(t *testing.T) {
	mem := NewMemory()
	red := solid(color.NRGBA{R: 255, A: 255})
	mem.PutStill("red", red)

	r := NewRouter()
	r.Handle("mem", mem)

	img, err := r.Frame(context.Background(), "mem:red", 3)
	require.NoError(t, err)
	assert.Same(t, red, img)

	lo, hi, err := r.Bounds("mem:red")
	require.NoError(t, err)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, Unbounded, hi)

	_, err = r.Frame(context.Background(), "tape:red", 0)
	assert.ErrorIs(t, err, errdefs.ErrMissingSource)
	_, err = r.Frame(context.Background(), "mem:blue", 0)
	assert.ErrorIs(t, err, errdefs.ErrMissingSource)
}

func TestMemorySequence(t *testing.T) {
	a := solid(color.NRGBA{R: 1, A: 255})
	b := solid(color.NRGBA{R: 2, A: 255})
	mem := NewMemory()
	mem.PutSequence("seq", 2, a, b)

	tests := []struct {
		local float64
		want  image.Image
	}{
		{-1, a}, {0, a}, {0.49, a}, {0.5, b}, {0.99, b}, {5, b},
	}
	for _, tt := range tests {
		got, err := mem.Frame(context.Background(), "seq", tt.local)
		require.NoError(t, err)
		assert.Same(t, tt.want, got, "local=%v", tt.local)
	}

	_, hi, err := mem.Bounds("seq")
	require.NoError(t, err)
	assert.Equal(t, 1.0, hi)
}

func TestMemoryHonorsCancelledContext(t *testing.T) {
	mem := NewMemory()
	mem.PutStill("x", solid(color.NRGBA{A: 255}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mem.Frame(ctx, "x", 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImageSourceStillAndSequence(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "0001.png"), color.NRGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "0002.png"), color.NRGBA{B: 255, A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	s, err := NewImageSource(10, 4)
	require.NoError(t, err)

	still := filepath.Join(dir, "0001.png")
	_, hi, err := s.Bounds(still)
	require.NoError(t, err)
	assert.Equal(t, Unbounded, hi)

	_, hi, err = s.Bounds(dir)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, hi, 1e-9)

	img, err := s.Frame(context.Background(), dir, 0.15)
	require.NoError(t, err)
	r, _, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, uint32(0xffff), b)

	_, err = s.Frame(context.Background(), filepath.Join(dir, "missing.png"), 0)
	assert.ErrorIs(t, err, errdefs.ErrMissingSource)
}

func TestSlateFrame(t *testing.T) {
	s := &SlateSource{Width: 160, Height: 90, FPS: 25}

	img, err := s.Frame(context.Background(), "cam-a", 1.52)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 160, 90), img.Bounds())
	assert.Equal(t, "cam-a@00:00:01:13", s.Payload("cam-a", 1.52))

	// corners stay black, the code covers the middle
	r, g, b, a := img.At(0, 0).RGBA()
	assert.Equal(t, [4]uint32{0, 0, 0, 0xffff}, [4]uint32{r, g, b, a})
}

func TestTimecode(t *testing.T) {
	tests := []struct {
		seconds float64
		fps     float64
		want    string
	}{
		{0, 25, "00:00:00:00"},
		{1.04, 25, "00:00:01:01"},
		{3661.5, 30, "01:01:01:15"},
		{-3, 25, "00:00:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Timecode(tt.seconds, tt.fps))
	}
}

func TestIndexForPages(t *testing.T) {
	// five second pages
	assert.Equal(t, 0, index(4.99, 5, 3))
	assert.Equal(t, 1, index(5, 5, 3))
	assert.Equal(t, 2, index(100, 5, 3))
	assert.Equal(t, 0, index(1, 5, 0))
}

func TestSplitPage(t *testing.T) {
	path, page, still, err := splitPage("/decks/q3.pdf#4")
	require.NoError(t, err)
	assert.Equal(t, "/decks/q3.pdf", path)
	assert.Equal(t, 4, page)
	assert.True(t, still)

	path, _, still, err = splitPage("/decks/q3.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/decks/q3.pdf", path)
	assert.False(t, still)

	_, _, _, err = splitPage("/decks/q3.pdf#x")
	assert.ErrorIs(t, err, errdefs.ErrMissingSource)
	assert.Equal(t, "/decks/q3.pdf#2", PageRef("/decks/q3.pdf", 2))
}
