package source

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/skip2/go-qrcode"

	"github.com/ivlev/framecomp/internal/errdefs"
)

// SlateSource generates sync slates: a QR code encoding the slate label and
// the source timecode, centered on a black frame. Decoding the code from a
// rendered frame tells exactly which source frame was composited.
type SlateSource struct {
	Width, Height int
	FPS           float64
}

// Timecode formats seconds as HH:MM:SS:FF at fps.
func Timecode(seconds, fps float64) string {
	if seconds < 0 {
		seconds = 0
	}
	frames := int(math.Floor(seconds*fps + 1e-9))
	perSecond := int(math.Round(fps))
	if perSecond < 1 {
		perSecond = 1
	}
	ff := frames % perSecond
	total := frames / perSecond
	return fmt.Sprintf("%02d:%02d:%02d:%02d", total/3600, total/60%60, total%60, ff)
}

// Payload returns the text encoded into the slate for label at local.
func (s *SlateSource) Payload(label string, local float64) string {
	return label + "@" + Timecode(local, s.FPS)
}

// Frame implements Accessor.
func (s *SlateSource) Frame(ctx context.Context, label string, local float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, err := qrcode.New(s.Payload(label, local), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("%w: slate %q: %v", errdefs.ErrMissingSource, label, err)
	}

	side := min(s.Width, s.Height) * 2 / 3
	code := q.Image(side)

	dst := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	cb := code.Bounds()
	at := image.Pt((s.Width-cb.Dx())/2, (s.Height-cb.Dy())/2)
	draw.Draw(dst, cb.Sub(cb.Min).Add(at), code, cb.Min, draw.Src)
	return dst, nil
}

// Bounds implements Accessor.
func (s *SlateSource) Bounds(string) (float64, float64, error) {
	return 0, Unbounded, nil
}
