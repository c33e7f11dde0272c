package frame

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Geometry describes a 2D placement about the frame centre.
type Geometry struct {
	OffsetX, OffsetY float64 // translation in pixels
	ScaleX, ScaleY   float64
	Rotation         float64 // degrees, clockwise on screen
}

// Identity is the geometry that leaves a frame untouched.
var Identity = Geometry{ScaleX: 1, ScaleY: 1}

// IsIdentity reports whether applying g would be a no-op.
func (g Geometry) IsIdentity() bool {
	return g.OffsetX == 0 && g.OffsetY == 0 && g.ScaleX == 1 && g.ScaleY == 1 && g.Rotation == 0
}

// Matrix returns the source-to-destination affine map for a frame of the
// given size: translate to centre, scale, rotate, translate back plus offset.
func (g Geometry) Matrix(width, height int) f64.Aff3 {
	cx, cy := float64(width)/2, float64(height)/2
	rad := g.Rotation * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	a := cos * g.ScaleX
	b := -sin * g.ScaleY
	d := sin * g.ScaleX
	e := cos * g.ScaleY
	return f64.Aff3{
		a, b, cx + g.OffsetX - a*cx - b*cy,
		d, e, cy + g.OffsetY - d*cx - e*cy,
	}
}

// Transform resamples f through g into a new frame of the same size.
// Uncovered destination pixels are transparent.
func Transform(f *Frame, g Geometry) *Frame {
	if g.IsIdentity() {
		return f.Clone()
	}
	if g.ScaleX == 0 || g.ScaleY == 0 {
		return New(f.Width, f.Height)
	}

	src := f.toRGBA64()
	dst := image.NewRGBA64(src.Bounds())
	draw.BiLinear.Transform(dst, g.Matrix(f.Width, f.Height), src, src.Bounds(), draw.Src, nil)
	return fromRGBA64(dst)
}

// Translate shifts f by whole pixels without resampling.
func Translate(f *Frame, dx, dy int) *Frame {
	out := New(f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		sy := y - dy
		if sy < 0 || sy >= f.Height {
			continue
		}
		for x := 0; x < f.Width; x++ {
			sx := x - dx
			if sx < 0 || sx >= f.Width {
				continue
			}
			copy(out.Pix[out.Offset(x, y):out.Offset(x, y)+4], f.Pix[f.Offset(sx, sy):f.Offset(sx, sy)+4])
		}
	}
	return out
}

// Fit rescales f to exactly width x height. Frames already at that size are
// returned as-is.
func Fit(f *Frame, width, height int) *Frame {
	if f.Width == width && f.Height == height {
		return f
	}
	if f.Width == 0 || f.Height == 0 {
		return New(width, height)
	}
	src := f.toRGBA64()
	dst := image.NewRGBA64(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return fromRGBA64(dst)
}
