package frame

import (
	"image"
	"image/color"
)

// Frame is an RGBA pixel buffer with float32 channels in [0,1].
//
// Layer frames carry straight (non-premultiplied) alpha. The compositing
// canvas carries premultiplied alpha, like image.RGBA.
type Frame struct {
	Width  int
	Height int
	Pix    []float32 // 4 channels per pixel, row-major
}

// New returns a fully transparent frame.
func New(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Frame{Width: width, Height: height, Pix: make([]float32, width*height*4)}
}

// Solid returns a frame filled with one straight-alpha color.
func Solid(width, height int, r, g, b, a float32) *Frame {
	f := New(width, height)
	f.Fill(r, g, b, a)
	return f
}

// Fill sets every pixel of f to one color.
func (f *Frame) Fill(r, g, b, a float32) {
	for i := 0; i < len(f.Pix); i += 4 {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3] = r, g, b, a
	}
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	c := &Frame{Width: f.Width, Height: f.Height, Pix: make([]float32, len(f.Pix))}
	copy(c.Pix, f.Pix)
	return c
}

// Offset returns the index of the first channel of pixel (x, y).
func (f *Frame) Offset(x, y int) int {
	return (y*f.Width + x) * 4
}

// In reports whether (x, y) lies inside the frame.
func (f *Frame) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Width && y < f.Height
}

// Pixel returns the four channels at (x, y); zero outside the frame.
func (f *Frame) Pixel(x, y int) [4]float32 {
	if !f.In(x, y) {
		return [4]float32{}
	}
	i := f.Offset(x, y)
	return [4]float32{f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3]}
}

// SetPixel writes four channels at (x, y); ignored outside the frame.
func (f *Frame) SetPixel(x, y int, p [4]float32) {
	if !f.In(x, y) {
		return
	}
	i := f.Offset(x, y)
	f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3] = p[0], p[1], p[2], p[3]
}

// SameSize reports whether both frames share dimensions.
func (f *Frame) SameSize(o *Frame) bool {
	return f.Width == o.Width && f.Height == o.Height
}

// ScaleAlpha multiplies every alpha sample by k.
func (f *Frame) ScaleAlpha(k float32) {
	if k == 1 {
		return
	}
	for i := 3; i < len(f.Pix); i += 4 {
		f.Pix[i] *= k
	}
}

// FromImage converts any image into a straight-alpha frame anchored at (0, 0).
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	f := New(b.Dx(), b.Dy())

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < f.Height; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < f.Width; x++ {
				s := row[x*4 : x*4+4]
				i := f.Offset(x, y)
				f.Pix[i] = float32(s[0]) / 255
				f.Pix[i+1] = float32(s[1]) / 255
				f.Pix[i+2] = float32(s[2]) / 255
				f.Pix[i+3] = float32(s[3]) / 255
			}
		}
		return f
	case *Frame:
		return src.Clone()
	}

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			i := f.Offset(x, y)
			f.Pix[i] = float32(c.R) / 0xffff
			f.Pix[i+1] = float32(c.G) / 0xffff
			f.Pix[i+2] = float32(c.B) / 0xffff
			f.Pix[i+3] = float32(c.A) / 0xffff
		}
	}
	return f
}

// ToNRGBA quantizes a straight-alpha frame to 8 bits per channel.
func (f *Frame) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i := range f.Pix {
		img.Pix[i] = to8(f.Pix[i])
	}
	return img
}

// ToRGBA quantizes a premultiplied frame to 8 bits per channel.
func (f *Frame) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i := range f.Pix {
		img.Pix[i] = to8(f.Pix[i])
	}
	return img
}

// image.Image implementation so frames can feed golang.org/x/image/draw.

func (f *Frame) ColorModel() color.Model { return color.NRGBA64Model }

func (f *Frame) Bounds() image.Rectangle { return image.Rect(0, 0, f.Width, f.Height) }

func (f *Frame) At(x, y int) color.Color {
	p := f.Pixel(x, y)
	return color.NRGBA64{R: to16(p[0]), G: to16(p[1]), B: to16(p[2]), A: to16(p[3])}
}

// toRGBA64 premultiplies into a 16-bit image for the x/image/draw kernels.
func (f *Frame) toRGBA64() *image.RGBA64 {
	img := image.NewRGBA64(f.Bounds())
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			p := f.Pixel(x, y)
			img.SetRGBA64(x, y, color.RGBA64{
				R: to16(p[0] * p[3]),
				G: to16(p[1] * p[3]),
				B: to16(p[2] * p[3]),
				A: to16(p[3]),
			})
		}
	}
	return img
}

// fromRGBA64 un-premultiplies a 16-bit image back into a straight-alpha frame.
func fromRGBA64(img *image.RGBA64) *Frame {
	b := img.Bounds()
	f := New(b.Dx(), b.Dy())
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := img.RGBA64At(b.Min.X+x, b.Min.Y+y)
			if c.A == 0 {
				continue
			}
			a := float32(c.A) / 0xffff
			f.SetPixel(x, y, [4]float32{
				clamp01(float32(c.R) / 0xffff / a),
				clamp01(float32(c.G) / 0xffff / a),
				clamp01(float32(c.B) / 0xffff / a),
				a,
			})
		}
	}
	return f
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp01 limits v to [0,1].
func Clamp01(v float32) float32 { return clamp01(v) }

func to8(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

func to16(v float32) uint16 {
	return uint16(clamp01(v)*0xffff + 0.5)
}
