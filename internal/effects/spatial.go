package effects

import (
	"github.com/ivlev/framecomp/internal/frame"
	"github.com/ivlev/framecomp/internal/raster"
)

func init() {
	Register(blur{})
	Register(sharpen{})
	Register(pixelate{})
	Register(edgeDetection{})
}

// blur is a separable gaussian whose kernel size is int(5*strength) made odd.
type blur struct{}

func (blur) Kind() string { return "blur" }

func (blur) Schema() []ParamSpec {
	return []ParamSpec{spec("strength", 0, 10, 1)}
}

// KernelSize returns the blur kernel length for strength.
func KernelSize(strength float64) int {
	size := int(strength * 5)
	if size%2 == 0 {
		size++
	}
	return size
}

func (blur) Apply(f *frame.Frame, p Params, _ Context) *frame.Frame {
	return raster.BlurFrame(f, KernelSize(p["strength"]))
}

// sharpen is an unsharp mask: f + strength*(f - blur3(f)).
type sharpen struct{}

func (sharpen) Kind() string { return "sharpen" }

func (sharpen) Schema() []ParamSpec {
	return []ParamSpec{spec("strength", 0, 5, 1)}
}

func (sharpen) Apply(f *frame.Frame, p Params, _ Context) *frame.Frame {
	k := float32(p["strength"])
	soft := raster.BlurFrame(f, 3)
	out := f.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := f.Pix[i+c]
			out.Pix[i+c] = frame.Clamp01(v + (v-soft.Pix[i+c])*k)
		}
	}
	return out
}

// pixelate replaces each block with its average color.
type pixelate struct{}

func (pixelate) Kind() string { return "pixelate" }

func (pixelate) Schema() []ParamSpec {
	return []ParamSpec{spec("pixel_size", 1, 256, 10)}
}

func (pixelate) Apply(f *frame.Frame, p Params, _ Context) *frame.Frame {
	size := int(p["pixel_size"])
	out := f.Clone()
	if size <= 1 {
		return out
	}

	for by := 0; by < f.Height; by += size {
		for bx := 0; bx < f.Width; bx += size {
			x1, y1 := min(bx+size, f.Width), min(by+size, f.Height)

			var sum [4]float32
			for y := by; y < y1; y++ {
				for x := bx; x < x1; x++ {
					px := f.Pixel(x, y)
					for c := range sum {
						sum[c] += px[c]
					}
				}
			}
			n := float32((x1 - bx) * (y1 - by))
			for c := range sum {
				sum[c] /= n
			}

			for y := by; y < y1; y++ {
				for x := bx; x < x1; x++ {
					out.SetPixel(x, y, sum)
				}
			}
		}
	}
	return out
}

// edgeDetection renders white edges on black: Sobel magnitude with two-level
// hysteresis thresholds on the 8-bit scale.
type edgeDetection struct{}

func (edgeDetection) Kind() string { return "edge_detection" }

func (edgeDetection) Schema() []ParamSpec {
	return []ParamSpec{
		spec("threshold1", 0, 1500, 100),
		spec("threshold2", 0, 1500, 200),
	}
}

func (edgeDetection) Apply(f *frame.Frame, p Params, _ Context) *frame.Frame {
	mag := raster.Gradient(raster.Gray(f))
	edges := raster.Hysteresis(mag, float32(p["threshold1"]), float32(p["threshold2"]))

	out := f.Clone()
	for i, v := range edges.V {
		j := i * 4
		out.Pix[j], out.Pix[j+1], out.Pix[j+2] = v, v, v
	}
	return out
}
