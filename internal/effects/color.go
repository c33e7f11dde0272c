package effects

import (
	"math"
	"math/rand/v2"

	"github.com/ivlev/framecomp/internal/frame"
)

func init() {
	Register(brightness{})
	Register(contrast{})
	Register(sepia{})
	Register(vignette{})
	Register(noise{})
}

// mapRGB applies fn to every color channel, leaving alpha untouched.
func mapRGB(f *frame.Frame, fn func(v float32) float32) *frame.Frame {
	out := f.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] = frame.Clamp01(fn(out.Pix[i]))
		out.Pix[i+1] = frame.Clamp01(fn(out.Pix[i+1]))
		out.Pix[i+2] = frame.Clamp01(fn(out.Pix[i+2]))
	}
	return out
}

// brightness multiplies intensity by factor.
type brightness struct{}

func (brightness) Kind() string { return "brightness" }

func (brightness) Schema() []ParamSpec {
	return []ParamSpec{spec("factor", 0, 3, 1.2)}
}

func (brightness) Apply(f *frame.Frame, p Params, _ Context) *frame.Frame {
	k := float32(p["factor"])
	return mapRGB(f, func(v float32) float32 { return v * k })
}

// contrast scales intensity about mid-gray.
type contrast struct{}

func (contrast) Kind() string { return "contrast" }

func (contrast) Schema() []ParamSpec {
	return []ParamSpec{spec("factor", 0, 3, 1.5)}
}

func (contrast) Apply(f *frame.Frame, p Params, _ Context) *frame.Frame {
	k := float32(p["factor"])
	return mapRGB(f, func(v float32) float32 { return (v-0.5)*k + 0.5 })
}

var sepiaMatrix = [3][3]float32{
	{0.393, 0.769, 0.189},
	{0.349, 0.686, 0.168},
	{0.272, 0.534, 0.131},
}

// sepia blends the sepia tone matrix over the original by intensity.
type sepia struct{}

func (sepia) Kind() string { return "sepia" }

func (sepia) Schema() []ParamSpec {
	return []ParamSpec{spec("intensity", 0, 1, 1)}
}

func (sepia) Apply(f *frame.Frame, p Params, _ Context) *frame.Frame {
	k := float32(p["intensity"])
	out := f.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		r, g, b := f.Pix[i], f.Pix[i+1], f.Pix[i+2]
		for c := 0; c < 3; c++ {
			m := sepiaMatrix[c]
			toned := frame.Clamp01(m[0]*r + m[1]*g + m[2]*b)
			out.Pix[i+c] = f.Pix[i+c] + (toned-f.Pix[i+c])*k
		}
	}
	return out
}

// vignette darkens by normalized distance from the center.
type vignette struct{}

func (vignette) Kind() string { return "vignette" }

func (vignette) Schema() []ParamSpec {
	return []ParamSpec{spec("strength", 0, 1, 0.5)}
}

func (vignette) Apply(f *frame.Frame, p Params, _ Context) *frame.Frame {
	strength := p["strength"]
	out := f.Clone()
	cx, cy := f.Width/2, f.Height/2
	maxDist := math.Hypot(float64(cx), float64(cy))
	if maxDist == 0 {
		return out
	}

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			d := math.Hypot(float64(x-cx), float64(y-cy))
			k := float32(clamp(1-(d/maxDist)*strength, 0, 1))
			i := out.Offset(x, y)
			out.Pix[i] *= k
			out.Pix[i+1] *= k
			out.Pix[i+2] *= k
		}
	}
	return out
}

// noise adds gaussian noise with standard deviation amount. The generator is
// seeded from the render context so a frame renders identically every time.
type noise struct{}

func (noise) Kind() string { return "noise" }

func (noise) Schema() []ParamSpec {
	return []ParamSpec{spec("amount", 0, 1, 0.1)}
}

func (noise) Apply(f *frame.Frame, p Params, ctx Context) *frame.Frame {
	sigma := p["amount"]
	out := f.Clone()
	if sigma == 0 {
		return out
	}

	rng := rand.New(rand.NewPCG(ctx.Seed, ctx.Seed^0x9e3779b97f4a7c15))
	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = frame.Clamp01(out.Pix[i+c] + float32(rng.NormFloat64()*sigma))
		}
	}
	return out
}
