// Package transition blends an outgoing and an incoming layer across a
// transition window. Both layers are straight-alpha frames of equal size and
// progress runs from 0 (all outgoing) to 1 (all incoming).
package transition

import (
	"fmt"
	"image"
	"math"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/frame"
)

// Kind names a transition.
type Kind string

const (
	Crossfade      Kind = "crossfade"
	SlideLeft      Kind = "slide_left"
	SlideRight     Kind = "slide_right"
	SlideUp        Kind = "slide_up"
	SlideDown      Kind = "slide_down"
	PushLeft       Kind = "push_left"
	PushRight      Kind = "push_right"
	PushUp         Kind = "push_up"
	PushDown       Kind = "push_down"
	WipeHorizontal Kind = "wipe_horizontal"
	WipeVertical   Kind = "wipe_vertical"
	WipeCircular   Kind = "wipe_circular"
	ZoomIn         Kind = "zoom_in"
	ZoomOut        Kind = "zoom_out"
	FadeToBlack    Kind = "fade_to_black"
	Rotate         Kind = "rotate"
)

// Options tunes kinds that have a free parameter.
type Options struct {
	// Softness is the width of the wipe edge as a fraction of the frame
	// extent. Zero gives a hard edge.
	Softness float64
}

type evaluator func(out, in *frame.Frame, p float64, opts Options) *frame.Frame

var evaluators = map[Kind]evaluator{
	Crossfade:      crossfade,
	SlideLeft:      slide(1, 0, false),
	SlideRight:     slide(-1, 0, false),
	SlideUp:        slide(0, 1, false),
	SlideDown:      slide(0, -1, false),
	PushLeft:       slide(1, 0, true),
	PushRight:      slide(-1, 0, true),
	PushUp:         slide(0, 1, true),
	PushDown:       slide(0, -1, true),
	WipeHorizontal: wipeLinear(true),
	WipeVertical:   wipeLinear(false),
	WipeCircular:   wipeCircular,
	ZoomIn:         zoom(1, 1.5),
	ZoomOut:        zoom(1, 0.5),
	FadeToBlack:    fadeToBlack,
	Rotate:         rotate,
}

// Kinds lists supported kinds in sorted order.
func Kinds() []string {
	out := make([]string, 0, len(evaluators))
	for k := range evaluators {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

// Parse validates a transition name.
func Parse(name string) (Kind, error) {
	k := Kind(name)
	if _, ok := evaluators[k]; !ok {
		return "", fmt.Errorf("%w: %q", errdefs.ErrUnknownTransition, name)
	}
	return k, nil
}

// Evaluate blends out and in at progress, which is clamped to [0,1].
func Evaluate(kind Kind, out, in *frame.Frame, progress float64, opts Options) (*frame.Frame, error) {
	fn, ok := evaluators[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errdefs.ErrUnknownTransition, kind)
	}
	if !out.SameSize(in) {
		return nil, fmt.Errorf("%w: transition layers %dx%d and %dx%d differ",
			errdefs.ErrValidation, out.Width, out.Height, in.Width, in.Height)
	}
	return fn(out, in, math.Max(0, math.Min(1, progress)), opts), nil
}

// Progress maps t into the window [start, end).
func Progress(t, start, end float64) float64 {
	if end <= start {
		return 1
	}
	return math.Max(0, math.Min(1, (t-start)/(end-start)))
}

func crossfade(out, in *frame.Frame, p float64, _ Options) *frame.Frame {
	return frame.Lerp(out, in, float32(p))
}

// slide moves the incoming layer in from the edge opposite (dx, dy). With
// push the outgoing layer travels the same way and leaves the frame.
func slide(dx, dy int, push bool) evaluator {
	return func(out, in *frame.Frame, p float64, _ Options) *frame.Frame {
		w, h := float64(out.Width), float64(out.Height)
		rem := 1 - p

		incoming := frame.Translate(in,
			int(math.Round(float64(dx)*rem*w)),
			int(math.Round(float64(dy)*rem*h)))

		outgoing := out
		if push {
			outgoing = frame.Translate(out,
				-int(math.Round(float64(dx)*p*w)),
				-int(math.Round(float64(dy)*p*h)))
		}
		return frame.OverStraight(outgoing, incoming)
	}
}

// blendMask mixes per pixel: weight 1 shows in, 0 shows out.
func blendMask(out, in *frame.Frame, weight func(x, y int) float32) *frame.Frame {
	res := frame.New(out.Width, out.Height)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			w := weight(x, y)
			i := res.Offset(x, y)
			for c := 0; c < 4; c++ {
				res.Pix[i+c] = out.Pix[i+c]*(1-w) + in.Pix[i+c]*w
			}
		}
	}
	return res
}

// edgeWeight is 1 well inside the revealed side of edge and 0 outside, with
// a linear ramp of width band centered on edge.
func edgeWeight(pos, edge, band float64) float32 {
	if band <= 0 {
		if pos < edge {
			return 1
		}
		return 0
	}
	return float32(math.Max(0, math.Min(1, (edge-pos)/band+0.5)))
}

func wipeLinear(horizontal bool) evaluator {
	return func(out, in *frame.Frame, p float64, opts Options) *frame.Frame {
		extent := float64(out.Height)
		if horizontal {
			extent = float64(out.Width)
		}
		edge := p * extent
		band := opts.Softness * extent

		return blendMask(out, in, func(x, y int) float32 {
			pos := float64(y) + 0.5
			if horizontal {
				pos = float64(x) + 0.5
			}
			return edgeWeight(pos, edge, band)
		})
	}
}

// wipeCircular reveals in through a disc about the center whose area covers
// a fraction p of the pixels.
func wipeCircular(out, in *frame.Frame, p float64, opts Options) *frame.Frame {
	cx, cy := float64(out.Width)/2, float64(out.Height)/2
	n := out.Width * out.Height
	if n == 0 {
		return out.Clone()
	}

	dist := func(x, y int) float64 {
		return math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
	}

	sorted := sortedDistances(out.Width, out.Height)
	k := int(math.Round(p * float64(n)))
	var radius float64
	switch {
	case k <= 0:
		radius = -1
	case k >= n:
		radius = math.Inf(1)
	default:
		// Midway between the last covered and first uncovered distance.
		radius = (sorted[k-1] + sorted[k]) / 2
	}
	band := opts.Softness * math.Max(float64(out.Width), float64(out.Height))

	return blendMask(out, in, func(x, y int) float32 {
		return edgeWeight(dist(x, y), radius, band)
	})
}

// distanceCache holds sorted pixel distances per frame size.
var distanceCache = newDistanceCache()

func newDistanceCache() *lru.Cache[image.Point, []float64] {
	c, err := lru.New[image.Point, []float64](8)
	if err != nil {
		panic(err)
	}
	return c
}

// sortedDistances returns the distance of every pixel center from the frame
// center in ascending order. The result is shared and must not be modified.
func sortedDistances(width, height int) []float64 {
	key := image.Pt(width, height)
	if d, ok := distanceCache.Get(key); ok {
		return d
	}
	cx, cy := float64(width)/2, float64(height)/2
	d := make([]float64, 0, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			d = append(d, math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy))
		}
	}
	sort.Float64s(d)
	distanceCache.Add(key, d)
	return d
}

// zoom scales out from 1 to outEnd and in from outEnd back to 1, crossfaded.
func zoom(outStart, outEnd float64) evaluator {
	return func(out, in *frame.Frame, p float64, _ Options) *frame.Frame {
		so := outStart + (outEnd-outStart)*p
		si := outEnd + (outStart-outEnd)*p
		a := frame.Transform(out, frame.Geometry{ScaleX: so, ScaleY: so})
		b := frame.Transform(in, frame.Geometry{ScaleX: si, ScaleY: si})
		return frame.Lerp(a, b, float32(p))
	}
}

// fadeToBlack darkens out by (1-p) and brightens in by p, then cross-blends.
func fadeToBlack(out, in *frame.Frame, p float64, _ Options) *frame.Frame {
	a := darken(out, float32(1-p))
	b := darken(in, float32(p))
	return frame.Lerp(a, b, float32(p))
}

func darken(f *frame.Frame, k float32) *frame.Frame {
	res := f.Clone()
	if k == 1 {
		return res
	}
	for i := 0; i < len(res.Pix); i += 4 {
		res.Pix[i] *= k
		res.Pix[i+1] *= k
		res.Pix[i+2] *= k
	}
	return res
}

// rotate turns out by p*180 degrees and in from 180 back to 0, crossfaded.
func rotate(out, in *frame.Frame, p float64, _ Options) *frame.Frame {
	a := frame.Transform(out, frame.Geometry{ScaleX: 1, ScaleY: 1, Rotation: p * 180})
	b := frame.Transform(in, frame.Geometry{ScaleX: 1, ScaleY: 1, Rotation: (1 - p) * 180})
	return frame.Lerp(a, b, float32(p))
}
