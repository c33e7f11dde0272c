// Package chroma removes a key color from a frame and produces a soft matte.
//
// The pipeline is: HSV membership test against the key, morphological
// opening then closing with a 3x3 element, Gaussian feathering driven by
// edge softness, and spill suppression in a narrow band around the matte.
package chroma

import (
	"fmt"
	"math"

	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/frame"
	"github.com/ivlev/framecomp/internal/raster"
)

const (
	// hueBand is the hue tolerance in degrees at tolerance 1.
	hueBand = 120
	// svBand scales tolerance into the saturation/value band.
	svBand = 2.5
	// maxSoftness is the feather radius in pixels at edge softness 1.
	maxSoftness = 20
	// spillHue is the hue window considered key-color spill.
	spillHue = 30
	// spillWidth is the band width in pixels outside the matte.
	spillWidth = 6
)

// Params configures the keyer. Tolerance, EdgeSoftness and SpillSuppression
// are in [0,1].
type Params struct {
	KeyColor         [3]uint8 `yaml:"key_color"`
	Tolerance        float64  `yaml:"tolerance"`
	EdgeSoftness     float64  `yaml:"edge_softness"`
	SpillSuppression float64  `yaml:"spill_suppression"`
}

// Validate reports parameters outside their domain.
func (p Params) Validate() error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: chroma %s %v not in [0,1]", errdefs.ErrValidation, name, v)
		}
		return nil
	}
	if err := check("tolerance", p.Tolerance); err != nil {
		return err
	}
	if err := check("edge_softness", p.EdgeSoftness); err != nil {
		return err
	}
	return check("spill_suppression", p.SpillSuppression)
}

// Mask is the key matte: 1 where the key color was removed, 0 where the
// foreground is kept.
type Mask = raster.Plane

// Apply keys f and returns the processed frame and its matte. The output
// alpha is the input alpha scaled by (1 - mask).
func Apply(f *frame.Frame, p Params) (*frame.Frame, *Mask, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}

	key := toHSV(float32(p.KeyColor[0])/255, float32(p.KeyColor[1])/255, float32(p.KeyColor[2])/255)
	pixels := make([]hsv, f.Width*f.Height)
	for i := range pixels {
		j := i * 4
		pixels[i] = toHSV(f.Pix[j], f.Pix[j+1], f.Pix[j+2])
	}

	binary := membership(pixels, key, p.Tolerance, f.Width, f.Height)
	binary = raster.Close(raster.Open(binary))

	mask := binary
	if r := int(math.Round(p.EdgeSoftness * maxSoftness)); r > 0 {
		mask = raster.Blur(binary, 2*r+1)
	}

	out := f.Clone()
	if p.SpillSuppression > 0 {
		suppressSpill(out, pixels, binary, key, float32(p.SpillSuppression))
	}
	for i, m := range mask.V {
		out.Pix[i*4+3] *= 1 - frame.Clamp01(m)
	}
	return out, mask, nil
}

// membership marks pixels inside the hue and saturation/value bands.
func membership(pixels []hsv, key hsv, tolerance float64, width, height int) *raster.Plane {
	hueTol := float32(tolerance * hueBand)
	svTol := float32(math.Min(tolerance*svBand, 1))

	m := raster.NewPlane(width, height)
	for i, px := range pixels {
		if hueDistance(px.h, key.h) <= hueTol &&
			abs(px.s-key.s) <= svTol &&
			abs(px.v-key.v) <= svTol {
			m.V[i] = 1
		}
	}
	return m
}

// suppressSpill desaturates key-hued pixels within spillWidth of the matte.
// Pixels adjacent to the matte lose the most saturation.
func suppressSpill(out *frame.Frame, pixels []hsv, binary *raster.Plane, key hsv, strength float32) {
	dist := ringDistance(binary, spillWidth)

	for i, d := range dist {
		if d == 0 {
			continue
		}
		px := pixels[i]
		if px.s == 0 || hueDistance(px.h, key.h) >= spillHue {
			continue
		}
		weight := 1 - float32(d-1)/spillWidth
		px.s *= 1 - strength*weight

		j := i * 4
		out.Pix[j], out.Pix[j+1], out.Pix[j+2] = fromHSV(px)
	}
}

// ringDistance returns, for every pixel outside the matte, its chessboard
// distance to the matte when that is at most width, and 0 otherwise.
func ringDistance(binary *raster.Plane, width int) []int {
	dist := make([]int, len(binary.V))
	grown := binary
	for step := 1; step <= width; step++ {
		next := raster.Dilate(grown, 1, 1)
		for i := range next.V {
			if next.V[i] > 0 && grown.V[i] == 0 {
				dist[i] = step
			}
		}
		grown = next
	}
	return dist
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
