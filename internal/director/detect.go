package director

import (
	"fmt"

	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/frame"
	"github.com/ivlev/framecomp/internal/raster"
)

// Detector finds regions of interest in a frame.
type Detector interface {
	Detect(f *frame.Frame) ([]Block, error)
}

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	default:
		return nil, fmt.Errorf("%w: unknown detector variant %q", errdefs.ErrValidation, variant)
	}
}

// ContrastDetector finds blocks of detail with a Sobel gradient, dilation to
// join nearby edges and connected components.
type ContrastDetector struct {
	MinBlockArea  int     // pixels
	EdgeThreshold float64 // gradient magnitude on the 8-bit scale
	DilateRadius  int
}

// NewContrastDetector creates a new contrast-based detector with default settings
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  500,
		EdgeThreshold: 30,
		DilateRadius:  2,
	}
}

// Detect implements Detector.
func (d *ContrastDetector) Detect(f *frame.Frame) ([]Block, error) {
	if f.Width == 0 || f.Height == 0 {
		return nil, fmt.Errorf("%w: empty frame", errdefs.ErrValidation)
	}

	mag := raster.Gradient(raster.Gray(f))
	edges := raster.NewPlane(mag.Width, mag.Height)
	for i, v := range mag.V {
		if float64(v) > d.EdgeThreshold {
			edges.V[i] = 1
		}
	}
	joined := raster.Dilate(edges, d.DilateRadius, 2)

	var blocks []Block
	for _, r := range raster.Components(joined, 0.5) {
		if r.Dx()*r.Dy() >= d.MinBlockArea {
			blocks = append(blocks, Block{Rect: r, Confidence: 0.7})
		}
	}
	return blocks, nil
}
