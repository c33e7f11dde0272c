package text

import (
	"fmt"
	"math"

	"github.com/ivlev/framecomp/internal/errdefs"
)

// Mode is an overlay animation.
type Mode string

const (
	None       Mode = "none"
	Fade       Mode = "fade"
	Slide      Mode = "slide"
	Typewriter Mode = "typewriter"
	Scale      Mode = "scale"
)

// Direction is the edge a sliding overlay enters from.
type Direction string

const (
	FromLeft   Direction = "left"
	FromRight  Direction = "right"
	FromTop    Direction = "top"
	FromBottom Direction = "bottom"
)

// DefaultRamp is the ramp duration in seconds when an animation leaves it unset.
const DefaultRamp = 0.5

// Animation describes how an overlay enters.
type Animation struct {
	Mode      Mode      `yaml:"mode"`
	Ramp      float64   `yaml:"ramp,omitempty"` // seconds
	Direction Direction `yaml:"direction,omitempty"`
}

// Validate checks the enumerated fields.
func (a Animation) Validate() error {
	switch a.Mode {
	case None, Fade, Slide, Typewriter, Scale, "":
	default:
		return fmt.Errorf("%w: animation mode %q", errdefs.ErrValidation, a.Mode)
	}
	switch a.Direction {
	case FromLeft, FromRight, FromTop, FromBottom, "":
	default:
		return fmt.Errorf("%w: slide direction %q", errdefs.ErrValidation, a.Direction)
	}
	if a.Ramp < 0 || math.IsNaN(a.Ramp) {
		return fmt.Errorf("%w: ramp %v", errdefs.ErrValidation, a.Ramp)
	}
	return nil
}

// State is the evaluated animation at one instant.
type State struct {
	Opacity float64
	// OffsetX and OffsetY are in canvas widths and heights.
	OffsetX, OffsetY float64
	Scale            float64
	// Chars is the number of runes to draw; negative draws all.
	Chars int
}

// Static is the state of an overlay with no animation.
var Static = State{Opacity: 1, Scale: 1, Chars: -1}

// Animate evaluates a at local seconds into an overlay lasting duration.
func Animate(a Animation, local, duration float64, textLen int) State {
	st := Static
	ramp := a.Ramp
	if ramp <= 0 {
		ramp = DefaultRamp
	}
	q := unit(local / ramp)

	switch a.Mode {
	case Fade:
		// ramps in at the start and out at the end
		r := math.Min(ramp, duration/2)
		if r > 0 {
			st.Opacity = unit(math.Min(local/r, (duration-local)/r))
		}
	case Slide:
		rem := 1 - q
		switch a.Direction {
		case FromRight:
			st.OffsetX = rem
		case FromTop:
			st.OffsetY = -rem
		case FromBottom:
			st.OffsetY = rem
		default:
			st.OffsetX = -rem
		}
	case Typewriter:
		st.Chars = int(math.Floor(float64(textLen) * q))
	case Scale:
		st.Scale = q
	}
	return st
}

func unit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
