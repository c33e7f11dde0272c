package keyframe

import (
	"fmt"

	"github.com/ivlev/framecomp/internal/errdefs"
)

// Property names an animatable clip or overlay attribute.
type Property string

const (
	Position Property = "position" // x, y offset in pixels
	Scale    Property = "scale"    // x, y factors
	Rotation Property = "rotation" // degrees
	Opacity  Property = "opacity"  // 0..1
)

// Properties lists every animatable property in evaluation order.
var Properties = []Property{Position, Scale, Rotation, Opacity}

// Arity returns the number of components in a value of p, or 0 if p is not
// a known property.
func (p Property) Arity() int {
	switch p {
	case Position, Scale:
		return 2
	case Rotation, Opacity:
		return 1
	default:
		return 0
	}
}

// Default returns the value p takes when it has no keyframes.
func (p Property) Default() []float64 {
	switch p {
	case Position:
		return []float64{0, 0}
	case Scale:
		return []float64{1, 1}
	case Rotation:
		return []float64{0}
	case Opacity:
		return []float64{1}
	default:
		return nil
	}
}

// ParseProperty validates a property name.
func ParseProperty(name string) (Property, error) {
	p := Property(name)
	if p.Arity() == 0 {
		return "", fmt.Errorf("%w: unknown property %q", errdefs.ErrValidation, name)
	}
	return p, nil
}
