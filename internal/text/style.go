// Package text renders styled overlay text and evaluates overlay animation
// state over time.
package text

import (
	"fmt"
	"sort"

	"github.com/ivlev/framecomp/internal/errdefs"
)

// Align is horizontal alignment within a multi-line block.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Color is straight-alpha 8-bit RGBA.
type Color [4]uint8

// Style is the enumerated look of an overlay.
type Style struct {
	FontFamily   string  `yaml:"font_family"` // regular, bold or mono
	Size         float64 `yaml:"size"`
	Color        Color   `yaml:"color"`
	StrokeColor  Color   `yaml:"stroke_color"`
	StrokeWidth  int     `yaml:"stroke_width"`
	ShadowColor  Color   `yaml:"shadow_color"`
	ShadowOffset [2]int  `yaml:"shadow_offset"`
	Background   Color   `yaml:"background"`
	Align        Align   `yaml:"align"`
	LineSpacing  float64 `yaml:"line_spacing"`
	Bold         bool    `yaml:"bold"`
}

// DefaultStyle is white 48pt centered text without decoration.
func DefaultStyle() Style {
	return Style{
		FontFamily:   "regular",
		Size:         48,
		Color:        Color{255, 255, 255, 255},
		ShadowOffset: [2]int{2, 2},
		Align:        AlignCenter,
		LineSpacing:  1.2,
	}
}

// Validate checks the enumerated fields.
func (s Style) Validate() error {
	if s.Size <= 0 || s.Size > 1000 {
		return fmt.Errorf("%w: font size %v", errdefs.ErrValidation, s.Size)
	}
	if s.StrokeWidth < 0 || s.StrokeWidth > 32 {
		return fmt.Errorf("%w: stroke width %d", errdefs.ErrValidation, s.StrokeWidth)
	}
	switch s.Align {
	case AlignLeft, AlignCenter, AlignRight, "":
	default:
		return fmt.Errorf("%w: alignment %q", errdefs.ErrValidation, s.Align)
	}
	switch s.FontFamily {
	case "regular", "bold", "mono", "":
	default:
		return fmt.Errorf("%w: font family %q", errdefs.ErrValidation, s.FontFamily)
	}
	return nil
}

// Template bundles a style with an animation.
type Template struct {
	Style     Style
	Animation Animation
}

var templates = map[string]Template{
	"main_title": {
		Style: Style{FontFamily: "bold", Size: 72, Color: Color{255, 255, 255, 255},
			StrokeColor: Color{0, 0, 0, 255}, StrokeWidth: 2, Align: AlignCenter, Bold: true},
		Animation: Animation{Mode: Fade, Ramp: 1},
	},
	"subtitle": {
		Style:     Style{FontFamily: "regular", Size: 36, Color: Color{255, 255, 0, 255}, Align: AlignCenter},
		Animation: Animation{Mode: Slide, Ramp: 0.8, Direction: FromBottom},
	},
	"lower_third": {
		Style: Style{FontFamily: "regular", Size: 28, Color: Color{255, 255, 255, 255},
			Background: Color{0, 0, 0, 178}, Align: AlignLeft},
		Animation: Animation{Mode: Slide, Ramp: 0.5, Direction: FromRight},
	},
	"typewriter_title": {
		Style:     Style{FontFamily: "mono", Size: 48, Color: Color{0, 255, 0, 255}, Align: AlignCenter},
		Animation: Animation{Mode: Typewriter, Ramp: 2},
	},
	"impact_title": {
		Style: Style{FontFamily: "bold", Size: 84, Color: Color{255, 0, 0, 255},
			StrokeColor: Color{255, 255, 255, 255}, StrokeWidth: 3, Align: AlignCenter, Bold: true},
		Animation: Animation{Mode: Scale, Ramp: 0.6},
	},
}

// LookupTemplate returns a named template.
func LookupTemplate(name string) (Template, error) {
	t, ok := templates[name]
	if !ok {
		return Template{}, fmt.Errorf("%w: unknown text template %q", errdefs.ErrNotFound, name)
	}
	return t, nil
}

// TemplateNames lists templates in sorted order.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
