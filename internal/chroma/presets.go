package chroma

import (
	"fmt"
	"sort"

	"github.com/ivlev/framecomp/internal/errdefs"
)

var presets = map[string]Params{
	"green_screen": {KeyColor: [3]uint8{0, 255, 0}, Tolerance: 40.0 / 255, EdgeSoftness: 5.0 / 20, SpillSuppression: 0.5},
	"blue_screen":  {KeyColor: [3]uint8{0, 0, 255}, Tolerance: 40.0 / 255, EdgeSoftness: 5.0 / 20, SpillSuppression: 0.5},
	"red_screen":   {KeyColor: [3]uint8{255, 0, 0}, Tolerance: 40.0 / 255, EdgeSoftness: 5.0 / 20, SpillSuppression: 0.5},
	"high_quality": {KeyColor: [3]uint8{0, 255, 0}, Tolerance: 30.0 / 255, EdgeSoftness: 8.0 / 20, SpillSuppression: 0.7},
	"fast":         {KeyColor: [3]uint8{0, 255, 0}, Tolerance: 50.0 / 255, EdgeSoftness: 2.0 / 20, SpillSuppression: 0.3},
}

// Preset returns a named parameter bundle.
func Preset(name string) (Params, error) {
	p, ok := presets[name]
	if !ok {
		return Params{}, fmt.Errorf("%w: unknown chroma preset %q", errdefs.ErrValidation, name)
	}
	return p, nil
}

// PresetNames lists the available presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
