// Package effects implements the per-clip effect pipeline: an ordered list of
// parameterized pixel transforms looked up by kind in a registry built at
// init time.
package effects

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/frame"
)

// ParamSpec declares one numeric parameter of an effect.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
}

// Params maps parameter names to values.
type Params map[string]float64

// Context carries per-render inputs an effect may depend on besides pixels.
type Context struct {
	// Seed makes stochastic effects reproducible for a given clip and source
	// time.
	Seed uint64
}

// Effect is one kind of pixel transform. Apply receives params already
// resolved against Schema and must not modify its input frame.
type Effect interface {
	Kind() string
	Schema() []ParamSpec
	Apply(f *frame.Frame, p Params, ctx Context) *frame.Frame
}

var registry = map[string]Effect{}

// Register adds e to the registry. Registering a kind twice panics.
func Register(e Effect) {
	if _, dup := registry[e.Kind()]; dup {
		panic(fmt.Sprintf("effects: duplicate kind %q", e.Kind()))
	}
	registry[e.Kind()] = e
}

// Lookup returns the implementation registered for kind.
func Lookup(kind string) (Effect, error) {
	e, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errdefs.ErrUnknownEffect, kind)
	}
	return e, nil
}

// Kinds lists registered kinds in sorted order.
func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Instance is one configured entry of a clip's effect list.
type Instance struct {
	Kind   string `yaml:"kind"`
	Params Params `yaml:"params,omitempty"`
}

// NewInstance validates kind and resolves params against its schema: missing
// values take defaults, out-of-range values are clamped and unknown names are
// dropped.
func NewInstance(kind string, params Params) (Instance, error) {
	e, err := Lookup(kind)
	if err != nil {
		return Instance{}, err
	}
	return Instance{Kind: kind, Params: Resolve(e, params)}, nil
}

// Resolve applies defaults and clamping for e.
func Resolve(e Effect, params Params) Params {
	out := make(Params, len(e.Schema()))
	known := make(map[string]struct{}, len(e.Schema()))

	for _, spec := range e.Schema() {
		known[spec.Name] = struct{}{}
		v, ok := params[spec.Name]
		if !ok {
			v = spec.Default
		}
		out[spec.Name] = clamp(v, spec.Min, spec.Max)
	}

	for name := range params {
		if _, ok := known[name]; !ok {
			logrus.WithFields(logrus.Fields{
				"effect": e.Kind(),
				"param":  name,
			}).Debug("ignoring unknown effect parameter")
		}
	}
	return out
}

// Clone returns a deep copy.
func (in Instance) Clone() Instance {
	p := make(Params, len(in.Params))
	for k, v := range in.Params {
		p[k] = v
	}
	return Instance{Kind: in.Kind, Params: p}
}

// Pipeline applies instances in list order.
type Pipeline []Instance

// Apply runs every effect in order. An empty pipeline returns f unchanged.
func (p Pipeline) Apply(f *frame.Frame, ctx Context) (*frame.Frame, error) {
	current := f
	for i, in := range p {
		e, err := Lookup(in.Kind)
		if err != nil {
			return nil, fmt.Errorf("effect %d: %w", i, err)
		}
		current = e.Apply(current, Resolve(e, in.Params), ctx)
	}
	return current, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// spec is a small helper to build schemas.
func spec(name string, lo, hi, def float64) ParamSpec {
	return ParamSpec{Name: name, Min: lo, Max: hi, Default: def}
}
