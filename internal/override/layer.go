// Package override resolves layered adjustments of numeric parameter sets.
//
// A Layer multiplies, adds to, or fully replaces a base parameter set. The
// precedence is fixed: a replacement wins outright; otherwise the multiplier is
// applied first and the additive delta second. Short vectors are padded with
// the neutral value for their operation (1 for multipliers, 0 for deltas).
package override

import "slices"

// Params is a parameter set with a fixed number of numeric components.
// WithComponents must return a copy with the leading components replaced.
type Params[P any] interface {
	Components() []float64
	WithComponents(c []float64) P
}

// Layer is an adjustment to a parameter set. Nil slices and a nil Replacement
// mean the field is absent.
type Layer[P Params[P]] struct {
	Multiplier  []float64
	Additive    []float64
	Replacement *P
}

// IsEmpty reports whether no field is populated.
func (l Layer[P]) IsEmpty() bool {
	return len(l.Multiplier) == 0 && len(l.Additive) == 0 && l.Replacement == nil
}

// Resolve returns the effective parameter set for base under layer.
// A nil or empty layer returns base unchanged.
func Resolve[P Params[P]](base P, layer *Layer[P]) P {
	if layer == nil || layer.IsEmpty() {
		return base
	}
	if layer.Replacement != nil {
		return *layer.Replacement
	}

	c := base.Components()
	for i := range c {
		c[i] = c[i]*component(layer.Multiplier, i, 1) + component(layer.Additive, i, 0)
	}
	return base.WithComponents(c)
}

// Then returns the layer equivalent to applying l and then next.
//
// A replacement on next replaces everything. A replacement on l survives:
// next's adjustments are folded into it. Otherwise multipliers and deltas
// compose exactly: x*m1*m2 + a1*m2 + a2.
func (l Layer[P]) Then(next Layer[P]) Layer[P] {
	if next.Replacement != nil {
		return next.clone()
	}
	if l.Replacement != nil {
		r := Resolve(*l.Replacement, &next)
		return Layer[P]{Replacement: &r}
	}

	var out Layer[P]
	if len(l.Multiplier) > 0 || len(next.Multiplier) > 0 {
		out.Multiplier = make([]float64, max(len(l.Multiplier), len(next.Multiplier)))
		for i := range out.Multiplier {
			out.Multiplier[i] = component(l.Multiplier, i, 1) * component(next.Multiplier, i, 1)
		}
	}
	if len(l.Additive) > 0 || len(next.Additive) > 0 {
		out.Additive = make([]float64, max(len(l.Additive), len(next.Additive)))
		for i := range out.Additive {
			out.Additive[i] = component(l.Additive, i, 0)*component(next.Multiplier, i, 1) + component(next.Additive, i, 0)
		}
	}
	return out
}

// ThenMultiply chains an element-wise multiplier.
func (l Layer[P]) ThenMultiply(m ...float64) Layer[P] {
	return l.Then(Layer[P]{Multiplier: m})
}

// ThenAdd chains an element-wise additive delta.
func (l Layer[P]) ThenAdd(a ...float64) Layer[P] {
	return l.Then(Layer[P]{Additive: a})
}

// ThenReplace chains a full replacement.
func (l Layer[P]) ThenReplace(p P) Layer[P] {
	return l.Then(Layer[P]{Replacement: &p})
}

func (l Layer[P]) clone() Layer[P] {
	out := Layer[P]{
		Multiplier: slices.Clone(l.Multiplier),
		Additive:   slices.Clone(l.Additive),
	}
	if l.Replacement != nil {
		r := *l.Replacement
		out.Replacement = &r
	}
	return out
}

func component(v []float64, i int, neutral float64) float64 {
	if i < len(v) {
		return v[i]
	}
	return neutral
}
