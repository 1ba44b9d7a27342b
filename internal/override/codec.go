package override

import (
	"github.com/pvpguard/combatcore/internal/tags"
)

// Keys names the tags one parameter kind is stored under. Keys are part of
// the persisted schema: once shipped, a key must never change meaning.
type Keys struct {
	Multiplier string
	Additive   string
	Present    string
	Components []string
}

// VelocityKeys is the schema for core.Velocity overrides.
var VelocityKeys = Keys{
	Multiplier: "vm",
	Additive:   "va",
	Present:    "vc",
	Components: []string{"vhm", "vvm", "vsm", "vg", "vhr", "vvr"},
}

// Codec maps a Layer to and from tag storage. P must be a value type whose
// zero value can build parameter sets via WithComponents.
//
// The codec does no locking; callers hold exclusive access to the storage for
// the duration of one Read or Write.
type Codec[P Params[P]] struct {
	keys Keys
}

// NewCodec returns a codec using keys.
func NewCodec[P Params[P]](keys Keys) *Codec[P] {
	return &Codec[P]{keys: keys}
}

// Keys returns the codec's key set.
func (c *Codec[P]) Keys() Keys {
	return c.keys
}

// Write stores the populated fields of layer. Absent fields have their keys
// removed so that stale values from an earlier write never resurface.
func (c *Codec[P]) Write(s tags.Storage, layer Layer[P]) {
	if len(layer.Multiplier) > 0 {
		s.SetDoubleList(c.keys.Multiplier, layer.Multiplier)
	} else {
		s.Remove(c.keys.Multiplier)
	}
	if len(layer.Additive) > 0 {
		s.SetDoubleList(c.keys.Additive, layer.Additive)
	} else {
		s.Remove(c.keys.Additive)
	}

	s.SetBool(c.keys.Present, layer.Replacement != nil)
	if layer.Replacement == nil {
		for _, k := range c.keys.Components {
			s.Remove(k)
		}
		return
	}
	comps := (*layer.Replacement).Components()
	for i, k := range c.keys.Components {
		if i < len(comps) {
			s.SetDouble(k, comps[i])
		}
	}
}

// Read reconstructs a layer. It never fails: absent keys yield absent fields.
//
// A replacement flagged present but missing some component keys degrades to
// the equivalent per-component adjustment (multiply by 0 and add the stored
// value for present components, neutral for missing ones), so Resolve falls
// back to base values exactly where the record is incomplete.
func (c *Codec[P]) Read(s tags.Storage) Layer[P] {
	var layer Layer[P]
	if m, ok := s.DoubleList(c.keys.Multiplier); ok && len(m) > 0 {
		layer.Multiplier = m
	}
	if a, ok := s.DoubleList(c.keys.Additive); ok && len(a) > 0 {
		layer.Additive = a
	}

	if present, _ := s.Bool(c.keys.Present); !present {
		return layer
	}

	comps := make([]float64, len(c.keys.Components))
	found := make([]bool, len(c.keys.Components))
	complete := true
	for i, k := range c.keys.Components {
		comps[i], found[i] = s.Double(k)
		complete = complete && found[i]
	}

	if complete {
		var zero P
		r := zero.WithComponents(comps)
		layer.Replacement = &r
		return layer
	}

	mul := make([]float64, len(comps))
	add := make([]float64, len(comps))
	for i := range comps {
		if found[i] {
			add[i] = comps[i]
		} else {
			mul[i] = 1
		}
	}
	return Layer[P]{Multiplier: mul, Additive: add}
}

// Clear removes every key of this parameter kind.
func (c *Codec[P]) Clear(s tags.Storage) {
	s.Remove(c.keys.Multiplier)
	s.Remove(c.keys.Additive)
	s.Remove(c.keys.Present)
	for _, k := range c.keys.Components {
		s.Remove(k)
	}
}

// Partial reports whether s holds a replacement flagged present with missing
// components.
func (c *Codec[P]) Partial(s tags.Storage) bool {
	if present, _ := s.Bool(c.keys.Present); !present {
		return false
	}
	for _, k := range c.keys.Components {
		if _, ok := s.Double(k); !ok {
			return true
		}
	}
	return false
}
