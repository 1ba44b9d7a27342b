// Package tags implements the per-entity keyed tag storage that effect
// overrides are persisted in. A Compound holds doubles, booleans and ordered
// double lists under short string keys and encodes to little-endian NBT.
package tags

import (
	"fmt"
	"maps"
	"slices"

	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// Storage is keyed read/write access to an entity's tags.
// Implementations are not required to be safe for concurrent use.
type Storage interface {
	Double(key string) (float64, bool)
	SetDouble(key string, v float64)
	Bool(key string) (bool, bool)
	SetBool(key string, v bool)
	DoubleList(key string) ([]float64, bool)
	SetDoubleList(key string, v []float64)
	Has(key string) bool
	Remove(key string)
}

// Compound is an in-memory NBT compound tag.
type Compound struct {
	values map[string]any
}

var _ Storage = (*Compound)(nil)

// NewCompound returns an empty compound.
func NewCompound() *Compound {
	return &Compound{values: make(map[string]any)}
}

// Double returns the double stored under key.
func (c *Compound) Double(key string) (float64, bool) {
	switch v := c.values[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		return 0, false
	}
}

// SetDouble stores v under key.
func (c *Compound) SetDouble(key string, v float64) {
	c.values[key] = v
}

// Bool returns the boolean stored under key. NBT has no boolean tag, so
// booleans are bytes and any non-zero byte reads as true.
func (c *Compound) Bool(key string) (bool, bool) {
	switch v := c.values[key].(type) {
	case uint8:
		return v != 0, true
	case int8:
		return v != 0, true
	case bool:
		return v, true
	default:
		return false, false
	}
}

// SetBool stores v under key as a byte tag.
func (c *Compound) SetBool(key string, v bool) {
	var b uint8
	if v {
		b = 1
	}
	c.values[key] = b
}

// DoubleList returns a copy of the double list stored under key.
// A list holding anything other than numbers is treated as absent.
func (c *Compound) DoubleList(key string) ([]float64, bool) {
	switch v := c.values[key].(type) {
	case []float64:
		return slices.Clone(v), true
	case []float32:
		out := make([]float64, len(v))
		for i, f := range v {
			out[i] = float64(f)
		}
		return out, true
	case []any:
		out := make([]float64, len(v))
		for i, e := range v {
			switch f := e.(type) {
			case float64:
				out[i] = f
			case float32:
				out[i] = float64(f)
			default:
				return nil, false
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// SetDoubleList stores a copy of v under key.
func (c *Compound) SetDoubleList(key string, v []float64) {
	c.values[key] = slices.Clone(v)
}

// Has reports whether key is present with any type.
func (c *Compound) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Remove deletes key. Removing a missing key is a no-op.
func (c *Compound) Remove(key string) {
	delete(c.values, key)
}

// Len returns the number of keys.
func (c *Compound) Len() int {
	return len(c.values)
}

// Keys returns the keys in sorted order.
func (c *Compound) Keys() []string {
	return slices.Sorted(maps.Keys(c.values))
}

// Map returns a shallow copy of the raw values, for diagnostics.
func (c *Compound) Map() map[string]any {
	return maps.Clone(c.values)
}

// Marshal encodes the compound as little-endian NBT.
func (c *Compound) Marshal() ([]byte, error) {
	data, err := nbt.MarshalEncoding(c.values, nbt.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("encoding tags: %w", err)
	}
	return data, nil
}

// Unmarshal decodes little-endian NBT produced by Marshal. Empty input yields
// an empty compound.
func Unmarshal(data []byte) (*Compound, error) {
	c := NewCompound()
	if len(data) == 0 {
		return c, nil
	}
	if err := nbt.UnmarshalEncoding(data, &c.values, nbt.LittleEndian); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	if c.values == nil {
		c.values = make(map[string]any)
	}
	return c, nil
}
