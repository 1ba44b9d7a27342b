package override

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pvpguard/combatcore/pkg/core"
)

// ErrUnknownPreset is returned for preset names that are not registered.
var ErrUnknownPreset = errors.New("unknown velocity preset")

// Laser is the "launch as laser projectile" velocity layer: fast, flat and
// nearly spread-free.
func Laser() Layer[core.Velocity] {
	return Layer[core.Velocity]{Multiplier: []float64{2.5, 2.5, 0.1, 0, 1, 1}}
}

var velocityPresets = map[string]func() Layer[core.Velocity]{
	"laser": Laser,
}

// VelocityPreset returns a fresh copy of a named velocity layer.
func VelocityPreset(name string) (Layer[core.Velocity], error) {
	f, ok := velocityPresets[strings.ToLower(name)]
	if !ok {
		return Layer[core.Velocity]{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return f(), nil
}

// VelocityPresetNames lists registered presets in sorted order.
func VelocityPresetNames() []string {
	names := make([]string, 0, len(velocityPresets))
	for n := range velocityPresets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
