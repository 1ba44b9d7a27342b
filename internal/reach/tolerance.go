package reach

import (
	"errors"
	"fmt"
	"math"

	"github.com/pvpguard/combatcore/pkg/core"
)

// MaxTolerance bounds both tolerance radii.
const MaxTolerance = 3.0

// ErrInvalidTolerance is returned when a tolerance profile fails validation.
var ErrInvalidTolerance = errors.New("invalid hitbox tolerance")

// ToleranceProfile holds the two hitbox tolerance radii. The primary radius is
// the strict one used in normal play; the limit radius is the lag-compensated
// ceiling. A profile is immutable once built.
type ToleranceProfile struct {
	primary float64
	limit   float64
}

// NewToleranceProfile validates and builds a profile. Both radii must be finite,
// within [0, MaxTolerance], and limit must not be stricter than primary.
func NewToleranceProfile(primary, limit float64) (ToleranceProfile, error) {
	if err := checkRadius("primary", primary); err != nil {
		return ToleranceProfile{}, err
	}
	if err := checkRadius("limit", limit); err != nil {
		return ToleranceProfile{}, err
	}
	if limit < primary {
		return ToleranceProfile{}, fmt.Errorf("%w: limit %.3f is stricter than primary %.3f", ErrInvalidTolerance, limit, primary)
	}
	return ToleranceProfile{primary: primary, limit: limit}, nil
}

func checkRadius(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidTolerance, name, v)
	}
	if v < 0 || v > MaxTolerance {
		return fmt.Errorf("%w: %s %.3f outside [0, %.1f]", ErrInvalidTolerance, name, v, MaxTolerance)
	}
	return nil
}

// Primary returns the strict tolerance radius.
func (p ToleranceProfile) Primary() float64 { return p.primary }

// Limit returns the lag-compensated tolerance radius.
func (p ToleranceProfile) Limit() float64 { return p.limit }

// Expansion returns the hitbox expansion granted to a client tier.
// Modern clients get the limit radius; legacy clients get none.
func (p ToleranceProfile) Expansion(tier core.Tier) float64 {
	if tier == core.TierModern {
		return p.limit
	}
	return 0
}
