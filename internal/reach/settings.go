package reach

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MaxReachLimit bounds the configurable melee reach.
	MaxReachLimit = 16.0
	// DefaultReferenceHeight is used for victims whose host reports no height.
	DefaultReferenceHeight = 1.8
)

// ErrInvalidReach is returned when reach settings fail validation.
var ErrInvalidReach = errors.New("invalid reach settings")

// Settings is the validated reach configuration in effect for a server.
type Settings struct {
	MaxReach        float64
	ReferenceHeight float64
	Tolerance       ToleranceProfile
}

// NewSettings validates reach values and bundles them with a tolerance profile.
func NewSettings(maxReach, referenceHeight float64, tolerance ToleranceProfile) (Settings, error) {
	if math.IsNaN(maxReach) || maxReach <= 0 || maxReach > MaxReachLimit {
		return Settings{}, fmt.Errorf("%w: max reach %v outside (0, %.0f]", ErrInvalidReach, maxReach, MaxReachLimit)
	}
	if math.IsNaN(referenceHeight) || math.IsInf(referenceHeight, 0) || referenceHeight <= 0 {
		return Settings{}, fmt.Errorf("%w: reference height must be positive, got %v", ErrInvalidReach, referenceHeight)
	}
	return Settings{
		MaxReach:        maxReach,
		ReferenceHeight: referenceHeight,
		Tolerance:       tolerance,
	}, nil
}
