package reach

import (
	"math"
	"testing"

	"github.com/pvpguard/combatcore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToleranceProfile_Valid(t *testing.T) {
	p, err := NewToleranceProfile(0.1, 1.2)
	require.NoError(t, err)
	assert.Equal(t, 0.1, p.Primary())
	assert.Equal(t, 1.2, p.Limit())
}

func TestNewToleranceProfile_Invalid(t *testing.T) {
	tests := []struct {
		name           string
		primary, limit float64
	}{
		{"negative primary", -0.1, 1},
		{"negative limit", 0, -1},
		{"limit stricter than primary", 1.0, 0.5},
		{"NaN primary", math.NaN(), 1},
		{"infinite limit", 0, math.Inf(1)},
		{"limit above max", 0, MaxTolerance + 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewToleranceProfile(tt.primary, tt.limit)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTolerance)
		})
	}
}

func TestExpansion_ByTier(t *testing.T) {
	for _, primary := range []float64{0, 0.3, 1.2} {
		p, err := NewToleranceProfile(primary, 1.2)
		require.NoError(t, err)

		assert.Equal(t, 1.2, p.Expansion(core.TierModern), "modern uses limit regardless of primary %v", primary)
		assert.Equal(t, 0.0, p.Expansion(core.TierLegacy), "legacy never expands")
	}
}

func TestNewSettings(t *testing.T) {
	tol, err := NewToleranceProfile(0.1, 1.2)
	require.NoError(t, err)

	s, err := NewSettings(3.0, 1.8, tol)
	require.NoError(t, err)
	assert.Equal(t, 3.0, s.MaxReach)
	assert.Equal(t, 1.8, s.ReferenceHeight)
	assert.Equal(t, tol, s.Tolerance)

	for _, reach := range []float64{0, -1, MaxReachLimit + 1, math.NaN()} {
		_, err := NewSettings(reach, 1.8, tol)
		assert.ErrorIs(t, err, ErrInvalidReach, "reach %v", reach)
	}
	_, err = NewSettings(3.0, 0, tol)
	assert.ErrorIs(t, err, ErrInvalidReach)
}
