package session

import (
	"sync"
	"testing"

	"github.com/pvpguard/combatcore/internal/config"
	"github.com/pvpguard/combatcore/internal/reach"
	"github.com/pvpguard/combatcore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultReach = config.ReachConfig{MaxReach: 3, ReferenceHeight: 1.8, PrimaryHitbox: 0.1, LimitHitbox: 1.2}

var neutral = config.VelocityConfig{
	HorizontalMultiplier:    1,
	VerticalMultiplier:      1,
	SpreadMultiplier:        1,
	Gravity:                 1,
	HorizontalAirResistance: 1,
	VerticalAirResistance:   1,
}

func TestBuild(t *testing.T) {
	snap, err := Build(defaultReach, neutral)
	require.NoError(t, err)

	assert.Equal(t, 3.0, snap.Reach.MaxReach)
	assert.Equal(t, 1.8, snap.Reach.ReferenceHeight)
	assert.Equal(t, 0.1, snap.Reach.Tolerance.Primary())
	assert.Equal(t, 1.2, snap.Reach.Tolerance.Limit())
	assert.Equal(t, core.DefaultVelocity, snap.Velocity)
}

func TestBuild_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*config.ReachConfig)
		want error
	}{
		{"negative primary", func(c *config.ReachConfig) { c.PrimaryHitbox = -1 }, reach.ErrInvalidTolerance},
		{"limit below primary", func(c *config.ReachConfig) { c.PrimaryHitbox, c.LimitHitbox = 1, 0.5 }, reach.ErrInvalidTolerance},
		{"zero reach", func(c *config.ReachConfig) { c.MaxReach = 0 }, reach.ErrInvalidReach},
		{"zero height", func(c *config.ReachConfig) { c.ReferenceHeight = 0 }, reach.ErrInvalidReach},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := defaultReach
			tt.mut(&rc)
			_, err := Build(rc, neutral)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestContext_SwapIsWholesale(t *testing.T) {
	first, err := Build(defaultReach, neutral)
	require.NoError(t, err)
	ctx := NewContext(first)
	assert.Equal(t, uint64(1), ctx.Current().Revision)

	rc := defaultReach
	rc.MaxReach = 4
	vc := neutral
	vc.Gravity = 0.5
	second, err := Build(rc, vc)
	require.NoError(t, err)

	prev := ctx.Swap(second)
	assert.Equal(t, 3.0, prev.Reach.MaxReach)
	assert.Equal(t, uint64(2), ctx.Current().Revision)
	assert.Equal(t, 4.0, ctx.Reach().MaxReach)
	assert.Equal(t, 0.5, ctx.BaseVelocity().Gravity)
	assert.False(t, ctx.Current().LoadedAt.IsZero())
}

func TestContext_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	a, _ := Build(defaultReach, neutral)
	rc := defaultReach
	rc.MaxReach = 5
	vc := neutral
	vc.Gravity = 2
	b, _ := Build(rc, vc)

	ctx := NewContext(a)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s := ctx.Current()
				if s.Reach.MaxReach == 5 {
					assert.Equal(t, 2.0, s.Velocity.Gravity)
				} else {
					assert.Equal(t, 1.0, s.Velocity.Gravity)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ctx.Swap(b)
				ctx.Swap(a)
			}
		}()
	}
	wg.Wait()
}
