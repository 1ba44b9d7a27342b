package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/pvpguard/combatcore/internal/config"
	"github.com/pvpguard/combatcore/internal/reach"
	"github.com/pvpguard/combatcore/pkg/core"
)

// Snapshot is one validated generation of server settings.
type Snapshot struct {
	Reach    reach.Settings
	Velocity core.Velocity
	Revision uint64
	LoadedAt time.Time
}

// Build validates raw configuration into a Snapshot. Revision and LoadedAt
// are assigned when the snapshot is installed.
func Build(rc config.ReachConfig, vc config.VelocityConfig) (Snapshot, error) {
	tol, err := reach.NewToleranceProfile(rc.PrimaryHitbox, rc.LimitHitbox)
	if err != nil {
		return Snapshot{}, fmt.Errorf("tolerance: %w", err)
	}
	settings, err := reach.NewSettings(rc.MaxReach, rc.ReferenceHeight, tol)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reach: %w", err)
	}
	return Snapshot{
		Reach: settings,
		Velocity: core.Velocity{
			HorizontalMultiplier:    vc.HorizontalMultiplier,
			VerticalMultiplier:      vc.VerticalMultiplier,
			SpreadMultiplier:        vc.SpreadMultiplier,
			Gravity:                 vc.Gravity,
			HorizontalAirResistance: vc.HorizontalAirResistance,
			VerticalAirResistance:   vc.VerticalAirResistance,
		},
	}, nil
}

// Context holds the settings snapshot currently in effect. Readers always
// see a complete generation; Swap replaces it wholesale.
type Context struct {
	mu      sync.RWMutex
	current Snapshot
}

// NewContext installs initial as revision 1.
func NewContext(initial Snapshot) *Context {
	c := &Context{}
	c.Swap(initial)
	return c
}

// Current returns the active snapshot.
func (c *Context) Current() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *Context) Reach() reach.Settings {
	return c.Current().Reach
}

// BaseVelocity implements the effects service's base parameter lookup.
func (c *Context) BaseVelocity() core.Velocity {
	return c.Current().Velocity
}

// Swap installs next and returns the snapshot it replaced.
func (c *Context) Swap(next Snapshot) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.current
	next.Revision = prev.Revision + 1
	if next.LoadedAt.IsZero() {
		next.LoadedAt = time.Now()
	}
	c.current = next
	return prev
}
