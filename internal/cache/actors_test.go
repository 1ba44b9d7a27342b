package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pvpguard/combatcore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(tier core.Tier) core.ActorSnapshot {
	return core.ActorSnapshot{
		ID: uuid.New(),
		Placement: core.Placement{
			Eye:    core.NewVec3(0, 1.62, 0),
			Base:   core.NewVec3(0, 0, 0),
			Height: 1.8,
		},
		Tier: tier,
	}
}

func TestActorCache_UpsertAndGet(t *testing.T) {
	c := NewActorCache()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	s := snapshot(core.TierModern)
	c.Upsert(s)

	got, ok := c.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, fixed, got.UpdatedAt)
	assert.Equal(t, s.Placement, got.Placement)
	assert.Equal(t, 1, c.Len())

	s.Placement.Base = core.NewVec3(5, 0, 5)
	s.UpdatedAt = fixed.Add(time.Second)
	c.Upsert(s)

	got, _ = c.Get(s.ID)
	assert.Equal(t, core.NewVec3(5, 0, 5), got.Placement.Base)
	assert.Equal(t, fixed.Add(time.Second), got.UpdatedAt)
	assert.Equal(t, 1, c.Len())
}

func TestActorCache_Sources(t *testing.T) {
	c := NewActorCache()
	s := snapshot(core.TierModern)
	c.Upsert(s)

	p, ok := c.Placement(s.ID)
	require.True(t, ok)
	assert.Equal(t, s.Placement, p)

	tier, ok := c.Tier(s.ID)
	require.True(t, ok)
	assert.Equal(t, core.TierModern, tier)

	_, ok = c.Placement(uuid.New())
	assert.False(t, ok)
	_, ok = c.Tier(uuid.New())
	assert.False(t, ok)
}

func TestActorCache_RemoveAndReset(t *testing.T) {
	c := NewActorCache()
	a, b := snapshot(core.TierLegacy), snapshot(core.TierModern)
	c.Upsert(a)
	c.Upsert(b)

	assert.True(t, c.Remove(a.ID))
	assert.False(t, c.Remove(a.ID))
	assert.Equal(t, 1, c.Len())

	c.Reset()
	assert.Equal(t, 0, c.Len())
}

func TestActorCache_Prune(t *testing.T) {
	c := NewActorCache()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	stale, fresh := snapshot(core.TierLegacy), snapshot(core.TierLegacy)
	stale.UpdatedAt = base
	fresh.UpdatedAt = base.Add(time.Minute)
	c.Upsert(stale)
	c.Upsert(fresh)

	assert.Equal(t, 1, c.Prune(base.Add(30*time.Second)))
	_, ok := c.Get(fresh.ID)
	assert.True(t, ok)
	_, ok = c.Get(stale.ID)
	assert.False(t, ok)
}

func TestActorCache_ConcurrentAccess(t *testing.T) {
	c := NewActorCache()
	ids := make([]core.EntityID, 16)
	for i := range ids {
		s := snapshot(core.TierModern)
		ids[i] = s.ID
		c.Upsert(s)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for _, id := range ids {
				c.Placement(id)
				c.Tier(id)
			}
		}()
		go func() {
			defer wg.Done()
			for _, id := range ids {
				s, _ := c.Get(id)
				c.Upsert(s)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, len(ids), c.Len())
}
