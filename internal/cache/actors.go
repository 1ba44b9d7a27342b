package cache

import (
	"sync"
	"time"

	"github.com/pvpguard/combatcore/pkg/core"
)

// ActorCache holds the latest snapshot the host pushed for each actor.
// Attack validation reads from it on every swing, so lookups never touch
// storage.
type ActorCache struct {
	mu     sync.RWMutex
	actors map[core.EntityID]core.ActorSnapshot
	now    func() time.Time
}

func NewActorCache() *ActorCache {
	return &ActorCache{
		actors: make(map[core.EntityID]core.ActorSnapshot),
		now:    time.Now,
	}
}

// Upsert stores s, stamping UpdatedAt when the caller left it zero.
func (c *ActorCache) Upsert(s core.ActorSnapshot) {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = c.now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actors[s.ID] = s
}

// Remove forgets an actor and reports whether it was tracked.
func (c *ActorCache) Remove(id core.EntityID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.actors[id]
	delete(c.actors, id)
	return ok
}

func (c *ActorCache) Get(id core.EntityID) (core.ActorSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.actors[id]
	return s, ok
}

func (c *ActorCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.actors)
}

// Reset drops every snapshot, e.g. when the host starts a new match.
func (c *ActorCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actors = make(map[core.EntityID]core.ActorSnapshot)
}

// Prune removes snapshots not refreshed since cutoff and returns how many
// were dropped.
func (c *ActorCache) Prune(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, s := range c.actors {
		if s.UpdatedAt.Before(cutoff) {
			delete(c.actors, id)
			n++
		}
	}
	return n
}

// Placement implements core.PositionSource.
func (c *ActorCache) Placement(id core.EntityID) (core.Placement, bool) {
	s, ok := c.Get(id)
	return s.Placement, ok
}

// Tier implements core.TierSource.
func (c *ActorCache) Tier(id core.EntityID) (core.Tier, bool) {
	s, ok := c.Get(id)
	return s.Tier, ok
}

var (
	_ core.PositionSource = (*ActorCache)(nil)
	_ core.TierSource     = (*ActorCache)(nil)
)
