// Package memory keeps tags and recent verdicts in process memory. It is the
// default backend and the one tests use.
package memory

import (
	"sync"

	"github.com/pvpguard/combatcore/internal/tags"
	"github.com/pvpguard/combatcore/pkg/core"
)

// DefaultAuditCapacity is how many verdicts the ring keeps.
const DefaultAuditCapacity = 4096

// Backend implements storage.Backend in memory.
//
// Compounds are stored encoded so a caller mutating a loaded compound never
// changes what is stored.
type Backend struct {
	mu   sync.RWMutex
	tags map[core.EntityID][]byte

	auditMu  sync.Mutex
	verdicts []core.Verdict // ring buffer
	next     int
	full     bool
}

// New creates a backend whose audit ring holds capacity verdicts.
func New(capacity int) *Backend {
	if capacity <= 0 {
		capacity = DefaultAuditCapacity
	}
	return &Backend{
		tags:     make(map[core.EntityID][]byte),
		verdicts: make([]core.Verdict, capacity),
	}
}

func (b *Backend) Init() error  { return nil }
func (b *Backend) Close() error { return nil }

func (b *Backend) LoadTags(id core.EntityID) (*tags.Compound, error) {
	b.mu.RLock()
	data, ok := b.tags[id]
	b.mu.RUnlock()
	if !ok {
		return tags.NewCompound(), nil
	}
	return tags.Unmarshal(data)
}

func (b *Backend) SaveTags(id core.EntityID, c *tags.Compound) error {
	if c == nil || c.Len() == 0 {
		return b.DeleteTags(id)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tags[id] = data
	return nil
}

func (b *Backend) DeleteTags(id core.EntityID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tags, id)
	return nil
}

// TagCount reports how many entities have stored tags.
func (b *Backend) TagCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tags)
}

func (b *Backend) RecordVerdict(v core.Verdict) error {
	b.auditMu.Lock()
	defer b.auditMu.Unlock()
	b.verdicts[b.next] = v
	b.next = (b.next + 1) % len(b.verdicts)
	if b.next == 0 {
		b.full = true
	}
	return nil
}

// Verdicts returns the retained verdicts, oldest first.
func (b *Backend) Verdicts() []core.Verdict {
	b.auditMu.Lock()
	defer b.auditMu.Unlock()
	if !b.full {
		return append([]core.Verdict(nil), b.verdicts[:b.next]...)
	}
	out := make([]core.Verdict, 0, len(b.verdicts))
	out = append(out, b.verdicts[b.next:]...)
	return append(out, b.verdicts[:b.next]...)
}

func (b *Backend) RecentVerdicts(attacker core.EntityID, limit int) ([]core.Verdict, error) {
	all := b.Verdicts()
	var out []core.Verdict
	for i := len(all) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if all[i].Attacker == attacker {
			out = append(out, all[i])
		}
	}
	return out, nil
}
