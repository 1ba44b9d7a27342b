// internal/storage/storage.go
package storage

import (
	"errors"

	"github.com/pvpguard/combatcore/internal/tags"
	"github.com/pvpguard/combatcore/pkg/core"
)

// TagStore persists the tag compound attached to each entity.
type TagStore interface {
	// LoadTags returns the entity's compound, or an empty one when nothing
	// is stored.
	LoadTags(id core.EntityID) (*tags.Compound, error)
	// SaveTags stores c. An empty compound deletes the entry.
	SaveTags(id core.EntityID, c *tags.Compound) error
	DeleteTags(id core.EntityID) error
}

// AuditSink records attack verdicts. Implementations may buffer.
type AuditSink interface {
	RecordVerdict(v core.Verdict) error
}

// AuditReader is implemented by sinks that can answer queries.
type AuditReader interface {
	// RecentVerdicts returns up to limit verdicts for attacker, newest first.
	RecentVerdicts(attacker core.EntityID, limit int) ([]core.Verdict, error)
}

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	Init() error
	Close() error

	TagStore
	AuditSink
}

// MultiSink fans a verdict out to several sinks. Every sink is tried; the
// failures are joined.
type MultiSink []AuditSink

func (m MultiSink) RecordVerdict(v core.Verdict) error {
	var errs []error
	for _, s := range m {
		if err := s.RecordVerdict(v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
