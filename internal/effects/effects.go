// Package effects applies velocity overrides to entities and resolves their
// effective velocity. Overrides live in each entity's tag compound, so they
// survive restarts when the storage backend is persistent.
package effects

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/pvpguard/combatcore/internal/override"
	"github.com/pvpguard/combatcore/internal/storage"
	"github.com/pvpguard/combatcore/pkg/core"
)

// BaseSource supplies the configured base velocity.
type BaseSource interface {
	BaseVelocity() core.Velocity
}

// Service is safe for concurrent use. Read-modify-write of one entity's
// compound is serialised; different entities proceed in parallel.
type Service struct {
	store  storage.TagStore
	base   BaseSource
	codec  *override.Codec[core.Velocity]
	logger *slog.Logger

	mu    sync.Mutex
	locks map[core.EntityID]*entityLock
}

type entityLock struct {
	sync.Mutex
	refs int
}

func New(store storage.TagStore, base BaseSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		base:   base,
		codec:  override.NewCodec[core.Velocity](override.VelocityKeys),
		logger: logger,
		locks:  make(map[core.EntityID]*entityLock),
	}
}

func (s *Service) lock(id core.EntityID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &entityLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// Apply chains layer onto the entity's current override and stores the
// result. It returns the combined layer.
func (s *Service) Apply(id core.EntityID, layer override.Layer[core.Velocity]) (override.Layer[core.Velocity], error) {
	unlock := s.lock(id)
	defer unlock()

	c, err := s.store.LoadTags(id)
	if err != nil {
		return override.Layer[core.Velocity]{}, fmt.Errorf("loading tags for %s: %w", id, err)
	}
	combined := s.codec.Read(c).Then(layer)
	s.codec.Write(c, combined)
	if err := s.store.SaveTags(id, c); err != nil {
		return override.Layer[core.Velocity]{}, fmt.Errorf("saving tags for %s: %w", id, err)
	}
	return combined, nil
}

// ApplyPreset applies a named preset such as "laser".
func (s *Service) ApplyPreset(id core.EntityID, name string) (override.Layer[core.Velocity], error) {
	layer, err := override.VelocityPreset(name)
	if err != nil {
		return override.Layer[core.Velocity]{}, err
	}
	return s.Apply(id, layer)
}

// Clear drops the entity's velocity override. Other tags are kept.
func (s *Service) Clear(id core.EntityID) error {
	unlock := s.lock(id)
	defer unlock()

	c, err := s.store.LoadTags(id)
	if err != nil {
		return fmt.Errorf("loading tags for %s: %w", id, err)
	}
	s.codec.Clear(c)
	return s.store.SaveTags(id, c)
}

// Layer returns the stored override for the entity.
func (s *Service) Layer(id core.EntityID) (override.Layer[core.Velocity], error) {
	unlock := s.lock(id)
	defer unlock()

	c, err := s.store.LoadTags(id)
	if err != nil {
		return override.Layer[core.Velocity]{}, fmt.Errorf("loading tags for %s: %w", id, err)
	}
	if s.codec.Partial(c) {
		s.logger.Warn("incomplete velocity replacement, missing components use base values",
			"entity", id.String())
	}
	return s.codec.Read(c), nil
}

// Velocity returns the entity's effective velocity under the current base.
func (s *Service) Velocity(id core.EntityID) (core.Velocity, error) {
	layer, err := s.Layer(id)
	if err != nil {
		return core.Velocity{}, err
	}
	return override.Resolve(s.base.BaseVelocity(), &layer), nil
}
