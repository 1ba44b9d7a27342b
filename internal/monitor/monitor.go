// Package monitor periodically reports service health and evicts stale
// actors.
package monitor

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/pvpguard/combatcore/internal/reach"
)

// StatsSource reports validator counters.
type StatsSource interface {
	Stats() reach.Stats
}

// ActorRegistry is the part of the actor cache the monitor needs.
type ActorRegistry interface {
	Len() int
	Prune(cutoff time.Time) int
}

// QueueSource reports pending dispatcher events per command.
type QueueSource interface {
	QueueDepths() map[string]int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Logger     *slog.Logger
	Validator  StatsSource
	Actors     ActorRegistry
	Dispatcher QueueSource
	// AuditQueue reports rows waiting for the audit writer. Optional.
	AuditQueue func() int

	Interval time.Duration
	// ActorTTL evicts actors not updated for this long. Zero disables it.
	ActorTTL time.Duration
	// StatusFile is rewritten with the latest Status as JSON. Optional.
	StatusFile string
}

// Status is one health report.
type Status struct {
	Time             time.Time      `json:"time"`
	Accepted         uint64         `json:"accepted"`
	TooFarHorizontal uint64         `json:"tooFarHorizontal"`
	TooFarEffective  uint64         `json:"tooFarEffective"`
	Actors           int            `json:"actors"`
	Pruned           int            `json:"pruned"`
	AuditQueue       int            `json:"auditQueue"`
	Queues           map[string]int `json:"queues"`
}

// Service manages status monitoring
type Service struct {
	deps Dependencies
	now  func() time.Time

	mu        sync.Mutex
	isRunning bool
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = time.Minute
	}
	return &Service{deps: deps, now: time.Now}
}

// Collect gathers a Status, pruning stale actors first.
func (s *Service) Collect() Status {
	now := s.now()
	st := Status{Time: now, Queues: map[string]int{}}

	if s.deps.Actors != nil {
		if s.deps.ActorTTL > 0 {
			st.Pruned = s.deps.Actors.Prune(now.Add(-s.deps.ActorTTL))
		}
		st.Actors = s.deps.Actors.Len()
	}
	if s.deps.Validator != nil {
		stats := s.deps.Validator.Stats()
		st.Accepted = stats.Accepted
		st.TooFarHorizontal = stats.TooFarHorizontal
		st.TooFarEffective = stats.TooFarEffective
	}
	if s.deps.AuditQueue != nil {
		st.AuditQueue = s.deps.AuditQueue()
	}
	if s.deps.Dispatcher != nil {
		st.Queues = s.deps.Dispatcher.QueueDepths()
	}
	return st
}

// Report collects a status, logs it and writes the status file.
func (s *Service) Report() Status {
	st := s.Collect()
	s.deps.Logger.Info("status",
		"accepted", st.Accepted,
		"tooFarHorizontal", st.TooFarHorizontal,
		"tooFarEffective", st.TooFarEffective,
		"actors", st.Actors,
		"pruned", st.Pruned,
		"auditQueue", st.AuditQueue,
		"queues", st.Queues)

	if s.deps.StatusFile != "" {
		if err := writeStatus(s.deps.StatusFile, st); err != nil {
			s.deps.Logger.Error("Error writing status file", "error", err, "path", s.deps.StatusFile)
		}
	}
	return st
}

func writeStatus(path string, st Status) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Start starts the status monitor goroutine
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)
		s.deps.Logger.Debug("Starting status monitor", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.Report()
			}
		}
	}(s.stopChan, s.done)
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
