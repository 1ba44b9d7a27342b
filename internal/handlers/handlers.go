// Package handlers binds host commands to the validation and override
// services.
package handlers

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/pvpguard/combatcore/internal/cache"
	"github.com/pvpguard/combatcore/internal/dispatcher"
	"github.com/pvpguard/combatcore/internal/effects"
	"github.com/pvpguard/combatcore/internal/logging"
	"github.com/pvpguard/combatcore/internal/parser"
	"github.com/pvpguard/combatcore/internal/reach"
	"github.com/pvpguard/combatcore/internal/session"
	"github.com/pvpguard/combatcore/internal/storage"
	"github.com/pvpguard/combatcore/pkg/core"
)

// Host commands.
const (
	CmdAttack       = ":ATTACK:"
	CmdActor        = ":ACTOR:"
	CmdActorRemove  = ":ACTOR:REMOVE:"
	CmdActorReset   = ":ACTOR:RESET:"
	CmdEffectApply  = ":EFFECT:APPLY:"
	CmdEffectClear  = ":EFFECT:CLEAR:"
	CmdVelocity     = ":VELOCITY:"
	CmdAuditRecent  = ":AUDIT:RECENT:"
	CmdReload       = ":RELOAD:"
	CmdVersion      = ":VERSION:"
	CmdLog          = ":LOG:"
	logBufferSize   = 500
	defaultHistory  = 20
	maxHistoryLimit = 500
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Validator *reach.Validator
	Actors    *cache.ActorCache
	Session   *session.Context
	Effects   *effects.Service
	Parser    *parser.Parser

	// Audit receives every rejected verdict, and accepted ones when
	// RecordAccepted is set. Nil disables auditing.
	Audit          storage.AuditSink
	RecordAccepted bool
	// History answers :AUDIT:RECENT:. Nil leaves the command unregistered.
	History storage.AuditReader

	// Reload re-reads configuration and builds the next settings snapshot.
	Reload func() (session.Snapshot, error)

	LogManager *logging.SlogManager
	Logger     *slog.Logger
	Version    string
}

// Service provides handler methods for host commands
type Service struct {
	deps         Dependencies
	logger       *slog.Logger
	writeLogFunc func(source, data, level string)
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	s := &Service{deps: deps, logger: deps.Logger}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if deps.Parser == nil {
		s.deps.Parser = parser.NewParser(s.logger)
	}
	s.writeLogFunc = func(source, data, level string) {
		if deps.LogManager != nil {
			deps.LogManager.WriteLog(source, data, level)
		}
	}
	return s
}

// Register installs every command handler on d.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	d.Register(CmdAttack, s.handleAttack)
	d.Register(CmdActor, s.handleActor)
	d.Register(CmdActorRemove, s.handleActorRemove, dispatcher.Logged())
	d.Register(CmdActorReset, s.handleActorReset, dispatcher.Logged())
	d.Register(CmdEffectApply, s.handleEffectApply, dispatcher.Logged())
	d.Register(CmdEffectClear, s.handleEffectClear, dispatcher.Logged())
	d.Register(CmdVelocity, s.handleVelocity)
	d.Register(CmdReload, s.handleReload, dispatcher.Logged())
	d.Register(CmdVersion, s.handleVersion)
	d.Register(CmdLog, s.handleLog, dispatcher.Buffered(logBufferSize))
	if s.deps.History != nil {
		d.Register(CmdAuditRecent, s.handleAuditRecent)
	}
}

func (s *Service) handleAttack(e dispatcher.Event) (any, error) {
	req, err := s.deps.Parser.ParseAttack(e.Args)
	if err != nil {
		return nil, err
	}

	snap := s.deps.Session.Current()
	res, actx, err := s.deps.Validator.Check(req.Attacker, req.Victim, snap.Reach)
	if err != nil {
		return nil, err
	}

	if !res.Accepted {
		s.logger.Debug("attack rejected",
			"attacker", req.Attacker.String(),
			"victim", req.Victim.String(),
			"reason", res.Reason.String(),
			"horizontal", res.Horizontal,
			"effective", res.Effective,
			"tier", actx.Tier.String())
	}

	if s.deps.Audit != nil && (!res.Accepted || s.deps.RecordAccepted) {
		v := res.Verdict(actx, req.Attacker, req.Victim)
		v.Time = e.Timestamp
		if v.Time.IsZero() {
			v.Time = time.Now()
		}
		v.Revision = snap.Revision
		if err := s.deps.Audit.RecordVerdict(v); err != nil {
			// the decision stands even when the audit trail fails
			s.logger.Error("failed to record verdict", "error", err, "attacker", req.Attacker.String())
		}
	}

	return newAttackReply(res), nil
}

func (s *Service) handleActor(e dispatcher.Event) (any, error) {
	snap, err := s.deps.Parser.ParseActor(e.Args)
	if err != nil {
		return nil, err
	}
	s.deps.Actors.Upsert(snap)
	return "ok", nil
}

func (s *Service) handleActorRemove(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseEntity(e.Args)
	if err != nil {
		return nil, err
	}
	return s.deps.Actors.Remove(id), nil
}

// handleActorReset forgets every actor, e.g. when a new round starts.
func (s *Service) handleActorReset(dispatcher.Event) (any, error) {
	n := s.deps.Actors.Len()
	s.deps.Actors.Reset()
	return n, nil
}

func (s *Service) handleEffectApply(e dispatcher.Event) (any, error) {
	req, err := s.deps.Parser.ParseEffect(e.Args)
	if err != nil {
		return nil, err
	}
	if _, err := s.deps.Effects.Apply(req.Entity, req.Layer); err != nil {
		return nil, err
	}
	s.logger.Info("velocity override applied", "effect", req)
	return s.velocity(req.Entity)
}

func (s *Service) handleEffectClear(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseEntity(e.Args)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Effects.Clear(id); err != nil {
		return nil, err
	}
	return "ok", nil
}

func (s *Service) handleVelocity(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseEntity(e.Args)
	if err != nil {
		return nil, err
	}
	return s.velocity(id)
}

func (s *Service) velocity(id core.EntityID) (any, error) {
	v, err := s.deps.Effects.Velocity(id)
	if err != nil {
		return nil, err
	}
	return v.Components(), nil
}

func (s *Service) handleAuditRecent(e dispatcher.Event) (any, error) {
	id, err := s.deps.Parser.ParseEntity(e.Args)
	if err != nil {
		return nil, err
	}
	limit := defaultHistory
	if len(e.Args) > 1 && e.Args[1] != "" {
		if limit, err = strconv.Atoi(e.Args[1]); err != nil {
			return nil, fmt.Errorf("error converting limit to int: %w", err)
		}
	}
	limit = min(max(limit, 1), maxHistoryLimit)

	verdicts, err := s.deps.History.RecentVerdicts(id, limit)
	if err != nil {
		return nil, err
	}
	out := make([]verdictReply, len(verdicts))
	for i, v := range verdicts {
		out[i] = newVerdictReply(v)
	}
	return out, nil
}

func (s *Service) handleReload(dispatcher.Event) (any, error) {
	if s.deps.Reload == nil {
		return nil, fmt.Errorf("reload not supported")
	}
	next, err := s.deps.Reload()
	if err != nil {
		// keep the previous generation
		return nil, fmt.Errorf("reload rejected: %w", err)
	}
	s.deps.Session.Swap(next)
	cur := s.deps.Session.Current()
	s.logger.Info("settings reloaded",
		"revision", cur.Revision,
		"maxReach", cur.Reach.MaxReach,
		"primary", cur.Reach.Tolerance.Primary(),
		"limit", cur.Reach.Tolerance.Limit())
	return cur.Revision, nil
}

func (s *Service) handleVersion(dispatcher.Event) (any, error) {
	return s.deps.Version, nil
}

func (s *Service) handleLog(e dispatcher.Event) (any, error) {
	req, err := s.deps.Parser.ParseLog(e.Args)
	if err != nil {
		return nil, err
	}
	s.writeLogFunc(req.Source, req.Message, req.Level)
	return nil, nil
}
