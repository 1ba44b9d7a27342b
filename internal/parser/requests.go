package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/pvpguard/combatcore/internal/override"
	"github.com/pvpguard/combatcore/internal/util"
	"github.com/pvpguard/combatcore/pkg/core"
)

// AttackRequest asks for validation of attacker hitting victim.
type AttackRequest struct {
	Attacker core.EntityID
	Victim   core.EntityID
}

// EffectRequest is an override to apply to one entity.
type EffectRequest struct {
	Entity core.EntityID
	Preset string // set when the request is exactly one named preset
	Layer  override.Layer[core.Velocity]
}

// LogRequest is a log line forwarded by host scripts.
type LogRequest struct {
	Source  string
	Level   string
	Message string
}

// ParseAttack parses attackerID|victimID.
func (p *Parser) ParseAttack(args []string) (AttackRequest, error) {
	var req AttackRequest
	if err := need(":ATTACK:", args, 2); err != nil {
		return req, err
	}
	util.CleanArgs(args)

	var err error
	if req.Attacker, err = EntityID(args[0]); err != nil {
		return req, fmt.Errorf("attacker: %w", err)
	}
	if req.Victim, err = EntityID(args[1]); err != nil {
		return req, fmt.Errorf("victim: %w", err)
	}
	return req, nil
}

// ParseActor parses id|[eye]|[base]|height|tier. Height and tier may be
// omitted or empty; a missing height is left 0 for the validator to fill
// and an unknown tier falls back to legacy.
func (p *Parser) ParseActor(args []string) (core.ActorSnapshot, error) {
	var snap core.ActorSnapshot
	if err := need(":ACTOR:", args, 3); err != nil {
		return snap, err
	}
	util.CleanArgs(args)

	var err error
	if snap.ID, err = EntityID(args[0]); err != nil {
		return snap, err
	}
	if snap.Placement.Eye, err = parseVec3("eye", args[1]); err != nil {
		return snap, err
	}
	if snap.Placement.Base, err = parseVec3("base", args[2]); err != nil {
		return snap, err
	}
	if len(args) > 3 && args[3] != "" {
		if snap.Placement.Height, err = parseFloat("height", args[3]); err != nil {
			return snap, err
		}
		if snap.Placement.Height < 0 {
			return snap, fmt.Errorf("height must not be negative, got %v", snap.Placement.Height)
		}
	}
	if len(args) > 4 && args[4] != "" {
		tier, err := core.ParseTier(args[4])
		if err != nil {
			p.logger.Warn("unknown client tier, treating as legacy", "actor", snap.ID.String(), "tier", args[4])
		}
		snap.Tier = tier
	}
	return snap, nil
}

// ParseEntity parses a single entity id argument.
func (p *Parser) ParseEntity(args []string) (core.EntityID, error) {
	if err := need("entity", args, 1); err != nil {
		return core.EntityID{}, err
	}
	util.CleanArgs(args)
	return EntityID(args[0])
}

// ParseEffect parses id|kind|value where kind is one of
//
//	preset  value is a preset name ("laser")
//	mul     value is a multiplier list, e.g. [2,1,0.5]
//	add     value is an additive list
//	set     value is a full replacement with every component
//
// Further kind|value pairs may follow and are chained in order.
func (p *Parser) ParseEffect(args []string) (EffectRequest, error) {
	var req EffectRequest
	if err := need(":EFFECT:APPLY:", args, 3); err != nil {
		return req, err
	}
	if len(args)%2 != 1 {
		return req, fmt.Errorf(":EFFECT:APPLY: expected kind|value pairs, got %d trailing args", len(args)-1)
	}
	util.CleanArgs(args)

	var err error
	if req.Entity, err = EntityID(args[0]); err != nil {
		return req, err
	}

	for i := 1; i < len(args); i += 2 {
		kind, value := strings.ToLower(args[i]), args[i+1]
		switch kind {
		case "preset":
			layer, err := override.VelocityPreset(value)
			if err != nil {
				return req, err
			}
			req.Layer = req.Layer.Then(layer)
		case "mul":
			m, err := parseFloatList("mul", value)
			if err != nil {
				return req, err
			}
			req.Layer = req.Layer.ThenMultiply(m...)
		case "add":
			a, err := parseFloatList("add", value)
			if err != nil {
				return req, err
			}
			req.Layer = req.Layer.ThenAdd(a...)
		case "set":
			c, err := parseFloatList("set", value)
			if err != nil {
				return req, err
			}
			if len(c) != core.VelocityComponents {
				return req, fmt.Errorf("set: expected %d components, got %d", core.VelocityComponents, len(c))
			}
			req.Layer = req.Layer.ThenReplace(core.Velocity{}.WithComponents(c))
		default:
			return req, fmt.Errorf("unknown effect kind %q", kind)
		}
	}
	if len(args) == 3 && strings.EqualFold(args[1], "preset") {
		req.Preset = strings.ToLower(args[2])
	}
	return req, nil
}

// ParseLog parses source|level|message. The message may itself contain "|".
func (p *Parser) ParseLog(args []string) (LogRequest, error) {
	if err := need(":LOG:", args, 3); err != nil {
		return LogRequest{}, err
	}
	util.CleanArgs(args)
	return LogRequest{
		Source:  args[0],
		Level:   strings.ToUpper(args[1]),
		Message: strings.Join(args[2:], "|"),
	}, nil
}

// LogValue renders the request for structured logs.
func (r EffectRequest) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("entity", r.Entity.String())}
	if r.Preset != "" {
		attrs = append(attrs, slog.String("preset", r.Preset))
	}
	if r.Layer.Multiplier != nil {
		attrs = append(attrs, slog.Any("mul", r.Layer.Multiplier))
	}
	if r.Layer.Additive != nil {
		attrs = append(attrs, slog.Any("add", r.Layer.Additive))
	}
	if r.Layer.Replacement != nil {
		attrs = append(attrs, slog.Any("set", r.Layer.Replacement.Components()))
	}
	return slog.GroupValue(attrs...)
}
