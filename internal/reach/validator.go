package reach

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/pvpguard/combatcore/internal/geo"
	"github.com/pvpguard/combatcore/pkg/core"
)

// ErrUnknownActor is returned by Check when an actor has no known placement.
var ErrUnknownActor = errors.New("unknown actor")

// Validate decides whether an attack is geometrically plausible.
//
// Gate 1 compares the horizontal distance from the attacker's eye to the
// victim's base against MaxReach plus the tier expansion. Gate 2 measures the
// full distance to the victim's vertical centre, subtracts the expansion
// (floored at zero) and compares that against MaxReach. The two gates use
// different reference points on the victim; that is intentional.
//
// Validate never fails: a rejection is a result, and non-finite distances are
// always rejected.
func Validate(ctx AttackContext) ValidationResult {
	expansion := ctx.Tolerance.Expansion(ctx.Tier)
	res := ValidationResult{
		Horizontal: geo.HorizontalDistance(ctx.AttackerEye, ctx.VictimPosition),
		Expansion:  expansion,
	}

	if !(res.Horizontal <= ctx.MaxReach+expansion) {
		res.Reason = TooFarHorizontal
		return res
	}

	centre := ctx.VictimPosition
	centre[1] += ctx.VictimHeight / 2

	res.Vertical = geo.VerticalDelta(ctx.AttackerEye, centre)
	res.Effective = geo.Distance3D(ctx.AttackerEye, centre) - expansion
	if res.Effective < 0 {
		res.Effective = 0
	}

	if !(res.Effective <= ctx.MaxReach) {
		res.Reason = TooFarEffective
		return res
	}

	res.Accepted = true
	return res
}

// Stats are cumulative validator counters.
type Stats struct {
	Accepted         uint64
	TooFarHorizontal uint64
	TooFarEffective  uint64
}

// Validator binds Validate to the host's position and tier lookups.
// It is safe for concurrent use.
type Validator struct {
	positions core.PositionSource
	tiers     core.TierSource
	metrics   *metrics

	accepted   atomic.Uint64
	horizontal atomic.Uint64
	effective  atomic.Uint64
}

// NewValidator creates a Validator. Metrics are reported through the global
// OTel meter provider (no-op unless one is installed).
func NewValidator(positions core.PositionSource, tiers core.TierSource) (*Validator, error) {
	if positions == nil || tiers == nil {
		return nil, errors.New("reach: position and tier sources are required")
	}
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	return &Validator{positions: positions, tiers: tiers, metrics: m}, nil
}

// Validate runs the validation and records it in the counters.
func (v *Validator) Validate(ctx AttackContext) ValidationResult {
	res := Validate(ctx)
	v.record(ctx.Tier, res)
	return res
}

// Context builds an AttackContext for attacker hitting victim under settings.
// Actors without a tier default to TierLegacy, and victims without a height use
// the configured reference height.
func (v *Validator) Context(attacker, victim core.EntityID, settings Settings) (AttackContext, error) {
	ap, ok := v.positions.Placement(attacker)
	if !ok {
		return AttackContext{}, fmt.Errorf("%w: attacker %s", ErrUnknownActor, attacker)
	}
	vp, ok := v.positions.Placement(victim)
	if !ok {
		return AttackContext{}, fmt.Errorf("%w: victim %s", ErrUnknownActor, victim)
	}
	tier, ok := v.tiers.Tier(attacker)
	if !ok {
		tier = core.TierLegacy
	}
	height := vp.Height
	if height <= 0 || math.IsNaN(height) {
		height = settings.ReferenceHeight
	}
	return AttackContext{
		AttackerEye:    ap.Eye,
		VictimPosition: vp.Base,
		VictimHeight:   height,
		Tier:           tier,
		MaxReach:       settings.MaxReach,
		Tolerance:      settings.Tolerance,
	}, nil
}

// Check looks both actors up and validates the attack.
func (v *Validator) Check(attacker, victim core.EntityID, settings Settings) (ValidationResult, AttackContext, error) {
	ctx, err := v.Context(attacker, victim, settings)
	if err != nil {
		return ValidationResult{}, AttackContext{}, err
	}
	return v.Validate(ctx), ctx, nil
}

// Stats returns a snapshot of the counters.
func (v *Validator) Stats() Stats {
	return Stats{
		Accepted:         v.accepted.Load(),
		TooFarHorizontal: v.horizontal.Load(),
		TooFarEffective:  v.effective.Load(),
	}
}

func (v *Validator) record(tier core.Tier, res ValidationResult) {
	switch res.Reason {
	case TooFarHorizontal:
		v.horizontal.Add(1)
	case TooFarEffective:
		v.effective.Add(1)
	default:
		v.accepted.Add(1)
	}
	v.metrics.record(context.Background(), tier, res)
}
