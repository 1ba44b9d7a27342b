package reach

import "github.com/pvpguard/combatcore/pkg/core"

// RejectReason classifies a rejected attack. RejectNone marks an accepted one.
type RejectReason uint8

const (
	RejectNone RejectReason = iota
	TooFarHorizontal
	TooFarEffective
)

// String returns the reason name used in logs and audit rows.
func (r RejectReason) String() string {
	switch r {
	case TooFarHorizontal:
		return "too_far_horizontal"
	case TooFarEffective:
		return "too_far_effective"
	default:
		return ""
	}
}

// AttackContext is the input of a single validation. It is built per attack
// packet and treated as an immutable snapshot.
type AttackContext struct {
	AttackerEye    core.Vec3
	VictimPosition core.Vec3
	VictimHeight   float64
	Tier           core.Tier
	MaxReach       float64
	Tolerance      ToleranceProfile
}

// ValidationResult is the decision plus the distances behind it.
//
// Horizontal is always set. Vertical and Effective are only computed when the
// horizontal gate passes.
type ValidationResult struct {
	Accepted   bool
	Horizontal float64
	Vertical   float64
	Effective  float64
	Expansion  float64
	Reason     RejectReason
}

// Verdict turns a result into an audit record.
func (r ValidationResult) Verdict(ctx AttackContext, attacker, victim core.EntityID) core.Verdict {
	return core.Verdict{
		Attacker:       attacker,
		Victim:         victim,
		Tier:           ctx.Tier,
		AttackerEye:    ctx.AttackerEye,
		VictimPosition: ctx.VictimPosition,
		VictimHeight:   ctx.VictimHeight,
		MaxReach:       ctx.MaxReach,
		Expansion:      r.Expansion,
		Accepted:       r.Accepted,
		Reason:         r.Reason.String(),
		Horizontal:     r.Horizontal,
		Vertical:       r.Vertical,
		Effective:      r.Effective,
	}
}
