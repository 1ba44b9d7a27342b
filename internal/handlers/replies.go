package handlers

import (
	"time"

	"github.com/pvpguard/combatcore/internal/reach"
	"github.com/pvpguard/combatcore/pkg/core"
)

type attackReply struct {
	Outcome    string  `json:"outcome"`
	Reason     string  `json:"reason,omitempty"`
	Horizontal float64 `json:"horizontal"`
	Effective  float64 `json:"effective"`
}

func newAttackReply(r reach.ValidationResult) attackReply {
	out := attackReply{Outcome: "accepted", Horizontal: r.Horizontal, Effective: r.Effective}
	if !r.Accepted {
		out.Outcome = "rejected"
		out.Reason = r.Reason.String()
	}
	return out
}

type verdictReply struct {
	Time       time.Time `json:"time"`
	Victim     string    `json:"victim"`
	Tier       string    `json:"tier"`
	Accepted   bool      `json:"accepted"`
	Reason     string    `json:"reason,omitempty"`
	Horizontal float64   `json:"horizontal"`
	Effective  float64   `json:"effective"`
}

func newVerdictReply(v core.Verdict) verdictReply {
	return verdictReply{
		Time:       v.Time,
		Victim:     v.Victim.String(),
		Tier:       v.Tier.String(),
		Accepted:   v.Accepted,
		Reason:     v.Reason,
		Horizontal: v.Horizontal,
		Effective:  v.Effective,
	}
}
