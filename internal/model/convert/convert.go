// Package convert maps domain values to their gorm rows and back.
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/pvpguard/combatcore/internal/geo"
	"github.com/pvpguard/combatcore/internal/model"
	"github.com/pvpguard/combatcore/pkg/core"
	"gorm.io/datatypes"
)

type auditDetail struct {
	VictimHeight float64 `json:"victimHeight"`
	Revision     uint64  `json:"revision"`
}

// VerdictToAudit builds the audit row for v.
func VerdictToAudit(v core.Verdict) model.AttackAudit {
	detail, _ := json.Marshal(auditDetail{VictimHeight: v.VictimHeight, Revision: v.Revision})
	return model.AttackAudit{
		Time:           v.Time,
		AttackerID:     v.Attacker.String(),
		VictimID:       v.Victim.String(),
		Tier:           v.Tier.String(),
		Accepted:       v.Accepted,
		Reason:         v.Reason,
		MaxReach:       v.MaxReach,
		Expansion:      v.Expansion,
		Horizontal:     v.Horizontal,
		Vertical:       v.Vertical,
		Effective:      v.Effective,
		AttackerEye:    auditPoint(v.AttackerEye),
		VictimPosition: auditPoint(v.VictimPosition),
		Detail:         datatypes.JSON(detail),
	}
}

// auditPoint stores non-finite positions as an empty point so the row is
// still written.
func auditPoint(v core.Vec3) geom.Point {
	p, err := geo.PointFromVec3(v)
	if err != nil {
		return geom.Point{}
	}
	return p
}

// AuditToVerdict reverses VerdictToAudit.
func AuditToVerdict(a model.AttackAudit) (core.Verdict, error) {
	attacker, err := uuid.Parse(a.AttackerID)
	if err != nil {
		return core.Verdict{}, fmt.Errorf("attacker id: %w", err)
	}
	victim, err := uuid.Parse(a.VictimID)
	if err != nil {
		return core.Verdict{}, fmt.Errorf("victim id: %w", err)
	}
	tier, err := core.ParseTier(a.Tier)
	if err != nil {
		return core.Verdict{}, err
	}

	var detail auditDetail
	if len(a.Detail) > 0 {
		if err := json.Unmarshal(a.Detail, &detail); err != nil {
			return core.Verdict{}, fmt.Errorf("detail: %w", err)
		}
	}

	return core.Verdict{
		Time:           a.Time,
		Attacker:       attacker,
		Victim:         victim,
		Tier:           tier,
		AttackerEye:    geo.Vec3FromPoint(a.AttackerEye),
		VictimPosition: geo.Vec3FromPoint(a.VictimPosition),
		VictimHeight:   detail.VictimHeight,
		MaxReach:       a.MaxReach,
		Expansion:      a.Expansion,
		Accepted:       a.Accepted,
		Reason:         a.Reason,
		Horizontal:     a.Horizontal,
		Vertical:       a.Vertical,
		Effective:      a.Effective,
		Revision:       detail.Revision,
	}, nil
}
