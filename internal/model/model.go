package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels lists every table AutoMigrate manages.
var DatabaseModels = []interface{}{
	&EntityTag{},
	&AttackAudit{},
}

// EntityTag is the persisted tag compound of one entity, NBT encoded.
type EntityTag struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	EntityID  string    `json:"entityId" gorm:"size:36;uniqueIndex:idx_entity_tag_entity_id"`
	Data      []byte    `json:"data"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (*EntityTag) TableName() string {
	return "entity_tags"
}

// AttackAudit is one validated attack.
//
// Host command: :ATTACK:
// Args: [attackerId, victimId]
type AttackAudit struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time       time.Time `json:"time" gorm:"index:idx_attack_audit_time"`
	AttackerID string    `json:"attackerId" gorm:"size:36;index:idx_attack_audit_attacker"`
	VictimID   string    `json:"victimId" gorm:"size:36"`
	Tier       string    `json:"tier" gorm:"size:16"`                            // modern, legacy
	Accepted   bool      `json:"accepted" gorm:"index:idx_attack_audit_accepted"` // false for rejected swings
	Reason     string    `json:"reason" gorm:"size:32"`                          // too_far_horizontal, too_far_effective

	MaxReach   float64 `json:"maxReach"`
	Expansion  float64 `json:"expansion"`
	Horizontal float64 `json:"horizontal"`
	Vertical   float64 `json:"vertical"`
	Effective  float64 `json:"effective"`

	AttackerEye    geom.Point `json:"attackerEye"`    // XYZ point, Z is the world Y axis
	VictimPosition geom.Point `json:"victimPosition"` // victim base, same layout

	// Extra context that does not need its own column (victim height,
	// settings revision).
	Detail datatypes.JSON `json:"detail"`
}

func (*AttackAudit) TableName() string {
	return "attack_audits"
}
