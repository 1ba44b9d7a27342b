// pkg/core/verdict.go
package core

import "time"

// Verdict is one audited attack validation.
type Verdict struct {
	Time           time.Time
	Attacker       EntityID
	Victim         EntityID
	Tier           Tier
	AttackerEye    Vec3
	VictimPosition Vec3
	VictimHeight   float64
	MaxReach       float64
	Expansion      float64
	Accepted       bool
	Reason         string // empty when accepted
	Horizontal     float64
	Vertical       float64
	Effective      float64
	Revision       uint64 // settings generation the verdict was made under
}
