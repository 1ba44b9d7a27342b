package convert

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pvpguard/combatcore/internal/model"
	"github.com/pvpguard/combatcore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleVerdict() core.Verdict {
	return core.Verdict{
		Time:           time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Attacker:       uuid.New(),
		Victim:         uuid.New(),
		Tier:           core.TierModern,
		AttackerEye:    core.NewVec3(1, 65.62, 2),
		VictimPosition: core.NewVec3(4, 64, 2),
		VictimHeight:   1.8,
		MaxReach:       3,
		Expansion:      1.2,
		Accepted:       false,
		Reason:         "too_far_effective",
		Horizontal:     3,
		Vertical:       0.72,
		Effective:      3.1,
		Revision:       4,
	}
}

func TestVerdictToAudit(t *testing.T) {
	v := sampleVerdict()
	a := VerdictToAudit(v)

	assert.Equal(t, v.Attacker.String(), a.AttackerID)
	assert.Equal(t, "modern", a.Tier)
	assert.Equal(t, "too_far_effective", a.Reason)
	assert.JSONEq(t, `{"victimHeight":1.8,"revision":4}`, string(a.Detail))

	xy, ok := a.VictimPosition.XY()
	require.True(t, ok)
	assert.Equal(t, 4.0, xy.X)
	assert.Equal(t, 2.0, xy.Y)
}

func TestVerdictToAudit_NonFinitePosition(t *testing.T) {
	v := sampleVerdict()
	v.AttackerEye = core.NewVec3(math.NaN(), 65.62, 2)

	a := VerdictToAudit(v)
	assert.True(t, a.AttackerEye.IsEmpty())
	assert.False(t, a.VictimPosition.IsEmpty())
	assert.Equal(t, v.Attacker.String(), a.AttackerID)

	got, err := AuditToVerdict(a)
	require.NoError(t, err)
	assert.Equal(t, core.Vec3{}, got.AttackerEye)
	assert.Equal(t, v.VictimPosition, got.VictimPosition)
}

func TestAuditRoundTrip(t *testing.T) {
	v := sampleVerdict()

	got, err := AuditToVerdict(VerdictToAudit(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestAuditToVerdict_BadRows(t *testing.T) {
	good := VerdictToAudit(sampleVerdict())

	tests := []struct {
		name string
		mut  func(*model.AttackAudit)
	}{
		{"attacker", func(a *model.AttackAudit) { a.AttackerID = "nope" }},
		{"victim", func(a *model.AttackAudit) { a.VictimID = "" }},
		{"tier", func(a *model.AttackAudit) { a.Tier = "bedrock" }},
		{"detail", func(a *model.AttackAudit) { a.Detail = []byte("{") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := good
			tt.mut(&row)
			_, err := AuditToVerdict(row)
			assert.Error(t, err)
		})
	}
}
