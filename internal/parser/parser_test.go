package parser

import (
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/pvpguard/combatcore/internal/geo"
	"github.com/pvpguard/combatcore/internal/override"
	"github.com/pvpguard/combatcore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return NewParser(slog.Default())
}

func TestEntityID(t *testing.T) {
	u := uuid.New()
	got, err := EntityID(u.String())
	require.NoError(t, err)
	assert.Equal(t, u, got)

	a, err := EntityID("42")
	require.NoError(t, err)
	b, err := EntityID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, a, b, "handles map to stable ids")
	assert.Equal(t, uuid.Version(5), a.Version())

	c, _ := EntityID("43")
	assert.NotEqual(t, a, c)

	_, err = EntityID("  ")
	assert.Error(t, err)
}

func TestParseAttack(t *testing.T) {
	p := newTestParser()
	req, err := p.ParseAttack([]string{`"7"`, "8"})
	require.NoError(t, err)

	want7, _ := EntityID("7")
	want8, _ := EntityID("8")
	assert.Equal(t, AttackRequest{Attacker: want7, Victim: want8}, req)

	_, err = p.ParseAttack([]string{"7"})
	assert.Error(t, err)
}

func TestParseActor(t *testing.T) {
	p := newTestParser()

	snap, err := p.ParseActor([]string{"7", "[0,1.62,0]", "[3,0,0]", "1.8", "modern"})
	require.NoError(t, err)
	assert.Equal(t, core.NewVec3(0, 1.62, 0), snap.Placement.Eye)
	assert.Equal(t, core.NewVec3(3, 0, 0), snap.Placement.Base)
	assert.Equal(t, 1.8, snap.Placement.Height)
	assert.Equal(t, core.TierModern, snap.Tier)
}

func TestParseActor_Optional(t *testing.T) {
	p := newTestParser()

	snap, err := p.ParseActor([]string{"7", "0,1.62,0", "3,0,0"})
	require.NoError(t, err)
	assert.Zero(t, snap.Placement.Height)
	assert.Equal(t, core.TierLegacy, snap.Tier)

	snap, err = p.ParseActor([]string{"7", "0,1.62,0", "3,0,0", "", "bedrock"})
	require.NoError(t, err)
	assert.Equal(t, core.TierLegacy, snap.Tier)
}

func TestParseActor_Errors(t *testing.T) {
	p := newTestParser()
	tests := []struct {
		name string
		args []string
	}{
		{"too few", []string{"7", "[0,0,0]"}},
		{"bad eye", []string{"7", "[0,0]", "[0,0,0]"}},
		{"bad base", []string{"7", "[0,0,0]", "[a,0,0]"}},
		{"bad height", []string{"7", "[0,0,0]", "[0,0,0]", "tall"}},
		{"negative height", []string{"7", "[0,0,0]", "[0,0,0]", "-1"}},
		{"nan height", []string{"7", "[0,0,0]", "[0,0,0]", "NaN"}},
		{"nan eye", []string{"7", "[NaN,64,0]", "[0,0,0]"}},
		{"inf base", []string{"7", "[0,64,0]", "[0,+Inf,0]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseActor(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseActor_NonFiniteCoordinates(t *testing.T) {
	p := newTestParser()

	_, err := p.ParseActor([]string{"7", "[NaN,64,0]", "[3,64,0]"})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)

	_, err = p.ParseActor([]string{"7", "[0,64,0]", "[3,-Inf,0]"})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
}

func TestParseEffect_Preset(t *testing.T) {
	p := newTestParser()
	req, err := p.ParseEffect([]string{"7", "preset", "Laser"})
	require.NoError(t, err)
	assert.Equal(t, "laser", req.Preset)
	assert.Equal(t, override.Laser(), req.Layer)

	_, err = p.ParseEffect([]string{"7", "preset", "rocket"})
	assert.ErrorIs(t, err, override.ErrUnknownPreset)
}

func TestParseEffect_Chained(t *testing.T) {
	p := newTestParser()
	req, err := p.ParseEffect([]string{"7", "mul", "[2,3]", "add", "[1]"})
	require.NoError(t, err)
	assert.Empty(t, req.Preset)
	assert.Equal(t, []float64{2, 3}, req.Layer.Multiplier)
	assert.Equal(t, []float64{1}, req.Layer.Additive)
	assert.Nil(t, req.Layer.Replacement)
}

func TestParseEffect_Set(t *testing.T) {
	p := newTestParser()
	req, err := p.ParseEffect([]string{"7", "set", "[1,2,3,4,5,6]"})
	require.NoError(t, err)
	require.NotNil(t, req.Layer.Replacement)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, req.Layer.Replacement.Components())

	_, err = p.ParseEffect([]string{"7", "set", "[1,2,3]"})
	assert.Error(t, err)
}

func TestParseEffect_Errors(t *testing.T) {
	p := newTestParser()
	tests := []struct {
		name string
		args []string
	}{
		{"too few", []string{"7", "mul"}},
		{"dangling kind", []string{"7", "mul", "[2]", "add"}},
		{"unknown kind", []string{"7", "pow", "[2]"}},
		{"bad number", []string{"7", "mul", "[2,x]"}},
		{"infinite", []string{"7", "add", "[Inf]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseEffect(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseLog(t *testing.T) {
	p := newTestParser()
	req, err := p.ParseLog([]string{"arena.sqf", "warn", "a", "b"})
	require.NoError(t, err)
	assert.Equal(t, LogRequest{Source: "arena.sqf", Level: "WARN", Message: "a|b"}, req)
}

func TestEffectRequest_LogValue(t *testing.T) {
	req := EffectRequest{Entity: uuid.Nil, Preset: "laser", Layer: override.Laser()}
	v := req.LogValue()
	require.Equal(t, slog.KindGroup, v.Kind())

	keys := []string{}
	for _, a := range v.Group() {
		keys = append(keys, a.Key)
	}
	assert.Equal(t, []string{"entity", "preset", "mul"}, keys)
}
