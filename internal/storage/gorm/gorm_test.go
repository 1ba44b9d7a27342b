package gormstorage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pvpguard/combatcore/internal/database"
	"github.com/pvpguard/combatcore/internal/model"
	"github.com/pvpguard/combatcore/internal/tags"
	"github.com/pvpguard/combatcore/pkg/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	db, err := database.OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	b := New(db, WriterConfig{FlushInterval: time.Hour}, zerolog.Nop())
	require.NoError(t, b.Init())
	t.Cleanup(func() { b.Close() })
	return b
}

func verdict(attacker core.EntityID, at time.Time, effective float64) core.Verdict {
	return core.Verdict{
		Time:           at,
		Attacker:       attacker,
		Victim:         uuid.New(),
		Tier:           core.TierLegacy,
		AttackerEye:    core.NewVec3(0, 1.62, 0),
		VictimPosition: core.NewVec3(3, 0, 0),
		VictimHeight:   1.8,
		MaxReach:       3,
		Accepted:       effective <= 3,
		Horizontal:     3,
		Effective:      effective,
	}
}

func TestNew_WithoutDB(t *testing.T) {
	b := New(nil, WriterConfig{}, zerolog.Nop())
	assert.Equal(t, defaultFlushInterval, b.cfg.FlushInterval)
	assert.ErrorIs(t, b.Init(), ErrNotInitialized)
	_, err := b.LoadTags(uuid.New())
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.NoError(t, b.Close())
}

func TestTags_UpsertAndLoad(t *testing.T) {
	b := newTestBackend(t)
	id := uuid.New()

	empty, err := b.LoadTags(id)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	c := tags.NewCompound()
	c.SetDoubleList("vm", []float64{2.5})
	require.NoError(t, b.SaveTags(id, c))

	c.SetDoubleList("vm", []float64{4})
	c.SetBool("vc", false)
	require.NoError(t, b.SaveTags(id, c))

	var count int64
	require.NoError(t, b.DB().Model(&model.EntityTag{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := b.LoadTags(id)
	require.NoError(t, err)
	list, ok := got.DoubleList("vm")
	require.True(t, ok)
	assert.Equal(t, []float64{4}, list)
	present, ok := got.Bool("vc")
	require.True(t, ok)
	assert.False(t, present)
}

func TestTags_EmptyCompoundDeletes(t *testing.T) {
	b := newTestBackend(t)
	id := uuid.New()

	c := tags.NewCompound()
	c.SetDouble("vg", 0)
	require.NoError(t, b.SaveTags(id, c))
	require.NoError(t, b.SaveTags(id, tags.NewCompound()))

	var count int64
	require.NoError(t, b.DB().Model(&model.EntityTag{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestVerdicts_QueuedUntilFlush(t *testing.T) {
	b := newTestBackend(t)
	attacker := uuid.New()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, b.RecordVerdict(verdict(attacker, base.Add(time.Duration(i)*time.Second), float64(i+2))))
	}
	assert.Equal(t, 3, b.QueueLen())

	var count int64
	require.NoError(t, b.DB().Model(&model.AttackAudit{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	require.NoError(t, b.Flush())
	assert.Equal(t, 0, b.QueueLen())

	got, err := b.RecentVerdicts(attacker, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 4.0, got[0].Effective)
	assert.False(t, got[0].Accepted)
	assert.Equal(t, 3.0, got[1].Effective)
	assert.Equal(t, core.NewVec3(3, 0, 0), got[0].VictimPosition)
	assert.Equal(t, 1.8, got[0].VictimHeight)
}

func TestClose_FlushesPending(t *testing.T) {
	db, err := database.OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	defer database.Close(db)

	b := New(db, WriterConfig{FlushInterval: time.Hour}, zerolog.Nop())
	require.NoError(t, b.Init())
	require.NoError(t, b.RecordVerdict(verdict(uuid.New(), time.Now(), 1)))
	require.NoError(t, b.Close())

	var count int64
	require.NoError(t, db.Model(&model.AttackAudit{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWriteLoop_FlushesOnTick(t *testing.T) {
	db, err := database.OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	defer database.Close(db)

	b := New(db, WriterConfig{FlushInterval: 10 * time.Millisecond}, zerolog.Nop())
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.RecordVerdict(verdict(uuid.New(), time.Now(), 1)))
	assert.Eventually(t, func() bool { return b.QueueLen() == 0 }, time.Second, 10*time.Millisecond)
}
