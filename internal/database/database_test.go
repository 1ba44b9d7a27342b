package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pvpguard/combatcore/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_InMemoryAndMigrate(t *testing.T) {
	db, err := OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })

	require.NoError(t, Migrate(db, zerolog.Nop()))
	assert.True(t, db.Migrator().HasTable(&model.EntityTag{}))
	assert.True(t, db.Migrator().HasTable(&model.AttackAudit{}))
}

func TestOpenSQLite_InMemoryDatabasesAreIsolated(t *testing.T) {
	a, err := OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { Close(a) })
	b, err := OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { Close(b) })

	require.NoError(t, Migrate(a, zerolog.Nop()))
	assert.False(t, b.Migrator().HasTable(&model.EntityTag{}))
}

func TestDumpMemoryDBToDisk(t *testing.T) {
	db, err := OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })
	require.NoError(t, Migrate(db, zerolog.Nop()))
	require.NoError(t, db.Create(&model.EntityTag{EntityID: "e1", Data: []byte{1, 2}}).Error)

	path := filepath.Join(t.TempDir(), "dump.db")
	require.NoError(t, DumpMemoryDBToDisk(db, path))
	// second dump replaces the first
	require.NoError(t, DumpMemoryDBToDisk(db, path))

	_, err = os.Stat(path)
	require.NoError(t, err)

	disk, err := OpenSQLite(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { Close(disk) })

	var row model.EntityTag
	require.NoError(t, disk.First(&row, "entity_id = ?", "e1").Error)
	assert.Equal(t, []byte{1, 2}, row.Data)
}

func TestDumpMemoryDBToDisk_NoPath(t *testing.T) {
	db, err := OpenSQLite("", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })

	assert.Error(t, DumpMemoryDBToDisk(db, ""))
}
