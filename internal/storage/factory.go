// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/pvpguard/combatcore/internal/config"
	gormstorage "github.com/pvpguard/combatcore/internal/storage/gorm"
	"github.com/pvpguard/combatcore/internal/storage/memory"
	"github.com/pvpguard/combatcore/internal/storage/postgres"
	sqlitestorage "github.com/pvpguard/combatcore/internal/storage/sqlite"
	"github.com/rs/zerolog"
)

// NewBackend creates a storage backend based on configuration. The backend
// is not initialised.
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	writer := gormstorage.WriterConfig{FlushInterval: cfg.FlushInterval}

	switch cfg.Type {
	case "postgres":
		return postgres.New(cfg.Postgres, writer, log), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			Path:         cfg.SQLite.Path,
			DumpPath:     cfg.SQLite.DumpPath,
			DumpInterval: cfg.SQLite.DumpInterval,
			Writer:       writer,
		}, log), nil
	case "memory", "":
		return memory.New(memory.DefaultAuditCapacity), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
