// Package postgres runs the gorm backend on PostgreSQL.
package postgres

import (
	"fmt"

	"github.com/pvpguard/combatcore/internal/config"
	"github.com/pvpguard/combatcore/internal/database"
	gormstorage "github.com/pvpguard/combatcore/internal/storage/gorm"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Opener connects to the database. Tests replace it.
type Opener func(cfg config.PostgresConfig, log zerolog.Logger) (*gorm.DB, error)

// Backend connects lazily in Init and then delegates to the gorm backend.
type Backend struct {
	*gormstorage.Backend
	cfg    config.PostgresConfig
	writer gormstorage.WriterConfig
	log    zerolog.Logger
	open   Opener
	db     *gorm.DB
}

func New(cfg config.PostgresConfig, writer gormstorage.WriterConfig, log zerolog.Logger) *Backend {
	return &Backend{cfg: cfg, writer: writer, log: log, open: database.OpenPostgres}
}

// WithOpener swaps the connection function.
func (b *Backend) WithOpener(open Opener) *Backend {
	b.open = open
	return b
}

func (b *Backend) Init() error {
	db, err := b.open(b.cfg, b.log)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	b.db = db
	b.Backend = gormstorage.New(db, b.writer, b.log)
	return b.Backend.Init()
}

func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	err := b.Backend.Close()
	if cerr := database.Close(b.db); cerr != nil && err == nil {
		err = cerr
	}
	b.Backend = nil
	return err
}
