// Package sqlitestorage runs the gorm backend on SQLite. With no path the
// database lives in memory and is periodically dumped to disk via VACUUM INTO.
package sqlitestorage

import (
	"fmt"
	"sync"
	"time"

	"github.com/pvpguard/combatcore/internal/database"
	gormstorage "github.com/pvpguard/combatcore/internal/storage/gorm"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path         string // empty for in-memory
	DumpPath     string // target of periodic VACUUM INTO dumps
	DumpInterval time.Duration
	Writer       gormstorage.WriterConfig
}

// Backend wraps the gorm backend with SQLite connection handling and dumps.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	log      zerolog.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func New(cfg Config, log zerolog.Logger) *Backend {
	return &Backend{cfg: cfg, log: log}
}

// Init opens the database, initialises the gorm backend and starts dumping.
func (b *Backend) Init() error {
	db, err := database.OpenSQLite(b.cfg.Path, b.log)
	if err != nil {
		return fmt.Errorf("failed to open SQLite DB: %w", err)
	}
	b.db = db
	b.Backend = gormstorage.New(db, b.cfg.Writer, b.log)
	if err := b.Backend.Init(); err != nil {
		return err
	}

	b.stopChan = make(chan struct{})
	if b.inMemory() && b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.wg.Add(1)
		go b.dumpLoop()
	}
	return nil
}

// Close flushes pending verdicts, writes a final dump for in-memory
// databases and closes the connection.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	close(b.stopChan)
	b.wg.Wait()

	err := b.Backend.Close()
	if b.inMemory() && b.cfg.DumpPath != "" {
		if derr := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); derr != nil && err == nil {
			err = derr
		}
	}
	if cerr := database.Close(b.db); cerr != nil && err == nil {
		err = cerr
	}
	b.Backend = nil
	return err
}

// Dump writes the in-memory database to DumpPath now.
func (b *Backend) Dump() error {
	return database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath)
}

func (b *Backend) inMemory() bool {
	return b.cfg.Path == ""
}

func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			// flush first so the dump carries every verdict seen so far
			if err := b.Backend.Flush(); err != nil {
				b.log.Error().Err(err).Msg("Audit flush before dump failed")
			}
			if err := database.Timed(b.log, "Dumped memory DB to disk", b.Dump); err != nil {
				b.log.Error().Err(err).Msg("Error dumping to disk")
			}
		}
	}
}
