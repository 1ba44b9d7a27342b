// Package gormstorage implements tag and audit storage on any gorm dialect.
// Tag writes go straight to the database; verdicts are queued and flushed in
// batches by a background writer.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pvpguard/combatcore/internal/database"
	"github.com/pvpguard/combatcore/internal/model"
	"github.com/pvpguard/combatcore/internal/model/convert"
	"github.com/pvpguard/combatcore/internal/queue"
	"github.com/pvpguard/combatcore/internal/tags"
	"github.com/pvpguard/combatcore/pkg/core"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultFlushInterval = 2 * time.Second
	flushBatchSize       = 500
)

// ErrNotInitialized is returned when the backend is used before Init.
var ErrNotInitialized = errors.New("gorm storage not initialized")

// WriterConfig tunes the audit writer.
type WriterConfig struct {
	FlushInterval time.Duration
}

// Backend stores tags and verdicts through gorm.
type Backend struct {
	db  *gorm.DB
	cfg WriterConfig
	log zerolog.Logger

	audits   *queue.Queue[model.AttackAudit]
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	flushMu  sync.Mutex
}

// New wraps an open database. Init migrates the schema and starts the writer.
func New(db *gorm.DB, cfg WriterConfig, log zerolog.Logger) *Backend {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	return &Backend{
		db:     db,
		cfg:    cfg,
		log:    log,
		audits: queue.New[model.AttackAudit](),
	}
}

// DB exposes the underlying handle for wrappers.
func (b *Backend) DB() *gorm.DB {
	return b.db
}

func (b *Backend) Init() error {
	if b.db == nil {
		return ErrNotInitialized
	}
	if err := database.Migrate(b.db, b.log); err != nil {
		return err
	}
	b.stopChan = make(chan struct{})
	b.wg.Add(1)
	go b.writeLoop()
	return nil
}

// Close stops the writer and flushes what is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	b.stopOnce.Do(func() { close(b.stopChan) })
	b.wg.Wait()
	return b.Flush()
}

func (b *Backend) LoadTags(id core.EntityID) (*tags.Compound, error) {
	if b.db == nil {
		return nil, ErrNotInitialized
	}
	var row model.EntityTag
	err := b.db.Where("entity_id = ?", id.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tags.NewCompound(), nil
	}
	if err != nil {
		return nil, err
	}
	return tags.Unmarshal(row.Data)
}

func (b *Backend) SaveTags(id core.EntityID, c *tags.Compound) error {
	if c == nil || c.Len() == 0 {
		return b.DeleteTags(id)
	}
	if b.db == nil {
		return ErrNotInitialized
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	row := model.EntityTag{EntityID: id.String(), Data: data, UpdatedAt: time.Now().UTC()}
	return b.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
}

func (b *Backend) DeleteTags(id core.EntityID) error {
	if b.db == nil {
		return ErrNotInitialized
	}
	return b.db.Where("entity_id = ?", id.String()).Delete(&model.EntityTag{}).Error
}

// RecordVerdict queues v for the next flush.
func (b *Backend) RecordVerdict(v core.Verdict) error {
	b.audits.Push(convert.VerdictToAudit(v))
	return nil
}

// QueueLen reports verdicts waiting for the writer.
func (b *Backend) QueueLen() int {
	return b.audits.Len()
}

// Flush writes every queued verdict now.
func (b *Backend) Flush() error {
	if b.db == nil {
		return ErrNotInitialized
	}
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	for {
		batch := b.audits.Drain(flushBatchSize)
		if len(batch) == 0 {
			return nil
		}
		if err := b.db.CreateInBatches(&batch, flushBatchSize).Error; err != nil {
			// put them back so the next tick retries
			b.audits.Push(batch...)
			return fmt.Errorf("writing %d audit rows: %w", len(batch), err)
		}
	}
}

func (b *Backend) writeLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if b.audits.Empty() {
				continue
			}
			err := database.Timed(b.log, "Flushed audit queue", b.Flush)
			if err != nil {
				b.log.Error().Err(err).Msg("Audit flush failed")
			}
		}
	}
}

func (b *Backend) RecentVerdicts(attacker core.EntityID, limit int) ([]core.Verdict, error) {
	if b.db == nil {
		return nil, ErrNotInitialized
	}
	q := b.db.Where("attacker_id = ?", attacker.String()).Order("time DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []model.AttackAudit
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]core.Verdict, 0, len(rows))
	for _, r := range rows {
		v, err := convert.AuditToVerdict(r)
		if err != nil {
			return nil, fmt.Errorf("audit row %d: %w", r.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}
