// Package influx writes attack verdicts to InfluxDB as time-series points.
// When the server is unreachable the points go to a gzip line-protocol
// backup file instead, ready for a later `influx write`.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/pvpguard/combatcore/internal/config"
	"github.com/pvpguard/combatcore/pkg/core"
	"github.com/rs/zerolog"
)

// Measurement is the point name for verdicts.
const Measurement = "attack_validation"

const retention = 60 * 60 * 24 * 90 // 90 days

// Sink implements storage.AuditSink on InfluxDB.
type Sink struct {
	cfg    config.InfluxConfig
	logger zerolog.Logger

	client influxdb2.Client
	writer influxdb2_api.WriteAPI

	mu         sync.Mutex
	backupFile *os.File
	backup     *gzip.Writer
}

func New(cfg config.InfluxConfig, log zerolog.Logger) *Sink {
	return &Sink{cfg: cfg, logger: log}
}

// Connect pings the server and prepares the bucket. If the server cannot be
// reached the backup file is opened instead and Connect still succeeds.
func (s *Sink) Connect(ctx context.Context) error {
	s.client = influxdb2.NewClientWithOptions(s.cfg.URL, s.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000))

	running, err := s.client.Ping(ctx)
	if err != nil || !running {
		s.logger.Warn().Err(err).Str("backupPath", s.cfg.BackupPath).
			Msg("InfluxDB unreachable, writing verdicts to backup file")
		s.client.Close()
		s.client = nil
		return s.openBackup()
	}

	if err := s.ensureBucket(ctx); err != nil {
		return err
	}

	s.writer = s.client.WriteAPI(s.cfg.Org, s.cfg.Bucket)
	go func(errs <-chan error) {
		for writeErr := range errs {
			s.logger.Error().Err(writeErr).Str("bucket", s.cfg.Bucket).Msg("Error sending data to InfluxDB")
		}
	}(s.writer.Errors())

	s.logger.Info().Str("bucket", s.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (s *Sink) ensureBucket(ctx context.Context) error {
	orgs := s.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, s.cfg.Org)
	if err != nil {
		s.logger.Info().Str("org", s.cfg.Org).Msg("Organization not found, creating")
		if org, err = orgs.CreateOrganizationWithName(ctx, s.cfg.Org); err != nil {
			return fmt.Errorf("creating organization %s: %w", s.cfg.Org, err)
		}
	}

	if _, err := s.client.BucketsAPI().FindBucketByName(ctx, s.cfg.Bucket); err == nil {
		return nil
	}
	s.logger.Info().Str("bucket", s.cfg.Bucket).Msg("Bucket not found, creating")
	rule := domain.RetentionRuleTypeExpire
	_, err = s.client.BucketsAPI().CreateBucketWithName(ctx, org, s.cfg.Bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: retention,
	})
	if err != nil {
		return fmt.Errorf("creating bucket %s: %w", s.cfg.Bucket, err)
	}
	return nil
}

func (s *Sink) openBackup() error {
	if s.cfg.BackupPath == "" {
		return errors.New("influxdb unreachable and no backup path configured")
	}
	f, err := os.OpenFile(s.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	s.backupFile = f
	s.backup = gzip.NewWriter(f)
	return nil
}

// Online reports whether points go to the server rather than the backup.
func (s *Sink) Online() bool {
	return s.writer != nil
}

// Point builds the InfluxDB point for v.
func Point(v core.Verdict) *influxdb2_write.Point {
	outcome := "accepted"
	if !v.Accepted {
		outcome = "rejected"
	}
	p := influxdb2_write.NewPointWithMeasurement(Measurement).
		AddTag("tier", v.Tier.String()).
		AddTag("outcome", outcome).
		AddField("attacker", v.Attacker.String()).
		AddField("victim", v.Victim.String()).
		AddField("horizontal", v.Horizontal).
		AddField("vertical", v.Vertical).
		AddField("effective", v.Effective).
		AddField("expansion", v.Expansion).
		AddField("max_reach", v.MaxReach).
		AddField("revision", v.Revision).
		SetTime(v.Time)
	if v.Reason != "" {
		p.AddTag("reason", v.Reason)
	}
	return p
}

func (s *Sink) RecordVerdict(v core.Verdict) error {
	point := Point(v)
	if s.writer != nil {
		s.writer.WritePoint(point)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backup == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}
	line := strings.TrimSuffix(influxdb2_write.PointToLineProtocol(point, time.Nanosecond), "\n") + "\n"
	if _, err := s.backup.Write([]byte(line)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Close flushes pending points and releases the client or backup file.
func (s *Sink) Close() error {
	if s.writer != nil {
		s.writer.Flush()
	}
	if s.client != nil {
		s.client.Close()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backup == nil {
		return nil
	}
	err := s.backup.Close()
	if ferr := s.backupFile.Close(); ferr != nil && err == nil {
		err = ferr
	}
	s.backup = nil
	return err
}
