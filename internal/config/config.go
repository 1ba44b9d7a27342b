package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileName is the config file looked up in the config directory.
const ConfigFileName = "combatcore.cfg.json"

// ReachConfig holds raw reach validation values. They are validated when
// turned into reach.Settings.
type ReachConfig struct {
	MaxReach        float64 `json:"maxReach" mapstructure:"maxReach"`
	ReferenceHeight float64 `json:"referenceHeight" mapstructure:"referenceHeight"`
	PrimaryHitbox   float64 `json:"primaryHitbox" mapstructure:"primaryHitbox"`
	LimitHitbox     float64 `json:"limitHitbox" mapstructure:"limitHitbox"`
}

// VelocityConfig is the base projectile parameter set.
type VelocityConfig struct {
	HorizontalMultiplier    float64 `json:"horizontalMultiplier" mapstructure:"horizontalMultiplier"`
	VerticalMultiplier      float64 `json:"verticalMultiplier" mapstructure:"verticalMultiplier"`
	SpreadMultiplier        float64 `json:"spreadMultiplier" mapstructure:"spreadMultiplier"`
	Gravity                 float64 `json:"gravity" mapstructure:"gravity"`
	HorizontalAirResistance float64 `json:"horizontalAirResistance" mapstructure:"horizontalAirResistance"`
	VerticalAirResistance   float64 `json:"verticalAirResistance" mapstructure:"verticalAirResistance"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"` // empty for in-memory
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// DSN returns the libpq connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// StorageConfig selects and configures the tag/audit storage backend.
type StorageConfig struct {
	Type          string         `json:"type" mapstructure:"type"` // memory, sqlite, postgres
	FlushInterval time.Duration  `json:"flushInterval" mapstructure:"flushInterval"`
	SQLite        SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres      PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// InfluxConfig holds InfluxDB audit sink settings.
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	URL        string `json:"url" mapstructure:"url"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// WebSocketConfig holds the verdict streaming sink settings.
type WebSocketConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Secret  string `json:"secret" mapstructure:"secret"`
}

// AuditConfig controls which verdicts are recorded and where.
type AuditConfig struct {
	RecordAccepted bool            `json:"recordAccepted" mapstructure:"recordAccepted"`
	Influx         InfluxConfig    `json:"influx" mapstructure:"influx"`
	WebSocket      WebSocketConfig `json:"websocket" mapstructure:"websocket"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// GraylogConfig holds GELF log shipping settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./combatlogs")
	viper.SetDefault("statusInterval", "1m")
	viper.SetDefault("statusFile", "")
	viper.SetDefault("actorTTL", "5m")

	viper.SetDefault("reach.maxReach", 3.0)
	viper.SetDefault("reach.referenceHeight", 1.8)
	viper.SetDefault("reach.primaryHitbox", 0.1)
	viper.SetDefault("reach.limitHitbox", 1.2)

	viper.SetDefault("velocity.horizontalMultiplier", 1.0)
	viper.SetDefault("velocity.verticalMultiplier", 1.0)
	viper.SetDefault("velocity.spreadMultiplier", 1.0)
	viper.SetDefault("velocity.gravity", 1.0)
	viper.SetDefault("velocity.horizontalAirResistance", 1.0)
	viper.SetDefault("velocity.verticalAirResistance", 1.0)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.flushInterval", "2s")
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "./combatcore.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "combatcore")

	viper.SetDefault("audit.recordAccepted", false)
	viper.SetDefault("audit.influx.enabled", false)
	viper.SetDefault("audit.influx.url", "http://localhost:8086")
	viper.SetDefault("audit.influx.token", "")
	viper.SetDefault("audit.influx.org", "combatcore")
	viper.SetDefault("audit.influx.bucket", "attack_validation")
	viper.SetDefault("audit.influx.backupPath", "./combatlogs/influx_backup.lp.gz")
	viper.SetDefault("audit.websocket.enabled", false)
	viper.SetDefault("audit.websocket.url", "ws://localhost:5000/api/verdicts")
	viper.SetDefault("audit.websocket.secret", "")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "combatcore")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(ConfigFileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	viper.SetEnvPrefix("COMBATCORE")
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// Reload re-reads the config file that Load found.
func Reload() error {
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error re-reading config file: %v", err)
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetReachConfig returns the reach validation values.
func GetReachConfig() ReachConfig {
	return ReachConfig{
		MaxReach:        viper.GetFloat64("reach.maxReach"),
		ReferenceHeight: viper.GetFloat64("reach.referenceHeight"),
		PrimaryHitbox:   viper.GetFloat64("reach.primaryHitbox"),
		LimitHitbox:     viper.GetFloat64("reach.limitHitbox"),
	}
}

// GetVelocityConfig returns the base projectile parameters.
func GetVelocityConfig() VelocityConfig {
	return VelocityConfig{
		HorizontalMultiplier:    viper.GetFloat64("velocity.horizontalMultiplier"),
		VerticalMultiplier:      viper.GetFloat64("velocity.verticalMultiplier"),
		SpreadMultiplier:        viper.GetFloat64("velocity.spreadMultiplier"),
		Gravity:                 viper.GetFloat64("velocity.gravity"),
		HorizontalAirResistance: viper.GetFloat64("velocity.horizontalAirResistance"),
		VerticalAirResistance:   viper.GetFloat64("velocity.verticalAirResistance"),
	}
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:          viper.GetString("storage.type"),
		FlushInterval: viper.GetDuration("storage.flushInterval"),
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("storage.postgres.host"),
			Port:     viper.GetString("storage.postgres.port"),
			Username: viper.GetString("storage.postgres.username"),
			Password: viper.GetString("storage.postgres.password"),
			Database: viper.GetString("storage.postgres.database"),
		},
	}
}

// GetAuditConfig returns the audit sink settings.
func GetAuditConfig() AuditConfig {
	return AuditConfig{
		RecordAccepted: viper.GetBool("audit.recordAccepted"),
		Influx: InfluxConfig{
			Enabled:    viper.GetBool("audit.influx.enabled"),
			URL:        viper.GetString("audit.influx.url"),
			Token:      viper.GetString("audit.influx.token"),
			Org:        viper.GetString("audit.influx.org"),
			Bucket:     viper.GetString("audit.influx.bucket"),
			BackupPath: viper.GetString("audit.influx.backupPath"),
		},
		WebSocket: WebSocketConfig{
			Enabled: viper.GetBool("audit.websocket.enabled"),
			URL:     viper.GetString("audit.websocket.url"),
			Secret:  viper.GetString("audit.websocket.secret"),
		},
	}
}

// GetGraylogConfig returns the GELF settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
