package common

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides, e.g.
// DECISIONS_GOVERNOR_MAX_DOCUMENT_TIME -> governor.max_document_time.
const EnvPrefix = "DECISIONS_"

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Governor GovernorConfig `koanf:"governor"`
	Scoring  ScoringConfig  `koanf:"scoring"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Server   ServerConfig   `koanf:"server"`
	Export   ExportConfig   `koanf:"export"`
	Log      LogConfig      `koanf:"log"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"` // "sqlite" or "pgx"
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	DialTimeout     time.Duration `koanf:"dial_timeout"`
}

// GovernorConfig bounds a processing run.
type GovernorConfig struct {
	MaxDocumentTime         time.Duration `koanf:"max_document_time"`
	MemoryPressureThreshold float64       `koanf:"memory_pressure_threshold"`
	MemoryLimitBytes        uint64        `koanf:"memory_limit_bytes"`
	CrossDocumentMerge      bool          `koanf:"cross_document_merge"`
}

// ScoringConfig holds the acceptance floor per quality tier.
type ScoringConfig struct {
	FloorA int `koanf:"floor_a"`
	FloorB int `koanf:"floor_b"`
	FloorC int `koanf:"floor_c"`
}

// IngestConfig holds inbox/watch configuration
type IngestConfig struct {
	InboxDir   string        `koanf:"inbox_dir"`
	Debounce   time.Duration `koanf:"debounce"`
	SkipHidden bool          `koanf:"skip_hidden"`
}

// ServerConfig holds daemon listener configuration
type ServerConfig struct {
	GRPCAddr    string `koanf:"grpc_addr"`
	MetricsAddr string `koanf:"metrics_addr"`
}

// ExportConfig holds export configuration
type ExportConfig struct {
	Dir string `koanf:"dir"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "text" or "json"
}

// LoadConfig loads configuration from an optional YAML file, then environment variables.
// Precedence: env > file > defaults.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError(CodeConfig, "read config file", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, NewAppError(CodeConfig, fmt.Sprintf("parse config file %s", path), err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, NewAppError(CodeConfig, "load environment", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, NewAppError(CodeConfig, "unmarshal config", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// envKey maps DECISIONS_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "file:decisions.db?_pragma=busy_timeout(5000)"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 4
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Database.DialTimeout == 0 {
		c.Database.DialTimeout = 3 * time.Second
	}
	if c.Governor.MaxDocumentTime == 0 {
		c.Governor.MaxDocumentTime = 40 * time.Second
	}
	if c.Governor.MemoryPressureThreshold == 0 {
		c.Governor.MemoryPressureThreshold = 0.82
	}
	if c.Scoring.FloorA == 0 {
		c.Scoring.FloorA = 20
	}
	if c.Scoring.FloorB == 0 {
		c.Scoring.FloorB = 28
	}
	if c.Scoring.FloorC == 0 {
		c.Scoring.FloorC = 45
	}
	if c.Ingest.Debounce == 0 {
		c.Ingest.Debounce = 2 * time.Second
	}
	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = ":8080"
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = ":9090"
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "./exports"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.Driver != "sqlite" && c.Database.Driver != "pgx" {
		return NewAppError(CodeConfig, "database.driver must be sqlite or pgx", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError(CodeConfig, "database.dsn is required", ErrInvalidInput)
	}
	if c.Governor.MaxDocumentTime < 0 {
		return NewAppError(CodeConfig, "governor.max_document_time cannot be negative", ErrInvalidInput)
	}
	if t := c.Governor.MemoryPressureThreshold; t <= 0 || t > 1 {
		return NewAppError(CodeConfig, "governor.memory_pressure_threshold must be in (0,1]", ErrInvalidInput)
	}
	v := NewValidator()
	v.Field("log.format", strings.ToLower(c.Log.Format), OneOf("text", "json"))
	v.Field("log.level", strings.ToLower(c.Log.Level), OneOf("debug", "info", "warn", "warning", "error"))
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	if c.Scoring.FloorC < 2*c.Scoring.FloorA {
		return NewAppError(CodeConfig, "scoring.floor_c must be at least double scoring.floor_a", ErrInvalidInput)
	}
	return nil
}

// SlogLevel maps the configured level name.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger from LogConfig.
func (c LogConfig) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
