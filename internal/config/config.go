// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	Fetcher       FetcherConfig       `yaml:"fetcher"`
	Estimator     EstimatorConfig     `yaml:"estimator"`
	Scoring       ScoringConfig       `yaml:"scoring"`
	Retry         RetryConfig         `yaml:"retry"`
	Batch         BatchConfig         `yaml:"batch"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig selects and configures the task and metrics store.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres, mongo
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
	URI      string `yaml:"uri"` // mongo connection URI
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
	if d.PoolSize > 0 {
		dsn += fmt.Sprintf(" pool_max_conns=%d", d.PoolSize)
	}
	return dsn
}

// CatalogConfig defines the upstream catalog API.
type CatalogConfig struct {
	BaseURL   string          `yaml:"base_url"`
	APIKey    string          `yaml:"api_key"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines catalog API rate limiting. A negative PerSecond
// disables the per-second limit; a DailyLimit of zero means no daily quota.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// FetcherConfig bounds concurrent catalog calls.
type FetcherConfig struct {
	Concurrency   int           `yaml:"concurrency"`
	DispatchDelay time.Duration `yaml:"dispatch_delay"`
	Timeout       time.Duration `yaml:"timeout"`
}

// EstimatorConfig controls sampling.
type EstimatorConfig struct {
	PageSize   int `yaml:"page_size"`
	ScanCap    int `yaml:"scan_cap"`
	SampleSize int `yaml:"sample_size"`
}

// ScoringConfig defines difficulty weights.
type ScoringConfig struct {
	Weights ScoringWeights `yaml:"weights"`
}

// ScoringWeights defines the relative weight of each difficulty factor.
type ScoringWeights struct {
	Views float64 `yaml:"views"`
	Items float64 `yaml:"items"`
}

// RetryConfig bounds retried single-keyword estimates.
type RetryConfig struct {
	MaxAttempts     uint          `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

// BatchConfig bounds batch concurrency.
type BatchConfig struct {
	TaskConcurrency    int `yaml:"task_concurrency"`
	KeywordConcurrency int `yaml:"keyword_concurrency"`
}

// ScheduleConfig defines cron intervals.
type ScheduleConfig struct {
	BatchInterval     time.Duration `yaml:"batch_interval"`
	RetentionInterval time.Duration `yaml:"retention_interval"`
	LogRetention      time.Duration `yaml:"log_retention"`
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled     bool   `yaml:"enabled"`
	WebhookURL  string `yaml:"webhook_url"`
	Username    string `yaml:"username"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// TelemetryConfig defines OTLP export settings.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse is Load for an in-memory document.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyRateLimitDefaults(&cfg.Catalog.RateLimit)
	applyFetcherDefaults(&cfg.Fetcher)
	applyEstimatorDefaults(&cfg.Estimator)
	applyScoringDefaults(&cfg.Scoring)
	applyRetryDefaults(&cfg.Retry)
	applyBatchDefaults(&cfg.Batch)
	applyScheduleDefaults(&cfg.Schedule)
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)

	if cfg.Notifications.Discord.MaxAttempts == 0 {
		cfg.Notifications.Discord.MaxAttempts = 3
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 5 * time.Minute // POST /batch runs synchronously
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Driver == "" {
		d.Driver = DriverPostgres
	}
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
	if d.Driver == DriverMongo && d.Name == "" {
		d.Name = "keyword_tracker"
	}
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 10
	}
	if r.Burst == 0 {
		r.Burst = 10
	}
}

func applyFetcherDefaults(f *FetcherConfig) {
	if f.Concurrency == 0 {
		f.Concurrency = 10
	}
	if f.DispatchDelay == 0 {
		f.DispatchDelay = 50 * time.Millisecond
	}
	if f.Timeout == 0 {
		f.Timeout = 5 * time.Second
	}
}

func applyEstimatorDefaults(e *EstimatorConfig) {
	if e.PageSize == 0 {
		e.PageSize = 50
	}
	if e.ScanCap == 0 {
		e.ScanCap = 500
	}
	if e.SampleSize == 0 {
		e.SampleSize = 3
	}
}

func applyScoringDefaults(s *ScoringConfig) {
	if s.Weights.Views == 0 && s.Weights.Items == 0 {
		s.Weights.Views = 60
		s.Weights.Items = 40
	}
}

func applyRetryDefaults(r *RetryConfig) {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 3
	}
	if r.InitialInterval == 0 {
		r.InitialInterval = time.Second
	}
	if r.MaxInterval == 0 {
		r.MaxInterval = 5 * time.Second
	}
}

func applyBatchDefaults(b *BatchConfig) {
	if b.TaskConcurrency == 0 {
		b.TaskConcurrency = 4
	}
	if b.KeywordConcurrency == 0 {
		b.KeywordConcurrency = 4
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.BatchInterval == 0 {
		s.BatchInterval = 24 * time.Hour
	}
	if s.RetentionInterval == 0 {
		s.RetentionInterval = 24 * time.Hour
	}
	if s.LogRetention == 0 {
		s.LogRetention = 90 * 24 * time.Hour
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.ServiceName == "" {
		t.ServiceName = "keyword-tracker"
	}
}

func validate(cfg *Config) error {
	var errs []error

	switch cfg.Database.Driver {
	case DriverPostgres:
		if cfg.Database.Host == "" {
			errs = append(errs, fmt.Errorf("database.host is required"))
		}
		if cfg.Database.Name == "" {
			errs = append(errs, fmt.Errorf("database.name is required"))
		}
		if cfg.Database.User == "" {
			errs = append(errs, fmt.Errorf("database.user is required"))
		}
	case DriverMongo:
		if cfg.Database.URI == "" {
			errs = append(errs, fmt.Errorf("database.uri is required when driver is mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"database.driver must be one of: postgres, mongo (got %q)",
			cfg.Database.Driver,
		))
	}

	if cfg.Catalog.BaseURL == "" {
		errs = append(errs, fmt.Errorf("catalog.base_url is required"))
	}
	if cfg.Catalog.RateLimit.DailyLimit < 0 {
		errs = append(errs, fmt.Errorf("catalog.rate_limit.daily_limit must not be negative"))
	}

	if cfg.Fetcher.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("fetcher.concurrency must be at least 1"))
	}
	if cfg.Fetcher.DispatchDelay < 0 {
		errs = append(errs, fmt.Errorf("fetcher.dispatch_delay must not be negative"))
	}
	if cfg.Fetcher.Timeout < 0 {
		errs = append(errs, fmt.Errorf("fetcher.timeout must not be negative"))
	}

	if cfg.Estimator.PageSize < 1 || cfg.Estimator.ScanCap < 1 || cfg.Estimator.SampleSize < 1 {
		errs = append(errs, fmt.Errorf("estimator page_size, scan_cap and sample_size must be positive"))
	}
	if cfg.Estimator.SampleSize > cfg.Estimator.PageSize {
		errs = append(errs, fmt.Errorf(
			"estimator.sample_size (%d) must not exceed estimator.page_size (%d)",
			cfg.Estimator.SampleSize, cfg.Estimator.PageSize,
		))
	}

	if cfg.Scoring.Weights.Views < 0 || cfg.Scoring.Weights.Items < 0 {
		errs = append(errs, fmt.Errorf("scoring.weights must not be negative"))
	}

	if cfg.Retry.MaxInterval < cfg.Retry.InitialInterval {
		errs = append(errs, fmt.Errorf("retry.max_interval must be at least retry.initial_interval"))
	}

	if cfg.Batch.TaskConcurrency < 1 || cfg.Batch.KeywordConcurrency < 1 {
		errs = append(errs, fmt.Errorf("batch concurrency limits must be at least 1"))
	}

	if cfg.Schedule.BatchInterval < time.Minute {
		errs = append(errs, fmt.Errorf("schedule.batch_interval must be at least 1m"))
	}

	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(errs, fmt.Errorf("notifications.discord.webhook_url is required when discord is enabled"))
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		errs = append(errs, fmt.Errorf("telemetry.endpoint is required when telemetry is enabled"))
	}

	return errors.Join(errs...)
}
