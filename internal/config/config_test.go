package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
database:
  host: localhost
  name: testdb
  user: testuser
catalog:
  base_url: http://localhost:8089
`

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid minimal config",
			yaml: minimalYAML,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, DriverPostgres, cfg.Database.Driver)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "testdb", cfg.Database.Name)
				assert.Equal(t, "testuser", cfg.Database.User)
				assert.Equal(t, "http://localhost:8089", cfg.Catalog.BaseURL)
			},
		},
		{
			name: "defaults applied for optional fields",
			yaml: minimalYAML,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 5*time.Minute, cfg.Server.WriteTimeout)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, 10, cfg.Database.PoolSize)
				assert.InDelta(t, 10.0, cfg.Catalog.RateLimit.PerSecond, 0.001)
				assert.Equal(t, 10, cfg.Catalog.RateLimit.Burst)
				assert.Equal(t, int64(0), cfg.Catalog.RateLimit.DailyLimit)
				assert.Equal(t, 10, cfg.Fetcher.Concurrency)
				assert.Equal(t, 50*time.Millisecond, cfg.Fetcher.DispatchDelay)
				assert.Equal(t, 5*time.Second, cfg.Fetcher.Timeout)
				assert.Equal(t, 50, cfg.Estimator.PageSize)
				assert.Equal(t, 500, cfg.Estimator.ScanCap)
				assert.Equal(t, 3, cfg.Estimator.SampleSize)
				assert.InDelta(t, 60.0, cfg.Scoring.Weights.Views, 0.001)
				assert.InDelta(t, 40.0, cfg.Scoring.Weights.Items, 0.001)
				assert.Equal(t, uint(3), cfg.Retry.MaxAttempts)
				assert.Equal(t, time.Second, cfg.Retry.InitialInterval)
				assert.Equal(t, 5*time.Second, cfg.Retry.MaxInterval)
				assert.Equal(t, 4, cfg.Batch.TaskConcurrency)
				assert.Equal(t, 4, cfg.Batch.KeywordConcurrency)
				assert.Equal(t, 24*time.Hour, cfg.Schedule.BatchInterval)
				assert.Equal(t, 24*time.Hour, cfg.Schedule.RetentionInterval)
				assert.Equal(t, 90*24*time.Hour, cfg.Schedule.LogRetention)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
				assert.False(t, cfg.Telemetry.Enabled)
				assert.Equal(t, "keyword-tracker", cfg.Telemetry.ServiceName)
			},
		},
		{
			name: "explicit values override defaults",
			yaml: minimalYAML + `
fetcher:
  concurrency: 2
  dispatch_delay: 10ms
  timeout: 1s
estimator:
  page_size: 20
  scan_cap: 100
  sample_size: 5
schedule:
  batch_interval: 6h
  log_retention: 720h
logging:
  level: debug
  format: json
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, 2, cfg.Fetcher.Concurrency)
				assert.Equal(t, 10*time.Millisecond, cfg.Fetcher.DispatchDelay)
				assert.Equal(t, time.Second, cfg.Fetcher.Timeout)
				assert.Equal(t, 20, cfg.Estimator.PageSize)
				assert.Equal(t, 100, cfg.Estimator.ScanCap)
				assert.Equal(t, 5, cfg.Estimator.SampleSize)
				assert.Equal(t, 6*time.Hour, cfg.Schedule.BatchInterval)
				assert.Equal(t, 720*time.Hour, cfg.Schedule.LogRetention)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
		{
			name: "env var substitution",
			yaml: `
database:
  host: localhost
  name: testdb
  user: testuser
  password: ${KWT_TEST_DB_PASSWORD}
catalog:
  base_url: http://localhost:8089
  api_key: ${KWT_TEST_API_KEY}
`,
			envVars: map[string]string{
				"KWT_TEST_DB_PASSWORD": "s3cret",
				"KWT_TEST_API_KEY":     "key-123",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "s3cret", cfg.Database.Password)
				assert.Equal(t, "key-123", cfg.Catalog.APIKey)
			},
		},
		{
			name: "mongo driver needs only a uri",
			yaml: `
database:
  driver: mongo
  uri: mongodb://localhost:27017
catalog:
  base_url: http://localhost:8089
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, DriverMongo, cfg.Database.Driver)
				assert.Equal(t, "mongodb://localhost:27017", cfg.Database.URI)
				assert.Equal(t, "keyword_tracker", cfg.Database.Name)
			},
		},
		{
			name: "discord enabled with webhook",
			yaml: minimalYAML + `
notifications:
  discord:
    enabled: true
    webhook_url: https://discord.example/webhook
    username: kwt
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.True(t, cfg.Notifications.Discord.Enabled)
				assert.Equal(t, "https://discord.example/webhook", cfg.Notifications.Discord.WebhookURL)
				assert.Equal(t, "kwt", cfg.Notifications.Discord.Username)
				assert.Equal(t, 3, cfg.Notifications.Discord.MaxAttempts)
			},
		},
		{
			name: "missing database host",
			yaml: `
database:
  name: testdb
  user: testuser
catalog:
  base_url: http://localhost:8089
`,
			wantErr: "database.host is required",
		},
		{
			name: "missing database name",
			yaml: `
database:
  host: localhost
  user: testuser
catalog:
  base_url: http://localhost:8089
`,
			wantErr: "database.name is required",
		},
		{
			name: "missing database user",
			yaml: `
database:
  host: localhost
  name: testdb
catalog:
  base_url: http://localhost:8089
`,
			wantErr: "database.user is required",
		},
		{
			name: "unknown database driver",
			yaml: `
database:
  driver: sqlite
catalog:
  base_url: http://localhost:8089
`,
			wantErr: `database.driver must be one of: postgres, mongo (got "sqlite")`,
		},
		{
			name: "mongo without uri",
			yaml: `
database:
  driver: mongo
catalog:
  base_url: http://localhost:8089
`,
			wantErr: "database.uri is required when driver is mongo",
		},
		{
			name: "missing catalog base url",
			yaml: `
database:
  host: localhost
  name: testdb
  user: testuser
`,
			wantErr: "catalog.base_url is required",
		},
		{
			name:    "negative fetcher concurrency",
			yaml:    minimalYAML + "fetcher:\n  concurrency: -1\n",
			wantErr: "fetcher.concurrency must be at least 1",
		},
		{
			name:    "sample size larger than page",
			yaml:    minimalYAML + "estimator:\n  page_size: 2\n  sample_size: 3\n",
			wantErr: "estimator.sample_size (3) must not exceed estimator.page_size (2)",
		},
		{
			name:    "retry max below initial",
			yaml:    minimalYAML + "retry:\n  initial_interval: 10s\n  max_interval: 1s\n",
			wantErr: "retry.max_interval must be at least retry.initial_interval",
		},
		{
			name:    "batch interval too short",
			yaml:    minimalYAML + "schedule:\n  batch_interval: 10s\n",
			wantErr: "schedule.batch_interval must be at least 1m",
		},
		{
			name:    "discord enabled without webhook",
			yaml:    minimalYAML + "notifications:\n  discord:\n    enabled: true\n",
			wantErr: "notifications.discord.webhook_url is required when discord is enabled",
		},
		{
			name:    "telemetry enabled without endpoint",
			yaml:    minimalYAML + "telemetry:\n  enabled: true\n",
			wantErr: "telemetry.endpoint is required when telemetry is enabled",
		},
		{
			name:    "invalid yaml",
			yaml:    "database: [unclosed",
			wantErr: "parsing config YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))

			cfg, err := Load(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestParse_JoinsErrors(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("database:\n  driver: mongo\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.uri is required")
	assert.Contains(t, err.Error(), "catalog.base_url is required")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "basic DSN",
			cfg: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				Name:     "testdb",
				User:     "testuser",
				Password: "testpass",
				SSLMode:  "disable",
			},
			want: "host=localhost port=5432 dbname=testdb user=testuser password=testpass sslmode=disable",
		},
		{
			name: "with pool size",
			cfg: DatabaseConfig{
				Host:     "db.example.com",
				Port:     5433,
				Name:     "keywords",
				User:     "admin",
				Password: "s3cret",
				SSLMode:  "require",
				PoolSize: 20,
			},
			want: "host=db.example.com port=5433 dbname=keywords user=admin password=s3cret sslmode=require pool_max_conns=20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}
