package main

import "errors"

// KnownMetrics is the set of metric names exported by keyword-tracker
// plus recording rule names referenced in dashboards and alerts.
// Histograms are listed by base name.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"kwt_http_request_duration_seconds": true,
	"kwt_http_requests_total":           true,
	"kwt_http_panics_total":             true,

	// Health metrics.
	"kwt_healthz_up": true,
	"kwt_readyz_up":  true,

	// Catalog API metrics.
	"kwt_catalog_calls_total":            true,
	"kwt_catalog_errors_total":           true,
	"kwt_catalog_call_duration_seconds":  true,
	"kwt_catalog_daily_usage":            true,
	"kwt_catalog_daily_limit_hits_total": true,
	"kwt_fetch_pool_in_flight":           true,
	"kwt_fetch_pool_wait_seconds":        true,

	// Estimation metrics.
	"kwt_estimation_duration_seconds": true,
	"kwt_estimation_pages_fetched":    true,
	"kwt_estimations_total":           true,
	"kwt_estimation_retries_total":    true,
	"kwt_difficulty_distribution":     true,

	// Batch metrics.
	"kwt_batch_runs_total":              true,
	"kwt_batch_run_errors_total":        true,
	"kwt_batch_duration_seconds":        true,
	"kwt_batch_tasks_total":             true,
	"kwt_keyword_failures_total":        true,
	"kwt_metrics_logs_written_total":    true,
	"kwt_notification_failures_total":   true,
	"kwt_notification_duration_seconds": true,

	// Scheduler metrics.
	"kwt_scheduler_next_batch_timestamp":     true,
	"kwt_scheduler_next_retention_timestamp": true,
	"kwt_scheduler_jobs_skipped_total":       true,
	"kwt_logs_pruned_total":                  true,

	// Recording rules.
	"kwt:http_requests:rate5m":    true,
	"kwt:http_errors:rate5m":      true,
	"kwt:catalog_calls:rate5m":    true,
	"kwt:catalog_errors:rate5m":   true,
	"kwt:keyword_failures:rate5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
