package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// BatchDuration shows p95 batch run wall time.
func BatchDuration() *timeseries.PanelBuilder {
	return chart("Batch Duration (p95)", "95th percentile batch run duration", 8).
		WithTarget(PromQuery(Quantile(0.95, "kwt_batch_duration_seconds"), "p95", "A")).
		Unit("s")
}

// TasksByResult shows hourly task outcomes as bars.
func TasksByResult() *timeseries.PanelBuilder {
	return chart("Tasks by Result", "Tasks processed per hour by result", 8).
		WithTarget(PromQuery(`sum(increase(`+Sel("kwt_batch_tasks_total")+`[1h])) by (result)`, "{{result}}", "A")).
		DrawStyle(common.GraphDrawStyleBars)
}

// KeywordFailures counts keywords that failed inside tasks over the last day.
func KeywordFailures() *stat.PanelBuilder {
	return countStat("Keyword Failures (24h)", "Keywords that failed estimation inside a task in the last 24 hours",
		"kwt_keyword_failures_total", "24h", 1, 10, 8)
}

// LogsWritten compares appended metrics log entries with pruned ones.
func LogsWritten() *timeseries.PanelBuilder {
	return chart("Metrics Log Entries", "Log entries appended and pruned per hour", TSWidth).
		WithTarget(PromQuery(`increase(`+Sel("kwt_metrics_logs_written_total")+`[1h])`, "written", "A")).
		WithTarget(PromQuery(`increase(`+Sel("kwt_logs_pruned_total")+`[1h])`, "pruned", "B"))
}

// SkippedJobs counts scheduled runs skipped because another replica held
// the job lock.
func SkippedJobs() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Skipped Jobs (24h)").
		Description("Scheduled runs skipped because another instance held the job lock").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`sum(increase(`+Sel("kwt_scheduler_jobs_skipped_total")+`[24h])) by (job)`, "{{job}}", "A")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		GraphMode(common.BigValueGraphModeNone)
}

// NotificationFailures counts failed summary deliveries over the last day.
func NotificationFailures() *stat.PanelBuilder {
	return countStat("Notification Failures (24h)", "Failed batch summary deliveries in the last 24 hours",
		"kwt_notification_failures_total", "24h", 1, 5, TSWidth)
}

// NotificationLatency shows p95 webhook latency per attempt.
func NotificationLatency() *timeseries.PanelBuilder {
	return chart("Notification Latency (p95)", "95th percentile Discord webhook latency per attempt", TSWidth).
		WithTarget(PromQuery(Quantile(0.95, "kwt_notification_duration_seconds"), "p95", "A")).
		Unit("s").
		Thresholds(ThresholdsGreenYellowRed(1, 5))
}
