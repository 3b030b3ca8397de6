// Package metrics defines Prometheus metrics for keyword-tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kwt"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HTTPPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_panics_total",
		Help:      "Total number of recovered handler panics.",
	})
)

// Catalog API metrics. The op label is one of search, view_count, tags.
var (
	CatalogCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_calls_total",
		Help:      "Total catalog API calls dispatched.",
	}, []string{"op"})

	CatalogErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_errors_total",
		Help:      "Total catalog calls degraded to a neutral value, by reason.",
	}, []string{"op", "reason"})

	CatalogCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "catalog_call_duration_seconds",
		Help:      "Duration of catalog API calls in seconds, excluding pool wait.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"op"})

	CatalogDailyUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_daily_usage",
		Help:      "Current catalog API call count within the rolling 24-hour window.",
	})

	CatalogDailyLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_daily_limit_hits_total",
		Help:      "Total number of times the daily catalog API limit was reached.",
	})

	FetchPoolInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fetch_pool_in_flight",
		Help:      "Catalog calls currently holding a fetch pool slot.",
	})

	FetchPoolWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_pool_wait_seconds",
		Help:      "Time spent waiting for a fetch pool slot.",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
	})
)

// Estimation metrics.
var (
	EstimationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "estimation_duration_seconds",
		Help:      "Duration of single-keyword estimations in seconds.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	EstimationPagesFetched = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "estimation_pages_fetched",
		Help:      "Search pages fetched per keyword estimation.",
		Buckets:   prometheus.LinearBuckets(0, 1, 11),
	})

	EstimationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "estimations_total",
		Help:      "Total keyword estimations, by stop reason.",
	}, []string{"stopped_at"})

	EstimationRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "estimation_retries_total",
		Help:      "Total retried keyword estimation attempts.",
	})

	DifficultyDistribution = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "difficulty_distribution",
		Help:      "Distribution of computed keyword difficulty scores.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11), // 0, 10, 20, ..., 100
	})
)

// Batch metrics.
var (
	BatchRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_runs_total",
		Help:      "Total number of batch runs started.",
	})

	BatchRunErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_run_errors_total",
		Help:      "Total number of batch runs that failed to read the task set.",
	})

	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "Duration of batch runs in seconds.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	BatchTasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_tasks_total",
		Help:      "Total tasks processed by batch runs, by result.",
	}, []string{"result"})

	KeywordFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "keyword_failures_total",
		Help:      "Total keywords that failed estimation inside a task.",
	})

	MetricsLogsWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "metrics_logs_written_total",
		Help:      "Total metrics log entries appended.",
	})

	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total number of notification send failures.",
	})

	NotificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of notification webhook calls in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
)

// Scheduler metrics.
var (
	SchedulerNextBatchTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_next_batch_timestamp",
		Help:      "Unix timestamp of the next scheduled batch run.",
	})

	SchedulerNextRetentionTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_next_retention_timestamp",
		Help:      "Unix timestamp of the next scheduled log retention run.",
	})

	SchedulerJobsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_jobs_skipped_total",
		Help:      "Scheduled jobs skipped because another holder owned the lock.",
	}, []string{"job"})

	LogsPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logs_pruned_total",
		Help:      "Total metrics log entries removed by retention.",
	})
)

// Health metrics.
var (
	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 when the liveness endpoint last reported ok.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 when the readiness endpoint last reported ready.",
	})
)
