package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

const catalogRowSpan = 8

// CatalogCallsRate shows dispatched catalog calls per second by operation.
func CatalogCallsRate() *timeseries.PanelBuilder {
	return chart("Catalog Calls", "Catalog API calls per second by operation", catalogRowSpan).
		WithTarget(PromQuery(byLabel("kwt_catalog_calls_total", "op"), "{{op}}", "A")).
		Unit("reqps")
}

// CatalogDegraded shows the share of catalog calls answered with a neutral
// value instead of real data.
func CatalogDegraded() *timeseries.PanelBuilder {
	return chart("Degraded Calls %", "Catalog calls answered with a neutral value (timeout, error, malformed body)", catalogRowSpan).
		WithTarget(PromQuery(`kwt:catalog_errors:rate5m / kwt:catalog_calls:rate5m * 100`, "degraded %", "A")).
		Unit("percent").
		Thresholds(ThresholdsGreenYellowRed(5, 20)).
		ColorScheme(ColorSchemeThresholds())
}

// CatalogErrorsByReason splits degraded calls by operation and reason.
func CatalogErrorsByReason() *timeseries.PanelBuilder {
	return chart("Degraded by Reason", "Degraded catalog calls per second by operation and reason", catalogRowSpan).
		WithTarget(PromQuery(byLabel("kwt_catalog_errors_total", "op, reason"), "{{op}} {{reason}}", "A"))
}

// CatalogLatency shows catalog call latency without pool wait.
func CatalogLatency() *timeseries.PanelBuilder {
	const h = "kwt_catalog_call_duration_seconds"
	return chart("Catalog Latency", "Catalog call duration percentiles, excluding pool wait", catalogRowSpan).
		WithTarget(PromQuery(Quantile(0.5, h), "p50", "A")).
		WithTarget(PromQuery(Quantile(0.95, h), "p95", "B")).
		Unit("s")
}

// DailyUsage tracks the rolling 24h call count against the quota.
func DailyUsage() *timeseries.PanelBuilder {
	return chart("Daily Usage", "Rolling 24h catalog API call count", catalogRowSpan).
		WithTarget(PromQuery(Sel("kwt_catalog_daily_usage"), "usage", "A"))
}

// LimitHits counts daily quota exhaustions over the last day.
func LimitHits() *stat.PanelBuilder {
	return countStat("Limit Hits (24h)", "Times the catalog daily limit was reached in the last 24 hours",
		"kwt_catalog_daily_limit_hits_total", "24h", 1, 3, catalogRowSpan)
}

// PoolInFlight shows occupied fetch pool slots.
func PoolInFlight() *timeseries.PanelBuilder {
	return chart("Fetch Pool In Flight", "Catalog calls currently holding a pool slot", TSWidth).
		WithTarget(PromQuery(Sel("kwt_fetch_pool_in_flight"), "in flight", "A"))
}

// PoolWait shows p95 time spent queueing for a fetch pool slot.
func PoolWait() *timeseries.PanelBuilder {
	return chart("Fetch Pool Wait (p95)", "95th percentile wait for a fetch pool slot", TSWidth).
		WithTarget(PromQuery(Quantile(0.95, "kwt_fetch_pool_wait_seconds"), "p95", "A")).
		Unit("s").
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds())
}
