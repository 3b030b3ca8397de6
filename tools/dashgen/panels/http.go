package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

const httpDuration = "kwt_http_request_duration_seconds"

// RequestRate shows API requests per second, excluding probes and scrapes.
func RequestRate() *timeseries.PanelBuilder {
	return chart("Request Rate", "API requests per second (probes and /metrics excluded)", TSWidth/2).
		WithTarget(PromQuery(`kwt:http_requests:rate5m`, "req/s", "A")).
		Unit("reqps")
}

// StatusClasses breaks the request rate down by 2xx/4xx/5xx.
func StatusClasses() *timeseries.PanelBuilder {
	expr := `sum by (class) (label_replace(rate(` + Sel("kwt_http_requests_total") +
		`[5m]), "class", "${1}xx", "status", "([0-9]).."))`
	return chart("Responses by Class", "API responses per second by status class", TSWidth/2).
		WithTarget(PromQuery(expr, "{{class}}", "A")).
		Unit("reqps").
		Stacking(common.NewStackingConfigBuilder().Mode(common.StackingModeNormal))
}

// LatencyPercentiles shows p50/p95/p99 API latency across all routes.
func LatencyPercentiles() *timeseries.PanelBuilder {
	return chart("Latency Percentiles", "API request duration percentiles", TSWidth/2).
		WithTarget(PromQuery(Quantile(0.5, httpDuration), "p50", "A")).
		WithTarget(PromQuery(Quantile(0.95, httpDuration), "p95", "B")).
		WithTarget(PromQuery(Quantile(0.99, httpDuration), "p99", "C")).
		Unit("s")
}

// ErrorRate shows 5xx responses as a percentage of all API requests.
func ErrorRate() *timeseries.PanelBuilder {
	return chart("Error Rate %", "5xx responses as a percentage of API requests", TSWidth/2).
		WithTarget(PromQuery(`kwt:http_errors:rate5m / kwt:http_requests:rate5m * 100`, "error %", "A")).
		Unit("percent").
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds())
}
