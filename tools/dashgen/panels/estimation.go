package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/bargauge"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// EstimationDuration shows single-keyword estimation latency.
func EstimationDuration() *timeseries.PanelBuilder {
	const h = "kwt_estimation_duration_seconds"
	return chart("Estimation Duration", "Single-keyword estimation duration percentiles", 8).
		WithTarget(PromQuery(Quantile(0.5, h), "p50", "A")).
		WithTarget(PromQuery(Quantile(0.95, h), "p95", "B")).
		Unit("s")
}

// EstimationStops shows why page scans ended: a short page or the scan cap.
func EstimationStops() *timeseries.PanelBuilder {
	return chart("Estimations by Stop Reason", "Estimations per minute by the reason the page scan ended", 8).
		WithTarget(PromQuery(byLabel("kwt_estimations_total", "stopped_at")+` * 60`, "{{stopped_at}}", "A"))
}

// PagesFetched shows how many search pages an estimation reads. A p95 pinned
// at the cap means keywords are being extrapolated.
func PagesFetched() *timeseries.PanelBuilder {
	const h = "kwt_estimation_pages_fetched"
	return chart("Pages per Estimation", "Median and p95 search pages fetched per keyword", 8).
		WithTarget(PromQuery(Quantile(0.5, h), "p50", "A")).
		WithTarget(PromQuery(Quantile(0.95, h), "p95", "B"))
}

// DifficultyDistribution buckets the last hour of difficulty scores.
func DifficultyDistribution() *bargauge.PanelBuilder {
	return bargauge.NewPanelBuilder().
		Title("Difficulty Distribution").
		Description("Distribution of keyword difficulty scores (0-100) over the last hour").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(FullWidth).
		WithTarget(PromQuery(`sum(increase(`+Sel("kwt_difficulty_distribution_bucket")+`[1h])) by (le)`, "{{le}}", "A")).
		Orientation(common.VizOrientationHorizontal).
		Min(0).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}
