package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
)

// statPanel is the quarter-width single-value shape of the overview row.
func statPanel(title, description, expr string) *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(expr, "", "A")).
		ColorScheme(ColorSchemeThresholds()).
		GraphMode(common.BigValueGraphModeNone)
}

// probeStat shows a 0/1 probe gauge as a red or green tile.
func probeStat(title, description, gauge string) *stat.PanelBuilder {
	return statPanel(title, description, Sel(gauge)).
		Thresholds(ThresholdsRedGreen(1)).
		ColorMode(common.BigValueColorModeBackground).
		TextMode(common.BigValueTextModeValue)
}

// HealthzStat shows the last liveness probe result.
func HealthzStat() *stat.PanelBuilder {
	return probeStat("Healthz", "Liveness probe (1 = ok, 0 = failing)", "kwt_healthz_up")
}

// ReadyzStat shows the last readiness probe result.
func ReadyzStat() *stat.PanelBuilder {
	return probeStat("Readyz", "Readiness probe: store reachable (1 = ready, 0 = not ready)", "kwt_readyz_up")
}

// NextBatch counts down to the next scheduled batch run. Negative values
// mean the scheduler has missed its slot.
func NextBatch() *stat.PanelBuilder {
	return statPanel("Next Batch", "Time until the next scheduled batch run",
		Sel("kwt_scheduler_next_batch_timestamp")+` - time()`).
		Unit("s").
		Thresholds(thresholds("red", step{0, "green"})).
		ColorMode(common.BigValueColorModeBackground)
}

// UptimeStat shows time since the server process started.
func UptimeStat() *stat.PanelBuilder {
	return statPanel("Uptime", "Time since process start",
		`time() - `+Sel("process_start_time_seconds")).
		Unit("s").
		Thresholds(ThresholdsGreenOnly())
}
