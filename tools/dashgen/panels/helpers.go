// Package panels provides Grafana dashboard panel builders for
// keyword-tracker metrics.
package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/cog"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// Job is the Prometheus scrape job the queries select on.
const Job = "keyword-tracker"

// Standard panel dimensions for a 24-column grid.
const (
	StatWidth  = 6
	StatHeight = 4

	TSWidth  = 12
	TSHeight = 8

	FullWidth = 24
)

// DSRef returns a datasource reference pointing at the ${datasource}
// template variable.
func DSRef() dashboard.DataSourceRef {
	return dashboard.DataSourceRef{
		Type: cog.ToPtr("prometheus"),
		Uid:  cog.ToPtr("${datasource}"),
	}
}

// Sel returns a job label selector for metric.
func Sel(metric string) string {
	return metric + `{job="` + Job + `"}`
}

// Quantile returns a histogram_quantile expression over a 5m rate of the
// named histogram.
func Quantile(q float64, histogram string) string {
	return fmt.Sprintf(
		`histogram_quantile(%g, sum(rate(%s_bucket{job="%s"}[5m])) by (le))`,
		q, histogram, Job,
	)
}

// PromQuery builds a Prometheus target.
func PromQuery(expr, legendFormat, refID string) *prometheus.DataqueryBuilder {
	return prometheus.NewDataqueryBuilder().
		Expr(expr).
		LegendFormat(legendFormat).
		RefId(refID)
}

// step is a threshold boundary: color applies from at upwards.
type step struct {
	at    float64
	color string
}

// thresholds builds absolute thresholds starting at base below the first step.
func thresholds(base string, steps ...step) cog.Builder[dashboard.ThresholdsConfig] {
	ts := make([]dashboard.Threshold, 0, len(steps)+1)
	ts = append(ts, dashboard.Threshold{Color: base})
	for _, s := range steps {
		ts = append(ts, dashboard.Threshold{Value: cog.ToPtr(s.at), Color: s.color})
	}
	return dashboard.NewThresholdsConfigBuilder().
		Mode(dashboard.ThresholdsModeAbsolute).
		Steps(ts)
}

// ThresholdsRedGreen is red below greenAbove.
func ThresholdsRedGreen(greenAbove float64) cog.Builder[dashboard.ThresholdsConfig] {
	return thresholds("red", step{greenAbove, "green"})
}

// ThresholdsGreenYellowRed suits error-style metrics where higher is worse.
func ThresholdsGreenYellowRed(yellow, red float64) cog.Builder[dashboard.ThresholdsConfig] {
	return thresholds("green", step{yellow, "yellow"}, step{red, "red"})
}

// ThresholdsGreenOnly keeps every value green.
func ThresholdsGreenOnly() cog.Builder[dashboard.ThresholdsConfig] {
	return thresholds("green")
}

// ColorSchemeThresholds colors values by their threshold step.
func ColorSchemeThresholds() cog.Builder[dashboard.FieldColor] {
	return dashboard.NewFieldColorBuilder().
		Mode(dashboard.FieldColorModeIdThresholds)
}

// ColorSchemePaletteClassic gives each series its own palette color.
func ColorSchemePaletteClassic() cog.Builder[dashboard.FieldColor] {
	return dashboard.NewFieldColorBuilder().
		Mode(dashboard.FieldColorModeIdPaletteClassic)
}

// TableLegend renders the legend as a table below the graph with calcs as
// columns.
func TableLegend(calcs ...string) *common.VizLegendOptionsBuilder {
	return common.NewVizLegendOptionsBuilder().
		DisplayMode(common.LegendDisplayModeTable).
		Placement(common.LegendPlacementBottom).
		Calcs(calcs)
}

// MultiTooltip shows every series at the cursor, largest first.
func MultiTooltip() *common.VizTooltipOptionsBuilder {
	return common.NewVizTooltipOptionsBuilder().
		Mode(common.TooltipDisplayModeMulti).
		Sort(common.SortOrderDescending)
}

// chart is the default timeseries shape: thin lines, classic palette, a
// table legend and a multi-series tooltip.
func chart(title, description string, span uint32) *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(DSRef()).
		Height(TSHeight).
		Span(span).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// countStat shows a counter's increase over window, turning yellow at warn
// and red at crit.
func countStat(title, description, counter, window string, warn, crit float64, span uint32) *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(DSRef()).
		Height(TSHeight).
		Span(span).
		WithTarget(PromQuery(`increase(`+Sel(counter)+`[`+window+`])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(warn, crit)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}

// byLabel sums a counter's 5m rate by the given labels.
func byLabel(counter, labels string) string {
	return `sum(rate(` + Sel(counter) + `[5m])) by (` + labels + `)`
}
