// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/keyword-tracker/tools/dashgen/panels"
)

// BuildOverview constructs the KWT Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("KWT Overview").
		Uid("kwt-overview").
		Tags([]string{"kwt", "keyword-tracker"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.NextBatch()).
		WithPanel(panels.UptimeStat()))

	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.StatusClasses()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	b.WithRow(dashboard.NewRowBuilder("Catalog API").
		WithPanel(panels.CatalogCallsRate()).
		WithPanel(panels.CatalogDegraded()).
		WithPanel(panels.CatalogErrorsByReason()).
		WithPanel(panels.CatalogLatency()).
		WithPanel(panels.DailyUsage()).
		WithPanel(panels.LimitHits()))

	b.WithRow(dashboard.NewRowBuilder("Fetch Pool").
		WithPanel(panels.PoolInFlight()).
		WithPanel(panels.PoolWait()))

	b.WithRow(dashboard.NewRowBuilder("Estimation").
		WithPanel(panels.EstimationDuration()).
		WithPanel(panels.EstimationStops()).
		WithPanel(panels.PagesFetched()).
		WithPanel(panels.DifficultyDistribution()))

	b.WithRow(dashboard.NewRowBuilder("Batch").
		WithPanel(panels.BatchDuration()).
		WithPanel(panels.TasksByResult()).
		WithPanel(panels.KeywordFailures()).
		WithPanel(panels.LogsWritten()).
		WithPanel(panels.SkippedJobs()))

	b.WithRow(dashboard.NewRowBuilder("Notifications").
		WithPanel(panels.NotificationFailures()).
		WithPanel(panels.NotificationLatency()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
