// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/reso-listings/tools/dashgen/panels"
)

// BuildOverview constructs the reso-listings overview dashboard.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("RESO Listings Overview").
		Uid("reso-overview").
		Tags([]string{"reso", "reso-listings"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.CacheHitRatioGauge()).
		WithPanel(panels.UptimeStat()))

	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()).
		WithPanel(panels.RateLimited()))

	b.WithRow(dashboard.NewRowBuilder("Upstream").
		WithPanel(panels.UpstreamRequestRate()).
		WithPanel(panels.UpstreamLatency()).
		WithPanel(panels.DailyUsage()).
		WithPanel(panels.QuotaRejections()))

	b.WithRow(dashboard.NewRowBuilder("Cache").
		WithPanel(panels.CacheLookups()).
		WithPanel(panels.CacheErrors()))

	b.WithRow(dashboard.NewRowBuilder("Warming").
		WithPanel(panels.WarmActivity()).
		WithPanel(panels.NotificationFailures()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
