package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// UpstreamRequestRate returns a timeseries panel showing RESO Property
// requests per second split by outcome.
func UpstreamRequestRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Upstream Requests").
		Description("RESO Web API requests per second by outcome").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`reso:upstream_requests:rate5m`, "{{outcome}}", "A")).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// UpstreamLatency returns a timeseries panel showing p95 upstream latency
// per query variant.
func UpstreamLatency() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Upstream Latency (p95)").
		Description("95th percentile RESO Web API latency by query variant").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(StatWidth).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(`+Selector("reso_upstream_request_duration_seconds_bucket")+`[5m])) by (le, variant))`,
			"{{variant}}", "A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(2, 8)).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// DailyUsage returns a timeseries panel showing upstream calls made in the
// current rolling 24h window.
func DailyUsage() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Daily Upstream Usage").
		Description("Upstream calls counted against the daily quota").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(StatWidth).
		WithTarget(PromQuery(Selector("reso_upstream_daily_usage"), "usage", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// QuotaRejections returns a stat panel showing upstream calls refused by the
// daily quota in the past 24 hours.
func QuotaRejections() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Quota Rejections (24h)").
		Description("Upstream calls refused because the daily quota was spent").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`increase(`+Selector("reso_upstream_quota_rejections_total")+`[24h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 10)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}
