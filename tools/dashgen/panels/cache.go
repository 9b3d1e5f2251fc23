package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// CacheLookups returns a timeseries panel showing cache hits and misses per
// second.
func CacheLookups() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Cache Lookups").
		Description("Listing cache hits and misses per second").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`reso:cache_hits:rate5m`, "hits", "A")).
		WithTarget(PromQuery(`reso:cache_misses:rate5m`, "misses", "B")).
		Unit("ops").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// CacheErrors returns a timeseries panel showing cache backend errors by
// operation.
func CacheErrors() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Cache Errors").
		Description("Cache backend errors per second by operation").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`sum by (op) (rate(`+Selector("reso_cache_errors_total")+`[5m]))`, "{{op}}", "A")).
		Unit("ops").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(0.01, 1)).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
