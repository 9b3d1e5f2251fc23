package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return NewPrometheusRule(RecordingRulesName, RecordingGroup, []Rule{
		{
			Record: "reso:http_requests:rate5m",
			Expr:   `sum(rate(reso_http_requests_total[5m]))`,
		},
		{
			Record: "reso:http_errors:rate5m",
			Expr:   `sum(rate(reso_http_requests_total{status=~"5.."}[5m]))`,
		},
		{
			Record: "reso:upstream_requests:rate5m",
			Expr:   `sum by (outcome) (rate(reso_upstream_requests_total[5m]))`,
		},
		{
			Record: "reso:upstream_errors:rate5m",
			Expr:   `sum(rate(reso_upstream_requests_total{outcome!="ok"}[5m]))`,
		},
		{
			Record: "reso:cache_hits:rate5m",
			Expr:   `sum(rate(reso_cache_hits_total[5m]))`,
		},
		{
			Record: "reso:cache_misses:rate5m",
			Expr:   `sum(rate(reso_cache_misses_total[5m]))`,
		},
	})
}
