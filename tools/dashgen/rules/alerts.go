package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// reso-listings operational monitoring.
func AlertRules() PrometheusRule {
	return NewPrometheusRule(AlertRulesName, AlertGroup, []Rule{
		{
			Alert: "ResoDown",
			Expr:  `absent(up{job="reso-listings"})`,
			For:   "2m",
			Labels: map[string]string{
				"severity": "critical",
			},
			Annotations: map[string]string{
				"summary":     "reso-listings is down",
				"description": "The reso-listings job has been absent for more than 2 minutes.",
			},
		},
		{
			Alert: "ResoReadinessDown",
			Expr:  `reso_readyz_up == 0`,
			For:   "2m",
			Labels: map[string]string{
				"severity": "critical",
			},
			Annotations: map[string]string{
				"summary":     "reso-listings readiness check is failing",
				"description": "The cache backend has been unreachable for more than 2 minutes.",
			},
		},
		{
			Alert: "ResoHighErrorRate",
			Expr:  `reso:http_errors:rate5m / reso:http_requests:rate5m > 0.05`,
			For:   "5m",
			Labels: map[string]string{
				"severity": "warning",
			},
			Annotations: map[string]string{
				"summary":     "High HTTP error rate on reso-listings",
				"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
			},
		},
		{
			Alert: "ResoUpstreamErrors",
			Expr:  `reso:upstream_errors:rate5m / sum(reso:upstream_requests:rate5m) > 0.25`,
			For:   "10m",
			Labels: map[string]string{
				"severity": "warning",
			},
			Annotations: map[string]string{
				"summary":     "RESO Web API requests are failing",
				"description": "More than 25% of upstream Property requests have failed for 10 minutes.",
			},
		},
		{
			Alert: "ResoQuotaExhausted",
			Expr:  `increase(reso_upstream_quota_rejections_total[5m]) > 0`,
			For:   "0m",
			Labels: map[string]string{
				"severity": "critical",
			},
			Annotations: map[string]string{
				"summary":     "Upstream daily quota has been reached",
				"description": "Calls to the RESO Web API are being refused until the quota window resets.",
			},
		},
		{
			Alert: "ResoCacheErrors",
			Expr:  `sum(rate(reso_cache_errors_total[5m])) > 0`,
			For:   "5m",
			Labels: map[string]string{
				"severity": "warning",
			},
			Annotations: map[string]string{
				"summary":     "Listing cache backend errors",
				"description": "The cache backend has been returning errors for more than 5 minutes.",
			},
		},
		{
			Alert: "ResoWarmFailures",
			Expr:  `increase(reso_warm_failures_total[1h]) > 0`,
			For:   "30m",
			Labels: map[string]string{
				"severity": "warning",
			},
			Annotations: map[string]string{
				"summary":     "Saved searches are failing to warm",
				"description": "At least one saved search has failed to warm in every cycle for 30 minutes.",
			},
		},
		{
			Alert: "ResoNotificationFailures",
			Expr:  `increase(reso_notifications_total{result="failed"}[5m]) > 0`,
			For:   "1m",
			Labels: map[string]string{
				"severity": "warning",
			},
			Annotations: map[string]string{
				"summary":     "Notification delivery failures detected",
				"description": "One or more warm reports (Discord webhooks) have failed to send.",
			},
		},
	})
}
