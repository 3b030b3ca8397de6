package rules

// AlertRules returns the operational alerts for keyword-tracker.
func AlertRules() PrometheusRule {
	return newResource("kwt-alerts", RuleGroup{
		Name: "kwt-alerts",
		Rules: []Rule{
			alert("KwtDown", critical, "2m",
				`absent(up{job="keyword-tracker"})`,
				"Keyword tracker is down",
				"The keyword-tracker job has been absent for more than 2 minutes."),
			alert("KwtReadinessDown", critical, "2m",
				`kwt_readyz_up == 0`,
				"Keyword tracker readiness check is failing",
				"The store has been unreachable from /readyz for more than 2 minutes."),
			alert("KwtHighErrorRate", warning, "5m",
				`kwt:http_errors:rate5m / kwt:http_requests:rate5m > 0.05`,
				"High HTTP error rate on keyword tracker",
				"More than 5% of API requests returned 5xx over the last 5 minutes."),
			alert("KwtCatalogDegraded", warning, "10m",
				`kwt:catalog_errors:rate5m / kwt:catalog_calls:rate5m > 0.2`,
				"Catalog calls are degrading to neutral values",
				"More than 20% of catalog calls timed out or failed over 10 minutes. Estimates are biased low."),
			alert("KwtCatalogLimitReached", critical, "0m",
				`increase(kwt_catalog_daily_limit_hits_total[5m]) > 0`,
				"Catalog API daily limit has been reached",
				"The catalog daily quota is exhausted. Estimates degrade until the window resets."),
			alert("KwtBatchFailed", critical, "0m",
				`increase(kwt_batch_run_errors_total[1h]) > 0`,
				"Batch run could not read the task set",
				"A batch run aborted before processing any task in the last hour."),
			alert("KwtKeywordFailures", warning, "15m",
				`kwt:keyword_failures:rate5m > 0.1`,
				"Keyword estimations are failing inside tasks",
				"Keywords have been failing estimation at more than 0.1/s for 15 minutes."),
			alert("KwtNotificationFailures", warning, "1m",
				`increase(kwt_notification_failures_total[5m]) > 0`,
				"Notification delivery failures detected",
				"One or more batch summary webhooks failed to send."),
		},
	})
}
