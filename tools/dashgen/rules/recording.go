package rules

// RecordingRules returns the pre-computed rates shared by the overview
// dashboard and the alert rules.
func RecordingRules() PrometheusRule {
	return newResource("kwt-recording-rules", RuleGroup{
		Name: "kwt-recording",
		Rules: []Rule{
			record("kwt:http_requests:rate5m", `sum(rate(kwt_http_requests_total[5m]))`),
			record("kwt:http_errors:rate5m", `sum(rate(kwt_http_requests_total{status=~"5.."}[5m]))`),
			record("kwt:catalog_calls:rate5m", `sum(rate(kwt_catalog_calls_total[5m]))`),
			record("kwt:catalog_errors:rate5m", `sum(rate(kwt_catalog_errors_total[5m]))`),
			record("kwt:keyword_failures:rate5m", `rate(kwt_keyword_failures_total[5m])`),
		},
	})
}
