package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/keyword-tracker/tools/dashgen/dashboards"
	"github.com/donaldgifford/keyword-tracker/tools/dashgen/rules"
	"github.com/donaldgifford/keyword-tracker/tools/dashgen/validate"
)

func TestDefaultConfigValid(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate_EmptyOutputDir(t *testing.T) {
	t.Parallel()
	cfg := Config{OutputDir: "", DashboardEnabled: true}
	assert.Error(t, cfg.Validate())
}

func TestConfigValidate_NothingEnabled(t *testing.T) {
	t.Parallel()
	cfg := Config{OutputDir: "/tmp", DashboardEnabled: false, RulesEnabled: false}
	assert.Error(t, cfg.Validate())
}

func TestBuildOverviewDashboard(t *testing.T) {
	t.Parallel()

	dash, err := dashboards.BuildOverview().Build()
	require.NoError(t, err)

	require.NotNil(t, dash.Uid)
	assert.Equal(t, "kwt-overview", *dash.Uid)

	require.NotNil(t, dash.Title)
	assert.Equal(t, "KWT Overview", *dash.Title)

	require.NotNil(t, dash.Templating)
	assert.Len(t, dash.Templating.List, 1)
	assert.Equal(t, "datasource", dash.Templating.List[0].Name)

	assert.Len(t, dash.Panels, 7)

	totalPanels := 0
	for _, p := range dash.Panels {
		if p.RowPanel != nil {
			totalPanels += len(p.RowPanel.Panels)
		}
	}
	assert.Equal(t, 27, totalPanels)

	result := validate.Dashboard(dash, KnownMetrics)
	assert.True(t, result.Ok(), "validation errors: %v", result.Errors)
	assert.Empty(t, result.Warnings, "unexpected warnings: %v", result.Warnings)
}

func TestRecordingRules(t *testing.T) {
	t.Parallel()

	cr := rules.RecordingRules()
	assert.Equal(t, "monitoring.coreos.com/v1", cr.APIVersion)
	assert.Equal(t, "PrometheusRule", cr.Kind)
	assert.Equal(t, "kwt-recording-rules", cr.Metadata.Name)

	require.Len(t, cr.Spec.Groups, 1)
	group := cr.Spec.Groups[0]
	assert.Equal(t, "kwt-recording", group.Name)

	expectedRecords := []string{
		"kwt:http_requests:rate5m",
		"kwt:http_errors:rate5m",
		"kwt:catalog_calls:rate5m",
		"kwt:catalog_errors:rate5m",
		"kwt:keyword_failures:rate5m",
	}
	require.Len(t, group.Rules, len(expectedRecords))
	for i, rule := range group.Rules {
		assert.Equal(t, expectedRecords[i], rule.Record)
	}

	result := validate.Rules(cr, KnownMetrics)
	assert.True(t, result.Ok(), "validation errors: %v", result.Errors)
	assert.Empty(t, result.Warnings)

	data, err := yaml.Marshal(cr)
	require.NoError(t, err)
	assert.Contains(t, string(data), "apiVersion: monitoring.coreos.com/v1")
}

func TestAlertRules(t *testing.T) {
	t.Parallel()

	cr := rules.AlertRules()
	assert.Equal(t, "kwt-alerts", cr.Metadata.Name)

	require.Len(t, cr.Spec.Groups, 1)
	group := cr.Spec.Groups[0]
	assert.Equal(t, "kwt-alerts", group.Name)

	expectedAlerts := []string{
		"KwtDown",
		"KwtReadinessDown",
		"KwtHighErrorRate",
		"KwtCatalogDegraded",
		"KwtCatalogLimitReached",
		"KwtBatchFailed",
		"KwtKeywordFailures",
		"KwtNotificationFailures",
	}
	require.Len(t, group.Rules, len(expectedAlerts))
	for i, rule := range group.Rules {
		assert.Equal(t, expectedAlerts[i], rule.Alert)
		assert.NotEmpty(t, rule.Labels["severity"], "alert %s missing severity", rule.Alert)
		assert.NotEmpty(t, rule.Annotations["summary"], "alert %s missing summary", rule.Alert)
		assert.NotEmpty(t, rule.Annotations["description"], "alert %s missing description", rule.Alert)
	}

	result := validate.Rules(cr, KnownMetrics)
	assert.True(t, result.Ok(), "validation errors: %v", result.Errors)
}

func TestValidateExpr(t *testing.T) {
	t.Parallel()

	known := map[string]bool{"kwt_batch_duration_seconds": true}

	var res validate.Result
	validate.Expr(&res, "ok", `histogram_quantile(0.95, sum(rate(kwt_batch_duration_seconds_bucket[5m])) by (le))`, known)
	assert.True(t, res.Ok(), "%v", res.Errors)

	validate.Expr(&res, "unknown", `rate(kwt_nope_total[5m])`, known)
	validate.Expr(&res, "syntax", `sum(rate(`, known)
	validate.Expr(&res, "empty", " ", known)
	assert.Len(t, res.Errors, 3)
}

func TestRun_WritesArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.OutputDir = dir
	require.NoError(t, run(cfg, false))

	dashData, err := os.ReadFile(filepath.Join(dir, "grafana", "data", "kwt-overview.json"))
	require.NoError(t, err)
	var dash map[string]any
	require.NoError(t, json.Unmarshal(dashData, &dash))
	assert.Equal(t, "kwt-overview", dash["uid"])

	for _, name := range []string{"kwt-recording-rules.yaml", "kwt-alerts.yaml"} {
		data, err := os.ReadFile(filepath.Join(dir, "prometheus", name))
		require.NoError(t, err, name)
		assert.True(t, len(data) > len(generatedHeader))
		assert.Equal(t, generatedHeader, string(data[:len(generatedHeader)]))

		var cr rules.PrometheusRule
		require.NoError(t, yaml.Unmarshal(data, &cr), name)
		assert.Equal(t, "PrometheusRule", cr.Kind)
	}
}

func TestRun_ValidateOnlyWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.OutputDir = dir
	require.NoError(t, run(cfg, true))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
