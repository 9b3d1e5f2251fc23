package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewPrometheusRule(t *testing.T) {
	t.Parallel()

	cr := NewPrometheusRule("reso-test", "reso-test-group", []Rule{
		{Record: "reso:test:rate5m", Expr: `sum(rate(reso_http_requests_total[5m]))`},
	})

	assert.Equal(t, "monitoring.coreos.com/v1", cr.APIVersion)
	assert.Equal(t, "PrometheusRule", cr.Kind)
	assert.Equal(t, "reso-test", cr.Metadata.Name)
	assert.Equal(t, "system-rules-prometheus", cr.Metadata.Labels["prometheus"])
	require.Len(t, cr.Spec.Groups, 1)
	assert.Equal(t, "reso-test-group", cr.Spec.Groups[0].Name)
	assert.Len(t, cr.Spec.Groups[0].Rules, 1)

	data, err := yaml.Marshal(cr)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "interval:")
	assert.NotContains(t, string(data), "alert:")
}

func TestRuleSets_Names(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cr        PrometheusRule
		wantName  string
		wantGroup string
	}{
		{name: "recording", cr: RecordingRules(), wantName: RecordingRulesName, wantGroup: RecordingGroup},
		{name: "alerts", cr: AlertRules(), wantName: AlertRulesName, wantGroup: AlertGroup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.wantName, tt.cr.Metadata.Name)
			require.Len(t, tt.cr.Spec.Groups, 1)
			assert.Equal(t, tt.wantGroup, tt.cr.Spec.Groups[0].Name)
			assert.NotEmpty(t, tt.cr.Spec.Groups[0].Rules)
		})
	}
}
