// Package rules generates the reso-listings Prometheus rules as Kubernetes
// PrometheusRule custom resources: the reso-recording group of per-5m rates
// and the reso-alerts group that pages on outages, upstream and cache
// failures, quota exhaustion, warm failures and notification failures.
package rules

const (
	apiVersion = "monitoring.coreos.com/v1"
	kind       = "PrometheusRule"

	// ruleSelector is the label the Prometheus instance selects rule CRs by.
	ruleSelector = "system-rules-prometheus"

	RecordingRulesName = "reso-recording-rules"
	RecordingGroup     = "reso-recording"
	AlertRulesName     = "reso-alerts"
	AlertGroup         = "reso-alerts"
)

// PrometheusRule is a Kubernetes custom resource for Prometheus Operator.
// Its Metadata.Name doubles as the generated file name.
type PrometheusRule struct {
	APIVersion string                 `yaml:"apiVersion"`
	Kind       string                 `yaml:"kind"`
	Metadata   PrometheusRuleMetadata `yaml:"metadata"`
	Spec       PrometheusRuleSpec     `yaml:"spec"`
}

// NewPrometheusRule wraps rules in a single named group inside a CR
// labelled for the reso-listings Prometheus.
func NewPrometheusRule(name, group string, rules []Rule) PrometheusRule {
	return PrometheusRule{
		APIVersion: apiVersion,
		Kind:       kind,
		Metadata: PrometheusRuleMetadata{
			Name:   name,
			Labels: map[string]string{"prometheus": ruleSelector},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{{Name: group, Rules: rules}},
		},
	}
}

type PrometheusRuleMetadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

type PrometheusRuleSpec struct {
	Groups []RuleGroup `yaml:"groups"`
}

// RuleGroup is evaluated as a unit; reso groups leave Interval to the
// Prometheus default.
type RuleGroup struct {
	Name     string `yaml:"name"`
	Interval string `yaml:"interval,omitempty"`
	Rules    []Rule `yaml:"rules"`
}

// Rule sets Record for a reso:*:rate5m recording rule or Alert for a Reso*
// alert. Alerts must carry a severity label.
type Rule struct {
	Record      string            `yaml:"record,omitempty"`
	Alert       string            `yaml:"alert,omitempty"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
}
