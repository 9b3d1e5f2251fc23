// Package validate checks generated dashboards and rules: every PromQL
// expression must parse and only reference metrics the service exports.
package validate

import (
	"encoding/json"
	"fmt"

	"github.com/prometheus/prometheus/model/labels"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/reso-listings/tools/dashgen/rules"
)

// Result collects validation findings. Errors fail generation; warnings
// are reported but do not.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether no errors were found.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

// Merge appends o's findings to r.
func (r *Result) Merge(o Result) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// Expr parses expr and checks every selected metric name against known.
// where identifies the expression in reported findings.
func Expr(where, expr string, known map[string]bool) Result {
	var r Result

	parsed, err := parser.ParseExpr(expr)
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("%s: invalid PromQL %q: %v", where, expr, err))
		return r
	}

	parser.Inspect(parsed, func(node parser.Node, _ []parser.Node) error {
		vs, ok := node.(*parser.VectorSelector)
		if !ok {
			return nil
		}
		name := metricName(vs)
		if name == "" {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s: selector without a metric name in %q", where, expr))
			return nil
		}
		if !known[name] {
			r.Errors = append(r.Errors, fmt.Sprintf("%s: unknown metric %q", where, name))
		}
		return nil
	})

	return r
}

func metricName(vs *parser.VectorSelector) string {
	if vs.Name != "" {
		return vs.Name
	}
	for _, m := range vs.LabelMatchers {
		if m.Name == labels.MetricName && m.Type == labels.MatchEqual {
			return m.Value
		}
	}
	return ""
}

// jsonPanel mirrors the parts of Grafana's panel JSON that carry queries.
type jsonPanel struct {
	Title   string      `json:"title"`
	Type    string      `json:"type"`
	Panels  []jsonPanel `json:"panels"`
	Targets []struct {
		Expr string `json:"expr"`
	} `json:"targets"`
}

// Dashboard validates every panel query in a built dashboard. It works on
// the dashboard's JSON form so any SDK model can be passed.
func Dashboard(dash any, known map[string]bool) Result {
	var r Result

	data, err := json.Marshal(dash)
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("encoding dashboard: %v", err))
		return r
	}

	var doc struct {
		Panels []jsonPanel `json:"panels"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("decoding dashboard: %v", err))
		return r
	}

	for _, p := range doc.Panels {
		r.Merge(panel(p, known))
	}
	return r
}

func panel(p jsonPanel, known map[string]bool) Result {
	var r Result

	if p.Type == "row" {
		for _, child := range p.Panels {
			r.Merge(panel(child, known))
		}
		return r
	}

	if len(p.Targets) == 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("panel %q has no queries", p.Title))
	}
	for _, t := range p.Targets {
		r.Merge(Expr("panel "+p.Title, t.Expr, known))
	}
	return r
}

// Rules validates every rule expression in a PrometheusRule CR. Alerts must
// carry a severity label.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	var r Result
	for _, g := range cr.Spec.Groups {
		for _, rule := range g.Rules {
			name := rule.Record
			if rule.Alert != "" {
				name = rule.Alert
				if rule.Labels["severity"] == "" {
					r.Errors = append(r.Errors, fmt.Sprintf("alert %s: missing severity label", name))
				}
			}
			r.Merge(Expr(g.Name+"/"+name, rule.Expr, known))
		}
	}
	return r
}
