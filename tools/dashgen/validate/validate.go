// Package validate checks generated dashboards and rules: every PromQL
// expression must parse and every metric it selects must be known.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/keyword-tracker/tools/dashgen/rules"
)

// Result collects validation findings. Errors fail generation; warnings
// are reported but do not.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether no errors were found.
func (r *Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

type panelJSON struct {
	Title   string      `json:"title"`
	Type    string      `json:"type"`
	Panels  []panelJSON `json:"panels"`
	Targets []struct {
		Expr string `json:"expr"`
	} `json:"targets"`
}

// Dashboard validates every panel query in d against known.
func Dashboard(d dashboard.Dashboard, known map[string]bool) Result {
	var res Result

	data, err := json.Marshal(d)
	if err != nil {
		res.errorf("marshaling dashboard: %v", err)
		return res
	}
	var doc struct {
		Panels []panelJSON `json:"panels"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		res.errorf("decoding dashboard: %v", err)
		return res
	}

	titles := make(map[string]bool)
	var walk func(ps []panelJSON)
	walk = func(ps []panelJSON) {
		for _, p := range ps {
			if p.Type == "row" {
				walk(p.Panels)
				continue
			}
			if titles[p.Title] {
				res.warnf("duplicate panel title %q", p.Title)
			}
			titles[p.Title] = true
			if len(p.Targets) == 0 {
				res.warnf("panel %q has no queries", p.Title)
			}
			for _, t := range p.Targets {
				Expr(&res, "panel "+p.Title, t.Expr, known)
			}
		}
	}
	walk(doc.Panels)

	return res
}

// Rules validates every rule expression in cr against known. Recording rule
// names are added to known as they are seen.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	var res Result
	for _, g := range cr.Spec.Groups {
		for _, r := range g.Rules {
			name := r.Record
			if name == "" {
				name = r.Alert
			}
			if name == "" {
				res.errorf("group %s: rule has neither record nor alert", g.Name)
			}
			Expr(&res, "rule "+name, r.Expr, known)
			if r.Record != "" && !known[r.Record] {
				res.warnf("recording rule %s is not listed as a known metric", r.Record)
			}
		}
	}
	return res
}

// Expr parses expr and checks every selected metric name against known.
func Expr(res *Result, where, expr string, known map[string]bool) {
	if strings.TrimSpace(expr) == "" {
		res.errorf("%s: empty expression", where)
		return
	}

	node, err := parser.ParseExpr(expr)
	if err != nil {
		res.errorf("%s: %v", where, err)
		return
	}

	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		vs, ok := n.(*parser.VectorSelector)
		if !ok || vs.Name == "" {
			return nil
		}
		if !known[baseName(vs.Name)] {
			res.errorf("%s: unknown metric %s", where, vs.Name)
		}
		return nil
	})
}

// baseName strips the series suffixes Prometheus adds to histograms.
func baseName(name string) string {
	for _, suffix := range []string{"_bucket", "_sum", "_count"} {
		if base, ok := strings.CutSuffix(name, suffix); ok {
			return base
		}
	}
	return name
}
