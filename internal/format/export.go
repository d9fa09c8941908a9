package format

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/binbudget/git-metrics/internal/rules"
	"github.com/binbudget/git-metrics/internal/service"
)

type exportMetric struct {
	Name  string            `json:"name"`
	Value float64           `json:"value"`
	Tags  map[string]string `json:"tags,omitempty"`
}

type exportCommit struct {
	SHA     string         `json:"sha"`
	Summary string         `json:"summary"`
	Metrics []exportMetric `json:"metrics"`
}

type exportRule struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Text   string `json:"text"`
}

type exportMetricCheck struct {
	Name   string       `json:"name"`
	Status string       `json:"status"`
	Rules  []exportRule `json:"rules"`
}

type exportReport struct {
	Status string              `json:"status"`
	Checks []exportMetricCheck `json:"checks"`
	Log    []exportCommit      `json:"log"`
}

// ExportJSON renders a combined check+log report as indented JSON.
func ExportJSON(report service.ExportReport) (string, error) {
	out := exportReport{Status: report.Check.Status.Status().String()}
	for _, item := range report.Check.List {
		mc := exportMetricCheck{Name: item.Diff.Header.Name, Status: item.Status.Status().String()}
		for _, rc := range item.Checks {
			mc.Rules = append(mc.Rules, exportRule{Type: string(rc.Rule.Type), Status: rc.Status.String(), Text: ruleText(rc.Rule)})
		}
		out.Checks = append(out.Checks, mc)
	}
	for _, entry := range report.Log {
		c := exportCommit{SHA: entry.Commit.SHA, Summary: entry.Commit.Summary}
		for _, m := range entry.Metrics {
			c.Metrics = append(c.Metrics, exportMetric{Name: m.Header.Name, Value: m.Value, Tags: m.Header.Tags.ToMap()})
		}
		out.Log = append(out.Log, c)
	}
	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format: encoding export report: %w", err)
	}
	return string(payload), nil
}

// ExportMarkdown renders a combined check+log report as a Markdown
// document, for CI job summaries.
func ExportMarkdown(cfg rules.Config, report service.ExportReport) string {
	var b strings.Builder
	b.WriteString("# Metrics report\n\n")
	fmt.Fprintf(&b, "Overall status: **%s**\n\n", report.Check.Status.Status())
	b.WriteString("## Checks\n\n")
	b.WriteString(Check(cfg, report.Check, CheckOptions{ShowSuccessRules: true, ShowSkippedRules: true}))
	b.WriteString("\n## Commits\n\n")
	b.WriteString(Log(cfg, report.Log))
	return b.String()
}
