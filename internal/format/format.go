// Package format renders the data model produced by the stack, diff and
// rule engines as human-readable text, Markdown or JSON for the CLI.
package format

import (
	"fmt"
	"strings"

	"github.com/binbudget/git-metrics/internal/diffengine"
	"github.com/binbudget/git-metrics/internal/entity"
	"github.com/binbudget/git-metrics/internal/rules"
	"github.com/binbudget/git-metrics/internal/service"
)

// Metric renders one metric as `name{tags} value`, using unit to format
// the numeric value.
func Metric(unit rules.Unit, m entity.Metric) string {
	return fmt.Sprintf("%s %s", m.Header, unit.Format(m.Value))
}

const summaryWidth = 72

// Summary truncates a commit's first-line message to a terminal-friendly
// width, appending an ellipsis when truncated.
func Summary(summary string) string {
	if len(summary) <= summaryWidth {
		return summary
	}
	return summary[:summaryWidth-1] + "…"
}

// Log renders the output of `git-metrics log`: short SHA, summary, then
// each metric indented.
func Log(cfg rules.Config, entries []service.CommitMetrics) string {
	var b strings.Builder
	for _, entry := range entries {
		short := entry.Commit.SHA
		if len(short) > 7 {
			short = short[:7]
		}
		fmt.Fprintf(&b, "%s %s\n", short, Summary(entry.Commit.Summary))
		for _, m := range entry.Metrics {
			fmt.Fprintf(&b, "  %s\n", Metric(cfg.Formatter(m.Header.Name), m))
		}
	}
	return b.String()
}

// comparisonText renders a Comparison; showPrevious additionally prints
// the previous value for Matching comparisons (`diff --show-previous`).
func comparisonText(unit rules.Unit, c diffengine.Comparison, showPrevious bool) string {
	switch c.Kind {
	case diffengine.Created:
		return fmt.Sprintf("created %s", unit.Format(c.Current))
	case diffengine.Missing:
		return fmt.Sprintf("missing (was %s)", unit.Format(c.Previous))
	default:
		delta := deltaText(unit, c.Delta)
		if showPrevious {
			return fmt.Sprintf("%s -> %s (%s)", unit.Format(c.Previous), unit.Format(c.Current), delta)
		}
		return fmt.Sprintf("%s (%s)", unit.Format(c.Current), delta)
	}
}

func deltaText(unit rules.Unit, d diffengine.Delta) string {
	sign := ""
	if d.Absolute >= 0 {
		sign = "+"
	}
	abs := fmt.Sprintf("%s%s", sign, unit.Format(d.Absolute))
	if d.Relative == nil {
		return abs
	}
	relSign := ""
	if *d.Relative >= 0 {
		relSign = "+"
	}
	return fmt.Sprintf("%s, %s%.1f%%", abs, relSign, *d.Relative*100)
}

// DiffOptions configures Diff's output.
type DiffOptions struct {
	ShowPrevious bool
	Format       string // "text" or "markdown"
}

// Diff renders a diff list as text or Markdown.
func Diff(cfg rules.Config, diffs diffengine.MetricDiffList, opts DiffOptions) string {
	if opts.Format == "markdown" {
		return diffMarkdown(cfg, diffs, opts)
	}
	return diffText(cfg, diffs, opts)
}

func diffText(cfg rules.Config, diffs diffengine.MetricDiffList, opts DiffOptions) string {
	var b strings.Builder
	for _, d := range diffs {
		unit := cfg.Formatter(d.Header.Name)
		fmt.Fprintf(&b, "%s %s\n", d.Header, comparisonText(unit, d.Comparison, opts.ShowPrevious))
	}
	return b.String()
}

func diffMarkdown(cfg rules.Config, diffs diffengine.MetricDiffList, opts DiffOptions) string {
	var b strings.Builder
	b.WriteString("| metric | value |\n|---|---|\n")
	for _, d := range diffs {
		unit := cfg.Formatter(d.Header.Name)
		fmt.Fprintf(&b, "| %s | %s |\n", d.Header, comparisonText(unit, d.Comparison, opts.ShowPrevious))
	}
	return b.String()
}
