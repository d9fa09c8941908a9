package format

import (
	"fmt"
	"strings"

	"github.com/binbudget/git-metrics/internal/rules"
)

func statusLabel(s rules.Status) string {
	switch s {
	case rules.Success:
		return "[SUCCESS]"
	case rules.Failed:
		return "[FAILURE]"
	default:
		return "[SKIP]"
	}
}

func ruleText(r rules.Rule) string {
	switch r.Type {
	case rules.RuleMax:
		return fmt.Sprintf("should be lower than %v", *r.Value)
	case rules.RuleMin:
		return fmt.Sprintf("should be greater than %v", *r.Value)
	case rules.RuleMaxIncrease:
		if r.IsRelative() {
			return fmt.Sprintf("should not increase by more than %.1f%%", *r.Ratio*100)
		}
		return fmt.Sprintf("should not increase by more than %v", *r.Value)
	case rules.RuleMaxDecrease:
		if r.IsRelative() {
			return fmt.Sprintf("should not decrease by more than %.1f%%", *r.Ratio*100)
		}
		return fmt.Sprintf("should not decrease by more than %v", *r.Value)
	default:
		return string(r.Type)
	}
}

// CheckOptions configures Check's output.
type CheckOptions struct {
	ShowSuccessRules bool
	ShowSkippedRules bool
}

// Check renders a rules.CheckList as text: one line per metric with its
// aggregate status, followed by one line per rule that either failed or
// is explicitly requested via opts.
func Check(cfg rules.Config, list rules.CheckList, opts CheckOptions) string {
	var b strings.Builder
	for _, item := range list.List {
		unit := cfg.Formatter(item.Diff.Header.Name)
		fmt.Fprintf(&b, "%s %s %s\n", statusLabel(item.Status.Status()), item.Diff.Header, comparisonText(unit, item.Diff.Comparison, false))
		for _, rc := range item.Checks {
			writeRuleLine(&b, rc, opts)
		}
		for _, name := range item.SubsetOrder {
			subset := item.Subsets[name]
			if len(subset.Checks) == 0 {
				continue
			}
			fmt.Fprintf(&b, "  subset %s:\n", name)
			for _, rc := range subset.Checks {
				writeRuleLine(&b, rc, opts)
			}
		}
	}
	return b.String()
}

func writeRuleLine(b *strings.Builder, rc rules.RuleCheck, opts CheckOptions) {
	switch rc.Status {
	case rules.Success:
		if !opts.ShowSuccessRules {
			return
		}
	case rules.Skip:
		if !opts.ShowSkippedRules {
			return
		}
	}
	fmt.Fprintf(b, "  %s %s ... %s\n", statusLabel(rc.Status), ruleText(rc.Rule), rc.Status)
}
