package rules

import (
	"sort"

	"github.com/binbudget/git-metrics/internal/diffengine"
)

// Status is the three-valued verdict of one rule evaluation.
type Status int

const (
	Success Status = iota
	Skip
	Failed
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "skip"
	}
}

// StatusCount tallies a batch of Status values.
type StatusCount struct {
	Success int
	Neutral int
	Failed  int
}

// Push tallies one status.
func (c *StatusCount) Push(s Status) {
	switch s {
	case Success:
		c.Success++
	case Failed:
		c.Failed++
	default:
		c.Neutral++
	}
}

// Extend folds other's tallies into c.
func (c *StatusCount) Extend(other StatusCount) {
	c.Success += other.Success
	c.Neutral += other.Neutral
	c.Failed += other.Failed
}

// IsFailed reports whether any failure was tallied.
func (c StatusCount) IsFailed() bool { return c.Failed > 0 }

// Status aggregates the tally into a single verdict: any failure wins,
// otherwise any success, otherwise skip.
func (c StatusCount) Status() Status {
	switch {
	case c.Failed > 0:
		return Failed
	case c.Success > 0:
		return Success
	default:
		return Skip
	}
}

// check evaluates a single rule against a comparison, per the table in
// §4.5.
func check(rule Rule, comparison diffengine.Comparison) Status {
	switch rule.Type {
	case RuleMax:
		return checkBound(comparison, *rule.Value, func(current, bound float64) bool { return current > bound })
	case RuleMin:
		return checkBound(comparison, *rule.Value, func(current, bound float64) bool { return current < bound })
	case RuleMaxIncrease:
		return checkChange(comparison, rule, func(delta, bound float64) bool { return delta > bound })
	case RuleMaxDecrease:
		return checkChange(comparison, rule, func(delta, bound float64) bool { return delta < -bound })
	default:
		return Skip
	}
}

func checkBound(comparison diffengine.Comparison, bound float64, fails func(current, bound float64) bool) Status {
	switch comparison.Kind {
	case diffengine.Missing:
		return Skip
	case diffengine.Created, diffengine.Matching:
		if fails(comparison.Current, bound) {
			return Failed
		}
		return Success
	default:
		return Skip
	}
}

// checkChange handles both MaxIncrease and MaxDecrease: the absolute
// forms of both treat every non-Matching comparison as Success, since an
// absent "before" or "after" value carries no delta to bound; the
// relative forms of both treat non-Matching (and a Matching comparison
// whose relative delta is undefined, i.e. a zero previous value) as
// Skip. This matches the original implementation's rule table exactly.
func checkChange(comparison diffengine.Comparison, rule Rule, failsRelative func(delta, ratio float64) bool) Status {
	if comparison.Kind != diffengine.Matching {
		if !rule.IsRelative() {
			return Success
		}
		return Skip
	}
	if rule.IsRelative() {
		if comparison.Delta.Relative == nil {
			return Skip
		}
		if failsRelative(*comparison.Delta.Relative, *rule.Ratio) {
			return Failed
		}
		return Success
	}
	absoluteFails := comparison.Delta.Absolute > *rule.Value
	if rule.Type == RuleMaxDecrease {
		absoluteFails = comparison.Delta.Absolute < *rule.Value
	}
	if absoluteFails {
		return Failed
	}
	return Success
}

// RuleCheck is one rule's verdict.
type RuleCheck struct {
	Rule   Rule
	Status Status
}

// SubsetCheck is the verdict of one named tag-scoped subset against one
// metric diff.
type SubsetCheck struct {
	Matching map[string]string
	Checks   []RuleCheck
	Status   StatusCount
}

func evaluateSubset(config SubsetConfig, diff diffengine.MetricDiff) SubsetCheck {
	out := SubsetCheck{Matching: config.Matching, Checks: make([]RuleCheck, 0, len(config.Rules))}
	if !config.Matches(diff.Header) {
		return out
	}
	for _, rule := range config.Rules {
		status := check(rule, diff.Comparison)
		out.Status.Push(status)
		out.Checks = append(out.Checks, RuleCheck{Rule: rule, Status: status})
	}
	return out
}

// MetricCheck is the verdict for one metric diff: its own diff, global
// rule checks, and per-subset checks.
type MetricCheck struct {
	Diff    diffengine.MetricDiff
	Checks  []RuleCheck
	Subsets map[string]SubsetCheck
	// SubsetOrder preserves the config's subset ordering for display,
	// since Go maps are unordered.
	SubsetOrder []string
	Status      StatusCount
}

func neutralCheck(diff diffengine.MetricDiff) MetricCheck {
	return MetricCheck{Diff: diff}
}

// sortedSubsetNames returns a metric config's subset names in a fixed,
// deterministic order. The TOML table `[metrics.<name>.subsets.<sname>]`
// decodes into a Go map, which carries no declared order; go-toml/v2 has
// no ordered-table decode mode in its stable API (see DESIGN.md), so
// sorted-by-name is the closest deterministic substitute for "config
// order" and is what this engine uses for display and for summing
// subset statuses (sum order does not affect StatusCount, which is
// commutative).
func sortedSubsetNames(config MetricConfig) []string {
	names := make([]string, 0, len(config.Subsets))
	for name := range config.Subsets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func evaluateMetric(config MetricConfig, diff diffengine.MetricDiff) MetricCheck {
	out := MetricCheck{
		Diff:    diff,
		Checks:  make([]RuleCheck, 0, len(config.Rules)),
		Subsets: make(map[string]SubsetCheck, len(config.Subsets)),
	}
	for _, rule := range config.Rules {
		status := check(rule, diff.Comparison)
		out.Status.Push(status)
		out.Checks = append(out.Checks, RuleCheck{Rule: rule, Status: status})
	}
	for _, name := range sortedSubsetNames(config) {
		res := evaluateSubset(config.Subsets[name], diff)
		out.Status.Extend(res.Status)
		out.Subsets[name] = res
		out.SubsetOrder = append(out.SubsetOrder, name)
	}
	return out
}

// CheckList is the full verdict tree for a diff evaluated against a
// Config.
type CheckList struct {
	Status StatusCount
	List   []MetricCheck
}

// Evaluate runs §4.5's algorithm: each diff entry whose header name has
// no MetricConfig becomes a neutral check; otherwise global rules and
// ordered subsets are evaluated and folded into the aggregate status.
func Evaluate(config Config, diffs diffengine.MetricDiffList) CheckList {
	out := CheckList{List: make([]MetricCheck, 0, len(diffs))}
	for _, diff := range diffs {
		metricConfig, ok := config.Metrics[diff.Header.Name]
		if !ok {
			out.List = append(out.List, neutralCheck(diff))
			continue
		}
		checkResult := evaluateMetric(metricConfig, diff)
		out.Status.Extend(checkResult.Status)
		out.List = append(out.List, checkResult)
	}
	return out
}
