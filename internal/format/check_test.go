package format

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/binbudget/git-metrics/internal/diffengine"
	"github.com/binbudget/git-metrics/internal/entity"
	"github.com/binbudget/git-metrics/internal/rules"
)

// TestCheckReportsSizeFailureAndRuleWording pins the two fragments the
// scenario walkthroughs rely on: a failed max rule on a size metric
// marks that metric's line [FAILURE] and explains the bound it broke.
func TestCheckReportsSizeFailureAndRuleWording(t *testing.T) {
	cfg := rules.Config{Metrics: map[string]rules.MetricConfig{
		"size": {Rules: []rules.Rule{rules.MaxRule(100)}},
	}}
	diffs := diffengine.MetricDiffList{
		{Header: entity.MetricHeader{Name: "size"}, Comparison: diffengine.NewCreated(150)},
	}
	list := rules.Evaluate(cfg, diffs)
	assert.Equal(t, rules.Failed, list.Status.Status())

	out := Check(cfg, list, CheckOptions{})
	assert.Contains(t, out, "[FAILURE] size{}")
	assert.Contains(t, out, "should be lower than 100")
}

func TestCheckHidesSuccessAndSkipRulesByDefault(t *testing.T) {
	cfg := rules.Config{Metrics: map[string]rules.MetricConfig{
		"size": {Rules: []rules.Rule{rules.MaxRule(1000)}},
	}}
	diffs := diffengine.MetricDiffList{
		{Header: entity.MetricHeader{Name: "size"}, Comparison: diffengine.NewCreated(1)},
	}
	list := rules.Evaluate(cfg, diffs)

	out := Check(cfg, list, CheckOptions{})
	assert.NotContains(t, out, "[SUCCESS] should be lower than 1000")

	out = Check(cfg, list, CheckOptions{ShowSuccessRules: true})
	assert.Contains(t, out, "[SUCCESS] should be lower than 1000")
}
