package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/binbudget/git-metrics/internal/diffengine"
	"github.com/binbudget/git-metrics/internal/entity"
)

func TestCheckMax(t *testing.T) {
	rule := MaxRule(10)

	assert.Equal(t, Failed, check(rule, diffengine.NewCreated(20)))
	assert.Equal(t, Success, check(rule, diffengine.NewCreated(0)))
	assert.Equal(t, Failed, check(rule, diffengine.NewMatching(0, 20)))
	assert.Equal(t, Success, check(rule, diffengine.NewMatching(0, 5)))
	assert.Equal(t, Skip, check(rule, diffengine.NewMissing(0)))
}

func TestCheckMin(t *testing.T) {
	rule := MinRule(10)

	assert.Equal(t, Success, check(rule, diffengine.NewCreated(20)))
	assert.Equal(t, Failed, check(rule, diffengine.NewCreated(0)))
	assert.Equal(t, Success, check(rule, diffengine.NewMatching(0, 20)))
	assert.Equal(t, Failed, check(rule, diffengine.NewMatching(0, 5)))
	assert.Equal(t, Skip, check(rule, diffengine.NewMissing(0)))
}

func TestCheckMaxRelativeIncrease(t *testing.T) {
	rule := MaxRelativeIncrease(0.1)

	assert.Equal(t, Skip, check(rule, diffengine.NewCreated(0)))
	assert.Equal(t, Skip, check(rule, diffengine.NewMatching(0, 20)), "relative is undefined when previous is zero")
	assert.Equal(t, Failed, check(rule, diffengine.NewMatching(10, 20)))
	assert.Equal(t, Success, check(rule, diffengine.NewMatching(10, 10.5)))
	assert.Equal(t, Skip, check(rule, diffengine.NewMissing(10)))
}

func TestCheckMaxRelativeDecrease(t *testing.T) {
	rule := MaxRelativeDecrease(0.1)

	assert.Equal(t, Skip, check(rule, diffengine.NewCreated(0)))
	assert.Equal(t, Skip, check(rule, diffengine.NewMatching(0, 20)))
	assert.Equal(t, Failed, check(rule, diffengine.NewMatching(10, 0)))
	assert.Equal(t, Success, check(rule, diffengine.NewMatching(10, 9.5)))
	assert.Equal(t, Skip, check(rule, diffengine.NewMissing(10)))
}

// TestCheckAbsoluteChangeRulesTreatNonMatchingAsSuccess covers the
// asymmetry that is easy to get backwards: unlike the relative change
// rules, the absolute MaxIncrease/MaxDecrease rules have nothing to bound
// when there's no paired before/after value, so a Created or Missing
// comparison always passes rather than being skipped.
func TestCheckAbsoluteChangeRulesTreatNonMatchingAsSuccess(t *testing.T) {
	increase := MaxAbsoluteIncrease(5)
	decrease := MaxAbsoluteDecrease(5)

	assert.Equal(t, Success, check(increase, diffengine.NewCreated(1000)))
	assert.Equal(t, Success, check(increase, diffengine.NewMissing(1000)))
	assert.Equal(t, Success, check(decrease, diffengine.NewCreated(1000)))
	assert.Equal(t, Success, check(decrease, diffengine.NewMissing(1000)))

	assert.Equal(t, Failed, check(increase, diffengine.NewMatching(10, 20)))
	assert.Equal(t, Success, check(increase, diffengine.NewMatching(10, 12)))
	assert.Equal(t, Failed, check(decrease, diffengine.NewMatching(10, 2)))
	assert.Equal(t, Success, check(decrease, diffengine.NewMatching(10, 8)))
}

func TestStatusCountAggregation(t *testing.T) {
	var c StatusCount
	c.Push(Success)
	c.Push(Skip)
	assert.Equal(t, Success, c.Status())

	c.Push(Failed)
	assert.Equal(t, Failed, c.Status())
	assert.True(t, c.IsFailed())
}

func TestEvaluateNeutralWhenNoConfigForMetric(t *testing.T) {
	diffs := diffengine.MetricDiffList{
		{Header: header("untracked"), Comparison: diffengine.NewCreated(1)},
	}
	result := Evaluate(Config{}, diffs)

	assert.Equal(t, Skip, result.Status.Status())
	if assert.Len(t, result.List, 1) {
		assert.Empty(t, result.List[0].Checks)
	}
}

func TestEvaluateFailsWhenAnyRuleFails(t *testing.T) {
	cfg := Config{Metrics: map[string]MetricConfig{
		"size": {Rules: []Rule{MaxRule(100)}},
	}}
	diffs := diffengine.MetricDiffList{
		{Header: header("size"), Comparison: diffengine.NewCreated(150)},
	}

	result := Evaluate(cfg, diffs)
	assert.Equal(t, Failed, result.Status.Status())
}

func TestEvaluateSubsetsOnlyApplyWhenTagsMatch(t *testing.T) {
	cfg := Config{Metrics: map[string]MetricConfig{
		"size": {
			Subsets: map[string]SubsetConfig{
				"wasm": {Matching: map[string]string{"target": "wasm"}, Rules: []Rule{MaxRule(10)}},
			},
		},
	}}

	matchingHeader := header("size")
	matchingHeader.Tags.Set("target", "wasm")
	diffs := diffengine.MetricDiffList{
		{Header: matchingHeader, Comparison: diffengine.NewCreated(20)},
		{Header: header("size"), Comparison: diffengine.NewCreated(20)},
	}

	result := Evaluate(cfg, diffs)
	assert.Equal(t, Failed, result.List[0].Subsets["wasm"].Status.Status())
	assert.Equal(t, Skip, result.List[1].Subsets["wasm"].Status.Status(), "non-matching header leaves the subset untouched")
}

func header(name string) entity.MetricHeader { return entity.MetricHeader{Name: name} }
