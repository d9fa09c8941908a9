package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binbudget/git-metrics/internal/diffengine"
	"github.com/binbudget/git-metrics/internal/entity"
	"github.com/binbudget/git-metrics/internal/rules"
	"github.com/binbudget/git-metrics/internal/vcs"
)

func tagged(name string, pairs ...[2]string) entity.MetricHeader {
	return entity.MetricHeader{Name: name, Tags: entity.NewTags(pairs...)}
}

// TestScenarioAddAndShow mirrors the "add + show" walkthrough.
func TestScenarioAddAndShow(t *testing.T) {
	backend := vcs.NewMockBackend()
	backend.AddCommit("c1", "first")
	svc := New(backend)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, entity.Metric{
		Header: tagged("my-metric", [2]string{"foo", "bar"}),
		Value:  12.34,
	}, AddOptions{}))

	stack, err := svc.Show(ctx, ShowOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, stack.Len())

	m, _ := stack.At(0)
	assert.Equal(t, "my-metric", m.Header.Name)
	assert.Equal(t, 12.34, m.Value)
	v, ok := m.Header.Tags.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, "bar", v)
}

// TestScenarioRemoveByIndex mirrors "remove by index": after two adds,
// removing index 0 leaves only the second metric.
func TestScenarioRemoveByIndex(t *testing.T) {
	backend := vcs.NewMockBackend()
	backend.AddCommit("c1", "first")
	svc := New(backend)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, entity.Metric{Header: entity.MetricHeader{Name: "a"}, Value: 1.0}, AddOptions{}))
	require.NoError(t, svc.Add(ctx, entity.Metric{Header: entity.MetricHeader{Name: "b"}, Value: 2.0}, AddOptions{}))

	require.NoError(t, svc.Remove(ctx, 0, RemoveOptions{}))

	stack, err := svc.Show(ctx, ShowOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, stack.Len())
	m, _ := stack.At(0)
	assert.Equal(t, "b", m.Header.Name)
	assert.Equal(t, 2.0, m.Value)
}

// TestScenarioDiffSingleCommit mirrors "diff single commit": C1 sets
// x=1, C2 sets x=2; diffing HEAD at C2 reports one Matching comparison.
func TestScenarioDiffSingleCommit(t *testing.T) {
	backend := vcs.NewMockBackend()
	backend.AddCommit("c1", "sets x=1")
	backend.AddCommit("c2", "sets x=2")
	svc := New(backend)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, entity.Metric{Header: entity.MetricHeader{Name: "x"}, Value: 1}, AddOptions{Target: "c1"}))
	require.NoError(t, svc.Add(ctx, entity.Metric{Header: entity.MetricHeader{Name: "x"}, Value: 2}, AddOptions{Target: "c2"}))

	diffs, err := svc.Diff(ctx, DiffOptions{Range: "c2"})
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, diffengine.Matching, diffs[0].Comparison.Kind)
	assert.Equal(t, 1.0, diffs[0].Comparison.Previous)
	assert.Equal(t, 2.0, diffs[0].Comparison.Current)
	assert.Equal(t, 1.0, diffs[0].Comparison.Delta.Absolute)
	require.NotNil(t, diffs[0].Comparison.Delta.Relative)
	assert.Equal(t, 1.0, *diffs[0].Comparison.Delta.Relative)
}

// TestScenarioCheckBudgetFailure mirrors "check budget failure": a max
// rule of 100 fails against a recorded value of 150, and the aggregate
// status is Failed.
func TestScenarioCheckBudgetFailure(t *testing.T) {
	backend := vcs.NewMockBackend()
	backend.AddCommit("c0", "initial")
	backend.AddCommit("c1", "sets size=150")
	svc := New(backend)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, entity.Metric{Header: entity.MetricHeader{Name: "size"}, Value: 150}, AddOptions{Target: "c1"}))

	cfg := rules.Config{Metrics: map[string]rules.MetricConfig{
		"size": {Rules: []rules.Rule{rules.MaxRule(100)}},
	}}
	diffs, err := svc.Diff(ctx, DiffOptions{Range: "c1"})
	require.NoError(t, err)
	result := rules.Evaluate(cfg, diffs)
	assert.Equal(t, rules.Failed, result.Status.Status())
}

// TestScenarioConcurrentPublish mirrors "concurrent publish": A pushes
// m=1, B's push of n=1 is rejected, and after pulling B's own edit
// survives and a retried push succeeds.
func TestScenarioConcurrentPublish(t *testing.T) {
	remote := vcs.NewMockRemoteStore()
	cloneA := vcs.NewMockBackendWithRemote(remote)
	cloneB := vcs.NewMockBackendWithRemote(remote)
	cloneA.AddCommit("c1", "first")
	cloneB.AddCommit("c1", "first")
	ctx := context.Background()

	svcA := New(cloneA)
	svcB := New(cloneB)

	require.NoError(t, svcA.Add(ctx, entity.Metric{Header: entity.MetricHeader{Name: "m"}, Value: 1}, AddOptions{}))
	require.NoError(t, svcA.Push(ctx, "origin"))

	require.NoError(t, svcB.Add(ctx, entity.Metric{Header: entity.MetricHeader{Name: "n"}, Value: 1}, AddOptions{}))
	assert.Error(t, svcB.Push(ctx, "origin"))

	stack, err := svcB.Show(ctx, ShowOptions{})
	require.NoError(t, err)
	_, ok := stack.Get(entity.MetricHeader{Name: "n"})
	assert.True(t, ok, "B's pending edit must survive the rejected push")

	require.NoError(t, svcB.Pull(ctx, "origin"))
	require.NoError(t, svcB.Push(ctx, "origin"))

	final, err := svcB.Show(ctx, ShowOptions{})
	require.NoError(t, err)
	_, hasM := final.Get(entity.MetricHeader{Name: "m"})
	_, hasN := final.Get(entity.MetricHeader{Name: "n"})
	assert.True(t, hasM)
	assert.True(t, hasN)
}

func TestExportCombinesCheckAndLog(t *testing.T) {
	backend := vcs.NewMockBackend()
	backend.AddCommit("c0", "initial")
	backend.AddCommit("c1", "adds size")
	svc := New(backend)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, entity.Metric{Header: entity.MetricHeader{Name: "size"}, Value: 10}, AddOptions{Target: "c1"}))

	report, err := svc.Export(ctx, ExportOptions{Range: "c1"})
	require.NoError(t, err)
	assert.Len(t, report.Log, 2)
	assert.Equal(t, "c1", report.Log[0].Commit.SHA)
}
