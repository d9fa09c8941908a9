package stackengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binbudget/git-metrics/internal/entity"
	"github.com/binbudget/git-metrics/internal/ledger"
	"github.com/binbudget/git-metrics/internal/vcs"
)

func metric(name string, v float64) entity.Metric {
	return entity.Metric{Header: entity.MetricHeader{Name: name}, Value: v}
}

func TestStackReplaysRootFirstKeepingLatestObservedValue(t *testing.T) {
	backend := vcs.NewMockBackend()
	backend.AddCommit("c1", "first")
	backend.AddCommit("c2", "second")
	backend.AddCommit("c3", "third")

	l := ledger.New(backend)
	ctx := context.Background()
	snapshotRef := vcs.RemoteMetricsRefFor("origin")

	require.NoError(t, l.Add(ctx, "c1", metric("size", 100)))
	require.NoError(t, l.Add(ctx, "c2", metric("count", 1)))
	// c3 says nothing about "size" — its earlier value must survive.

	engine := New(l)
	stack, err := engine.Stack(ctx, backend, "c3", snapshotRef)
	require.NoError(t, err)

	size, ok := stack.Get(entity.MetricHeader{Name: "size"})
	require.True(t, ok)
	assert.Equal(t, 100.0, size.Value)

	count, ok := stack.Get(entity.MetricHeader{Name: "count"})
	require.True(t, ok)
	assert.Equal(t, 1.0, count.Value)
}

func TestStackLaterCommitOverwritesEarlierValue(t *testing.T) {
	backend := vcs.NewMockBackend()
	backend.AddCommit("c1", "first")
	backend.AddCommit("c2", "second")

	l := ledger.New(backend)
	ctx := context.Background()
	snapshotRef := vcs.RemoteMetricsRefFor("origin")

	require.NoError(t, l.Add(ctx, "c1", metric("size", 100)))
	require.NoError(t, l.Add(ctx, "c2", metric("size", 200)))

	engine := New(l)
	stack, err := engine.Stack(ctx, backend, "c2", snapshotRef)
	require.NoError(t, err)

	size, ok := stack.Get(entity.MetricHeader{Name: "size"})
	require.True(t, ok)
	assert.Equal(t, 200.0, size.Value)
}
