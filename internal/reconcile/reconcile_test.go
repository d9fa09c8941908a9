package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binbudget/git-metrics/internal/entity"
	"github.com/binbudget/git-metrics/internal/ledger"
	"github.com/binbudget/git-metrics/internal/vcs"
)

func sizeMetric(v float64) entity.Metric {
	return entity.Metric{Header: entity.MetricHeader{Name: "size"}, Value: v}
}

func TestPushFoldsChangeLogIntoSnapshotAndPrunesOnSuccess(t *testing.T) {
	backend := vcs.NewMockBackend()
	backend.AddCommit("c1", "first")
	l := ledger.New(backend)
	ctx := context.Background()

	require.NoError(t, l.Add(ctx, "c1", sizeMetric(100)))

	r := New(backend)
	require.NoError(t, r.Push(ctx, "origin"))

	changes, err := l.ReadChangeLog(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, changes, "a successful push must prune the change log")

	stack, err := l.Effective(ctx, "c1", vcs.RemoteMetricsRefFor("origin"))
	require.NoError(t, err)
	m, ok := stack.Get(entity.MetricHeader{Name: "size"})
	require.True(t, ok)
	assert.Equal(t, 100.0, m.Value)
}

func TestPushLeavesChangeLogIntactOnRejection(t *testing.T) {
	backend := vcs.NewMockBackend()
	backend.AddCommit("c1", "first")
	backend.PushErr = assert.AnError
	l := ledger.New(backend)
	ctx := context.Background()

	require.NoError(t, l.Add(ctx, "c1", sizeMetric(100)))

	r := New(backend)
	err := r.Push(ctx, "origin")
	assert.Error(t, err)

	changes, err := l.ReadChangeLog(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, changes, 1, "a rejected push must preserve pending changes for retry")
}

func TestPullDoesNotDisturbLocalPendingChanges(t *testing.T) {
	remote := vcs.NewMockRemoteStore()
	publisher := vcs.NewMockBackendWithRemote(remote)
	publisher.AddCommit("c1", "first")
	publisherLedger := ledger.New(publisher)
	ctx := context.Background()
	require.NoError(t, publisherLedger.Add(ctx, "c1", sizeMetric(50)))
	require.NoError(t, New(publisher).Push(ctx, "origin"))

	consumer := vcs.NewMockBackendWithRemote(remote)
	consumer.AddCommit("c1", "first")
	consumerLedger := ledger.New(consumer)
	require.NoError(t, consumerLedger.Add(ctx, "c1", sizeMetric(999)))

	require.NoError(t, New(consumer).Pull(ctx, "origin"))

	stack, err := consumerLedger.Effective(ctx, "c1", vcs.RemoteMetricsRefFor("origin"))
	require.NoError(t, err)
	m, ok := stack.Get(entity.MetricHeader{Name: "size"})
	require.True(t, ok)
	assert.Equal(t, 999.0, m.Value, "pending local edit must win over the fetched snapshot")
}

func TestConcurrentPublishSecondPusherMustPullBeforeRetrying(t *testing.T) {
	remote := vcs.NewMockRemoteStore()
	cloneA := vcs.NewMockBackendWithRemote(remote)
	cloneB := vcs.NewMockBackendWithRemote(remote)
	cloneA.AddCommit("c1", "first")
	cloneB.AddCommit("c1", "first")
	ctx := context.Background()

	ledgerA := ledger.New(cloneA)
	ledgerB := ledger.New(cloneB)
	require.NoError(t, ledgerA.Add(ctx, "c1", sizeMetric(10)))
	require.NoError(t, ledgerB.Add(ctx, "c1", sizeMetric(20)))

	require.NoError(t, New(cloneA).Push(ctx, "origin"))

	err := New(cloneB).Push(ctx, "origin")
	assert.ErrorIs(t, err, vcs.ErrTransport)

	require.NoError(t, New(cloneB).Pull(ctx, "origin"))
	require.NoError(t, New(cloneB).Push(ctx, "origin"))
}
