package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binbudget/git-metrics/internal/entity"
	"github.com/binbudget/git-metrics/internal/vcs"
)

func sizeMetric(v float64) entity.Metric {
	return entity.Metric{Header: entity.MetricHeader{Name: "size"}, Value: v}
}

func newTestLedger() (*Ledger, *vcs.MockBackend) {
	backend := vcs.NewMockBackend()
	backend.AddCommit("c1", "first")
	return New(backend), backend
}

func TestLedgerAddRejectsNonFiniteValues(t *testing.T) {
	l, _ := newTestLedger()
	err := l.Add(context.Background(), "c1", entity.Metric{Header: entity.MetricHeader{Name: "size"}, Value: 1.0 / zero()})
	assert.ErrorIs(t, err, ErrNonFiniteValue)
}

func zero() float64 { return 0 }

func TestLedgerEffectiveComposesSnapshotAndChangeLog(t *testing.T) {
	l, backend := newTestLedger()
	ctx := context.Background()
	snapshotRef := vcs.RemoteMetricsRefFor("origin")

	require.NoError(t, l.WriteSnapshot(ctx, "c1", snapshotRef, []entity.Metric{sizeMetric(100)}))
	require.NoError(t, l.Add(ctx, "c1", sizeMetric(120)))

	stack, err := l.Effective(ctx, "c1", snapshotRef)
	require.NoError(t, err)
	m, ok := stack.Get(entity.MetricHeader{Name: "size"})
	require.True(t, ok)
	assert.Equal(t, 120.0, m.Value)
	_ = backend
}

func TestLedgerRemoveByIndexAndOutOfRangeIsNoop(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()
	snapshotRef := vcs.RemoteMetricsRefFor("origin")

	require.NoError(t, l.WriteSnapshot(ctx, "c1", snapshotRef, []entity.Metric{sizeMetric(100)}))

	require.NoError(t, l.Remove(ctx, "c1", snapshotRef, 5))
	changes, err := l.ReadChangeLog(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, changes, "out-of-range index must be a silent no-op")

	require.NoError(t, l.Remove(ctx, "c1", snapshotRef, 0))
	stack, err := l.Effective(ctx, "c1", snapshotRef)
	require.NoError(t, err)
	_, ok := stack.Get(entity.MetricHeader{Name: "size"})
	assert.False(t, ok)
}

func TestLedgerClearChangeLog(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	require.NoError(t, l.Add(ctx, "c1", sizeMetric(1)))
	require.NoError(t, l.ClearChangeLog(ctx, "c1"))

	changes, err := l.ReadChangeLog(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, changes)
}
