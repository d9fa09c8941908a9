package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/binbudget/git-metrics/internal/entity"
	"github.com/binbudget/git-metrics/internal/vcs"
)

// ErrNonFiniteValue is returned by Add when the supplied metric value is
// NaN or +/-Inf. The source implementation this module is modeled on
// left this as an open question; this ledger takes the documented
// improvement of rejecting such values at the boundary rather than
// letting them silently enter the stack (see DESIGN.md).
var ErrNonFiniteValue = errors.New("ledger: metric value must be finite")

// Ledger reads and writes the snapshot and change-log notes of a single
// backend and composes them into effective metric stacks.
type Ledger struct {
	Backend vcs.Backend
}

// New wraps a backend in a Ledger.
func New(backend vcs.Backend) *Ledger {
	return &Ledger{Backend: backend}
}

// ReadSnapshot reads the snapshot note for commit at the given ref
// (either the canonical `refs/notes/metrics` or a per-remote mirror). An
// absent note yields a nil slice and no error.
func (l *Ledger) ReadSnapshot(ctx context.Context, commit string, ref vcs.NoteRef) ([]entity.Metric, error) {
	var payload snapshotPayload
	found, err := l.Backend.ReadNote(ctx, commit, ref, &payload)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot at %s: %w", commit, err)
	}
	if !found {
		return nil, nil
	}
	out := make([]entity.Metric, 0, len(payload.Metrics))
	for _, p := range payload.Metrics {
		out = append(out, p.toMetric())
	}
	return out, nil
}

// ReadChangeLog reads the local change-log note for commit. An absent
// note yields a nil slice and no error.
func (l *Ledger) ReadChangeLog(ctx context.Context, commit string) ([]entity.MetricChange, error) {
	var payload changeLogPayload
	found, err := l.Backend.ReadNote(ctx, commit, vcs.ChangesRef, &payload)
	if err != nil {
		return nil, fmt.Errorf("reading change log at %s: %w", commit, err)
	}
	if !found {
		return nil, nil
	}
	out := make([]entity.MetricChange, 0, len(payload.Changes))
	for _, p := range payload.Changes {
		c, err := p.toChange()
		if err != nil {
			return nil, fmt.Errorf("decoding change log at %s: %w", commit, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (l *Ledger) writeChangeLog(ctx context.Context, commit string, changes []entity.MetricChange) error {
	payload := changeLogPayload{Changes: make([]changePayload, 0, len(changes))}
	for _, c := range changes {
		payload.Changes = append(payload.Changes, toChangePayload(c))
	}
	if err := l.Backend.WriteNote(ctx, commit, vcs.ChangesRef, payload); err != nil {
		return fmt.Errorf("writing change log at %s: %w", commit, err)
	}
	return nil
}

// Effective computes the effective MetricStack at commit: the snapshot
// at snapshotRef, replayed against the local change log in order (§4.2).
func (l *Ledger) Effective(ctx context.Context, commit string, snapshotRef vcs.NoteRef) (*entity.MetricStack, error) {
	snapshot, err := l.ReadSnapshot(ctx, commit, snapshotRef)
	if err != nil {
		return nil, err
	}
	changes, err := l.ReadChangeLog(ctx, commit)
	if err != nil {
		return nil, err
	}
	stack := entity.NewMetricStack()
	for _, m := range snapshot {
		stack.Put(m)
	}
	for _, c := range changes {
		stack.Apply(c)
	}
	return stack, nil
}

// Add appends an Add change for metric to commit's change log. Non-finite
// values are rejected rather than silently stored.
func (l *Ledger) Add(ctx context.Context, commit string, metric entity.Metric) error {
	if !metric.IsFinite() {
		return fmt.Errorf("%w: %v", ErrNonFiniteValue, metric.Value)
	}
	changes, err := l.ReadChangeLog(ctx, commit)
	if err != nil {
		return err
	}
	changes = append(changes, entity.Add(metric))
	return l.writeChangeLog(ctx, commit, changes)
}

// Remove reads the effective stack at commit, and, if index is in range,
// appends a Remove change for the metric currently at that position. An
// out-of-range index is a silent no-op per §4.2.
func (l *Ledger) Remove(ctx context.Context, commit string, snapshotRef vcs.NoteRef, index int) error {
	stack, err := l.Effective(ctx, commit, snapshotRef)
	if err != nil {
		return err
	}
	metric, ok := stack.At(index)
	if !ok {
		return nil
	}
	changes, err := l.ReadChangeLog(ctx, commit)
	if err != nil {
		return err
	}
	changes = append(changes, entity.Remove(metric))
	return l.writeChangeLog(ctx, commit, changes)
}

// WriteSnapshot overwrites the snapshot note at ref for commit.
func (l *Ledger) WriteSnapshot(ctx context.Context, commit string, ref vcs.NoteRef, metrics []entity.Metric) error {
	payload := snapshotPayload{Metrics: make([]metricPayload, 0, len(metrics))}
	for _, m := range metrics {
		payload.Metrics = append(payload.Metrics, toPayload(m))
	}
	if err := l.Backend.WriteNote(ctx, commit, ref, payload); err != nil {
		return fmt.Errorf("writing snapshot at %s: %w", commit, err)
	}
	return nil
}

// ClearChangeLog removes the change-log note for commit, ignoring
// absence.
func (l *Ledger) ClearChangeLog(ctx context.Context, commit string) error {
	if err := l.Backend.RemoveNote(ctx, commit, vcs.ChangesRef); err != nil {
		return fmt.Errorf("clearing change log at %s: %w", commit, err)
	}
	return nil
}
