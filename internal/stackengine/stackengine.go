// Package stackengine reconstructs the effective metric stack over a
// commit range by replaying each commit's effective metrics in
// chronological order (§4.3).
package stackengine

import (
	"context"
	"fmt"

	"github.com/binbudget/git-metrics/internal/entity"
	"github.com/binbudget/git-metrics/internal/ledger"
	"github.com/binbudget/git-metrics/internal/vcs"
)

// Engine walks commit ranges through a Ledger, replaying effective
// metrics into a running stack.
type Engine struct {
	Ledger *ledger.Ledger
}

// New builds an Engine over the given ledger.
func New(l *ledger.Ledger) *Engine {
	return &Engine{Ledger: l}
}

// Stack reconstructs the effective stack across range, reading snapshots
// from snapshotRef. Commits are listed via the backend's RevList (which
// returns newest-first) and replayed root-first, so that a later
// commit's entries always overwrite an earlier commit's for the same
// header — the "latest observed value" semantics of §4.3. A commit
// silent about a header never deletes it from the running stack; only an
// explicit Remove in that commit's own change log does.
func (e *Engine) Stack(ctx context.Context, backend vcs.Backend, range_ string, snapshotRef vcs.NoteRef) (*entity.MetricStack, error) {
	shas, err := backend.RevList(ctx, range_)
	if err != nil {
		return nil, fmt.Errorf("stackengine: listing revisions in %q: %w", range_, err)
	}
	stack := entity.NewMetricStack()
	for i := len(shas) - 1; i >= 0; i-- {
		commit := shas[i]
		effective, err := e.Ledger.Effective(ctx, commit, snapshotRef)
		if err != nil {
			return nil, fmt.Errorf("stackengine: computing effective metrics at %s: %w", commit, err)
		}
		stack.Extend(effective)
	}
	return stack, nil
}
