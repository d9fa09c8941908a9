// Package reconcile implements the push/pull reconciler (§4.6): folding
// the local change log into a new remote snapshot, pushing it, and
// pruning the change log only once the push has actually succeeded.
package reconcile

import (
	"context"
	"fmt"

	"github.com/binbudget/git-metrics/internal/gitmetricslog"
	"github.com/binbudget/git-metrics/internal/ledger"
	"github.com/binbudget/git-metrics/internal/vcs"
)

// Reconciler drives Push and Pull against a single backend's ledger.
type Reconciler struct {
	Backend vcs.Backend
	Ledger  *ledger.Ledger
}

// New builds a Reconciler over backend.
func New(backend vcs.Backend) *Reconciler {
	return &Reconciler{Backend: backend, Ledger: ledger.New(backend)}
}

// Push folds every commit's pending change log into the per-remote
// snapshot, pushes the resulting ref to remote's canonical metrics ref,
// and — only on success — prunes every note under the change-log ref.
// On rejection the change log is left intact so the caller can Pull and
// retry.
func (r *Reconciler) Push(ctx context.Context, remote string) error {
	localRef := vcs.RemoteMetricsRefFor(remote)

	changed, err := r.Backend.ListNotes(ctx, vcs.ChangesRef)
	if err != nil {
		return fmt.Errorf("reconcile: listing pending changes: %w", err)
	}

	for _, note := range changed {
		changes, err := r.Ledger.ReadChangeLog(ctx, note.CommitID)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			continue
		}
		stack, err := r.Ledger.Effective(ctx, note.CommitID, localRef)
		if err != nil {
			return err
		}
		if err := r.Ledger.WriteSnapshot(ctx, note.CommitID, localRef, stack.Metrics()); err != nil {
			return err
		}
	}

	if err := r.Backend.Push(ctx, remote, localRef); err != nil {
		gitmetricslog.Logger.Warn().Err(err).Str("remote", remote).Msg("push rejected, change log preserved")
		return fmt.Errorf("reconcile: pushing to %s: %w", remote, err)
	}

	// Pruning semantics: the original implementation this module is
	// modeled on removes every change-log note after a successful push,
	// not only the ones just reconciled above. Preserved here per
	// SPEC_FULL.md's explicit decision on this design note.
	pending, err := r.Backend.ListNotes(ctx, vcs.ChangesRef)
	if err != nil {
		return fmt.Errorf("reconcile: listing change log after push: %w", err)
	}
	for _, note := range pending {
		if err := r.Ledger.ClearChangeLog(ctx, note.CommitID); err != nil {
			return err
		}
	}
	return nil
}

// Pull force-fetches remote's canonical metrics ref into the per-remote
// mirror. The local change log is untouched: effective metrics after a
// pull are (new remote snapshot) composed with (still-pending local
// changes), per P9.
func (r *Reconciler) Pull(ctx context.Context, remote string) error {
	localRef := vcs.RemoteMetricsRefFor(remote)
	if err := r.Backend.Pull(ctx, remote, localRef); err != nil {
		return fmt.Errorf("reconcile: pulling from %s: %w", remote, err)
	}
	return nil
}
