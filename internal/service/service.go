// Package service orchestrates the ledger, stack engine, diff engine,
// rule engine and reconciler into the operations the CLI commands of §6
// invoke directly.
package service

import (
	"context"
	"fmt"

	"github.com/binbudget/git-metrics/internal/diffengine"
	"github.com/binbudget/git-metrics/internal/entity"
	"github.com/binbudget/git-metrics/internal/ledger"
	"github.com/binbudget/git-metrics/internal/reconcile"
	"github.com/binbudget/git-metrics/internal/rules"
	"github.com/binbudget/git-metrics/internal/stackengine"
	"github.com/binbudget/git-metrics/internal/vcs"
)

const defaultRemote = "origin"

// Service is the single entry point the CLI commands call into.
type Service struct {
	Backend    vcs.Backend
	Ledger     *ledger.Ledger
	Stack      *stackengine.Engine
	Reconciler *reconcile.Reconciler
}

// New builds a Service over backend.
func New(backend vcs.Backend) *Service {
	l := ledger.New(backend)
	return &Service{
		Backend:    backend,
		Ledger:     l,
		Stack:      stackengine.New(l),
		Reconciler: reconcile.New(backend),
	}
}

// OpenConfig loads the repository's .git-metrics.toml, if present.
func (s *Service) OpenConfig(ctx context.Context) (rules.Config, error) {
	root, err := s.Backend.RootPath()
	if err != nil {
		return rules.Config{}, fmt.Errorf("service: resolving repository root: %w", err)
	}
	return rules.FromRootPath(root)
}

// Init writes the commented sample config to the repository root.
func (s *Service) Init() error {
	root, err := s.Backend.RootPath()
	if err != nil {
		return fmt.Errorf("service: resolving repository root: %w", err)
	}
	return rules.WriteSample(root)
}

// AddOptions configures Add.
type AddOptions struct {
	Target string // defaults to HEAD
}

// Add records an Add change for metric at opts.Target.
func (s *Service) Add(ctx context.Context, metric entity.Metric, opts AddOptions) error {
	target := opts.Target
	if target == "" {
		target = "HEAD"
	}
	return s.Ledger.Add(ctx, target, metric)
}

// RemoveOptions configures Remove.
type RemoveOptions struct {
	Target string // defaults to HEAD
	Remote string // defaults to origin; determines which snapshot is read
}

// Remove records a Remove change for the effective metric at index.
func (s *Service) Remove(ctx context.Context, index int, opts RemoveOptions) error {
	target := opts.Target
	if target == "" {
		target = "HEAD"
	}
	remote := opts.Remote
	if remote == "" {
		remote = defaultRemote
	}
	return s.Ledger.Remove(ctx, target, vcs.RemoteMetricsRefFor(remote), index)
}

// ShowOptions configures Show.
type ShowOptions struct {
	Target string
	Remote string
}

// Show returns the effective metric stack at opts.Target.
func (s *Service) Show(ctx context.Context, opts ShowOptions) (*entity.MetricStack, error) {
	target := opts.Target
	if target == "" {
		target = "HEAD"
	}
	remote := opts.Remote
	if remote == "" {
		remote = defaultRemote
	}
	return s.Ledger.Effective(ctx, target, vcs.RemoteMetricsRefFor(remote))
}

// LogOptions configures Log.
type LogOptions struct {
	Remote      string
	Range       string
	FilterEmpty bool
}

// CommitMetrics pairs a commit with its own effective metrics (not the
// accumulated stack), for `git-metrics log`.
type CommitMetrics struct {
	Commit  entity.Commit
	Metrics []entity.Metric
}

// Log returns, for each commit in opts.Range (default HEAD), its own
// effective metrics.
func (s *Service) Log(ctx context.Context, opts LogOptions) ([]CommitMetrics, error) {
	range_ := opts.Range
	if range_ == "" {
		range_ = "HEAD"
	}
	remote := opts.Remote
	if remote == "" {
		remote = defaultRemote
	}
	commits, err := s.Backend.GetCommits(ctx, range_)
	if err != nil {
		return nil, fmt.Errorf("service: listing commits in %q: %w", range_, err)
	}
	snapshotRef := vcs.RemoteMetricsRefFor(remote)
	out := make([]CommitMetrics, 0, len(commits))
	for _, c := range commits {
		stack, err := s.Ledger.Effective(ctx, c.SHA, snapshotRef)
		if err != nil {
			return nil, fmt.Errorf("service: computing metrics at %s: %w", c.SHA, err)
		}
		if opts.FilterEmpty && stack.Len() == 0 {
			continue
		}
		out = append(out, CommitMetrics{Commit: c, Metrics: stack.Metrics()})
	}
	return out, nil
}

// DiffOptions configures Diff.
type DiffOptions struct {
	Remote string
	Range  string // defaults to HEAD
}

// Diff resolves the before/after stacks for opts.Range per §4.4 — a
// single commit C diffs C~1 against C's own notes (not its full
// history); a range A..B diffs stack(A) against stack(A..B) — and
// returns the resulting comparisons.
func (s *Service) Diff(ctx context.Context, opts DiffOptions) (diffengine.MetricDiffList, error) {
	range_ := opts.Range
	if range_ == "" {
		range_ = "HEAD"
	}
	remote := opts.Remote
	if remote == "" {
		remote = defaultRemote
	}
	snapshotRef := vcs.RemoteMetricsRefFor(remote)

	spec, err := s.Backend.RevParse(ctx, range_)
	if err != nil {
		return nil, fmt.Errorf("service: parsing range %q: %w", range_, err)
	}

	var before, after *entity.MetricStack
	if spec.IsRange() {
		before, err = s.Stack.Stack(ctx, s.Backend, spec.From, snapshotRef)
		if err != nil {
			return nil, err
		}
		after, err = s.Stack.Stack(ctx, s.Backend, spec.From+".."+spec.To, snapshotRef)
		if err != nil {
			return nil, err
		}
	} else {
		before, err = s.Stack.Stack(ctx, s.Backend, spec.Single+"~1", snapshotRef)
		if err != nil {
			return nil, err
		}
		after, err = s.Ledger.Effective(ctx, spec.Single, snapshotRef)
		if err != nil {
			return nil, err
		}
	}

	return diffengine.Diff(before, after), nil
}

// CheckOptions configures Check.
type CheckOptions struct {
	Remote string
	Range  string
}

// Check runs Diff then evaluates the repository's rule config against
// it.
func (s *Service) Check(ctx context.Context, opts CheckOptions) (rules.CheckList, error) {
	cfg, err := s.OpenConfig(ctx)
	if err != nil {
		return rules.CheckList{}, err
	}
	diffs, err := s.Diff(ctx, DiffOptions{Remote: opts.Remote, Range: opts.Range})
	if err != nil {
		return rules.CheckList{}, err
	}
	return rules.Evaluate(cfg, diffs), nil
}

// Push folds and publishes the local change log to remote (default
// origin).
func (s *Service) Push(ctx context.Context, remote string) error {
	if remote == "" {
		remote = defaultRemote
	}
	return s.Reconciler.Push(ctx, remote)
}

// Pull fetches remote's canonical snapshot ref (default origin).
func (s *Service) Pull(ctx context.Context, remote string) error {
	if remote == "" {
		remote = defaultRemote
	}
	return s.Reconciler.Pull(ctx, remote)
}

// ExportReport is the combined check+log payload `export` produces for
// CI artifact upload (SPEC_FULL.md's supplemented export shape).
type ExportReport struct {
	Check rules.CheckList
	Log   []CommitMetrics
}

// ExportOptions configures Export.
type ExportOptions struct {
	Remote string
	Range  string
}

// Export runs Check and Log together into one combined report.
func (s *Service) Export(ctx context.Context, opts ExportOptions) (ExportReport, error) {
	checkResult, err := s.Check(ctx, CheckOptions{Remote: opts.Remote, Range: opts.Range})
	if err != nil {
		return ExportReport{}, err
	}
	logResult, err := s.Log(ctx, LogOptions{Remote: opts.Remote, Range: opts.Range})
	if err != nil {
		return ExportReport{}, err
	}
	return ExportReport{Check: checkResult, Log: logResult}, nil
}
