// Package vcs defines the polymorphic gateway over the host version
// control system: revision parsing and listing, commit metadata, and
// per-commit notes keyed by ref. Two production backends are provided
// (CommandBackend, shelling to the git binary; GitBackend, using go-git's
// pure-Go plumbing) plus a MockBackend for tests.
package vcs

import (
	"context"
	"errors"
	"fmt"

	"github.com/binbudget/git-metrics/internal/entity"
)

// Sentinel errors distinguishing the taxonomy of §7: gateway/transport
// failures are returned as-is (wrapped with %w), while absence is
// signaled structurally (a nil/zero return with no error), never as one
// of these.
var (
	// ErrInvalidRange is returned when rev-parse cannot interpret the
	// given revision expression.
	ErrInvalidRange = errors.New("vcs: invalid revision range")
	// ErrTransport covers any failure in talking to the underlying git
	// implementation: a non-zero process exit, a network failure, a
	// malformed plumbing object.
	ErrTransport = errors.New("vcs: transport failure")
	// ErrDeserialize is returned when an existing note's payload cannot
	// be decoded. Deserialize failures are always surfaced; an absent
	// note is never an error (see Backend.ReadNote).
	ErrDeserialize = errors.New("vcs: unable to deserialize note")
	// ErrSerialize is returned when a value cannot be encoded into a
	// note payload.
	ErrSerialize = errors.New("vcs: unable to serialize note")
)

// RemoteMetricsRef is the canonical ref remotes publish their snapshot
// under.
const RemoteMetricsRef = "refs/notes/metrics"

// NoteRef identifies which note namespace an operation targets.
type NoteRef struct {
	kind kind
	name string
}

type kind int

const (
	kindChanges kind = iota
	kindRemoteMetrics
)

// ChangesRef is the local, never-pushed change-log namespace.
var ChangesRef = NoteRef{kind: kindChanges}

// RemoteMetricsRefFor returns the per-remote fetched-snapshot namespace
// for the named remote.
func RemoteMetricsRefFor(remote string) NoteRef {
	return NoteRef{kind: kindRemoteMetrics, name: remote}
}

func (r NoteRef) String() string {
	switch r.kind {
	case kindChanges:
		return "refs/notes/metrics-changes"
	case kindRemoteMetrics:
		return fmt.Sprintf("refs/notes/metrics-remote-%s", r.name)
	default:
		return "refs/notes/metrics"
	}
}

// Note is one entry returned by ListNotes: the note object id and the
// commit it annotates.
type Note struct {
	NoteID   string
	CommitID string
}

// RevSpec is the tagged result of RevParse: either a single revision or a
// from/to range.
type RevSpec struct {
	Single string
	From   string
	To     string
	isRange bool
}

// IsRange reports whether the spec names a range rather than a single
// revision.
func (r RevSpec) IsRange() bool { return r.isRange }

// SingleRev builds a non-range RevSpec.
func SingleRev(sha string) RevSpec { return RevSpec{Single: sha} }

// RangeRev builds a from/to RevSpec.
func RangeRev(from, to string) RevSpec { return RevSpec{From: from, To: to, isRange: true} }

func (r RevSpec) String() string {
	if r.isRange {
		return r.From + ".." + r.To
	}
	return r.Single
}

// Backend is the capability set every VCS implementation must provide:
// revision parsing and listing, commit metadata, and per-commit notes.
type Backend interface {
	RevParse(ctx context.Context, range_ string) (RevSpec, error)
	RevList(ctx context.Context, range_ string) ([]string, error)
	GetCommits(ctx context.Context, range_ string) ([]entity.Commit, error)

	ReadNote(ctx context.Context, target string, ref NoteRef, out any) (bool, error)
	WriteNote(ctx context.Context, target string, ref NoteRef, value any) error
	RemoveNote(ctx context.Context, target string, ref NoteRef) error
	ListNotes(ctx context.Context, ref NoteRef) ([]Note, error)

	Pull(ctx context.Context, remote string, localRef NoteRef) error
	Push(ctx context.Context, remote string, localRef NoteRef) error

	RootPath() (string, error)
}
