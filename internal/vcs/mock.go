package vcs

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/binbudget/git-metrics/internal/entity"
)

// MockRemoteStore simulates the shared server-side `refs/notes/metrics`
// ref so that two MockBackend instances (standing in for two clones) can
// exercise push/pull/reject/retry scenarios against each other.
type MockRemoteStore struct {
	notes map[string][]byte
	// generation increments on every successful push, letting a second
	// pusher detect a non-fast-forward race the way a real remote would.
	generation int
}

// NewMockRemoteStore returns an empty shared remote.
func NewMockRemoteStore() *MockRemoteStore {
	return &MockRemoteStore{notes: make(map[string][]byte)}
}

// MockBackend is an in-memory Backend for tests, keyed by "{commit}/{ref}"
// as suggested for the test double in the design notes. Commits form a
// simple linear chain recorded in CommitOrder; RevList/RevParse interpret
// ranges against that chain rather than against real git plumbing.
type MockBackend struct {
	// CommitOrder lists commit SHAs root-first; RevList/RevParse walk
	// this slice rather than real history.
	CommitOrder []string
	// Summaries maps a SHA to its commit message first line.
	Summaries map[string]string

	notes map[string][]byte
	Root  string

	// Remote is the shared server-side store this backend's Pull/Push
	// operate against. Defaults to a private store if nil.
	Remote *MockRemoteStore
	// seenGeneration is this clone's view of Remote.generation as of its
	// last successful pull or push; used to reject non-fast-forward
	// pushes.
	seenGeneration int

	// Pulled records calls to Pull for assertions in tests.
	Pulled []string
	// Pushed records calls to Push for assertions in tests.
	Pushed []string
	// PushErr, when non-nil, is returned by Push (simulating a rejected
	// non-fast-forward push) instead of the generation check below.
	PushErr error
}

// NewMockBackend returns an empty MockBackend with its own private remote
// store. Use NewMockBackendWithRemote to share a store across clones.
func NewMockBackend() *MockBackend {
	return NewMockBackendWithRemote(NewMockRemoteStore())
}

// NewMockBackendWithRemote returns a MockBackend sharing remote with other
// clones, for concurrent-publish scenarios.
func NewMockBackendWithRemote(remote *MockRemoteStore) *MockBackend {
	return &MockBackend{
		Summaries: make(map[string]string),
		notes:     make(map[string][]byte),
		Remote:    remote,
	}
}

// AddCommit appends a commit to the chain.
func (m *MockBackend) AddCommit(sha, summary string) {
	m.CommitOrder = append(m.CommitOrder, sha)
	m.Summaries[sha] = summary
}

func noteKey(target string, ref NoteRef) string {
	return fmt.Sprintf("%s/%s", target, ref.String())
}

func (m *MockBackend) indexOf(sha string) int {
	for i, c := range m.CommitOrder {
		if c == sha {
			return i
		}
	}
	return -1
}

func (m *MockBackend) RevParse(ctx context.Context, range_ string) (RevSpec, error) {
	if from, to, ok := strings.Cut(range_, ".."); ok && strings.Contains(range_, "..") {
		return RangeRev(m.resolve(from), m.resolve(to)), nil
	}
	sha := m.resolve(range_)
	if sha == "" {
		return RevSpec{}, fmt.Errorf("%w: %q", ErrInvalidRange, range_)
	}
	return SingleRev(sha), nil
}

// resolve interprets HEAD, HEAD~N and bare SHAs against CommitOrder.
func (m *MockBackend) resolve(rev string) string {
	if rev == "HEAD" {
		if len(m.CommitOrder) == 0 {
			return ""
		}
		return m.CommitOrder[len(m.CommitOrder)-1]
	}
	if base, n, ok := strings.Cut(rev, "~"); ok {
		idx := m.indexOf(m.resolve(base))
		if idx < 0 {
			return ""
		}
		offset := 1
		fmt.Sscanf(n, "%d", &offset)
		idx -= offset
		if idx < 0 {
			return ""
		}
		return m.CommitOrder[idx]
	}
	if m.indexOf(rev) >= 0 {
		return rev
	}
	return ""
}

func (m *MockBackend) RevList(ctx context.Context, range_ string) ([]string, error) {
	spec, err := m.RevParse(ctx, range_)
	if err != nil {
		return nil, err
	}
	if !spec.IsRange() {
		idx := m.indexOf(spec.Single)
		if idx < 0 {
			return nil, nil
		}
		out := make([]string, idx+1)
		for i := 0; i <= idx; i++ {
			out[i] = m.CommitOrder[idx-i]
		}
		return out, nil
	}
	fromIdx := m.indexOf(spec.From)
	toIdx := m.indexOf(spec.To)
	if toIdx < 0 {
		return nil, nil
	}
	var out []string
	for i := toIdx; i > fromIdx; i-- {
		out = append(out, m.CommitOrder[i])
	}
	return out, nil
}

func (m *MockBackend) GetCommits(ctx context.Context, range_ string) ([]entity.Commit, error) {
	shas, err := m.RevList(ctx, range_)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Commit, 0, len(shas))
	for _, sha := range shas {
		out = append(out, entity.Commit{SHA: sha, Summary: m.Summaries[sha]})
	}
	return out, nil
}

func (m *MockBackend) ReadNote(ctx context.Context, target string, ref NoteRef, out any) (bool, error) {
	raw, ok := m.notes[noteKey(target, ref)]
	if !ok {
		return false, nil
	}
	if err := toml.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("%w: %w", ErrDeserialize, err)
	}
	return true, nil
}

func (m *MockBackend) WriteNote(ctx context.Context, target string, ref NoteRef, value any) error {
	raw, err := toml.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerialize, err)
	}
	m.notes[noteKey(target, ref)] = raw
	return nil
}

func (m *MockBackend) RemoveNote(ctx context.Context, target string, ref NoteRef) error {
	delete(m.notes, noteKey(target, ref))
	return nil
}

func (m *MockBackend) ListNotes(ctx context.Context, ref NoteRef) ([]Note, error) {
	suffix := "/" + ref.String()
	var out []Note
	for key := range m.notes {
		target, ok := strings.CutSuffix(key, suffix)
		if !ok {
			continue
		}
		out = append(out, Note{NoteID: target, CommitID: target})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CommitID < out[j].CommitID })
	return out, nil
}

// Pull copies the shared remote store's notes into localRef (the
// per-remote ref), unconditionally, mirroring the real backend's
// force-fetch semantics. An empty remote is not an error.
func (m *MockBackend) Pull(ctx context.Context, remote string, localRef NoteRef) error {
	m.Pulled = append(m.Pulled, remote)
	for target, raw := range m.Remote.notes {
		m.notes[noteKey(target, localRef)] = raw
	}
	m.seenGeneration = m.Remote.generation
	return nil
}

// Push copies every note under localRef into the shared remote store,
// rejecting if another clone has pushed since this clone last
// pulled/pushed (simulating non-fast-forward).
func (m *MockBackend) Push(ctx context.Context, remote string, localRef NoteRef) error {
	m.Pushed = append(m.Pushed, remote)
	if m.PushErr != nil {
		return m.PushErr
	}
	if m.seenGeneration != m.Remote.generation {
		return fmt.Errorf("%w: non-fast-forward push to %s", ErrTransport, remote)
	}
	suffix := "/" + localRef.String()
	for key, raw := range m.notes {
		target, ok := strings.CutSuffix(key, suffix)
		if !ok {
			continue
		}
		m.Remote.notes[target] = raw
	}
	m.Remote.generation++
	m.seenGeneration = m.Remote.generation
	return nil
}

func (m *MockBackend) RootPath() (string, error) {
	if m.Root != "" {
		return m.Root, nil
	}
	return "/repo", nil
}
