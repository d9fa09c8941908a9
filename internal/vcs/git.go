package vcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/pelletier/go-toml/v2"

	"github.com/binbudget/git-metrics/internal/entity"
	"github.com/binbudget/git-metrics/internal/gitmetricslog"
)

// GitBackend implements Backend using go-git's pure-Go plumbing: no git
// binary is required on PATH. Notes are represented the same way the real
// git notes machinery represents them — a commit on the note ref whose
// tree maps the annotated object's full hex SHA to a blob of note
// content — so that a CommandBackend and a GitBackend operating on the
// same repository interoperate.
type GitBackend struct {
	repo *git.Repository
	// Authenticator supplies transport credentials for Pull/Push.
	Authenticator *Authenticator
}

// OpenGitBackend opens the repository rooted at dir.
func OpenGitBackend(dir string) (*GitBackend, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: opening repository at %s: %w", ErrTransport, dir, err)
	}
	return &GitBackend{repo: repo, Authenticator: NewAuthenticator()}, nil
}

func (b *GitBackend) RootPath() (string, error) {
	wt, err := b.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return wt.Filesystem.Root(), nil
}

func (b *GitBackend) resolve(range_ string) (plumbing.Hash, error) {
	h, err := b.repo.ResolveRevision(plumbing.Revision(range_))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: resolving %q: %w", ErrInvalidRange, range_, err)
	}
	return *h, nil
}

func (b *GitBackend) RevParse(ctx context.Context, range_ string) (RevSpec, error) {
	if from, to, ok := strings.Cut(range_, ".."); ok {
		fromHash, err := b.resolve(from)
		if err != nil {
			return RevSpec{}, err
		}
		toHash, err := b.resolve(to)
		if err != nil {
			return RevSpec{}, err
		}
		return RangeRev(fromHash.String(), toHash.String()), nil
	}
	h, err := b.resolve(range_)
	if err != nil {
		return RevSpec{}, err
	}
	return SingleRev(h.String()), nil
}

func (b *GitBackend) RevList(ctx context.Context, range_ string) ([]string, error) {
	spec, err := b.RevParse(ctx, range_)
	if err != nil {
		return nil, err
	}
	if !spec.IsRange() {
		return b.ancestorsOf(spec.Single, "")
	}
	return b.ancestorsOf(spec.To, spec.From)
}

// ancestorsOf lists commits reachable from `to` but not from `stopAt` (if
// given), newest first, matching `git rev-list to` or `git rev-list
// stopAt..to`.
func (b *GitBackend) ancestorsOf(to, stopAt string) ([]string, error) {
	excluded := make(map[plumbing.Hash]bool)
	if stopAt != "" {
		stopHash := plumbing.NewHash(stopAt)
		stopCommit, err := b.repo.CommitObject(stopHash)
		if err == nil {
			iter := object.NewCommitPreorderIter(stopCommit, nil, nil)
			iter.ForEach(func(c *object.Commit) error {
				excluded[c.Hash] = true
				return nil
			})
		}
	}
	start, err := b.repo.CommitObject(plumbing.NewHash(to))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	var out []string
	iter := object.NewCommitPreorderIter(start, nil, nil)
	err = iter.ForEach(func(c *object.Commit) error {
		if !excluded[c.Hash] {
			out = append(out, c.Hash.String())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return out, nil
}

func (b *GitBackend) GetCommits(ctx context.Context, range_ string) ([]entity.Commit, error) {
	shas, err := b.RevList(ctx, range_)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Commit, 0, len(shas))
	for _, sha := range shas {
		c, err := b.repo.CommitObject(plumbing.NewHash(sha))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		summary, _, _ := strings.Cut(c.Message, "\n")
		out = append(out, entity.Commit{SHA: sha, Summary: summary})
	}
	return out, nil
}

// notesRefName turns a NoteRef into the go-git reference name it lives
// under.
func notesRefName(ref NoteRef) plumbing.ReferenceName {
	return plumbing.ReferenceName(ref.String())
}

func (b *GitBackend) notesTree(ref NoteRef) (*object.Tree, *plumbing.Hash, error) {
	r, err := b.repo.Reference(notesRefName(ref), true)
	if err != nil {
		return nil, nil, nil // no notes commit yet: absent, not an error
	}
	hash := r.Hash()
	commit, err := b.repo.CommitObject(hash)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return tree, &hash, nil
}

func (b *GitBackend) ReadNote(ctx context.Context, target string, ref NoteRef, out any) (bool, error) {
	tree, _, err := b.notesTree(ref)
	if err != nil {
		return false, err
	}
	if tree == nil {
		return false, nil
	}
	entry, err := tree.File(target)
	if err != nil {
		return false, nil
	}
	content, err := entry.Contents()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if err := toml.Unmarshal([]byte(content), out); err != nil {
		return false, fmt.Errorf("%w: %w", ErrDeserialize, err)
	}
	return true, nil
}

func (b *GitBackend) ListNotes(ctx context.Context, ref NoteRef) ([]Note, error) {
	tree, _, err := b.notesTree(ref)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, nil
	}
	var notes []Note
	walker := object.NewTreeWalker(tree, false, nil)
	defer walker.Close()
	for {
		name, entry, err := walker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		notes = append(notes, Note{NoteID: entry.Hash.String(), CommitID: name})
	}
	return notes, nil
}

func (b *GitBackend) writeNotesCommit(ref NoteRef, mutate func(*object.Tree) (*object.Tree, error)) error {
	storer := b.repo.Storer
	tree, parentHash, err := b.notesTree(ref)
	if err != nil {
		return err
	}
	if tree == nil {
		tree = &object.Tree{}
	}
	newTree, err := mutate(tree)
	if err != nil {
		return err
	}
	treeHash, err := writeTree(storer, newTree)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	var parents []plumbing.Hash
	if parentHash != nil {
		parents = append(parents, *parentHash)
	}
	sig := object.Signature{Name: "git-metrics", Email: "git-metrics@localhost", When: time.Now()}
	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      "notes update",
		TreeHash:     treeHash,
		ParentHashes: parents,
	}
	commitHash, err := writeCommit(storer, commit)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	newRef := plumbing.NewHashReference(notesRefName(ref), commitHash)
	if err := storer.SetReference(newRef); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}

func (b *GitBackend) WriteNote(ctx context.Context, target string, ref NoteRef, value any) error {
	payload, err := toml.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerialize, err)
	}
	return b.writeNotesCommit(ref, func(tree *object.Tree) (*object.Tree, error) {
		blobHash, err := writeBlob(b.repo.Storer, payload)
		if err != nil {
			return nil, err
		}
		return upsertTreeEntry(tree, target, blobHash), nil
	})
}

func (b *GitBackend) RemoveNote(ctx context.Context, target string, ref NoteRef) error {
	return b.writeNotesCommit(ref, func(tree *object.Tree) (*object.Tree, error) {
		return removeTreeEntry(tree, target), nil
	})
}

func (b *GitBackend) Pull(ctx context.Context, remote string, localRef NoteRef) error {
	err := b.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remote,
		RefSpecs: []config.RefSpec{
			config.RefSpec(fmt.Sprintf("+%s:%s", RemoteMetricsRef, localRef.String())),
		},
		Auth:  b.Authenticator.Method(),
		Force: true,
	})
	if err == nil || err == git.NoErrAlreadyUpToDate {
		return nil
	}
	if err == transport.ErrAdvertisedReferenceNotFound || strings.Contains(err.Error(), "couldn't find remote ref") {
		return nil
	}
	gitmetricslog.Logger.Warn().Err(err).Str("remote", remote).Msg("fetch of metrics ref failed")
	return fmt.Errorf("%w: fetching metrics from %s: %w", ErrTransport, remote, err)
}

func (b *GitBackend) Push(ctx context.Context, remote string, localRef NoteRef) error {
	err := b.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		RefSpecs: []config.RefSpec{
			config.RefSpec(fmt.Sprintf("%s:%s", localRef.String(), RemoteMetricsRef)),
		},
		Auth: b.Authenticator.Method(),
	})
	if err == nil || err == git.NoErrAlreadyUpToDate {
		return nil
	}
	gitmetricslog.Logger.Error().Err(err).Str("remote", remote).Msg("unable to push metrics")
	return fmt.Errorf("%w: unable to push metrics: %w", ErrTransport, err)
}

// Authenticator picks transport credentials in this order: GITHUB_TOKEN
// (sent as HTTP basic auth with the username "x-access-token"), then an
// explicit GIT_USERNAME/GIT_PASSWORD pair, then an SSH agent, then a bare
// anonymous attempt.
type Authenticator struct {
	Username string
	Password string
	Token    string
}

// NewAuthenticator reads GIT_USERNAME, GIT_PASSWORD and GITHUB_TOKEN from
// the environment.
func NewAuthenticator() *Authenticator {
	return &Authenticator{
		Username: os.Getenv("GIT_USERNAME"),
		Password: os.Getenv("GIT_PASSWORD"),
		Token:    os.Getenv("GITHUB_TOKEN"),
	}
}

// Method returns the best available transport.AuthMethod, or nil to fall
// back to whatever the transport does anonymously.
func (a *Authenticator) Method() transport.AuthMethod {
	switch {
	case a.Token != "":
		return &http.BasicAuth{Username: "x-access-token", Password: a.Token}
	case a.Username != "" && a.Password != "":
		return &http.BasicAuth{Username: a.Username, Password: a.Password}
	default:
		if auth, err := ssh.NewSSHAgentAuth("git"); err == nil {
			return auth
		}
		return nil
	}
}

// --- small object-store helpers go-git's porcelain doesn't expose directly ---

func writeBlob(storer interface {
	NewEncodedObject() plumbing.EncodedObject
	SetEncodedObject(plumbing.EncodedObject) (plumbing.Hash, error)
}, content []byte) (plumbing.Hash, error) {
	obj := storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := w.Write(content); err != nil {
		return plumbing.ZeroHash, err
	}
	if err := w.Close(); err != nil {
		return plumbing.ZeroHash, err
	}
	return storer.SetEncodedObject(obj)
}

func writeTree(storer interface {
	NewEncodedObject() plumbing.EncodedObject
	SetEncodedObject(plumbing.EncodedObject) (plumbing.Hash, error)
}, tree *object.Tree) (plumbing.Hash, error) {
	obj := storer.NewEncodedObject()
	obj.SetType(plumbing.TreeObject)
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	return storer.SetEncodedObject(obj)
}

func writeCommit(storer interface {
	NewEncodedObject() plumbing.EncodedObject
	SetEncodedObject(plumbing.EncodedObject) (plumbing.Hash, error)
}, commit *object.Commit) (plumbing.Hash, error) {
	obj := storer.NewEncodedObject()
	obj.SetType(plumbing.CommitObject)
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	return storer.SetEncodedObject(obj)
}

func upsertTreeEntry(tree *object.Tree, name string, blob plumbing.Hash) *object.Tree {
	entries := make([]object.TreeEntry, 0, len(tree.Entries)+1)
	replaced := false
	for _, e := range tree.Entries {
		if e.Name == name {
			e.Hash = blob
			replaced = true
		}
		entries = append(entries, e)
	}
	if !replaced {
		entries = append(entries, object.TreeEntry{Name: name, Mode: 0o100644, Hash: blob})
	}
	return &object.Tree{Entries: entries}
}

func removeTreeEntry(tree *object.Tree, name string) *object.Tree {
	entries := make([]object.TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e.Name != name {
			entries = append(entries, e)
		}
	}
	return &object.Tree{Entries: entries}
}
