package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/binbudget/git-metrics/internal/entity"
	"github.com/binbudget/git-metrics/internal/gitmetricslog"
)

// CommandBackend implements Backend by shelling out to the git binary
// found on PATH. This is the default backend: it needs no credential
// plumbing of its own since it inherits the environment's own git
// configuration (SSH agent, credential helpers, GIT_USERNAME/GIT_PASSWORD
// wired through git's own credential.helper chain).
type CommandBackend struct {
	// Dir is the working directory git is invoked in. Empty means the
	// process's own current directory.
	Dir string
}

// NewCommandBackend returns a CommandBackend rooted at dir.
func NewCommandBackend(dir string) *CommandBackend {
	return &CommandBackend{Dir: dir}
}

func (b *CommandBackend) cmd(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	if b.Dir != "" {
		cmd.Dir = b.Dir
	}
	return cmd
}

func (b *CommandBackend) run(ctx context.Context, args ...string) (string, error) {
	cmd := b.cmd(ctx, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		gitmetricslog.Logger.Debug().Strs("args", args).Str("stderr", msg).Msg("git command failed")
		return "", fmt.Errorf("%w: git %s: %s", ErrTransport, strings.Join(args, " "), msg)
	}
	return stdout.String(), nil
}

func (b *CommandBackend) RevList(ctx context.Context, range_ string) ([]string, error) {
	out, err := b.run(ctx, "rev-list", range_)
	if err != nil {
		return nil, err
	}
	return splitNonEmpty(out), nil
}

func (b *CommandBackend) RevParse(ctx context.Context, range_ string) (RevSpec, error) {
	out, err := b.run(ctx, "rev-parse", range_)
	if err != nil {
		return RevSpec{}, err
	}
	lines := splitNonEmpty(out)
	if len(lines) == 0 {
		return RevSpec{}, fmt.Errorf("%w: %q produced no revision", ErrInvalidRange, range_)
	}
	first := lines[0]
	if len(lines) > 1 {
		if second, ok := strings.CutPrefix(lines[1], "^"); ok {
			return RangeRev(second, first), nil
		}
	}
	return SingleRev(first), nil
}

func (b *CommandBackend) GetCommits(ctx context.Context, range_ string) ([]entity.Commit, error) {
	out, err := b.run(ctx, "log", "--format=format:%H:%s", range_)
	if err != nil {
		return nil, err
	}
	var commits []entity.Commit
	for _, line := range splitNonEmpty(out) {
		sha, summary, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		commits = append(commits, entity.Commit{SHA: sha, Summary: summary})
	}
	return commits, nil
}

func (b *CommandBackend) ListNotes(ctx context.Context, ref NoteRef) ([]Note, error) {
	out, err := b.run(ctx, "notes", "--ref", ref.String())
	if err != nil {
		return nil, err
	}
	var notes []Note
	for _, line := range splitNonEmpty(out) {
		noteID, commitID, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		notes = append(notes, Note{NoteID: noteID, CommitID: commitID})
	}
	return notes, nil
}

func (b *CommandBackend) RemoveNote(ctx context.Context, target string, ref NoteRef) error {
	_, err := b.run(ctx, "notes", "--ref", ref.String(), "remove", target)
	return err
}

func (b *CommandBackend) ReadNote(ctx context.Context, target string, ref NoteRef, out any) (bool, error) {
	cmd := b.cmd(ctx, "notes", "--ref", ref.String(), "show", target)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if strings.HasPrefix(msg, "error: no note found for object") {
			return false, nil
		}
		return false, fmt.Errorf("%w: git notes show %s: %s", ErrTransport, target, msg)
	}
	if err := toml.Unmarshal(stdout.Bytes(), out); err != nil {
		return false, fmt.Errorf("%w: %w", ErrDeserialize, err)
	}
	return true, nil
}

func (b *CommandBackend) WriteNote(ctx context.Context, target string, ref NoteRef, value any) error {
	payload, err := toml.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerialize, err)
	}
	_, err = b.run(ctx, "notes", "--ref", ref.String(), "add", "-f", "-m", string(payload), target)
	return err
}

func (b *CommandBackend) Pull(ctx context.Context, remote string, localRef NoteRef) error {
	refspec := fmt.Sprintf("+%s:%s", RemoteMetricsRef, localRef.String())
	cmd := b.cmd(ctx, "fetch", remote, refspec)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if strings.HasPrefix(msg, "fatal: couldn't find remote ref") {
			return nil
		}
		gitmetricslog.Logger.Warn().Str("remote", remote).Str("stderr", strings.TrimSpace(msg)).Msg("fetch of metrics ref failed")
		return fmt.Errorf("%w: fetching metrics from %s: %s", ErrTransport, remote, strings.TrimSpace(msg))
	}
	return nil
}

func (b *CommandBackend) Push(ctx context.Context, remote string, localRef NoteRef) error {
	refspec := fmt.Sprintf("%s:%s", localRef.String(), RemoteMetricsRef)
	_, err := b.run(ctx, "push", remote, refspec)
	return err
}

func (b *CommandBackend) RootPath() (string, error) {
	out, err := b.run(context.Background(), "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
