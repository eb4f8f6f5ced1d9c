// Package gitrepo materializes commit, diff and branch snapshots by
// shelling out to git. It is the only package that talks to git.
package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/bartekus/cadence/internal/branch"
	"github.com/bartekus/cadence/internal/diff"
)

// ErrGit tags failures of the git executable.
var ErrGit = errors.New("git command failed")

// Repo provides read access to a git working tree.
type Repo struct {
	root string

	mu           sync.Mutex
	trackedCache []string
}

// New creates a Repo for the given repository root.
func New(root string) *Repo {
	return &Repo{root: root}
}

// Root returns the repository root.
func (r *Repo) Root() string {
	return r.root
}

func (r *Repo) git(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, goerr.Wrap(ErrGit, strings.Join(append([]string{"git"}, args...), " "),
			goerr.V("dir", r.root),
			goerr.V("stderr", strings.TrimSpace(stderr.String())),
			goerr.V("cause", err.Error()))
	}
	return out, nil
}

// TrackedFiles returns all files tracked by git, caching the result for the instance lifetime.
// It respects .gitignore implicitly by asking git.
func (r *Repo) TrackedFiles(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.trackedCache != nil {
		return r.trackedCache, nil
	}

	// -z to avoid escaping issues
	out, err := r.git(ctx, "ls-files", "-z")
	if err != nil {
		return nil, err
	}

	if len(out) == 0 {
		r.trackedCache = []string{}
		return r.trackedCache, nil
	}

	r.trackedCache = strings.Split(strings.TrimSuffix(string(out), "\x00"), "\x00")
	return r.trackedCache, nil
}

// TrackedFilesFiltered returns tracked files matching the filter options.
func (r *Repo) TrackedFilesFiltered(ctx context.Context, opts FilterOptions) ([]string, error) {
	all, err := r.TrackedFiles(ctx)
	if err != nil {
		return nil, err
	}
	return FilterFiles(all, opts), nil
}

// HeadMessage returns the full message of the HEAD commit.
func (r *Repo) HeadMessage(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "log", "-1", "--format=%B")
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// StagedDiff returns the lines added in the index.
func (r *Repo) StagedDiff(ctx context.Context) ([]diff.Line, error) {
	out, err := r.git(ctx, "diff", "--cached", "--no-color", "--no-ext-diff")
	if err != nil {
		return nil, err
	}
	return diff.Parse(bytes.NewReader(out))
}

// CommitDiff returns the lines added by a single commit.
func (r *Repo) CommitDiff(ctx context.Context, rev string) ([]diff.Line, error) {
	out, err := r.git(ctx, "show", "--format=", "--no-color", "--no-ext-diff", rev)
	if err != nil {
		return nil, err
	}
	return diff.Parse(bytes.NewReader(out))
}

// CurrentBranch returns the checked-out branch name. A detached HEAD is an error.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		return "", goerr.Wrap(err, "HEAD is not on a branch")
	}
	return strings.TrimSpace(string(out)), nil
}

// HooksDir returns the absolute path of the repository's hooks directory,
// honouring core.hooksPath and worktrees.
func (r *Repo) HooksDir(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "rev-parse", "--git-path", "hooks")
	if err != nil {
		return "", err
	}
	dir := strings.TrimSpace(string(out))
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(r.root, dir)
	}
	return dir, nil
}

// Branch snapshots a branch relative to the first existing trunk.
// CreatedAt is the commit time of the first commit not on trunk. A branch
// whose commits are all reachable from trunk is merged, as git branch
// --merged reports it. A branch that does not exist yet has no age.
func (r *Repo) Branch(ctx context.Context, name string, trunks []string) (branch.Branch, error) {
	b := branch.Branch{Name: name, LinkedIssueID: branch.IssueFromName(name)}

	trunk := r.firstExisting(ctx, trunks)
	if trunk == "" || trunk == name || r.firstExisting(ctx, []string{name}) == "" {
		return b, nil
	}

	out, err := r.git(ctx, "log", "--reverse", "--format=%cI", trunk+".."+name)
	if err != nil {
		return b, err
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	if first == "" {
		b.Merged = true
		return b, nil
	}
	ts, err := time.Parse(time.RFC3339, first)
	if err != nil {
		return b, goerr.Wrap(err, "parsing commit time", goerr.V("value", first))
	}
	b.CreatedAt = ts
	return b, nil
}

func (r *Repo) firstExisting(ctx context.Context, names []string) string {
	for _, n := range names {
		if _, err := r.git(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+n); err == nil {
			return n
		}
	}
	return ""
}

// Commit is one entry of the commit log.
type Commit struct {
	SHA         string `json:"sha"`
	Message     string `json:"message"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
}

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// Commits returns up to limit commits reachable from HEAD, newest first.
// A limit <= 0 returns the whole history.
func (r *Repo) Commits(ctx context.Context, limit int) ([]Commit, error) {
	args := []string{"log", "--format=%H%x1f%an%x1f%ae%x1f%B%x1e"}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}
	out, err := r.git(ctx, args...)
	if err != nil {
		return nil, err
	}

	var commits []Commit
	for _, rec := range strings.Split(string(out), recordSep) {
		rec = strings.TrimLeft(rec, "\n")
		if rec == "" {
			continue
		}
		parts := strings.SplitN(rec, fieldSep, 4)
		if len(parts) != 4 {
			return nil, goerr.New("unexpected git log record", goerr.V("record", rec))
		}
		commits = append(commits, Commit{
			SHA:         parts[0],
			AuthorName:  parts[1],
			AuthorEmail: parts[2],
			Message:     strings.TrimRight(parts[3], "\n"),
		})
	}
	return commits, nil
}
