// Package workspace resolves the repository a command runs against: its
// root, policy, evaluator and state stores.
package workspace

import (
	"errors"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bartekus/cadence/cmd/cadence/internal/clierr"
	"github.com/bartekus/cadence/internal/compliance"
	"github.com/bartekus/cadence/internal/config"
	"github.com/bartekus/cadence/internal/cycle"
	"github.com/bartekus/cadence/internal/gitrepo"
	"github.com/bartekus/cadence/internal/projectroot"
	"github.com/bartekus/cadence/internal/runner"
)

// DirFlag is the persistent root flag naming the start directory.
const DirFlag = "dir"

// Workspace is the resolved repository context of one command.
type Workspace struct {
	Root      string
	StateDir  string
	Config    *config.Config
	Evaluator *compliance.Evaluator
	Repo      *gitrepo.Repo
	Cycles    *cycle.Store
}

// Open locates the repository enclosing dir and loads its policy.
func Open(dir string) (*Workspace, error) {
	root, err := projectroot.Find(dir)
	if err != nil {
		return nil, clierr.Wrap(clierr.ExitUsage, "locating repository", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, Classify("loading policy", err)
	}
	ev, err := compliance.FromConfig(cfg)
	if err != nil {
		return nil, clierr.Wrap(clierr.ExitUsage, "applying policy", err)
	}

	stateDir := filepath.Join(root, config.Dir)
	return &Workspace{
		Root:      root,
		StateDir:  stateDir,
		Config:    cfg,
		Evaluator: ev,
		Repo:      gitrepo.New(root),
		Cycles:    cycle.NewStore(stateDir),
	}, nil
}

// OpenOrDefault is Open, except that outside a repository it returns the
// default policy with no git access and no cycle store.
func OpenOrDefault(dir string) (*Workspace, error) {
	ws, err := Open(dir)
	if errors.Is(err, projectroot.ErrNotFound) {
		return &Workspace{Config: config.Default(), Evaluator: compliance.Default()}, nil
	}
	return ws, err
}

// FromCommand opens the workspace named by the --dir flag.
func FromCommand(cmd *cobra.Command) (*Workspace, error) {
	return Open(dirOf(cmd))
}

// FromCommandOrDefault is OpenOrDefault for the --dir flag.
func FromCommandOrDefault(cmd *cobra.Command) (*Workspace, error) {
	return OpenOrDefault(dirOf(cmd))
}

func dirOf(cmd *cobra.Command) string {
	dir, err := cmd.Flags().GetString(DirFlag)
	if err != nil || dir == "" {
		return "."
	}
	return dir
}

// InGit reports whether the workspace is backed by a repository.
func (w *Workspace) InGit() bool {
	return w.Repo != nil
}

// CycleState loads the persisted cycle, nil when none exists or there is no store.
func (w *Workspace) CycleState() (*cycle.State, error) {
	if w.Cycles == nil {
		return nil, nil
	}
	st, err := w.Cycles.Load()
	if err != nil {
		return nil, Classify("loading cycle state", err)
	}
	return st, nil
}

// RunDeps builds the dependencies handed to skills.
func (w *Workspace) RunDeps(out io.Writer) *runner.Deps {
	return &runner.Deps{
		RepoRoot:  w.Root,
		StateDir:  w.StateDir,
		Repo:      w.Repo,
		Config:    w.Config,
		Evaluator: w.Evaluator,
		Cycles:    w.Cycles,
		Out:       out,
	}
}

// Classify maps an operational error to its exit code.
func Classify(msg string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, projectroot.ErrNotFound):
		return clierr.Wrap(clierr.ExitUsage, msg, err)
	case errors.Is(err, runner.ErrRunFailed):
		return clierr.Wrap(clierr.ExitPolicy, msg, err)
	default:
		return clierr.Wrap(clierr.ExitTooling, msg, err)
	}
}
