package runner

import (
	"context"
	"io"

	"github.com/bartekus/cadence/internal/compliance"
	"github.com/bartekus/cadence/internal/config"
	"github.com/bartekus/cadence/internal/cycle"
	"github.com/bartekus/cadence/internal/gitrepo"
)

// Deps contains dependencies injected into skills.
type Deps struct {
	RepoRoot  string
	StateDir  string
	Repo      *gitrepo.Repo
	Config    *config.Config
	Evaluator *compliance.Evaluator
	Cycles    *cycle.Store

	// Out receives progress banners. Nil discards them.
	Out io.Writer
}

// Skill is one enforceable process guide run against the repository.
type Skill interface {
	// ID returns the unique identifier (e.g. "commit:message").
	ID() string

	// Description is a one-line summary for run list.
	Description() string

	// Run executes the skill.
	Run(ctx context.Context, deps *Deps) SkillResult
}
