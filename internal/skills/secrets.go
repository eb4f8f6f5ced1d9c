package skills

import (
	"context"
	"fmt"

	"github.com/bartekus/cadence/internal/gitrepo"
	"github.com/bartekus/cadence/internal/runner"
)

// SecretsStaged scans the lines added in the index.
type SecretsStaged struct{ id string }

func NewSecretsStaged() runner.Skill { return &SecretsStaged{id: "secrets:staged"} }

func (s *SecretsStaged) ID() string          { return s.id }
func (s *SecretsStaged) Description() string { return "staged changes add no credentials" }

func (s *SecretsStaged) Run(ctx context.Context, deps *runner.Deps) runner.SkillResult {
	if deps.Repo == nil {
		return skip(s.id, "no git repository")
	}
	lines, err := deps.Repo.StagedDiff(ctx)
	if err != nil {
		return toolFailure(s.id, err)
	}
	if len(lines) == 0 {
		return skip(s.id, "nothing staged")
	}
	out := evaluatorOf(deps).EvaluateSecrets(ctx, lines)
	return fromReport(s.id, out.Report, fmt.Sprintf("%d added lines scanned", len(lines)))
}

// SecretsTracked audits every tracked file, outside the allow-listed paths.
type SecretsTracked struct{ id string }

func NewSecretsTracked() runner.Skill { return &SecretsTracked{id: "secrets:tracked"} }

func (s *SecretsTracked) ID() string          { return s.id }
func (s *SecretsTracked) Description() string { return "no tracked file contains credentials" }

func (s *SecretsTracked) Run(ctx context.Context, deps *runner.Deps) runner.SkillResult {
	if deps.Repo == nil {
		return skip(s.id, "no git repository")
	}
	lines, err := deps.Repo.TrackedLines(ctx, gitrepo.FilterOptions{
		ExcludeDirs:     gitrepo.DefaultExcludeDirs(),
		ExcludePrefixes: cfgOf(deps).Secrets.AllowPaths,
		SkipExtensions:  gitrepo.DefaultSkipExtensions(),
	})
	if err != nil {
		return toolFailure(s.id, err)
	}
	out := evaluatorOf(deps).EvaluateSecrets(ctx, lines)
	return fromReport(s.id, out.Report, fmt.Sprintf("%d lines scanned", len(lines)))
}
