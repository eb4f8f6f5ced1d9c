package skills

import (
	"context"
	"time"

	"github.com/bartekus/cadence/internal/branch"
	"github.com/bartekus/cadence/internal/runner"
)

// BranchPolicy checks the checked-out branch against the branching policy.
type BranchPolicy struct{ id string }

func NewBranchPolicy() runner.Skill { return &BranchPolicy{id: "branch:policy"} }

func (s *BranchPolicy) ID() string { return s.id }
func (s *BranchPolicy) Description() string {
	return "current branch is named, short-lived and linked to an issue"
}

func (s *BranchPolicy) Run(ctx context.Context, deps *runner.Deps) runner.SkillResult {
	if deps.Repo == nil {
		return skip(s.id, "no git repository")
	}
	name, err := deps.Repo.CurrentBranch(ctx)
	if err != nil {
		return skip(s.id, "detached HEAD")
	}

	ev := evaluatorOf(deps)
	if ev.IsTrunk(name) {
		return skip(s.id, "on trunk "+name)
	}

	trunks := cfgOf(deps).Branch.Trunk
	if len(trunks) == 0 {
		trunks = branch.DefaultTrunks()
	}
	b, err := deps.Repo.Branch(ctx, name, trunks)
	if err != nil {
		return toolFailure(s.id, err)
	}
	out := ev.EvaluateBranch(ctx, b, time.Time{})
	return fromReport(s.id, out.Report, "branch "+name)
}
