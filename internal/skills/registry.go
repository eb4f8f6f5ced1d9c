package skills

import (
	"fmt"
	"strings"

	"github.com/bartekus/cadence/internal/compliance"
	"github.com/bartekus/cadence/internal/config"
	"github.com/bartekus/cadence/internal/runner"
)

// Registry returns the skills in canonical run order.
func Registry() []runner.Skill {
	return []runner.Skill{
		NewCommitMessage(),
		NewCommitHistory(),
		NewSecretsStaged(),
		NewSecretsTracked(),
		NewBranchPolicy(),
		NewCycleState(),
	}
}

func cfgOf(deps *runner.Deps) *config.Config {
	if deps.Config == nil {
		return config.Default()
	}
	return deps.Config
}

func evaluatorOf(deps *runner.Deps) *compliance.Evaluator {
	if deps.Evaluator == nil {
		return compliance.Default()
	}
	return deps.Evaluator
}

func skip(id, note string) runner.SkillResult {
	return runner.SkillResult{Skill: id, Status: runner.StatusSkip, Note: note}
}

// toolFailure reports an infrastructure error (git, filesystem) rather than a policy breach.
func toolFailure(id string, err error) runner.SkillResult {
	return runner.SkillResult{
		Skill:    id,
		Status:   runner.StatusFail,
		ExitCode: 4,
		Note:     err.Error(),
	}
}

func fromReport(id string, r compliance.Report, note string) runner.SkillResult {
	res := runner.SkillResult{
		Skill:      id,
		Status:     runner.StatusPass,
		Note:       note,
		Violations: r.Violations,
	}
	if !r.Passed {
		res.Status = runner.StatusFail
		res.ExitCode = 1
	}
	return res
}

// summarize lists at most limit items, noting how many were left out.
func summarize(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, "\n")
	}
	return strings.Join(items[:limit], "\n") + fmt.Sprintf("\n...and %d more", len(items)-limit)
}
