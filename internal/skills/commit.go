package skills

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bartekus/cadence/internal/reports/commithealth"
	"github.com/bartekus/cadence/internal/runner"
)

// CommitMessage checks the HEAD commit message.
type CommitMessage struct{ id string }

func NewCommitMessage() runner.Skill { return &CommitMessage{id: "commit:message"} }

func (s *CommitMessage) ID() string          { return s.id }
func (s *CommitMessage) Description() string { return "HEAD commit follows type(scope)!: subject" }

func (s *CommitMessage) Run(ctx context.Context, deps *runner.Deps) runner.SkillResult {
	if deps.Repo == nil {
		return skip(s.id, "no git repository")
	}
	msg, err := deps.Repo.HeadMessage(ctx)
	if err != nil {
		return toolFailure(s.id, err)
	}

	inCycle := false
	if deps.Cycles != nil {
		st, err := deps.Cycles.Load()
		if err != nil {
			return toolFailure(s.id, err)
		}
		inCycle = st.Active()
	}

	out := evaluatorOf(deps).EvaluateMessage(ctx, msg, inCycle)
	note := ""
	if out.Message != nil {
		note = "type " + out.Message.Type
	}
	return fromReport(s.id, out.Report, note)
}

// MinHealthPercent is the share of conventional commits commit:history requires.
const MinHealthPercent = 80

// HistoryLimit is how many recent commits commit:history analyzes.
const HistoryLimit = 50

// CommitHistory classifies recent history and writes the commit-health report.
type CommitHistory struct{ id string }

func NewCommitHistory() runner.Skill { return &CommitHistory{id: "commit:history"} }

func (s *CommitHistory) ID() string { return s.id }
func (s *CommitHistory) Description() string {
	return fmt.Sprintf("at least %d%% of the last %d commits are conventional", MinHealthPercent, HistoryLimit)
}

func (s *CommitHistory) Run(ctx context.Context, deps *runner.Deps) runner.SkillResult {
	if deps.Repo == nil {
		return skip(s.id, "no git repository")
	}
	r, err := commithealth.Build(ctx, deps.Repo, HistoryLimit, cfgOf(deps).CommitOptions())
	if err != nil {
		return toolFailure(s.id, err)
	}
	if r.Total == 0 {
		return skip(s.id, "no commits yet")
	}

	if deps.StateDir != "" {
		if err := commithealth.Write(filepath.Join(deps.StateDir, "reports"), r); err != nil {
			return toolFailure(s.id, err)
		}
	}

	note := fmt.Sprintf("health %d%% (%d/%d conventional)", r.HealthPercent, r.Conventional, r.Total)
	if r.HealthPercent >= MinHealthPercent {
		return runner.SkillResult{Skill: s.id, Status: runner.StatusPass, Note: note}
	}

	var offenders []string
	for _, e := range r.Entries {
		if !e.Conventional {
			offenders = append(offenders, fmt.Sprintf("%s %s: %s", e.SHA, e.Subject, e.Problem))
		}
	}
	return runner.SkillResult{
		Skill:    s.id,
		Status:   runner.StatusFail,
		ExitCode: 1,
		Note:     note + "\n" + summarize(offenders, 5),
	}
}
