package skills

import (
	"context"
	"fmt"
	"strings"

	"github.com/bartekus/cadence/internal/runner"
)

// CycleState validates the persisted TDD cycle state.
type CycleState struct{ id string }

func NewCycleState() runner.Skill { return &CycleState{id: "cycle:state"} }

func (s *CycleState) ID() string { return s.id }
func (s *CycleState) Description() string {
	return "persisted TDD cycle state is readable and consistent"
}

func (s *CycleState) Run(ctx context.Context, deps *runner.Deps) runner.SkillResult {
	if deps.Cycles == nil {
		return skip(s.id, "no state directory")
	}
	st, err := deps.Cycles.Load()
	if err != nil {
		return toolFailure(s.id, err)
	}
	if st == nil {
		return skip(s.id, "no cycle started")
	}

	var problems []string
	if !st.Phase.Valid() {
		problems = append(problems, fmt.Sprintf("unknown phase %q", st.Phase))
	}
	for i, p := range st.History {
		if !p.Valid() {
			problems = append(problems, fmt.Sprintf("history[%d]: unknown phase %q", i, p))
		}
	}
	if n := len(st.History); n > 0 && st.History[n-1] != st.Phase {
		problems = append(problems, fmt.Sprintf("history ends at %s but phase is %s", st.History[n-1], st.Phase))
	}

	if len(problems) > 0 {
		return runner.SkillResult{
			Skill:    s.id,
			Status:   runner.StatusFail,
			ExitCode: 1,
			Note:     strings.Join(problems, "\n"),
		}
	}
	return runner.SkillResult{
		Skill:  s.id,
		Status: runner.StatusPass,
		Note:   fmt.Sprintf("unit %s at %s", st.Unit, st.Phase),
	}
}
