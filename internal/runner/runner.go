package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/bartekus/cadence/internal/logging"
)

// ErrRunFailed is returned when at least one skill failed.
var ErrRunFailed = errors.New("run failed")

// Runner manages the execution of skills.
type Runner struct {
	skills []Skill
	store  *StateStore
	deps   *Deps
}

// NewRunner creates a new runner with the given skills and dependencies.
func NewRunner(skills []Skill, store *StateStore, deps *Deps) *Runner {
	if deps == nil {
		deps = &Deps{}
	}
	return &Runner{
		skills: skills,
		store:  store,
		deps:   deps,
	}
}

// Skills returns the registered skills in order.
func (r *Runner) Skills() []Skill {
	return r.skills
}

// RunAll executes all skills in order.
// It continues execution even if a skill fails, accumulating failures.
// Returns an error if ANY skill failed.
func (r *Runner) RunAll(ctx context.Context) error {
	return r.executeSequence(ctx, r.skills)
}

// Resume re-runs only the skills that failed in the last run. Skills that
// passed are not repeated; with nothing failed it is a no-op.
func (r *Runner) Resume(ctx context.Context) error {
	failed, err := r.store.LoadFailedSkills()
	if err != nil {
		return goerr.Wrap(err, "loading failed skills")
	}
	if len(failed) == 0 {
		return nil
	}

	var toRun []Skill
	for _, id := range failed {
		if skill := r.findSkill(id); skill != nil {
			toRun = append(toRun, skill)
		}
	}
	return r.executeSequence(ctx, toRun)
}

// RunList executes a specific list of skill IDs.
func (r *Runner) RunList(ctx context.Context, skillIDs []string) error {
	var toRun []Skill
	for _, id := range skillIDs {
		s := r.findSkill(id)
		if s == nil {
			return goerr.New("skill not found", goerr.V("skill", id))
		}
		toRun = append(toRun, s)
	}
	return r.executeSequence(ctx, toRun)
}

func (r *Runner) findSkill(id string) Skill {
	for _, s := range r.skills {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

func (r *Runner) out() io.Writer {
	if r.deps.Out == nil {
		return io.Discard
	}
	return r.deps.Out
}

// executeSequence runs a sequence of skills, updating state.
// It returns error if ANY skill failed.
func (r *Runner) executeSequence(ctx context.Context, skills []Skill) error {
	w := r.out()
	runID := uuid.NewString()
	logger := logging.From(ctx).With("run_id", runID)

	last := LastRun{
		ID:        runID,
		StartedAt: logging.CtxTime(ctx),
		Status:    "pass",
		Skills:    []string{},
		Failed:    []string{},
	}

	for _, skill := range skills {
		id := skill.ID()
		last.Skills = append(last.Skills, id)

		_, _ = fmt.Fprintf(w, "\n%s\nSKILL: %s\n%s\n\n", banner, id, banner)

		start := time.Now()
		res := skill.Run(ctx, r.deps)
		res.Skill = id
		res.RunID = runID
		res.DurationMS = time.Since(start).Milliseconds()

		if err := r.store.WriteSkillResult(res); err != nil {
			return goerr.Wrap(err, "writing skill result", goerr.V("skill", id))
		}
		logger.Debug("skill finished", "skill", id, "status", res.Status, "duration_ms", res.DurationMS)

		switch res.Status {
		case StatusSkip:
			_, _ = fmt.Fprintf(w, "SKIP: %s\n", id)
		case StatusPass:
			_, _ = fmt.Fprintf(w, "PASS: %s\n", id)
		default:
			last.Failed = append(last.Failed, id)
			last.Status = "fail"
			_, _ = fmt.Fprintf(w, "FAIL: %s (exit %d)\n", id, res.ExitCode)
		}
		if res.Note != "" {
			_, _ = fmt.Fprintln(w, res.Note)
		}
		for _, v := range res.Violations {
			_, _ = fmt.Fprintf(w, "  %s\n", v.String())
		}
	}

	if err := r.store.WriteLastRun(last); err != nil {
		return goerr.Wrap(err, "writing last run")
	}

	if len(last.Failed) > 0 {
		return goerr.Wrap(ErrRunFailed, strings.Join(last.Failed, ", "), goerr.V("run_id", runID))
	}
	return nil
}

var banner = strings.Repeat("━", 40)
