package runner

import (
	"time"

	"github.com/bartekus/cadence/internal/policy"
)

// SkillStatus represents the outcome of a skill execution.
type SkillStatus string

const (
	StatusPass SkillStatus = "pass"
	StatusFail SkillStatus = "fail"
	StatusSkip SkillStatus = "skip"
)

// SkillResult represents the result of a single skill execution.
// Matches .cadence/run/skills/<skill>.json schema.
type SkillResult struct {
	Skill      string             `json:"skill"`
	Status     SkillStatus        `json:"status"`
	ExitCode   int                `json:"exit_code"`
	Note       string             `json:"note,omitempty"`
	Violations []policy.Violation `json:"violations,omitempty"`
	RunID      string             `json:"run_id,omitempty"`
	DurationMS int64              `json:"duration_ms"`
}

// LastRun represents the summary of the last execution.
// Matches .cadence/run/last-run.json schema.
type LastRun struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Status    string    `json:"status"` // "pass" or "fail"
	Skills    []string  `json:"skills"` // Ordered list of skills run
	Failed    []string  `json:"failed"` // List of failed skills
}
