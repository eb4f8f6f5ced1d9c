// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Cadence - Cadence is a development-discipline policy checker for AI-assisted software development.
It evaluates commits, branches and TDD cycles against a team's process guides and produces deterministic compliance reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package branch evaluates short-lived feature branches against the
// trunk-based branching policy.
//
// Feature: BRANCH_POLICY
// Spec: spec/policy/branch.md
package branch

import (
	"fmt"
	"regexp"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/bartekus/cadence/internal/policy"
)

// DefaultMaxAge is the advisory lifetime of an unmerged branch.
const DefaultMaxAge = 48 * time.Hour

// DefaultNamePattern accepts type/description with an optional -#issue suffix.
const DefaultNamePattern = `^(?:feat|fix|docs|style|refactor|test|chore|perf|ci|build)/[a-z0-9]+(?:[._-][a-z0-9]+)*(?:-#[0-9]+)?$`

// DefaultTrunks lists branches that are exempt from feature-branch rules.
func DefaultTrunks() []string {
	return []string{"main", "master", "trunk"}
}

var issueSuffixRe = regexp.MustCompile(`-#([0-9]+)$`)

// Branch is a read-only snapshot of a branch.
type Branch struct {
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	LinkedIssueID string    `json:"linked_issue_id,omitempty"`
	Merged        bool      `json:"merged"`
}

// Age returns how long the branch has existed at now.
func (b Branch) Age(now time.Time) time.Duration {
	if b.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(b.CreatedAt)
}

// IssueFromName derives an issue id from a "-#123" name suffix.
func IssueFromName(name string) string {
	if m := issueSuffixRe.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return ""
}

// Options configures an Evaluator. Zero values fall back to defaults.
type Options struct {
	NamePattern string
	MaxAge      time.Duration
	Trunks      []string
	// NameSeverity is the severity of a naming violation (advisory by default).
	NameSeverity policy.Severity
}

// Evaluator checks branches. It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	nameRe       *regexp.Regexp
	maxAge       time.Duration
	trunks       map[string]bool
	nameSeverity policy.Severity
}

// New builds an evaluator from opts.
func New(opts Options) (*Evaluator, error) {
	pattern := opts.NamePattern
	if pattern == "" {
		pattern = DefaultNamePattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid branch name pattern", goerr.V("pattern", pattern))
	}

	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	trunks := opts.Trunks
	if len(trunks) == 0 {
		trunks = DefaultTrunks()
	}
	set := make(map[string]bool, len(trunks))
	for _, t := range trunks {
		set[t] = true
	}

	sev := opts.NameSeverity
	if sev == "" {
		sev = policy.SeverityAdvisory
	}

	return &Evaluator{nameRe: re, maxAge: maxAge, trunks: set, nameSeverity: sev}, nil
}

// Default returns an evaluator with built-in settings.
func Default() *Evaluator {
	e, _ := New(Options{})
	return e
}

// IsTrunk reports whether name is a trunk branch.
func (e *Evaluator) IsTrunk(name string) bool {
	return e.trunks[name]
}

// Evaluate runs every branch check and returns all violations; no check
// short-circuits another. Trunk branches produce no violations.
func (e *Evaluator) Evaluate(b Branch, now time.Time) []policy.Violation {
	if e.IsTrunk(b.Name) {
		return nil
	}

	var out []policy.Violation

	if !e.nameRe.MatchString(b.Name) {
		out = append(out, policy.Violation{
			RuleID:   "branch.name",
			Code:     policy.CodeInvalidBranchName,
			Severity: e.nameSeverity,
			Message:  fmt.Sprintf("branch %q does not match type/description[-#issue]", b.Name),
		})
	}

	if !b.Merged {
		if age := b.Age(now); age > e.maxAge {
			out = append(out, policy.Violation{
				RuleID:   "branch.age",
				Code:     policy.CodeStaleBranch,
				Severity: policy.SeverityAdvisory,
				Message:  fmt.Sprintf("branch %q is %s old (limit %s); merge to trunk or split the work", b.Name, roundAge(age), e.maxAge),
			})
		}
	}

	if b.LinkedIssueID == "" {
		out = append(out, policy.Violation{
			RuleID:   "branch.issue",
			Code:     policy.CodeMissingIssueLink,
			Severity: policy.SeverityBlocking,
			Message:  fmt.Sprintf("branch %q is not linked to an issue", b.Name),
		})
	}

	return out
}

func roundAge(d time.Duration) time.Duration {
	return d.Round(time.Minute)
}
