// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Cadence - Cadence is a development-discipline policy checker for AI-assisted software development.
It evaluates commits, branches and TDD cycles against a team's process guides and produces deterministic compliance reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package rules holds the static catalog of enforceable rules. Each rule is
// a predicate over the facts gathered for one evaluation.
//
// Feature: RULE_CATALOG
// Spec: spec/policy/rules.md
package rules

import (
	"sort"

	"github.com/m-mizutani/goerr/v2"

	"github.com/bartekus/cadence/internal/commitmsg"
	"github.com/bartekus/cadence/internal/policy"
	"github.com/bartekus/cadence/internal/secrets"
)

// Rule ids. They are stable and appear in reports and configuration.
const (
	IDSecretsDetected    = "secrets.detected"
	IDCommitFormat       = "commit.format"
	IDCommitStyle        = "commit.style"
	IDCycleOrder         = "cycle.order"
	IDCycleVerified      = "cycle.verified"
	IDCycleRefactorGreen = "cycle.refactor-green"
	IDCycleComplete      = "cycle.complete"
	IDBranchName         = "branch.name"
	IDBranchAge          = "branch.age"
	IDBranchIssue        = "branch.issue"
)

// Facts is everything the components established about one event.
// Predicates read it; nothing writes it after construction.
type Facts struct {
	Message    *commitmsg.Message
	MessageErr error
	StyleNotes []string
	CycleErr   error
	Branch     []policy.Violation
	Findings   []secrets.Finding
}

// Predicate returns one message per breach. Empty means the rule holds.
type Predicate func(f *Facts) []string

// Rule is one named, enforceable rule.
type Rule struct {
	ID          string          `json:"id"`
	Code        policy.Code     `json:"code"`
	Description string          `json:"description"`
	Severity    policy.Severity `json:"severity"`
	Predicate   Predicate       `json:"-"`
}

// Check applies the predicate and returns violations.
func (r Rule) Check(f *Facts) []policy.Violation {
	if r.Predicate == nil || f == nil {
		return nil
	}
	msgs := r.Predicate(f)
	out := make([]policy.Violation, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, policy.Violation{RuleID: r.ID, Code: r.Code, Severity: r.Severity, Message: m})
	}
	return out
}

// Catalog is an immutable, ordered rule table.
type Catalog struct {
	rules []Rule
	index map[string]int
}

// builtin returns the rule table in evaluation order.
func builtin() []Rule {
	return []Rule{
		{
			ID:          IDSecretsDetected,
			Code:        policy.CodeSecretDetected,
			Description: "Added lines must not contain credentials.",
			Severity:    policy.SeverityBlocking,
			Predicate: func(f *Facts) []string {
				out := make([]string, 0, len(f.Findings))
				for _, fd := range f.Findings {
					out = append(out, "possible secret: "+fd.Describe())
				}
				return out
			},
		},
		{
			ID:          IDCommitFormat,
			Code:        policy.CodeMalformedMessage,
			Description: "Commit messages follow type(scope)!: subject.",
			Severity:    policy.SeverityBlocking,
			Predicate: func(f *Facts) []string {
				if policy.CodeOf(f.MessageErr) == policy.CodeMalformedMessage {
					return []string{policy.Describe(f.MessageErr)}
				}
				return nil
			},
		},
		{
			ID:          IDCommitStyle,
			Code:        policy.CodeCommitStyle,
			Description: "Subjects are lowercase imperative without a trailing period; bodies wrap at 100.",
			Severity:    policy.SeverityAdvisory,
			Predicate: func(f *Facts) []string {
				return f.StyleNotes
			},
		},
		cycleRule(IDCycleOrder, policy.CodeOutOfOrderPhase,
			"Cycle phases follow RED, GREEN, REFACTOR order."),
		cycleRule(IDCycleVerified, policy.CodeUnverifiedTransition,
			"GREEN needs a test that failed and now passes."),
		cycleRule(IDCycleRefactorGreen, policy.CodeRegressionDuringRefactor,
			"Tests stay green throughout REFACTOR."),
		cycleRule(IDCycleComplete, policy.CodeIncompleteCycle,
			"Only a cycle that reached GREEN or REFACTOR may be squashed."),
		branchRule(IDBranchName, policy.CodeInvalidBranchName, policy.SeverityAdvisory,
			"Branch names follow type/description[-#issue]."),
		branchRule(IDBranchAge, policy.CodeStaleBranch, policy.SeverityAdvisory,
			"Unmerged branches live at most 48h by default."),
		branchRule(IDBranchIssue, policy.CodeMissingIssueLink, policy.SeverityBlocking,
			"Every branch links to an issue."),
	}
}

func cycleRule(id string, code policy.Code, desc string) Rule {
	return Rule{
		ID:          id,
		Code:        code,
		Description: desc,
		Severity:    policy.SeverityBlocking,
		Predicate: func(f *Facts) []string {
			if f.CycleErr != nil && policy.CodeOf(f.CycleErr) == code {
				return []string{policy.Describe(f.CycleErr)}
			}
			return nil
		},
	}
}

// branchRule surfaces violations the branch evaluator already produced,
// re-issued under the catalog's severity.
func branchRule(id string, code policy.Code, sev policy.Severity, desc string) Rule {
	return Rule{
		ID:          id,
		Code:        code,
		Description: desc,
		Severity:    sev,
		Predicate: func(f *Facts) []string {
			var out []string
			for _, v := range f.Branch {
				if v.Code == code {
					out = append(out, v.Message)
				}
			}
			return out
		},
	}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, _ := New(nil)
	return c
}

// New builds a catalog, applying severity overrides keyed by rule id.
// Unknown ids and severities are rejected. The catalog is never modified afterwards.
func New(overrides map[string]policy.Severity) (*Catalog, error) {
	rs := builtin()
	idx := make(map[string]int, len(rs))
	for i, r := range rs {
		idx[r.ID] = i
	}

	ids := make([]string, 0, len(overrides))
	for id := range overrides {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		i, ok := idx[id]
		if !ok {
			return nil, goerr.New("unknown rule id in severity override", goerr.V("rule", id))
		}
		sev, err := policy.ParseSeverity(string(overrides[id]))
		if err != nil {
			return nil, goerr.Wrap(err, "invalid severity override", goerr.V("rule", id))
		}
		rs[i].Severity = sev
	}

	return &Catalog{rules: rs, index: idx}, nil
}

// Rules returns a copy of the rule table in evaluation order.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Lookup finds a rule by id.
func (c *Catalog) Lookup(id string) (Rule, bool) {
	i, ok := c.index[id]
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

// Evaluate runs every rule over f, in catalog order.
func (c *Catalog) Evaluate(f *Facts) []policy.Violation {
	var out []policy.Violation
	for _, r := range c.rules {
		out = append(out, r.Check(f)...)
	}
	return out
}
