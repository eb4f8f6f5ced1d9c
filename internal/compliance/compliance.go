// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Cadence - Cadence is a development-discipline policy checker for AI-assisted software development.
It evaluates commits, branches and TDD cycles against a team's process guides and produces deterministic compliance reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/
// Package compliance evaluates one repository event against the rule
// catalog and aggregates the violations into a report.
//
// Evaluation is pure: callers materialize the commit, diff, branch and
// cycle snapshot; nothing here touches git or the filesystem.
//
// Feature: COMPLIANCE_REPORT
// Spec: spec/policy/compliance.md
package compliance

import (
	"context"
	"runtime"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/bartekus/cadence/internal/branch"
	"github.com/bartekus/cadence/internal/commitmsg"
	"github.com/bartekus/cadence/internal/config"
	"github.com/bartekus/cadence/internal/cycle"
	"github.com/bartekus/cadence/internal/diff"
	"github.com/bartekus/cadence/internal/logging"
	"github.com/bartekus/cadence/internal/policy"
	"github.com/bartekus/cadence/internal/rules"
	"github.com/bartekus/cadence/internal/secrets"
)

// Commit is a read-only commit snapshot.
type Commit struct {
	Message string      `json:"message"`
	Diff    []diff.Line `json:"diff,omitempty"`
}

// Input is everything known about one event. Branch, Cycle and Evidence are optional.
type Input struct {
	Commit   Commit
	Branch   *branch.Branch
	Cycle    *cycle.State
	Evidence *cycle.Evidence

	// Now is the evaluation time for branch age. Zero means the context clock.
	Now time.Time
}

// Report is the result of one evaluation. It is never modified after it is returned.
type Report struct {
	Passed     bool               `json:"passed"`
	Violations []policy.Violation `json:"violations"`
}

// Blocking returns the blocking violations.
func (r Report) Blocking() []policy.Violation {
	var out []policy.Violation
	for _, v := range r.Violations {
		if v.Blocking() {
			out = append(out, v)
		}
	}
	return out
}

// Outcome pairs a report with the cycle state that follows the event.
type Outcome struct {
	Report Report

	// Cycle is the next cycle state: advanced on a valid phase commit, an
	// unchanged copy otherwise, nil when no cycle was supplied.
	Cycle *cycle.State

	// Message is the classified commit, nil when classification failed or
	// the event was short-circuited.
	Message *commitmsg.Message

	Findings []secrets.Finding
}

// Options wires an Evaluator. Nil components fall back to defaults.
type Options struct {
	Catalog  *rules.Catalog
	Scanner  *secrets.Scanner
	Branches *branch.Evaluator
	Commit   commitmsg.Options
}

// Evaluator runs the components over events. It holds no mutable state and
// is safe for concurrent use.
type Evaluator struct {
	catalog  *rules.Catalog
	scanner  *secrets.Scanner
	branches *branch.Evaluator
	commit   commitmsg.Options
}

// New builds an evaluator.
func New(opts Options) *Evaluator {
	e := &Evaluator{
		catalog:  opts.Catalog,
		scanner:  opts.Scanner,
		branches: opts.Branches,
		commit:   opts.Commit,
	}
	if e.catalog == nil {
		e.catalog = rules.Default()
	}
	if e.scanner == nil {
		e.scanner = secrets.Default()
	}
	if e.branches == nil {
		e.branches = branch.Default()
	}
	e.commit.InCycle = false
	return e
}

// Default returns an evaluator with built-in settings.
func Default() *Evaluator {
	return New(Options{})
}

// FromConfig builds an evaluator from the repository policy.
func FromConfig(cfg *config.Config) (*Evaluator, error) {
	catalog, err := rules.New(cfg.SeverityOverrides())
	if err != nil {
		return nil, goerr.Wrap(err, "building rule catalog")
	}
	scanner, err := secrets.New(cfg.SecretOptions())
	if err != nil {
		return nil, goerr.Wrap(err, "building secret scanner")
	}
	branches, err := branch.New(cfg.BranchOptions())
	if err != nil {
		return nil, goerr.Wrap(err, "building branch evaluator")
	}
	return New(Options{Catalog: catalog, Scanner: scanner, Branches: branches, Commit: cfg.CommitOptions()}), nil
}

// Catalog returns the rule catalog in use.
func (e *Evaluator) Catalog() *rules.Catalog {
	return e.catalog
}

// Evaluate checks one event. The secret scan runs first and any finding
// short-circuits the rest; otherwise every component contributes. The
// input cycle state is never modified.
func (e *Evaluator) Evaluate(ctx context.Context, in Input) Outcome {
	logger := logging.From(ctx)
	st := in.Cycle.Clone()

	if findings := e.scanner.Scan(in.Commit.Diff); len(findings) > 0 {
		for _, f := range findings {
			logger.Warn("secret detected in added line", "finding", f)
		}
		report := e.report(&rules.Facts{Findings: findings})
		return Outcome{Report: report, Cycle: st, Findings: findings}
	}

	facts := &rules.Facts{}

	opts := e.commit
	opts.InCycle = st.Active()
	msg, err := commitmsg.Classify(in.Commit.Message, opts)
	if err != nil {
		logger.Debug("commit message rejected", "error", err)
		facts.MessageErr = err
	} else {
		facts.Message = msg
		facts.StyleNotes = commitmsg.Lint(msg)
	}

	if msg != nil {
		if phase, ok := cycle.PhaseFor(msg); ok && tracked(st, phase) {
			next, err := advance(st, phase, in.Evidence)
			if err != nil {
				logger.Debug("cycle transition rejected", "error", err)
				facts.CycleErr = err
			} else {
				st = next
			}
		}
	}

	if in.Branch != nil {
		now := in.Now
		if now.IsZero() {
			now = logging.CtxTime(ctx)
		}
		facts.Branch = e.branches.Evaluate(*in.Branch, now)
	}

	report := e.report(facts)
	logger.Debug("event evaluated", "passed", report.Passed, "violations", len(report.Violations))
	return Outcome{Report: report, Cycle: st, Message: msg}
}

// tracked reports whether a phase commit is checked against st. Only an
// active cycle is tracked, except that a RED commit reopens a squashed one.
func tracked(st *cycle.State, phase cycle.Phase) bool {
	if st.Active() {
		return true
	}
	return st != nil && st.Phase == cycle.PhaseSquashed &&
		(phase == cycle.PhaseRedStructural || phase == cycle.PhaseRedBehavioral)
}

// advance applies a phase commit. A RED commit after a squash opens the
// next cycle for the same unit.
func advance(st *cycle.State, phase cycle.Phase, ev *cycle.Evidence) (*cycle.State, error) {
	if st.Phase == cycle.PhaseSquashed && (phase == cycle.PhaseRedStructural || phase == cycle.PhaseRedBehavioral) {
		st = cycle.Start(st.Unit)
	}
	return cycle.Advance(st, phase, ev)
}

// EvaluateMessage classifies a commit message on its own, without
// secrets, branch or cycle transitions. inCycle enables micro prefixes.
func (e *Evaluator) EvaluateMessage(ctx context.Context, raw string, inCycle bool) Outcome {
	opts := e.commit
	opts.InCycle = inCycle
	facts := &rules.Facts{}
	msg, err := commitmsg.Classify(raw, opts)
	if err != nil {
		logging.From(ctx).Debug("commit message rejected", "error", err)
		facts.MessageErr = err
	} else {
		facts.Message = msg
		facts.StyleNotes = commitmsg.Lint(msg)
	}
	return Outcome{Report: e.report(facts), Message: msg}
}

// EvaluateSecrets scans added lines on their own.
func (e *Evaluator) EvaluateSecrets(ctx context.Context, lines []diff.Line) Outcome {
	findings := e.scanner.Scan(lines)
	for _, f := range findings {
		logging.From(ctx).Warn("secret detected in added line", "finding", f)
	}
	return Outcome{Report: e.report(&rules.Facts{Findings: findings}), Findings: findings}
}

// EvaluateBranch checks a branch on its own. A zero now uses the context clock.
func (e *Evaluator) EvaluateBranch(ctx context.Context, b branch.Branch, now time.Time) Outcome {
	if now.IsZero() {
		now = logging.CtxTime(ctx)
	}
	return Outcome{Report: e.report(&rules.Facts{Branch: e.branches.Evaluate(b, now)})}
}

// IsTrunk reports whether name is a configured trunk branch.
func (e *Evaluator) IsTrunk(name string) bool {
	return e.branches.IsTrunk(name)
}

// EvaluateSquash checks an explicit squash of the given cycle.
func (e *Evaluator) EvaluateSquash(ctx context.Context, st *cycle.State) Outcome {
	next, err := cycle.Squash(st)
	if err != nil {
		logging.From(ctx).Debug("squash rejected", "error", err)
		return Outcome{Report: e.report(&rules.Facts{CycleErr: err}), Cycle: st.Clone()}
	}
	return Outcome{Report: e.report(&rules.Facts{}), Cycle: next}
}

// EvaluateBatch evaluates inputs in parallel. Each input works on its own
// copy of its cycle state; outcomes are returned in input order.
func (e *Evaluator) EvaluateBatch(ctx context.Context, inputs []Input) ([]Outcome, error) {
	out := make([]Outcome, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return goerr.Wrap(err, "batch evaluation cancelled", goerr.V("index", i))
			}
			out[i] = e.Evaluate(ctx, inputs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Evaluator) report(f *rules.Facts) Report {
	vs := e.catalog.Evaluate(f)
	if vs == nil {
		vs = []policy.Violation{}
	}
	passed := true
	for _, v := range vs {
		if v.Blocking() {
			passed = false
			break
		}
	}
	return Report{Passed: passed, Violations: vs}
}
