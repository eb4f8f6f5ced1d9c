// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Cadence - Cadence is a development-discipline policy checker for AI-assisted software development.
It evaluates commits, branches and TDD cycles against a team's process guides and produces deterministic compliance reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package cycle tracks the red/green/refactor phase of one unit of work.
//
// The tracker never runs tests. Callers supply test-run evidence for each
// transition attempt and the tracker validates ordering against it.
//
// Feature: CYCLE_TRACKER
// Spec: spec/policy/cycle.md
package cycle

import (
	"github.com/m-mizutani/goerr/v2"

	"github.com/bartekus/cadence/internal/commitmsg"
	"github.com/bartekus/cadence/internal/policy"
)

// Phase is a TDD cycle phase.
type Phase string

const (
	PhaseNone          Phase = "NONE"
	PhaseRedStructural Phase = "RED_STRUCTURAL"
	PhaseRedBehavioral Phase = "RED_BEHAVIORAL"
	PhaseGreen         Phase = "GREEN"
	PhaseRefactor      Phase = "REFACTOR"
	PhaseSquashed      Phase = "SQUASHED"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseNone, PhaseRedStructural, PhaseRedBehavioral, PhaseGreen, PhaseRefactor, PhaseSquashed:
		return true
	}
	return false
}

// allowedFrom lists, per target phase, the phases it may follow.
var allowedFrom = map[Phase][]Phase{
	PhaseRedStructural: {PhaseNone, PhaseRedStructural, PhaseGreen, PhaseRefactor},
	PhaseRedBehavioral: {PhaseNone, PhaseRedStructural, PhaseGreen, PhaseRefactor},
	PhaseGreen:         {PhaseRedBehavioral, PhaseRefactor},
	PhaseRefactor:      {PhaseGreen},
}

// TestResult is one externally reported test outcome.
type TestResult struct {
	Name    string `json:"name" yaml:"name"`
	Passing bool   `json:"passing" yaml:"passing"`
}

// Evidence is the test-run evidence supplied with a transition attempt.
type Evidence struct {
	// Behavior names the behavior under test. Optional.
	Behavior string `json:"behavior,omitempty" yaml:"behavior,omitempty"`

	HadFailingTest bool `json:"had_failing_test" yaml:"had_failing_test"`
	NowPassing     bool `json:"now_passing" yaml:"now_passing"`

	Results []TestResult `json:"results,omitempty" yaml:"results,omitempty"`
}

// Failing returns the names of failing results.
func (e *Evidence) Failing() []string {
	if e == nil {
		return nil
	}
	var out []string
	for _, r := range e.Results {
		if !r.Passing {
			out = append(out, r.Name)
		}
	}
	return out
}

// State is the cycle state of one unit of work.
type State struct {
	Unit     string  `json:"unit"`
	Phase    Phase   `json:"phase"`
	Behavior string  `json:"behavior,omitempty"`
	History  []Phase `json:"history"`
}

// Start begins a fresh cycle for unit.
func Start(unit string) *State {
	return &State{Unit: unit, Phase: PhaseNone, History: []Phase{}}
}

// Active reports whether the state belongs to an unsquashed cycle.
func (s *State) Active() bool {
	return s != nil && s.Phase != PhaseSquashed
}

// Clone returns a deep copy. Concurrent evaluations must each work on their own clone.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	cpy := *s
	cpy.History = make([]Phase, len(s.History))
	copy(cpy.History, s.History)
	return &cpy
}

// Advance validates a transition to next and returns the resulting state.
// The input state is never modified.
func Advance(s *State, next Phase, ev *Evidence) (*State, error) {
	if s == nil {
		return nil, goerr.Wrap(policy.ErrOutOfOrderPhase, "no active cycle", goerr.V("next", next))
	}
	if s.Phase == PhaseSquashed {
		return nil, goerr.Wrap(policy.ErrOutOfOrderPhase, "cycle already squashed",
			goerr.V("unit", s.Unit), goerr.V("next", next))
	}

	allowed, known := allowedFrom[next]
	if !known {
		return nil, goerr.Wrap(policy.ErrOutOfOrderPhase, "not a transition phase", goerr.V("next", next))
	}
	if !phaseIn(s.Phase, allowed) {
		return nil, goerr.Wrap(policy.ErrOutOfOrderPhase, "phase out of order",
			goerr.V("unit", s.Unit), goerr.V("from", s.Phase), goerr.V("next", next))
	}

	out := s.Clone()
	switch next {
	case PhaseRedBehavioral:
		out.Behavior = ""
		if ev != nil {
			out.Behavior = ev.Behavior
		}

	case PhaseGreen:
		if ev == nil || !ev.HadFailingTest || !ev.NowPassing {
			return nil, goerr.Wrap(policy.ErrUnverifiedTransition, "green requires failing-then-passing evidence",
				goerr.V("unit", s.Unit), goerr.V("from", s.Phase))
		}
		if s.Behavior != "" && ev.Behavior != s.Behavior {
			return nil, goerr.Wrap(policy.ErrUnverifiedTransition, "evidence is for a different behavior",
				goerr.V("expected", s.Behavior), goerr.V("got", ev.Behavior))
		}

	case PhaseRefactor:
		if ev == nil {
			return nil, goerr.Wrap(policy.ErrUnverifiedTransition, "refactor requires test results",
				goerr.V("unit", s.Unit))
		}
		if failing := ev.Failing(); len(failing) > 0 || (len(ev.Results) == 0 && !ev.NowPassing) {
			return nil, goerr.Wrap(policy.ErrRegressionDuringRefactor, "tests failing during refactor",
				goerr.V("unit", s.Unit), goerr.V("failing", failing))
		}
	}

	out.Phase = next
	out.History = append(out.History, next)
	return out, nil
}

// Squash closes the cycle. Only a cycle that ended in GREEN or REFACTOR may be squashed.
func Squash(s *State) (*State, error) {
	if s == nil {
		return nil, goerr.Wrap(policy.ErrIncompleteCycle, "no active cycle")
	}
	switch s.Phase {
	case PhaseGreen, PhaseRefactor:
		return &State{Unit: s.Unit, Phase: PhaseSquashed, History: []Phase{}}, nil
	case PhaseSquashed:
		return nil, goerr.Wrap(policy.ErrOutOfOrderPhase, "cycle already squashed", goerr.V("unit", s.Unit))
	default:
		return nil, goerr.Wrap(policy.ErrIncompleteCycle, "cannot squash mid-cycle",
			goerr.V("unit", s.Unit), goerr.V("phase", s.Phase))
	}
}

// PhaseFor maps a classified commit to the phase it claims, if any.
// The second return value is false for commits that carry no phase token.
func PhaseFor(msg *commitmsg.Message) (Phase, bool) {
	if msg == nil {
		return "", false
	}
	switch msg.Type {
	case "test":
		if msg.Scope == "structure" || msg.Scope == "structural" {
			return PhaseRedStructural, true
		}
		return PhaseRedBehavioral, true
	case "green":
		return PhaseGreen, true
	case "fix":
		if msg.Micro {
			return PhaseGreen, true
		}
	case "refactor":
		return PhaseRefactor, true
	}
	return "", false
}

func phaseIn(p Phase, list []Phase) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}
