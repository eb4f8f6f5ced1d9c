// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Cadence - Cadence is a development-discipline policy checker for AI-assisted software development.
It evaluates commits, branches and TDD cycles against a team's process guides and produces deterministic compliance reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package policy defines the shared vocabulary of the compliance checker:
// severities, stable violation codes and the sentinel errors behind them.
//
// Feature: POLICY_CORE
// Spec: spec/policy/core.md
package policy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Severity decides whether a violation blocks the action that produced it.
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityAdvisory Severity = "advisory"
)

// ParseSeverity parses a severity name from configuration.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityBlocking, SeverityAdvisory:
		return Severity(s), nil
	default:
		return "", fmt.Errorf("unknown severity %q (must be 'blocking' or 'advisory')", s)
	}
}

// Code is a stable violation code. Codes are part of the report contract.
type Code string

const (
	CodeMalformedMessage         Code = "MalformedMessage"
	CodeOutOfOrderPhase          Code = "OutOfOrderPhase"
	CodeUnverifiedTransition     Code = "UnverifiedTransition"
	CodeRegressionDuringRefactor Code = "RegressionDuringRefactor"
	CodeIncompleteCycle          Code = "IncompleteCycle"
	CodeSecretDetected           Code = "SecretDetected"
	CodeMissingIssueLink         Code = "MissingIssueLink"
	CodeInvalidBranchName        Code = "InvalidBranchName"
	CodeStaleBranch              Code = "StaleBranch"
	CodeCommitStyle              Code = "CommitStyle"
)

// Sentinel errors, one per code. Components wrap these so callers can
// recover the code with errors.Is.
var (
	ErrMalformedMessage         = errors.New(string(CodeMalformedMessage))
	ErrOutOfOrderPhase          = errors.New(string(CodeOutOfOrderPhase))
	ErrUnverifiedTransition     = errors.New(string(CodeUnverifiedTransition))
	ErrRegressionDuringRefactor = errors.New(string(CodeRegressionDuringRefactor))
	ErrIncompleteCycle          = errors.New(string(CodeIncompleteCycle))
	ErrSecretDetected           = errors.New(string(CodeSecretDetected))
	ErrMissingIssueLink         = errors.New(string(CodeMissingIssueLink))
	ErrInvalidBranchName        = errors.New(string(CodeInvalidBranchName))
	ErrStaleBranch              = errors.New(string(CodeStaleBranch))
	ErrCommitStyle              = errors.New(string(CodeCommitStyle))
)

var sentinels = map[Code]error{
	CodeMalformedMessage:         ErrMalformedMessage,
	CodeOutOfOrderPhase:          ErrOutOfOrderPhase,
	CodeUnverifiedTransition:     ErrUnverifiedTransition,
	CodeRegressionDuringRefactor: ErrRegressionDuringRefactor,
	CodeIncompleteCycle:          ErrIncompleteCycle,
	CodeSecretDetected:           ErrSecretDetected,
	CodeMissingIssueLink:         ErrMissingIssueLink,
	CodeInvalidBranchName:        ErrInvalidBranchName,
	CodeStaleBranch:              ErrStaleBranch,
	CodeCommitStyle:              ErrCommitStyle,
}

// Codes returns every known code in declaration order.
func Codes() []Code {
	return []Code{
		CodeSecretDetected,
		CodeMalformedMessage,
		CodeCommitStyle,
		CodeOutOfOrderPhase,
		CodeUnverifiedTransition,
		CodeRegressionDuringRefactor,
		CodeIncompleteCycle,
		CodeInvalidBranchName,
		CodeStaleBranch,
		CodeMissingIssueLink,
	}
}

// Err returns the sentinel error for a code, or nil if the code is unknown.
func (c Code) Err() error {
	return sentinels[c]
}

// CodeOf extracts the violation code from an error chain.
// Returns "" if err does not wrap any policy sentinel.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	for _, code := range Codes() {
		if errors.Is(err, sentinels[code]) {
			return code
		}
	}
	return ""
}

// Violation is a single rule breach with human-readable evidence.
type Violation struct {
	RuleID   string   `json:"ruleId"`
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Blocking reports whether the violation must stop the action.
func (v Violation) Blocking() bool {
	return v.Severity == SeverityBlocking
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s (%s): %s", v.Severity, v.RuleID, v.Code, v.Message)
}

// Describe renders a policy error as "message (k=v, ...)" without the
// trailing sentinel text, which the violation code already carries.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if code := CodeOf(err); code != "" {
		msg = strings.TrimSuffix(msg, ": "+string(code))
	}

	ge := goerr.Unwrap(err)
	if ge == nil {
		return msg
	}
	values := ge.Values()
	if len(values) == 0 {
		return msg
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, values[k]))
	}
	return msg + " (" + strings.Join(parts, ", ") + ")"
}
