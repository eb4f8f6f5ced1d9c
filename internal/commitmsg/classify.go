// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Cadence - Cadence is a development-discipline policy checker for AI-assisted software development.
It evaluates commits, branches and TDD cycles against a team's process guides and produces deterministic compliance reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package commitmsg parses commit messages into conventional-commit parts.
//
// Feature: COMMIT_CLASSIFIER
// Spec: spec/policy/commit.md
package commitmsg

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"

	"github.com/bartekus/cadence/internal/policy"
)

// DefaultMaxSubject is the subject length limit in runes.
const DefaultMaxSubject = 72

// DefaultTypes returns the conventional commit types accepted everywhere.
func DefaultTypes() []string {
	return []string{"feat", "fix", "docs", "style", "refactor", "test", "chore", "perf", "ci", "build"}
}

// DefaultMicroPrefixes returns the lightweight prefixes accepted inside an active cycle.
func DefaultMicroPrefixes() []string {
	return []string{"green", "refactor", "fix"}
}

// Options tunes classification.
type Options struct {
	// InCycle enables micro-commit prefixes. Set it only while an unsquashed
	// development cycle is active.
	InCycle bool

	// MaxSubject overrides DefaultMaxSubject when > 0.
	MaxSubject int

	// Types and MicroPrefixes override the defaults when non-empty.
	Types         []string
	MicroPrefixes []string
}

// Footer is one git trailer from the final paragraph.
type Footer struct {
	Token string `json:"token"`
	Value string `json:"value"`
}

// Message is a classified commit message. It is never mutated after Classify returns.
type Message struct {
	Header   string   `json:"header"`
	Type     string   `json:"type"`
	Scope    string   `json:"scope,omitempty"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body,omitempty"`
	Footers  []Footer `json:"footers,omitempty"`
	Breaking bool     `json:"breaking"`
	// Micro is set when the type was accepted as a micro-commit prefix.
	Micro bool `json:"micro"`
}

var (
	headerRe  = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9-]*)(?:\(([^()]*)\))?(!)?\s*:\s*(.*)$`)
	trailerRe = regexp.MustCompile(`^(BREAKING[ -]CHANGE|[A-Za-z][A-Za-z0-9-]*)(?::\s+| #)(.*)$`)
)

// Classify parses raw into a Message. It fails with policy.ErrMalformedMessage
// when the header is missing, the type is not accepted, or the subject is
// empty or too long.
func Classify(raw string, opts Options) (*Message, error) {
	lines := stripComments(raw)
	if len(lines) == 0 {
		return nil, goerr.Wrap(policy.ErrMalformedMessage, "empty commit message")
	}

	header := strings.TrimSpace(lines[0])
	m := headerRe.FindStringSubmatch(header)
	if m == nil {
		return nil, goerr.Wrap(policy.ErrMalformedMessage, "no colon-delimited type header",
			goerr.V("header", header))
	}

	typ := m[1]
	msg := &Message{
		Header:   header,
		Type:     typ,
		Scope:    strings.TrimSpace(m[2]),
		Breaking: m[3] == "!",
		Subject:  strings.TrimSpace(m[4]),
	}

	switch {
	case contains(typesOf(opts), typ):
		msg.Micro = opts.InCycle && contains(microOf(opts), typ)
	case opts.InCycle && contains(microOf(opts), typ):
		msg.Micro = true
	default:
		return nil, goerr.Wrap(policy.ErrMalformedMessage, "unknown commit type",
			goerr.V("type", typ), goerr.V("in_cycle", opts.InCycle))
	}

	if msg.Subject == "" {
		return nil, goerr.Wrap(policy.ErrMalformedMessage, "empty subject", goerr.V("header", header))
	}

	limit := opts.MaxSubject
	if limit <= 0 {
		limit = DefaultMaxSubject
	}
	if n := utf8.RuneCountInString(msg.Subject); n > limit {
		return nil, goerr.Wrap(policy.ErrMalformedMessage, "subject too long",
			goerr.V("length", n), goerr.V("limit", limit))
	}

	body, footers := splitBody(lines[1:])
	msg.Body = body
	msg.Footers = footers
	for _, f := range footers {
		if isBreakingToken(f.Token) {
			msg.Breaking = true
		}
	}

	return msg, nil
}

// stripComments drops git template comment lines and surrounding blank lines.
func stripComments(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, strings.TrimRight(line, " \t"))
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

// splitBody separates the lines after the header into body and trailers.
// The final paragraph is treated as a footer block only when every line in
// it is a trailer.
func splitBody(lines []string) (string, []Footer) {
	paragraphs := paragraphsOf(lines)
	if len(paragraphs) == 0 {
		return "", nil
	}

	last := paragraphs[len(paragraphs)-1]
	at := footerStart(last)
	var footers []Footer
	if at >= 0 {
		for _, line := range last[at:] {
			m := trailerRe.FindStringSubmatch(line)
			if m == nil {
				// continuation of a multi-line footer value
				footers[len(footers)-1].Value += "\n" + strings.TrimSpace(line)
				continue
			}
			footers = append(footers, Footer{Token: m[1], Value: strings.TrimSpace(m[2])})
		}
		if at == 0 {
			paragraphs = paragraphs[:len(paragraphs)-1]
		} else {
			paragraphs[len(paragraphs)-1] = last[:at]
		}
	}

	parts := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		parts = append(parts, strings.Join(p, "\n"))
	}
	return strings.Join(parts, "\n\n"), footers
}

// footerStart returns the index of the first footer line of the final
// paragraph, or -1 when it has none. A paragraph made only of trailers is
// all footers; otherwise footers begin at the first breaking-change line.
func footerStart(para []string) int {
	all := true
	for _, line := range para {
		if !trailerRe.MatchString(line) {
			all = false
			break
		}
	}
	if all {
		return 0
	}
	for i, line := range para {
		if m := trailerRe.FindStringSubmatch(line); m != nil && isBreakingToken(m[1]) {
			return i
		}
	}
	return -1
}

func paragraphsOf(lines []string) [][]string {
	var out [][]string
	var cur []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func typesOf(opts Options) []string {
	if len(opts.Types) > 0 {
		return opts.Types
	}
	return DefaultTypes()
}

func microOf(opts Options) []string {
	if len(opts.MicroPrefixes) > 0 {
		return opts.MicroPrefixes
	}
	return DefaultMicroPrefixes()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func isBreakingToken(token string) bool {
	return token == "BREAKING CHANGE" || token == "BREAKING-CHANGE"
}
