// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Cadence - Cadence is a development-discipline policy checker for AI-assisted software development.
It evaluates commits, branches and TDD cycles against a team's process guides and produces deterministic compliance reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package secrets detects credentials in the added lines of a diff.
//
// Feature: SECRET_SCANNER
// Spec: spec/policy/secrets.md
package secrets

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/bartekus/cadence/internal/diff"
)

// Kind groups signatures by the class of credential they detect.
type Kind string

const (
	KindPrivateKey    Kind = "private-key"
	KindCloudKey      Kind = "cloud-provider-key"
	KindCredentialURI Kind = "credential-uri"
	KindHighEntropy   Kind = "high-entropy-token"
	KindCustom        Kind = "custom"
)

// Confidence is how likely a finding is a real credential.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Redacted is a matched credential. Its type is registered with the log
// redaction filter so it never reaches log output in clear text.
type Redacted string

// Finding is one detected credential. Findings are produced, never stored.
type Finding struct {
	Pattern    string     `json:"pattern"`
	Kind       Kind       `json:"kind"`
	Path       string     `json:"path,omitempty"`
	Line       int        `json:"line"`
	Confidence Confidence `json:"confidence"`
	Match      Redacted   `json:"-" masq:"secret"`
}

// Describe renders the finding without the matched value.
func (f Finding) Describe() string {
	loc := fmt.Sprintf("line %d", f.Line)
	if f.Path != "" {
		loc = fmt.Sprintf("%s:%d", f.Path, f.Line)
	}
	return fmt.Sprintf("%s (%s, %s confidence) at %s", f.Pattern, f.Kind, f.Confidence, loc)
}

// Signature is a named regular-expression matcher.
type Signature struct {
	Name       string
	Kind       Kind
	Confidence Confidence
	Re         *regexp.Regexp
}

// DefaultSignatures returns the built-in signatures in precedence order.
func DefaultSignatures() []Signature {
	return []Signature{
		{Name: "private-key", Kind: KindPrivateKey, Confidence: ConfidenceHigh,
			Re: regexp.MustCompile(`-----BEGIN[A-Z0-9 ]*PRIVATE KEY(?: BLOCK)?-----`)},
		{Name: "aws-access-key", Kind: KindCloudKey, Confidence: ConfidenceHigh,
			Re: regexp.MustCompile(`\b(?:AKIA|ASIA|AGPA|AIDA|AROA|ANPA)[0-9A-Z]{16,20}\b`)},
		{Name: "gcp-api-key", Kind: KindCloudKey, Confidence: ConfidenceHigh,
			Re: regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{35}\b`)},
		{Name: "github-token", Kind: KindCloudKey, Confidence: ConfidenceHigh,
			Re: regexp.MustCompile(`\b(?:gh[pousr]_[A-Za-z0-9]{36,255}|github_pat_[A-Za-z0-9_]{22,255})\b`)},
		{Name: "slack-token", Kind: KindCloudKey, Confidence: ConfidenceHigh,
			Re: regexp.MustCompile(`\bxox[baprs]-[0-9A-Za-z-]{10,}\b`)},
		{Name: "stripe-key", Kind: KindCloudKey, Confidence: ConfidenceHigh,
			Re: regexp.MustCompile(`\b[sr]k_live_[0-9A-Za-z]{16,}\b`)},
		{Name: "credential-uri", Kind: KindCredentialURI, Confidence: ConfidenceHigh,
			Re: regexp.MustCompile(`\b[A-Za-z][A-Za-z0-9+.\-]*://[^\s:/@'"]+:[^\s@/'"]+@[^\s'"]+`)},
	}
}

// CustomPattern is a user-supplied signature from configuration.
type CustomPattern struct {
	Name       string
	Regex      string
	Confidence Confidence
}

// Options configures a Scanner. Zero values fall back to defaults.
type Options struct {
	Entropy    EntropyOptions
	Custom     []CustomPattern
	AllowPaths []string
}

// Scanner matches added lines against signatures and the entropy heuristic.
type Scanner struct {
	signatures []Signature
	entropy    EntropyOptions
	allowPaths []string
}

// New builds a scanner. Custom patterns are checked after the built-in
// signatures and before the entropy heuristic.
func New(opts Options) (*Scanner, error) {
	sigs := DefaultSignatures()
	for _, c := range opts.Custom {
		re, err := regexp.Compile(c.Regex)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid secret pattern", goerr.V("name", c.Name))
		}
		conf := c.Confidence
		if conf == "" {
			conf = ConfidenceMedium
		}
		sigs = append(sigs, Signature{Name: c.Name, Kind: KindCustom, Confidence: conf, Re: re})
	}

	return &Scanner{
		signatures: sigs,
		entropy:    opts.Entropy.withDefaults(),
		allowPaths: opts.AllowPaths,
	}, nil
}

// Default returns a scanner with built-in settings.
func Default() *Scanner {
	s, _ := New(Options{})
	return s
}

// Scan returns at most one finding per added line, in line order.
// The input is never modified.
func (s *Scanner) Scan(lines []diff.Line) []Finding {
	var findings []Finding
	for _, l := range lines {
		if s.allowed(l.Path) {
			continue
		}
		if f, ok := s.scanLine(l); ok {
			findings = append(findings, f)
		}
	}
	return findings
}

func (s *Scanner) scanLine(l diff.Line) (Finding, bool) {
	for _, sig := range s.signatures {
		if m := sig.Re.FindString(l.Text); m != "" {
			return Finding{
				Pattern:    sig.Name,
				Kind:       sig.Kind,
				Path:       l.Path,
				Line:       l.Number,
				Confidence: sig.Confidence,
				Match:      Redacted(m),
			}, true
		}
	}

	if tok, ok := s.entropy.highEntropyToken(l.Text); ok {
		return Finding{
			Pattern:    string(KindHighEntropy),
			Kind:       KindHighEntropy,
			Path:       l.Path,
			Line:       l.Number,
			Confidence: ConfidenceMedium,
			Match:      Redacted(tok),
		}, true
	}
	return Finding{}, false
}

func (s *Scanner) allowed(path string) bool {
	if path == "" {
		return false
	}
	for _, prefix := range s.allowPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
