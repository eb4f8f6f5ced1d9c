// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Cadence - Cadence is a development-discipline policy checker for AI-assisted software development.
It evaluates commits, branches and TDD cycles against a team's process guides and produces deterministic compliance reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package config loads the policy configuration. Every repository checked by
// Cadence may carry a .cadence/policy.yaml; when it is absent the embedded
// default document applies.
//
// Feature: POLICY_CONFIG
// Spec: spec/policy/config.md
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/bartekus/cadence/internal/branch"
	"github.com/bartekus/cadence/internal/commitmsg"
	"github.com/bartekus/cadence/internal/policy"
	"github.com/bartekus/cadence/internal/secrets"
)

const (
	// Dir is the per-repository directory holding config and state.
	Dir = ".cadence"

	// FileName is the policy file inside Dir.
	FileName = "policy.yaml"
)

// ErrInvalidConfig tags configuration validation failures.
var ErrInvalidConfig = errors.New("invalid policy configuration")

const defaultPolicyYAML = `# cadence policy configuration
version: 1

# Commit hygiene: conventional commit headers.
commit:
  max_subject: 72
  types: [feat, fix, docs, style, refactor, test, chore, perf, ci, build]
  # Accepted only while a TDD cycle is active.
  micro_prefixes: [green, refactor, fix]

# Trunk-based branching: short-lived, named, linked to an issue.
branch:
  pattern: '^(?:feat|fix|docs|style|refactor|test|chore|perf|ci|build)/[a-z0-9]+(?:[._-][a-z0-9]+)*(?:-#[0-9]+)?$'
  max_age: 48h
  trunk: [main, master, trunk]
  name_severity: advisory

# Secret hygiene for added lines.
secrets:
  min_length: 32
  min_charsets: 3
  min_entropy: 4.0
  allow_paths: []
  patterns: []
  # Example custom signature:
  # - name: internal-token
  #   regex: 'itk_[0-9a-f]{32}'
  #   confidence: high

# Per-rule severity overrides, e.g.
#   commit.style: blocking
rules: {}
`

// CommitConfig configures the commit classifier.
type CommitConfig struct {
	MaxSubject    int      `yaml:"max_subject"`
	Types         []string `yaml:"types"`
	MicroPrefixes []string `yaml:"micro_prefixes"`
}

// BranchConfig configures the branch evaluator.
type BranchConfig struct {
	Pattern      string   `yaml:"pattern"`
	MaxAge       string   `yaml:"max_age"`
	Trunk        []string `yaml:"trunk"`
	NameSeverity string   `yaml:"name_severity"`
}

// PatternConfig is a custom secret signature.
type PatternConfig struct {
	Name       string `yaml:"name"`
	Regex      string `yaml:"regex"`
	Confidence string `yaml:"confidence,omitempty"`
}

// SecretsConfig configures the secret scanner.
type SecretsConfig struct {
	MinLength      int             `yaml:"min_length"`
	MinCharsets    int             `yaml:"min_charsets"`
	MinEntropy     float64         `yaml:"min_entropy"`
	DisableEntropy bool            `yaml:"disable_entropy,omitempty"`
	AllowPaths     []string        `yaml:"allow_paths"`
	Patterns       []PatternConfig `yaml:"patterns"`
}

// Config models .cadence/policy.yaml.
type Config struct {
	Version int               `yaml:"version"`
	Commit  CommitConfig      `yaml:"commit"`
	Branch  BranchConfig      `yaml:"branch"`
	Secrets SecretsConfig     `yaml:"secrets"`
	Rules   map[string]string `yaml:"rules"`
}

// Path returns the policy file path for a repository root.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, Dir, FileName)
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Parse([]byte(defaultPolicyYAML))
	if err != nil {
		panic("config: embedded default is invalid: " + err.Error())
	}
	return cfg
}

// DefaultYAML returns the embedded default document.
func DefaultYAML() string {
	return defaultPolicyYAML
}

// Load reads the repository policy, falling back to defaults when the file is absent.
func Load(repoRoot string) (*Config, error) {
	path := Path(repoRoot)
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is anchored at the repo root
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "reading policy file", goerr.V("path", path))
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, goerr.Wrap(err, "loading policy file", goerr.V("path", path))
	}
	return cfg, nil
}

// Parse decodes a policy document on top of the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var base Config
	if err := yaml.Unmarshal([]byte(defaultPolicyYAML), &base); err != nil {
		return nil, goerr.Wrap(err, "parsing default policy")
	}
	if err := yaml.Unmarshal(data, &base); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "parsing policy yaml", goerr.V("cause", err.Error()))
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	return &base, nil
}

// WriteDefault writes the default policy to repoRoot unless one exists.
// It reports whether a file was written.
func WriteDefault(repoRoot string) (bool, error) {
	path := Path(repoRoot)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return false, goerr.Wrap(err, "creating config dir", goerr.V("path", path))
	}
	if err := os.WriteFile(path, []byte(defaultPolicyYAML), 0o600); err != nil {
		return false, goerr.Wrap(err, "writing default policy", goerr.V("path", path))
	}
	return true, nil
}

// Validate checks regexes, durations and severities.
func (c *Config) Validate() error {
	if c.Commit.MaxSubject < 0 {
		return goerr.Wrap(ErrInvalidConfig, "commit.max_subject must be >= 0", goerr.V("value", c.Commit.MaxSubject))
	}
	if _, err := regexp.Compile(c.Branch.Pattern); err != nil {
		return goerr.Wrap(ErrInvalidConfig, "branch.pattern is not a valid regex", goerr.V("pattern", c.Branch.Pattern))
	}
	if _, err := c.maxAge(); err != nil {
		return err
	}
	if c.Branch.NameSeverity != "" {
		if _, err := policy.ParseSeverity(c.Branch.NameSeverity); err != nil {
			return goerr.Wrap(ErrInvalidConfig, "branch.name_severity", goerr.V("value", c.Branch.NameSeverity))
		}
	}
	for _, p := range c.Secrets.Patterns {
		if p.Name == "" {
			return goerr.Wrap(ErrInvalidConfig, "secrets.patterns entry missing name")
		}
		if _, err := regexp.Compile(p.Regex); err != nil {
			return goerr.Wrap(ErrInvalidConfig, "secrets pattern is not a valid regex", goerr.V("name", p.Name))
		}
		switch secrets.Confidence(p.Confidence) {
		case "", secrets.ConfidenceHigh, secrets.ConfidenceMedium, secrets.ConfidenceLow:
		default:
			return goerr.Wrap(ErrInvalidConfig, "secrets pattern confidence", goerr.V("name", p.Name), goerr.V("value", p.Confidence))
		}
	}
	for id, sev := range c.Rules {
		if _, err := policy.ParseSeverity(sev); err != nil {
			return goerr.Wrap(ErrInvalidConfig, "rule severity override", goerr.V("rule", id), goerr.V("value", sev))
		}
	}
	return nil
}

func (c *Config) maxAge() (time.Duration, error) {
	if c.Branch.MaxAge == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Branch.MaxAge)
	if err != nil || d < 0 {
		return 0, goerr.Wrap(ErrInvalidConfig, "branch.max_age is not a valid duration", goerr.V("value", c.Branch.MaxAge))
	}
	return d, nil
}

// CommitOptions returns classifier options. InCycle is left to the caller.
func (c *Config) CommitOptions() commitmsg.Options {
	return commitmsg.Options{
		MaxSubject:    c.Commit.MaxSubject,
		Types:         c.Commit.Types,
		MicroPrefixes: c.Commit.MicroPrefixes,
	}
}

// BranchOptions returns branch evaluator options.
func (c *Config) BranchOptions() branch.Options {
	age, _ := c.maxAge()
	return branch.Options{
		NamePattern:  c.Branch.Pattern,
		MaxAge:       age,
		Trunks:       c.Branch.Trunk,
		NameSeverity: policy.Severity(c.Branch.NameSeverity),
	}
}

// SecretOptions returns scanner options.
func (c *Config) SecretOptions() secrets.Options {
	custom := make([]secrets.CustomPattern, 0, len(c.Secrets.Patterns))
	for _, p := range c.Secrets.Patterns {
		custom = append(custom, secrets.CustomPattern{
			Name:       p.Name,
			Regex:      p.Regex,
			Confidence: secrets.Confidence(p.Confidence),
		})
	}
	return secrets.Options{
		Entropy: secrets.EntropyOptions{
			MinLength:   c.Secrets.MinLength,
			MinCharsets: c.Secrets.MinCharsets,
			MinEntropy:  c.Secrets.MinEntropy,
			Disabled:    c.Secrets.DisableEntropy,
		},
		Custom:     custom,
		AllowPaths: c.Secrets.AllowPaths,
	}
}

// SeverityOverrides returns the per-rule overrides. branch.name_severity
// applies to the branch.name rule unless rules names it explicitly.
func (c *Config) SeverityOverrides() map[string]policy.Severity {
	out := make(map[string]policy.Severity, len(c.Rules)+1)
	if c.Branch.NameSeverity != "" {
		out["branch.name"] = policy.Severity(c.Branch.NameSeverity)
	}
	for id, sev := range c.Rules {
		out[id] = policy.Severity(sev)
	}
	return out
}
