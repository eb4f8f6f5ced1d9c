// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Cadence - Cadence is a development-discipline policy checker for AI-assisted software development.
It evaluates commits, branches and TDD cycles against a team's process guides and produces deterministic compliance reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package commithealth classifies recent history and reports how much of
// it follows the commit conventions.
//
// Feature: COMMIT_HEALTH_REPORT
// Spec: spec/reports/commit-health.md
package commithealth

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/bartekus/cadence/internal/commitmsg"
	"github.com/bartekus/cadence/internal/gitrepo"
	"github.com/bartekus/cadence/internal/policy"
	"github.com/bartekus/cadence/internal/projection"
)

// Report file names written by Write.
const (
	JSONFile     = "commit-health.json"
	MarkdownFile = "commit-health.md"
)

// HistorySource provides commit history for analysis.
type HistorySource interface {
	Commits(ctx context.Context, limit int) ([]gitrepo.Commit, error)
}

// Entry is the classification of one commit.
type Entry struct {
	SHA          string   `json:"sha"`
	Subject      string   `json:"subject"`
	Type         string   `json:"type,omitempty"`
	Conventional bool     `json:"conventional"`
	Breaking     bool     `json:"breaking,omitempty"`
	Problem      string   `json:"problem,omitempty"`
	Style        []string `json:"style,omitempty"`
}

// Report summarizes a slice of history, newest commit first.
type Report struct {
	Total         int            `json:"total"`
	Conventional  int            `json:"conventional"`
	Breaking      int            `json:"breaking"`
	StyleNotes    int            `json:"style_notes"`
	HealthPercent int            `json:"health_percent"`
	ByType        map[string]int `json:"by_type"`
	Entries       []Entry        `json:"entries"`
}

// Build loads up to limit commits from src and analyzes them.
func Build(ctx context.Context, src HistorySource, limit int, opts commitmsg.Options) (*Report, error) {
	commits, err := src.Commits(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "loading commit history")
	}
	return Analyze(ctx, commits, opts)
}

// Analyze classifies commits in parallel. Entries keep the input order.
// History is judged outside any TDD cycle, so micro prefixes are rejected.
func Analyze(ctx context.Context, commits []gitrepo.Commit, opts commitmsg.Options) (*Report, error) {
	opts.InCycle = false
	entries := make([]Entry, len(commits))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range commits {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return goerr.Wrap(err, "history analysis cancelled")
			}
			entries[i] = classify(c, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &Report{ByType: map[string]int{}, Entries: entries}
	for _, e := range entries {
		r.Total++
		r.StyleNotes += len(e.Style)
		if !e.Conventional {
			continue
		}
		r.Conventional++
		r.ByType[e.Type]++
		if e.Breaking {
			r.Breaking++
		}
	}
	r.HealthPercent = 100
	if r.Total > 0 {
		r.HealthPercent = r.Conventional * 100 / r.Total
	}
	return r, nil
}

func classify(c gitrepo.Commit, opts commitmsg.Options) Entry {
	e := Entry{SHA: shortSHA(c.SHA), Subject: subjectOf(c.Message)}
	msg, err := commitmsg.Classify(c.Message, opts)
	if err != nil {
		e.Problem = policy.Describe(err)
		return e
	}
	e.Conventional = true
	e.Type = msg.Type
	e.Breaking = msg.Breaking
	e.Style = commitmsg.Lint(msg)
	return e
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func subjectOf(message string) string {
	for _, line := range strings.Split(message, "\n") {
		if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
			return line
		}
	}
	return ""
}

// Markdown renders the report.
func (r *Report) Markdown() string {
	var b strings.Builder

	b.WriteString(projection.RenderHeader(1, "Commit Health"))
	b.WriteString(projection.RenderTable([]string{"Metric", "Value"}, [][]string{
		{"Commits analyzed", fmt.Sprint(r.Total)},
		{"Conventional", fmt.Sprintf("%d (%d%%)", r.Conventional, r.HealthPercent)},
		{"Breaking changes", fmt.Sprint(r.Breaking)},
		{"Style notes", fmt.Sprint(r.StyleNotes)},
	}))
	b.WriteString("\n")

	b.WriteString(projection.RenderHeader(2, "Types"))
	if len(r.ByType) == 0 {
		b.WriteString(projection.RenderList([]string{"none"}))
	} else {
		var rows [][]string
		for _, typ := range projection.SortedKeys(r.ByType) {
			rows = append(rows, []string{typ, fmt.Sprint(r.ByType[typ])})
		}
		b.WriteString(projection.RenderTable([]string{"Type", "Count"}, rows))
	}
	b.WriteString("\n")

	b.WriteString(projection.RenderHeader(2, "Non-conventional commits"))
	var rows [][]string
	for _, e := range r.Entries {
		if !e.Conventional {
			rows = append(rows, []string{e.SHA, e.Subject, e.Problem})
		}
	}
	if len(rows) == 0 {
		b.WriteString(projection.RenderList([]string{"none"}))
	} else {
		b.WriteString(projection.RenderTable([]string{"Commit", "Subject", "Problem"}, rows))
	}
	b.WriteString("\n")

	b.WriteString(projection.RenderHeader(2, "Style notes"))
	var notes []string
	for _, e := range r.Entries {
		for _, n := range e.Style {
			notes = append(notes, fmt.Sprintf("`%s` %s: %s", e.SHA, e.Subject, n))
		}
	}
	if len(notes) == 0 {
		notes = []string{"none"}
	}
	b.WriteString(projection.RenderList(notes))

	return b.String()
}

// Write stores the JSON and Markdown renderings in dir.
func Write(dir string, r *Report) error {
	if err := projection.WriteJSON(filepath.Join(dir, JSONFile), r); err != nil {
		return err
	}
	return projection.AtomicWrite(filepath.Join(dir, MarkdownFile), []byte(r.Markdown()))
}
