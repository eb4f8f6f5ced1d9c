// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Cadence - Cadence is a development-discipline policy checker for AI-assisted software development.
It evaluates commits, branches and TDD cycles against a team's process guides and produces deterministic compliance reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package commands

import (
	"bytes"
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bartekus/cadence/cmd/cadence/internal/clierr"
	"github.com/bartekus/cadence/cmd/cadence/internal/workspace"
	"github.com/bartekus/cadence/internal/branch"
	"github.com/bartekus/cadence/internal/compliance"
	"github.com/bartekus/cadence/internal/diff"
	"github.com/bartekus/cadence/internal/gitrepo"
	"github.com/bartekus/cadence/internal/logging"
)

// Feature: CLI_COMMAND_CHECK
// Spec: spec/cli/check.md

// NewCheckCommand returns the `cadence check` command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate commits, messages, secrets and branches against the policy",
		Long: `Evaluate one event against the policy and print a compliance report.
Exits 1 when the report contains a blocking violation.`,
	}

	cmd.AddCommand(newCheckCommitCommand())
	cmd.AddCommand(newCheckMsgCommand())
	cmd.AddCommand(newCheckSecretsCommand())
	cmd.AddCommand(newCheckBranchCommand())

	return cmd
}

func newCheckCommitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Evaluate a commit: message, added lines, branch and TDD cycle",
		Long: `Evaluate a commit. The message defaults to HEAD's, in which case the diff
is HEAD's as well. The cycle state is read from .cadence/cycle.json and, with
--save, the advanced state is written back when the report passes.`,
		Args: cobra.NoArgs,
		RunE: runCheckCommit,
	}

	// Flags in alphabetical order for deterministic help output
	cmd.Flags().String("branch", "", "Branch to evaluate (default: current branch)")
	cmd.Flags().String("diff", "", "Unified diff file of the commit, - for stdin")
	cmd.Flags().String("evidence", "", "Test-run evidence file (YAML or JSON), - for stdin")
	addFormatFlag(cmd)
	cmd.Flags().String("issue", "", "Issue id linked to the branch (default: parsed from the branch name)")
	cmd.Flags().StringP("message", "m", "", "Commit message to evaluate")
	cmd.Flags().String("message-file", "", "File holding the commit message, - for stdin")
	cmd.Flags().Bool("no-branch", false, "Skip branch checks")
	cmd.Flags().Bool("save", false, "Persist the advanced cycle state when the report passes")
	cmd.Flags().Bool("staged", false, "Scan the staged diff instead of a diff file")

	return cmd
}

func runCheckCommit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := logging.From(ctx)

	format, err := formatOf(cmd)
	if err != nil {
		return err
	}
	ws, err := workspace.FromCommand(cmd)
	if err != nil {
		return err
	}

	message, _ := cmd.Flags().GetString("message")
	messageFile, _ := cmd.Flags().GetString("message-file")
	diffFile, _ := cmd.Flags().GetString("diff")
	staged, _ := cmd.Flags().GetBool("staged")
	evidencePath, _ := cmd.Flags().GetString("evidence")
	save, _ := cmd.Flags().GetBool("save")

	fromHead := false
	switch {
	case message != "":
	case messageFile != "":
		data, err := readInput(cmd, messageFile)
		if err != nil {
			return clierr.Wrap(clierr.ExitUsage, "reading message file", err)
		}
		message = string(data)
	default:
		message, err = ws.Repo.HeadMessage(ctx)
		if err != nil {
			return workspace.Classify("reading HEAD message", err)
		}
		fromHead = true
	}

	var lines []diff.Line
	switch {
	case diffFile != "":
		lines, err = diffFromFile(cmd, diffFile)
	case staged:
		lines, err = ws.Repo.StagedDiff(ctx)
	case fromHead:
		lines, err = ws.Repo.CommitDiff(ctx, "HEAD")
	}
	if err != nil {
		return workspace.Classify("reading diff", err)
	}

	ev, err := loadEvidence(cmd, evidencePath)
	if err != nil {
		return err
	}
	st, err := ws.CycleState()
	if err != nil {
		return err
	}
	b, err := branchFor(ctx, cmd, ws)
	if err != nil {
		return err
	}

	out := ws.Evaluator.Evaluate(ctx, compliance.Input{
		Commit:   compliance.Commit{Message: message, Diff: lines},
		Branch:   b,
		Cycle:    st,
		Evidence: ev,
	})

	if save && out.Report.Passed && out.Cycle != nil {
		if err := ws.Cycles.Save(out.Cycle); err != nil {
			return workspace.Classify("saving cycle state", err)
		}
		logger.Info("cycle state saved", "unit", out.Cycle.Unit, "phase", out.Cycle.Phase)
	}

	return emit(cmd.OutOrStdout(), format, out.Report)
}

func diffFromFile(cmd *cobra.Command, path string) ([]diff.Line, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, clierr.Wrap(clierr.ExitUsage, "reading diff file", err)
	}
	return diff.Parse(bytes.NewReader(data))
}

// branchFor resolves the branch snapshot for check commit. It returns nil
// when branch checks are disabled or HEAD is detached.
func branchFor(ctx context.Context, cmd *cobra.Command, ws *workspace.Workspace) (*branch.Branch, error) {
	if skip, _ := cmd.Flags().GetBool("no-branch"); skip {
		return nil, nil
	}
	name, _ := cmd.Flags().GetString("branch")
	issue, _ := cmd.Flags().GetString("issue")

	if name == "" {
		current, err := ws.Repo.CurrentBranch(ctx)
		if err != nil {
			logging.From(ctx).Debug("skipping branch checks", "error", err)
			return nil, nil
		}
		name = current
	}

	b, err := snapshotBranch(ctx, ws, name)
	if err != nil {
		return nil, err
	}
	if issue != "" {
		b.LinkedIssueID = issue
	}
	return &b, nil
}

func snapshotBranch(ctx context.Context, ws *workspace.Workspace, name string) (branch.Branch, error) {
	trunks := ws.Config.Branch.Trunk
	if len(trunks) == 0 {
		trunks = branch.DefaultTrunks()
	}
	b, err := ws.Repo.Branch(ctx, name, trunks)
	if err != nil {
		return b, workspace.Classify("reading branch", err)
	}
	return b, nil
}

func newCheckMsgCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "msg <file>",
		Short: "Evaluate a commit message file (commit-msg hook entry point)",
		Long: `Evaluate the commit message in <file>, as git passes it to the commit-msg hook.
Micro prefixes (green:, refactor:, fix:) are accepted while a TDD cycle is active.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatOf(cmd)
			if err != nil {
				return err
			}
			ws, err := workspace.FromCommandOrDefault(cmd)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return clierr.Wrap(clierr.ExitUsage, "reading message file", err)
			}
			st, err := ws.CycleState()
			if err != nil {
				return err
			}

			out := ws.Evaluator.EvaluateMessage(cmd.Context(), string(data), st.Active())
			return emit(cmd.OutOrStdout(), format, out.Report)
		},
	}
	addFormatFlag(cmd)
	return cmd
}

func newCheckSecretsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Scan added lines for credentials",
		Long: `Scan added lines for credentials. Without flags the staged diff is scanned;
--tracked scans every tracked text file instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			format, err := formatOf(cmd)
			if err != nil {
				return err
			}
			ws, err := workspace.FromCommand(cmd)
			if err != nil {
				return err
			}

			diffFile, _ := cmd.Flags().GetString("diff")
			tracked, _ := cmd.Flags().GetBool("tracked")

			var lines []diff.Line
			switch {
			case diffFile != "" && tracked:
				return clierr.New(clierr.ExitUsage, "--diff and --tracked are mutually exclusive")
			case diffFile != "":
				lines, err = diffFromFile(cmd, diffFile)
			case tracked:
				lines, err = ws.Repo.TrackedLines(ctx, gitrepo.FilterOptions{
					ExcludeDirs:     gitrepo.DefaultExcludeDirs(),
					ExcludePrefixes: ws.Config.Secrets.AllowPaths,
					SkipExtensions:  gitrepo.DefaultSkipExtensions(),
				})
			default:
				lines, err = ws.Repo.StagedDiff(ctx)
			}
			if err != nil {
				return workspace.Classify("collecting lines to scan", err)
			}

			logging.From(ctx).Debug("scanning lines", "count", len(lines))
			out := ws.Evaluator.EvaluateSecrets(ctx, lines)
			return emit(cmd.OutOrStdout(), format, out.Report)
		},
	}

	cmd.Flags().String("diff", "", "Unified diff file to scan, - for stdin")
	addFormatFlag(cmd)
	cmd.Flags().Bool("tracked", false, "Scan every tracked text file")

	return cmd
}

func newCheckBranchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch [name]",
		Short: "Evaluate a branch: name, age and issue link",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			format, err := formatOf(cmd)
			if err != nil {
				return err
			}
			ws, err := workspace.FromCommand(cmd)
			if err != nil {
				return err
			}

			var name string
			if len(args) == 1 {
				name = strings.TrimSpace(args[0])
			} else if name, err = ws.Repo.CurrentBranch(ctx); err != nil {
				return workspace.Classify("resolving current branch", err)
			}

			b, err := snapshotBranch(ctx, ws, name)
			if err != nil {
				return err
			}
			if issue, _ := cmd.Flags().GetString("issue"); issue != "" {
				b.LinkedIssueID = issue
			}

			out := ws.Evaluator.EvaluateBranch(ctx, b, logging.CtxTime(ctx))
			return emit(cmd.OutOrStdout(), format, out.Report)
		},
	}

	addFormatFlag(cmd)
	cmd.Flags().String("issue", "", "Issue id linked to the branch (default: parsed from the branch name)")

	return cmd
}
