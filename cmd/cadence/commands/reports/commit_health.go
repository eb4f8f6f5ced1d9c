// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Cadence - Cadence is a development-discipline policy checker for AI-assisted software development.
It evaluates commits, branches and TDD cycles against a team's process guides and produces deterministic compliance reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Feature: COMMIT_HEALTH_REPORT
// Spec: spec/reports/commit-health.md

package reports

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bartekus/cadence/cmd/cadence/internal/clierr"
	"github.com/bartekus/cadence/cmd/cadence/internal/workspace"
	"github.com/bartekus/cadence/internal/reports/commithealth"
)

const defaultLimit = 50

// NewCommitHealthCommand returns the `cadence reports commit-health` command.
func NewCommitHealthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit-health",
		Short: "Classify recent history and write commit health reports",
		Long: `Classify the most recent commits against the commit policy and write
commit-health.json and commit-health.md to .cadence/reports (or --out).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return clierr.Wrap(clierr.ExitUsage, "commit health: get limit flag", err)
			}
			if limit < 0 {
				return clierr.Newf(clierr.ExitUsage, "commit health: limit must be >= 0, got %d", limit)
			}
			outDir, err := cmd.Flags().GetString("out")
			if err != nil {
				return clierr.Wrap(clierr.ExitUsage, "commit health: get out flag", err)
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			ws, err := workspace.FromCommand(cmd)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = filepath.Join(ws.StateDir, "reports")
			} else if !filepath.IsAbs(outDir) {
				outDir = filepath.Join(ws.Root, outDir)
			}

			report, err := commithealth.Build(cmd.Context(), ws.Repo, limit, ws.Config.CommitOptions())
			if err != nil {
				return workspace.Classify("commit health", err)
			}
			if err := commithealth.Write(outDir, report); err != nil {
				return workspace.Classify("commit health: writing reports", err)
			}

			w := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(w)
				encoder.SetIndent("", "  ")
				return encoder.Encode(report)
			}
			_, _ = fmt.Fprintf(w, "Commit health: %d%% (%d/%d conventional, %d breaking, %d style notes)\n",
				report.HealthPercent, report.Conventional, report.Total, report.Breaking, report.StyleNotes)
			_, _ = fmt.Fprintf(w, "Wrote %s\n", filepath.Join(outDir, commithealth.MarkdownFile))
			return nil
		},
	}

	// Flags in alphabetical order for deterministic help output
	cmd.Flags().Bool("json", false, "Print the report as JSON")
	cmd.Flags().Int("limit", defaultLimit, "Number of recent commits to classify (0 = all)")
	cmd.Flags().String("out", "", "Output directory (default: .cadence/reports)")

	return cmd
}
