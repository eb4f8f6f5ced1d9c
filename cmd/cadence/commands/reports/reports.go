// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Cadence - Cadence is a development-discipline policy checker for AI-assisted software development.
It evaluates commits, branches and TDD cycles against a team's process guides and produces deterministic compliance reports.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package reports contains Cobra subcommands for the Cadence CLI.
package reports

import (
	"github.com/spf13/cobra"
)

// NewReportsCommand returns the `cadence reports` command.
func NewReportsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Report generators for Cadence",
		Long:  "Report commands for Cadence's commit discipline and history health",
	}

	cmd.AddCommand(NewCommitHealthCommand())

	return cmd
}
