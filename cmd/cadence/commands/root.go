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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bartekus/cadence/cmd/cadence/commands/reports"
	"github.com/bartekus/cadence/cmd/cadence/internal/clierr"
	"github.com/bartekus/cadence/cmd/cadence/internal/workspace"
	"github.com/bartekus/cadence/internal/logging"
)

// NewRootCmd constructs the Cadence root Cobra command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("CADENCE_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	var logLevel, logFormat, logOutput string

	cmd := &cobra.Command{
		Use:           "cadence",
		Short:         "Cadence - development-discipline policy checker",
		Long:          "Cadence checks commits, branches and TDD cycles against commit hygiene, trunk-based branching and red-green-refactor guides.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Configure(logFormat, logLevel, logOutput); err != nil {
				return clierr.Wrap(clierr.ExitUsage, "configuring logger", err)
			}
			cmd.SetContext(logging.With(cmd.Context(), logging.Default()))
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.StringP(workspace.DirFlag, "C", ".", "run as if cadence was started in this directory")
	flags.StringVar(&logLevel, "log-level", envOr("CADENCE_LOG_LEVEL", "warn"), "log level: debug, info, warn or error")
	flags.StringVar(&logFormat, "log-format", envOr("CADENCE_LOG_FORMAT", "text"), "log format: text or json")
	flags.StringVar(&logOutput, "log-output", envOr("CADENCE_LOG_OUTPUT", "stderr"), "log destination: stderr, stdout or a file path")

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of Cadence",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cadence version %s\n", version)
		},
	})

	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewCycleCommand())
	cmd.AddCommand(NewRulesCommand())
	cmd.AddCommand(reports.NewReportsCommand())
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewInitCommand())

	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
