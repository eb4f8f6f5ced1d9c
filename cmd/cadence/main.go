// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/bartekus/cadence/cmd/cadence/commands"
	"github.com/bartekus/cadence/cmd/cadence/internal/clierr"
	"github.com/bartekus/cadence/internal/logging"
)

// Feature: CLI_CONTRACT
// Spec: spec/cli/contract.md

func main() {
	err := commands.NewRootCmd().Execute()
	if err != nil {
		logging.Default().Debug("command failed", "error", err)
	}
	logging.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(clierr.ExitCodeOf(err))
	}
}
