package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bartekus/cadence/cmd/cadence/internal/clierr"
	"github.com/bartekus/cadence/cmd/cadence/internal/workspace"
	"github.com/bartekus/cadence/internal/cycle"
	"github.com/bartekus/cadence/internal/logging"
)

// Feature: CLI_COMMAND_CYCLE
// Spec: spec/cli/cycle.md

// NewCycleCommand returns the `cadence cycle` command.
func NewCycleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Manage the red-green-refactor cycle of the unit of work in progress",
		Long:  "Manage the TDD cycle state kept in .cadence/cycle.json. Phase commits advance it through check commit --save.",
	}

	cmd.AddCommand(newCycleStartCommand())
	cmd.AddCommand(newCycleShowCommand())
	cmd.AddCommand(newCycleSquashCommand())
	cmd.AddCommand(newCycleResetCommand())

	return cmd
}

func newCycleStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <unit>",
		Short: "Start a cycle for a unit of work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := workspace.FromCommand(cmd)
			if err != nil {
				return err
			}
			unit := strings.TrimSpace(args[0])
			if unit == "" {
				return clierr.New(clierr.ExitUsage, "unit must not be empty")
			}

			current, err := ws.CycleState()
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			if current.Active() && current.Phase != cycle.PhaseNone && !force {
				return clierr.Newf(clierr.ExitUsage, "cycle for %q is in %s; squash it or pass --force", current.Unit, current.Phase)
			}

			st := cycle.Start(unit)
			st.Behavior, _ = cmd.Flags().GetString("behavior")
			if err := ws.Cycles.Save(st); err != nil {
				return workspace.Classify("saving cycle state", err)
			}
			logging.From(cmd.Context()).Info("cycle started", "unit", unit)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Started cycle for %s\n", unit)
			return nil
		},
	}

	cmd.Flags().String("behavior", "", "Behavior under test")
	cmd.Flags().Bool("force", false, "Replace a cycle that is still in progress")

	return cmd
}

func newCycleShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current cycle state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := workspace.FromCommand(cmd)
			if err != nil {
				return err
			}
			st, err := ws.CycleState()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				encoder := json.NewEncoder(w)
				encoder.SetIndent("", "  ")
				return encoder.Encode(st)
			}

			if st == nil {
				_, _ = fmt.Fprintln(w, "No cycle in progress.")
				return nil
			}
			_, _ = fmt.Fprintf(w, "Unit:    %s\n", st.Unit)
			_, _ = fmt.Fprintf(w, "Phase:   %s\n", st.Phase)
			if st.Behavior != "" {
				_, _ = fmt.Fprintf(w, "Behavior: %s\n", st.Behavior)
			}
			_, _ = fmt.Fprintf(w, "History: %s\n", historyOf(st))
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Output the state as JSON")

	return cmd
}

func historyOf(st *cycle.State) string {
	if len(st.History) == 0 {
		return "(empty)"
	}
	parts := make([]string, 0, len(st.History))
	for _, p := range st.History {
		parts = append(parts, string(p))
	}
	return strings.Join(parts, " -> ")
}

func newCycleSquashCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "squash",
		Short: "Squash a completed cycle into one logical change",
		Long:  "Squash the current cycle. Only a cycle that reached GREEN or REFACTOR may be squashed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatOf(cmd)
			if err != nil {
				return err
			}
			ws, err := workspace.FromCommand(cmd)
			if err != nil {
				return err
			}
			st, err := ws.CycleState()
			if err != nil {
				return err
			}

			out := ws.Evaluator.EvaluateSquash(cmd.Context(), st)
			if out.Report.Passed {
				if err := ws.Cycles.Save(out.Cycle); err != nil {
					return workspace.Classify("saving cycle state", err)
				}
			}
			return emit(cmd.OutOrStdout(), format, out.Report)
		},
	}

	addFormatFlag(cmd)

	return cmd
}

func newCycleResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the cycle state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := workspace.FromCommand(cmd)
			if err != nil {
				return err
			}
			if err := ws.Cycles.Reset(); err != nil {
				return workspace.Classify("resetting cycle state", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cycle state cleared.")
			return nil
		},
	}
}
