package commands

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bartekus/cadence/cmd/cadence/internal/clierr"
	"github.com/bartekus/cadence/cmd/cadence/internal/workspace"
	"github.com/bartekus/cadence/internal/config"
	"github.com/bartekus/cadence/internal/runner"
	"github.com/bartekus/cadence/internal/skills"
)

// Feature: CLI_COMMAND_RUN
// Spec: spec/cli/run.md

// NewRunCommand returns the `cadence run` command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <skill...>",
		Short: "Orchestrate repository-level policy skills",
		Long: `Deterministically run the policy skills against the repository.
Maintains state in .cadence/run to allow resuming failures.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			r, err := setupRunner(cmd)
			if err != nil {
				return err
			}
			if err := knownSkills(r, args); err != nil {
				return err
			}
			return workspace.Classify("run", r.RunList(cmd.Context(), args))
		},
	}

	cmd.PersistentFlags().Bool("json", false, "Output results in JSON")
	cmd.PersistentFlags().String("state-dir", filepath.Join(config.Dir, "run"), "Directory to store run state")

	cmd.AddCommand(newRunListCommand())
	cmd.AddCommand(newRunAllCommand())
	cmd.AddCommand(newRunResumeCommand())
	cmd.AddCommand(newRunReportCommand())
	cmd.AddCommand(newRunResetCommand())

	return cmd
}

func resolveStateStore(cmd *cobra.Command, ws *workspace.Workspace) *runner.StateStore {
	stateDir, _ := cmd.Flags().GetString("state-dir")
	if !filepath.IsAbs(stateDir) {
		stateDir = filepath.Join(ws.Root, stateDir)
	}
	return runner.NewStateStore(stateDir)
}

func setupRunner(cmd *cobra.Command) (*runner.Runner, error) {
	ws, err := workspace.FromCommand(cmd)
	if err != nil {
		return nil, err
	}
	store := resolveStateStore(cmd, ws)
	return runner.NewRunner(skills.Registry(), store, ws.RunDeps(cmd.OutOrStdout())), nil
}

func knownSkills(r *runner.Runner, ids []string) error {
	known := make(map[string]bool, len(r.Skills()))
	for _, s := range r.Skills() {
		known[s.ID()] = true
	}
	for _, id := range ids {
		if !known[id] {
			return clierr.Newf(clierr.ExitUsage, "unknown skill %q (see cadence run list)", id)
		}
	}
	return nil
}

type skillListItem struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

func newRunListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available skills",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := skills.Registry()
			list := make([]skillListItem, 0, len(registry))
			for _, s := range registry {
				list = append(list, skillListItem{ID: s.ID(), Description: s.Description()})
			}

			w := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				encoder := json.NewEncoder(w)
				encoder.SetIndent("", "  ")
				return encoder.Encode(map[string]interface{}{"skills": list})
			}

			for _, s := range list {
				_, _ = fmt.Fprintf(w, "%-16s %s\n", s.ID, s.Description)
			}
			return nil
		},
	}
}

func newRunAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run all skills",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := setupRunner(cmd)
			if err != nil {
				return err
			}
			return workspace.Classify("run all", r.RunAll(cmd.Context()))
		},
	}
}

func newRunResumeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Re-run the skills that failed last time",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := setupRunner(cmd)
			if err != nil {
				return err
			}
			return workspace.Classify("run resume", r.Resume(cmd.Context()))
		},
	}
}

func newRunResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear run state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := workspace.FromCommand(cmd)
			if err != nil {
				return err
			}
			return workspace.Classify("run reset", resolveStateStore(cmd, ws).Reset())
		},
	}
}

func newRunReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show last run status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := workspace.FromCommand(cmd)
			if err != nil {
				return err
			}
			last, err := resolveStateStore(cmd, ws).ReadLastRun()
			if err != nil {
				return workspace.Classify("reading run state", err)
			}

			w := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				encoder := json.NewEncoder(w)
				encoder.SetIndent("", "  ")
				return encoder.Encode(last)
			}

			if last == nil {
				_, _ = fmt.Fprintln(w, "No run state found.")
				return nil
			}

			_, _ = fmt.Fprintf(w, "Run:    %s\n", last.ID)
			_, _ = fmt.Fprintf(w, "Status: %s\n", last.Status)
			if len(last.Failed) > 0 {
				_, _ = fmt.Fprintln(w, "Failed:")
				for _, f := range last.Failed {
					_, _ = fmt.Fprintf(w, "  - %s\n", f)
				}
			} else {
				_, _ = fmt.Fprintln(w, "All passed.")
			}
			return nil
		},
	}
}
