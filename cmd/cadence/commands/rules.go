package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/cadence/cmd/cadence/internal/workspace"
)

// Feature: RULE_CATALOG
// Spec: spec/policy/rules.md

// NewRulesCommand returns the `cadence rules` command.
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the rule catalog",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List rules with their effective severities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := workspace.FromCommandOrDefault(cmd)
			if err != nil {
				return err
			}
			rs := ws.Evaluator.Catalog().Rules()

			w := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				encoder := json.NewEncoder(w)
				encoder.SetIndent("", "  ")
				return encoder.Encode(map[string]interface{}{"rules": rs})
			}

			for _, r := range rs {
				_, _ = fmt.Fprintf(w, "%-22s %-9s %-26s %s\n", r.ID, r.Severity, r.Code, r.Description)
			}
			return nil
		},
	}
	list.Flags().Bool("json", false, "Output results in JSON")

	cmd.AddCommand(list)
	return cmd
}
