package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bartekus/cadence/cmd/cadence/internal/workspace"
	"github.com/bartekus/cadence/internal/config"
	"github.com/bartekus/cadence/internal/logging"
)

// Feature: CLI_COMMAND_INIT
// Spec: spec/cli/init.md

const hookMarker = "# installed by cadence init"

// hooks maps git hook names to their scripts.
var hooks = []struct {
	name   string
	script string
}{
	{name: "commit-msg", script: "#!/bin/sh\n" + hookMarker + "\nexec cadence check msg \"$1\"\n"},
	{name: "pre-commit", script: "#!/bin/sh\n" + hookMarker + "\nexec cadence check secrets\n"},
}

// NewInitCommand returns the `cadence init` command.
func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default policy and install git hooks",
		Long: `Write .cadence/policy.yaml with the default policy unless one exists, and
install commit-msg and pre-commit hooks that run cadence. Existing hooks not
written by cadence are left alone unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := workspace.FromCommand(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			written, err := config.WriteDefault(ws.Root)
			if err != nil {
				return workspace.Classify("writing default policy", err)
			}
			rel := filepath.Join(config.Dir, config.FileName)
			if written {
				_, _ = fmt.Fprintf(w, "Wrote %s\n", rel)
			} else {
				_, _ = fmt.Fprintf(w, "Kept existing %s\n", rel)
			}

			if noHooks, _ := cmd.Flags().GetBool("no-hooks"); noHooks {
				return nil
			}
			force, _ := cmd.Flags().GetBool("force")

			dir, err := ws.Repo.HooksDir(cmd.Context())
			if err != nil {
				return workspace.Classify("locating hooks directory", err)
			}
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return workspace.Classify("creating hooks directory", err)
			}

			for _, h := range hooks {
				path := filepath.Join(dir, h.name)
				existing, err := os.ReadFile(path) //nolint:gosec // G304: path is inside the git hooks dir
				if err == nil && !force && !bytes.Contains(existing, []byte(hookMarker)) {
					_, _ = fmt.Fprintf(w, "Skipped %s hook: already exists (use --force to replace)\n", h.name)
					continue
				}
				if err := os.WriteFile(path, []byte(h.script), 0o755); err != nil { //nolint:gosec // G306: hooks must be executable
					return workspace.Classify("writing hook", err)
				}
				logging.From(cmd.Context()).Debug("hook installed", "path", path)
				_, _ = fmt.Fprintf(w, "Installed %s hook\n", h.name)
			}
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Replace existing hooks")
	cmd.Flags().Bool("no-hooks", false, "Only write the policy file")

	return cmd
}
