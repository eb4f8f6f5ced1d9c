package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bartekus/cadence/cmd/cadence/internal/clierr"
	"github.com/bartekus/cadence/internal/compliance"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().String("format", formatText, "Output format: text (default) or json")
}

func formatOf(cmd *cobra.Command) (string, error) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return "", clierr.Wrap(clierr.ExitUsage, "reading format flag", err)
	}
	switch format {
	case formatText, formatJSON:
		return format, nil
	default:
		return "", clierr.Newf(clierr.ExitUsage, "unknown format %q (want text or json)", format)
	}
}

// emit writes the report and turns a failed report into an exit-1 error.
func emit(w io.Writer, format string, r compliance.Report) error {
	if format == formatJSON {
		data, err := compliance.RenderJSON(r)
		if err != nil {
			return clierr.Wrap(clierr.ExitTooling, "rendering report", err)
		}
		_, _ = w.Write(data)
	} else {
		_, _ = io.WriteString(w, compliance.RenderText(r))
	}

	if !r.Passed {
		return clierr.Newf(clierr.ExitPolicy, "policy check failed: %d blocking violation(s)", len(r.Blocking()))
	}
	return nil
}

// readInput reads a file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path) //nolint:gosec // G304: path is supplied by the operator
}
