package commands

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bartekus/cadence/cmd/cadence/internal/clierr"
	"github.com/bartekus/cadence/internal/cycle"
)

// loadEvidence reads test-run evidence from a YAML or JSON file. An empty
// path means no evidence was supplied.
func loadEvidence(cmd *cobra.Command, path string) (*cycle.Evidence, error) {
	if path == "" {
		return nil, nil
	}
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, clierr.Wrap(clierr.ExitUsage, "reading evidence", err)
	}
	var ev cycle.Evidence
	if err := yaml.Unmarshal(data, &ev); err != nil {
		return nil, clierr.Wrap(clierr.ExitUsage, "parsing evidence",
			goerr.Wrap(err, "evidence must be YAML or JSON", goerr.V("path", path)))
	}
	return &ev, nil
}
