package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/cadence/cmd/cadence/internal/clierr"
)

// Feature: CLI_COMMAND_CYCLE
// Spec: spec/cli/cycle.md

func TestCycle_ShowEmpty(t *testing.T) {
	dir := initRepo(t)

	out, err := execute(t, "-C", dir, "cycle", "show")
	require.NoError(t, err)
	assert.Equal(t, "No cycle in progress.\n", out)

	out, err = execute(t, "-C", dir, "cycle", "show", "--json")
	require.NoError(t, err)
	assert.Equal(t, "null\n", out)
}

func TestCycle_SquashIncomplete(t *testing.T) {
	dir := initRepo(t)

	out, err := execute(t, "-C", dir, "cycle", "squash", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, clierr.ExitPolicy, clierr.ExitCodeOf(err))
	assert.Equal(t, []string{"cycle.complete"}, ruleIDs(decodeReport(t, out)))

	_, err = execute(t, "-C", dir, "cycle", "start", "auth")
	require.NoError(t, err)
	_, err = execute(t, "-C", dir, "check", "commit", "--no-branch", "--save", "-m", "test: add failing auth test")
	require.NoError(t, err)

	_, err = execute(t, "-C", dir, "cycle", "squash")
	require.Error(t, err)

	out, err = execute(t, "-C", dir, "cycle", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Phase:   RED_BEHAVIORAL")
}

func TestCycle_StartGuardsActiveCycle(t *testing.T) {
	dir := initRepo(t)

	out, err := execute(t, "-C", dir, "cycle", "start", "auth")
	require.NoError(t, err)
	assert.Equal(t, "Started cycle for auth\n", out)

	// A cycle with no phase commits yet can be replaced.
	_, err = execute(t, "-C", dir, "cycle", "start", "billing")
	require.NoError(t, err)

	_, err = execute(t, "-C", dir, "check", "commit", "--no-branch", "--save", "-m", "test: add failing billing test")
	require.NoError(t, err)

	_, err = execute(t, "-C", dir, "cycle", "start", "auth")
	require.Error(t, err)
	assert.Equal(t, clierr.ExitUsage, clierr.ExitCodeOf(err))

	_, err = execute(t, "-C", dir, "cycle", "start", "auth", "--force")
	require.NoError(t, err)

	_, err = execute(t, "-C", dir, "cycle", "reset")
	require.NoError(t, err)
	out, err = execute(t, "-C", dir, "cycle", "show")
	require.NoError(t, err)
	assert.Equal(t, "No cycle in progress.\n", out)
}

func TestCycle_OutsideRepository(t *testing.T) {
	_, err := execute(t, "-C", t.TempDir(), "cycle", "show")
	require.Error(t, err)
	assert.Equal(t, clierr.ExitUsage, clierr.ExitCodeOf(err))
}
