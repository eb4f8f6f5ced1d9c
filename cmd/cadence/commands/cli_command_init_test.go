package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/cadence/internal/config"
)

// Feature: CLI_COMMAND_INIT
// Spec: spec/cli/init.md

func TestInit(t *testing.T) {
	dir := initRepo(t)

	out, err := execute(t, "-C", dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote .cadence/policy.yaml")
	assert.Contains(t, out, "Installed commit-msg hook")
	assert.Contains(t, out, "Installed pre-commit hook")

	data, err := os.ReadFile(config.Path(dir))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultYAML(), string(data))

	hook := filepath.Join(dir, ".git", "hooks", "commit-msg")
	info, err := os.Stat(hook)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100, "hook must be executable")
	script, err := os.ReadFile(hook)
	require.NoError(t, err)
	assert.Contains(t, string(script), `cadence check msg "$1"`)

	// Re-running keeps the policy and refreshes its own hooks.
	out, err = execute(t, "-C", dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Kept existing .cadence/policy.yaml")
	assert.Contains(t, out, "Installed commit-msg hook")
}

func TestInit_ForeignHook(t *testing.T) {
	dir := initRepo(t)
	foreign := writeFile(t, dir, ".git/hooks/pre-commit", "#!/bin/sh\nmake lint\n")

	out, err := execute(t, "-C", dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Skipped pre-commit hook")

	data, err := os.ReadFile(foreign)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\nmake lint\n", string(data))

	out, err = execute(t, "-C", dir, "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Installed pre-commit hook")
}

func TestInit_NoHooks(t *testing.T) {
	dir := initRepo(t)

	out, err := execute(t, "-C", dir, "init", "--no-hooks")
	require.NoError(t, err)
	assert.NotContains(t, out, "hook")
	assert.FileExists(t, config.Path(dir))
}

func TestRulesList(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, dir, ".cadence/policy.yaml", "rules:\n  commit.style: blocking\n")

	out, err := execute(t, "-C", dir, "rules", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "commit.style")
	assert.Contains(t, out, "blocking")

	out, err = execute(t, "-C", dir, "rules", "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "secrets.detected"`)
	assert.NotContains(t, out, "Predicate")
}
