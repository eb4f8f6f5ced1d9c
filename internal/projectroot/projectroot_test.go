package projectroot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o750))
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	got, err := Find(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)

	got, err = Find(root)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFind_GitFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git"), []byte("gitdir: ../main/.git/worktrees/x\n"), 0o600))

	got, err := Find(root)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFind_NotFound(t *testing.T) {
	_, err := Find(t.TempDir())
	if err == nil {
		t.Skip("temp dir is inside a git repository")
	}
	assert.ErrorIs(t, err, ErrNotFound)
}
