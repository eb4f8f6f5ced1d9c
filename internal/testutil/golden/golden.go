// Package golden compares rendered reports against files under the calling
// package's testdata directory. Run tests with -update to rewrite them.
package golden

import (
	"errors"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Update rewrites golden files instead of comparing against them.
var Update = flag.Bool("update", false, "update golden files")

// Assert compares got with testdata/<name>.golden next to the calling test
// file. A missing golden file compares as empty. CRLF line endings in the
// stored file are ignored so checkouts with autocrlf still match.
func Assert(t *testing.T, name, got string) {
	t.Helper()
	require.False(t, strings.Contains(name, "..") || strings.ContainsAny(name, `/\`),
		"golden name %q must be a plain file name", name)

	_, caller, _, ok := runtime.Caller(1)
	require.True(t, ok, "cannot resolve calling test file")
	path := filepath.Join(filepath.Dir(caller), "testdata", name+".golden")

	if *Update {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(got), 0o600))
	}

	want, err := os.ReadFile(path) //nolint:gosec // G304: path is under the test's testdata
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		require.NoError(t, err, "reading %s", path)
	}
	assert.Equal(t, strings.ReplaceAll(string(want), "\r\n", "\n"), got,
		"golden mismatch for %s (run with -update to accept)", name)
}
