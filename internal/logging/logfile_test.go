package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_ReplacingLogFileClosesPrevious(t *testing.T) {
	t.Cleanup(func() { _ = Configure("text", "warn", "stderr") })
	dir := t.TempDir()

	require.NoError(t, Configure("json", "info", filepath.Join(dir, "first.log")))
	first := logFile
	require.NotNil(t, first)
	Default().Info("to first")

	require.NoError(t, Configure("json", "info", filepath.Join(dir, "second.log")))
	second := logFile
	require.NotNil(t, second)
	assert.NotSame(t, first, second)

	_, err := first.Write([]byte("late"))
	assert.True(t, errors.Is(err, os.ErrClosed), "first log file should be closed, got %v", err)

	data, err := os.ReadFile(filepath.Join(dir, "first.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "to first")

	require.NoError(t, Configure("text", "warn", "stderr"))
	assert.Nil(t, logFile)
	_, err = second.Write([]byte("late"))
	assert.True(t, errors.Is(err, os.ErrClosed), "second log file should be closed, got %v", err)
}

func TestConfigure_InvalidOptionClosesNewFile(t *testing.T) {
	t.Cleanup(func() { _ = Configure("text", "warn", "stderr") })
	require.NoError(t, Configure("text", "warn", "stderr"))

	err := Configure("xml", "info", filepath.Join(t.TempDir(), "bad.log"))
	require.ErrorIs(t, err, ErrInvalidOption)
	assert.Nil(t, logFile)
}

func TestClose(t *testing.T) {
	t.Cleanup(func() { _ = Configure("text", "warn", "stderr") })
	path := filepath.Join(t.TempDir(), "cadence.log")
	require.NoError(t, Configure("json", "info", path))
	f := logFile

	Close()
	assert.Nil(t, logFile)
	_, err := f.Write([]byte("late"))
	assert.True(t, errors.Is(err, os.ErrClosed))

	Close()
}
