// Package projectroot locates the repository root from a working directory.
package projectroot

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is returned when no enclosing git repository exists.
var ErrNotFound = errors.New("not inside a git repository")

// Find walks up from start to the first directory holding .git (a directory,
// or a file for worktrees and submodules).
func Find(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", goerr.Wrap(err, "resolving start directory", goerr.V("start", start))
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", goerr.Wrap(ErrNotFound, "searching for .git", goerr.V("start", start))
		}
		dir = parent
	}
}
