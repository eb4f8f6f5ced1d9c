package gitrepo

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"

	"github.com/bartekus/cadence/internal/diff"
)

// binarySniff is how many leading bytes are checked for NUL.
const binarySniff = 8000

// TrackedLines returns every line of every tracked text file that passes
// opts, as if the whole tree were one added diff. Files that vanished from
// the working tree are skipped.
func (r *Repo) TrackedLines(ctx context.Context, opts FilterOptions) ([]diff.Line, error) {
	files, err := r.TrackedFilesFiltered(ctx, opts)
	if err != nil {
		return nil, err
	}

	var out []diff.Line
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, goerr.Wrap(err, "tree scan cancelled")
		}

		data, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(rel))) //nolint:gosec // G304: path comes from git ls-files
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, goerr.Wrap(err, "reading tracked file", goerr.V("path", rel))
		}
		if isBinary(data) {
			continue
		}

		lines, err := diff.FromText(rel, bytes.NewReader(data))
		if err != nil {
			return nil, goerr.Wrap(err, "splitting tracked file", goerr.V("path", rel))
		}
		out = append(out, lines...)
	}
	return out, nil
}

func isBinary(data []byte) bool {
	if len(data) > binarySniff {
		data = data[:binarySniff]
	}
	return bytes.IndexByte(data, 0) != -1
}
