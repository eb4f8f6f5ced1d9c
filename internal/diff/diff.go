// Package diff turns unified diffs into the ordered added-line sequence the
// secret scanner consumes.
package diff

import (
	"bufio"
	"io"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/m-mizutani/goerr/v2"
)

// Line is one added line of a diff.
type Line struct {
	Path   string `json:"path,omitempty"`
	Number int    `json:"line"`
	Text   string `json:"text"`
}

// Parse reads a unified (git) diff and returns every added line in order,
// numbered by its position in the new file. Binary and deleted files are skipped.
func Parse(r io.Reader) ([]Line, error) {
	files, _, err := gitdiff.Parse(r)
	if err != nil {
		return nil, goerr.Wrap(err, "parsing diff")
	}

	var out []Line
	for _, f := range files {
		if f.IsBinary || f.IsDelete {
			continue
		}
		path := f.NewName
		for _, frag := range f.TextFragments {
			n := int(frag.NewPosition)
			for _, l := range frag.Lines {
				switch l.Op {
				case gitdiff.OpAdd:
					out = append(out, Line{Path: path, Number: n, Text: strings.TrimRight(l.Line, "\r\n")})
					n++
				case gitdiff.OpContext:
					n++
				}
			}
		}
	}
	return out, nil
}

// FromText treats every line of r as added, numbered from 1. It is used when
// the input is a plain file rather than a diff.
func FromText(path string, r io.Reader) ([]Line, error) {
	var out []Line
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		out = append(out, Line{Path: path, Number: n, Text: sc.Text()})
	}
	if err := sc.Err(); err != nil {
		return nil, goerr.Wrap(err, "reading text", goerr.V("path", path))
	}
	return out, nil
}
