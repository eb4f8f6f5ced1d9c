// SPDX-License-Identifier: AGPL-3.0-or-later

// Package projection writes deterministic artifacts: state files, JSON
// reports and Markdown summaries.
package projection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// AtomicWrite writes content to path atomically by writing to a temp file and renaming it.
func AtomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return goerr.Wrap(err, "creating directory", goerr.V("dir", dir))
	}

	tmpFile, err := os.CreateTemp(dir, ".cadence-tmp-*")
	if err != nil {
		return goerr.Wrap(err, "creating temp file", goerr.V("dir", dir))
	}
	defer func() { _ = os.Remove(tmpFile.Name()) }()

	if _, err := tmpFile.Write(content); err != nil {
		_ = tmpFile.Close()
		return goerr.Wrap(err, "writing content", goerr.V("path", path))
	}
	if err := tmpFile.Close(); err != nil {
		return goerr.Wrap(err, "closing temp file", goerr.V("path", path))
	}

	if err := os.Rename(tmpFile.Name(), path); err != nil {
		return goerr.Wrap(err, "moving temp file", goerr.V("path", path))
	}

	return nil
}

// WriteJSON encodes v as indented JSON with a trailing newline and writes it atomically.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "encoding json", goerr.V("path", path))
	}
	return AtomicWrite(path, buf.Bytes())
}

// ReadJSON decodes path into v. It returns (false, nil) when the file does not exist.
func ReadJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: state paths are resolved under the repo root
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, goerr.Wrap(err, "reading file", goerr.V("path", path))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, goerr.Wrap(err, "decoding json", goerr.V("path", path))
	}
	return true, nil
}

// SortedKeys returns the keys of m sorted lexicographically.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RenderTable renders a Markdown table.
// It assumes rows are already sorted if determinism is required.
// Pipes inside cells are escaped.
func RenderTable(headers []string, rows [][]string) string {
	var b strings.Builder

	b.WriteString("| " + strings.Join(escapeCells(headers), " | ") + " |\n")

	b.WriteString("|")
	for range headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	for _, row := range rows {
		b.WriteString("| " + strings.Join(escapeCells(row), " | ") + " |\n")
	}

	return b.String()
}

// RenderList renders a simple unordered Markdown list.
func RenderList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(fmt.Sprintf("- %s\n", item))
	}
	return b.String()
}

// RenderHeader renders a Markdown header.
func RenderHeader(level int, text string) string {
	return fmt.Sprintf("%s %s\n\n", strings.Repeat("#", level), text)
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}
