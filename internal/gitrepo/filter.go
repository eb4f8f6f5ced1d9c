package gitrepo

import (
	"path"
	"slices"
	"strings"
)

// FilterOptions selects which tracked paths a tree scan reads. Paths use
// forward slashes, as git prints them.
type FilterOptions struct {
	// ExcludeDirs drops paths with a matching directory segment: "vendor"
	// drops "vendor/a" and "pkg/vendor/b" but keeps "vendor_stuff/c".
	ExcludeDirs []string

	// ExcludePrefixes drops paths starting with any prefix (the secrets allow-list).
	ExcludePrefixes []string

	// SkipExtensions drops paths by extension, compared case-insensitively.
	SkipExtensions []string
}

// DefaultExcludeDirs returns the directories skipped by a full-tree audit.
func DefaultExcludeDirs() []string {
	return []string{".git", ".cadence", ".idea", "node_modules", "vendor", "dist", "build", "out", "target"}
}

// DefaultSkipExtensions lists binary asset types that never carry readable credentials.
func DefaultSkipExtensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".ico", ".webp", ".pdf", ".zip", ".gz", ".tgz", ".jar", ".woff", ".woff2", ".ttf", ".otf"}
}

// Keep reports whether p survives the filter.
func (o FilterOptions) Keep(p string) bool {
	dir := path.Dir(p)
	if dir != "." {
		for _, seg := range strings.Split(dir, "/") {
			if slices.Contains(o.ExcludeDirs, seg) {
				return false
			}
		}
	}
	for _, prefix := range o.ExcludePrefixes {
		if prefix != "" && strings.HasPrefix(p, prefix) {
			return false
		}
	}
	if ext := strings.ToLower(path.Ext(p)); ext != "" {
		for _, skip := range o.SkipExtensions {
			if strings.EqualFold(skip, ext) {
				return false
			}
		}
	}
	return true
}

// FilterFiles returns the kept paths, sorted.
func FilterFiles(paths []string, opts FilterOptions) []string {
	var kept []string
	for _, p := range paths {
		if opts.Keep(p) {
			kept = append(kept, p)
		}
	}
	slices.Sort(kept)
	return kept
}
