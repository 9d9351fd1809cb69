package repo

import (
	"strings"
)

// ResolveLocalPath strips the repository root prefix, if present, and any
// leading separators, yielding a repository-relative path. Pure string
// transform; no existence check.
func (r *Repository) ResolveLocalPath(path string) string {
	p := strings.TrimPrefix(path, r.root)
	return strings.TrimLeft(p, "/")
}

// ResolveLocalPaths maps ResolveLocalPath over paths, preserving order.
func (r *Repository) ResolveLocalPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = r.ResolveLocalPath(p)
	}
	return out
}

// ResolveFullPath returns path unchanged when it already starts with the
// repository root; otherwise joins it onto the root.
func (r *Repository) ResolveFullPath(path string) string {
	if strings.HasPrefix(path, r.root) {
		return path
	}
	return r.root + "/" + strings.TrimLeft(path, "/")
}

// ResolveFullPaths maps ResolveFullPath over paths, preserving order.
func (r *Repository) ResolveFullPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = r.ResolveFullPath(p)
	}
	return out
}
