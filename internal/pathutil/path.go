// Package pathutil provides path manipulation for slash-separated archive paths.
package pathutil

import (
	"io/fs"
	"strings"
)

// Base returns the last element of a slash-separated path.
// If path is empty or ".", it returns ".".
func Base(path string) string {
	if path == "" || path == "." {
		return "."
	}
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// DirPrefix converts a path to its directory prefix form.
// For ".", returns "" (empty prefix matches all).
// For other paths, appends "/" to match children.
func DirPrefix(name string) string {
	if name == "." {
		return ""
	}
	return name + "/"
}

// Child extracts the immediate child name from a full path given a prefix.
// Returns the child name and whether it's a subdirectory (has more path components).
// If path doesn't have the prefix, behavior is undefined.
func Child(path, prefix string) (name string, isSubDir bool) {
	relPath := strings.TrimPrefix(path, prefix)
	if idx := strings.Index(relPath, "/"); idx >= 0 {
		return relPath[:idx], true
	}
	return relPath, false
}

// Normalize converts an archive path to fs.ValidPath form where possible.
//
// It performs the following transformations:
//   - Strips leading slashes: "/data/a.bin" → "data/a.bin"
//   - Strips trailing slashes: "data/" → "data"
//   - Collapses consecutive slashes: "data//a.bin" → "data/a.bin"
//   - Drops "." elements: "./data/a.bin" → "data/a.bin"
//   - Converts empty string to root: "" → "."
//
// ".." elements are preserved so that fs.ValidPath rejects them.
func Normalize(p string) string {
	parts := strings.Split(p, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return "."
	}
	return strings.Join(result, "/")
}

// Rel returns the normalized form of an archive path for use as a
// destination relative to an extraction root. It returns false if the
// path is empty or would escape the root.
func Rel(p string) (string, bool) {
	n := Normalize(p)
	if n == "." || !fs.ValidPath(n) {
		return "", false
	}
	return n, true
}
