package scpath

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RelativePath is a normalized, slash-separated path inside the working root.
// Example: "src/main.go"
type RelativePath string

// NewRelativePath normalizes path and rejects anything that cannot be stored
// in a tree: absolute paths, empty or ".." segments, NUL bytes and paths
// inside the .source directory.
func NewRelativePath(path string) (RelativePath, error) {
	rp := RelativePath(path).Normalize()
	if err := rp.Validate(); err != nil {
		return "", err
	}
	return rp, nil
}

// String returns the path as a string
func (rp RelativePath) String() string {
	return string(rp)
}

// Normalize converts to forward slashes, cleans and strips a leading "./".
func (rp RelativePath) Normalize() RelativePath {
	if rp == "" {
		return ""
	}
	normalized := filepath.ToSlash(filepath.Clean(string(rp)))
	normalized = strings.TrimPrefix(normalized, "./")
	return RelativePath(normalized)
}

// Validate reports why the path cannot be staged, or nil.
func (rp RelativePath) Validate() error {
	s := string(rp)
	switch {
	case s == "" || s == ".":
		return fmt.Errorf("invalid relative path: empty")
	case strings.HasPrefix(s, "/") || filepath.IsAbs(s):
		return fmt.Errorf("invalid relative path %q: absolute", s)
	case strings.ContainsRune(s, 0):
		return fmt.Errorf("invalid relative path %q: contains NUL", s)
	}

	for _, seg := range strings.Split(s, "/") {
		switch seg {
		case "", ".", "..":
			return fmt.Errorf("invalid relative path %q: bad segment %q", s, seg)
		case SourceDir:
			return fmt.Errorf("invalid relative path %q: inside %s", s, SourceDir)
		}
	}
	return nil
}

// Components returns the path segments.
func (rp RelativePath) Components() []string {
	if rp == "" {
		return nil
	}
	return strings.Split(string(rp), "/")
}

// Base returns the last segment.
func (rp RelativePath) Base() string {
	parts := rp.Components()
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// Dir returns everything but the last segment, or "" at the top level.
func (rp RelativePath) Dir() RelativePath {
	parts := rp.Components()
	if len(parts) <= 1 {
		return ""
	}
	return RelativePath(strings.Join(parts[:len(parts)-1], "/"))
}
