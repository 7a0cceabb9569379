package scpath

import (
	"fmt"
	"path/filepath"
)

// RepositoryPath is the absolute path of a repository's working root.
// Example: "/home/user/myproject"
type RepositoryPath string

// SourcePath is the absolute path of the .source directory or a file in it.
type SourcePath string

// AbsolutePath is any absolute filesystem path.
type AbsolutePath string

// NewRepositoryPath resolves path to an absolute RepositoryPath.
func NewRepositoryPath(path string) (RepositoryPath, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return RepositoryPath(absPath), nil
}

// String returns the path as a string
func (rp RepositoryPath) String() string {
	return string(rp)
}

// IsValid reports whether the path is absolute.
func (rp RepositoryPath) IsValid() bool {
	return filepath.IsAbs(string(rp))
}

// SourcePath returns the path to the .source directory
func (rp RepositoryPath) SourcePath() SourcePath {
	return SourcePath(filepath.Join(string(rp), SourceDir))
}

// String returns the path as a string
func (ap AbsolutePath) String() string {
	return string(ap)
}

// Dir returns the parent directory.
func (ap AbsolutePath) Dir() AbsolutePath {
	return AbsolutePath(filepath.Dir(string(ap)))
}
