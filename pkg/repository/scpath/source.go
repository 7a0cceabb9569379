package scpath

import (
	"path/filepath"
	"strings"
)

// String returns the path as a string
func (sp SourcePath) String() string {
	return string(sp)
}

// Join joins path elements to the source path
func (sp SourcePath) Join(elem ...string) SourcePath {
	parts := append([]string{string(sp)}, elem...)
	return SourcePath(filepath.Join(parts...))
}

// ToAbsolutePath converts to an absolute path
func (sp SourcePath) ToAbsolutePath() AbsolutePath {
	return AbsolutePath(sp)
}

// ObjectsPath returns the path to the objects directory
func (sp SourcePath) ObjectsPath() SourcePath {
	return sp.Join(ObjectsDir)
}

// ObjectsDBPath returns the path to the bolt object database
func (sp SourcePath) ObjectsDBPath() SourcePath {
	return sp.Join(ObjectsDB)
}

// RefsPath returns the path to the refs directory
func (sp SourcePath) RefsPath() SourcePath {
	return sp.Join(RefsDir)
}

// LogsPath returns the path to the movement log directory
func (sp SourcePath) LogsPath() SourcePath {
	return sp.Join(LogsDir)
}

// HeadPath returns the path to the HEAD file
func (sp SourcePath) HeadPath() SourcePath {
	return sp.Join(HeadFile)
}

// IndexPath returns the path to the index file
func (sp SourcePath) IndexPath() SourcePath {
	return sp.Join(IndexFile)
}

// ConfigPath returns the path to the repository config file
func (sp SourcePath) ConfigPath() SourcePath {
	return sp.Join(ConfigFile)
}

// GCLockPath returns the path of the collector's exclusive lock
func (sp SourcePath) GCLockPath() SourcePath {
	return sp.Join(GCLockFile)
}

// RefFilePath maps a ref name such as "refs/heads/main" or "HEAD" to its file.
func (sp SourcePath) RefFilePath(name string) SourcePath {
	return sp.Join(filepath.FromSlash(name))
}

// LogFilePath maps a ref name to its movement log file.
func (sp SourcePath) LogFilePath(name string) SourcePath {
	return sp.Join(LogsDir, filepath.FromSlash(name))
}

// ObjectFilePath returns the loose object path for a hex digest.
// Example: "abcdef..." maps to ".source/objects/ab/cdef...".
// Returns "" for digests too short to fan out.
func (sp SourcePath) ObjectFilePath(hash string) SourcePath {
	if len(hash) < 3 {
		return ""
	}
	hash = strings.ToLower(hash)
	return sp.Join(ObjectsDir, hash[:2], hash[2:])
}
