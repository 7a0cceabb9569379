package store

import (
	"fmt"
	"strings"

	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
)

// Backend names an object store implementation (core.objectbackend).
type Backend string

const (
	BackendFile Backend = "file"
	BackendBolt Backend = "bolt"
)

// ParseBackend converts a core.objectbackend value.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendFile, nil
	case BackendFile, BackendBolt:
		return b, nil
	default:
		return "", fmt.Errorf("unknown object backend %q", s)
	}
}

// Open returns the object store for repoPath using backend.
func Open(repoPath scpath.RepositoryPath, backend Backend, opts ...Option) (ObjectStore, error) {
	switch backend {
	case BackendBolt:
		return NewBoltObjectStore(repoPath, opts...)
	case BackendFile, "":
		return NewFileObjectStore(repoPath, opts...)
	default:
		return nil, newInvalidInput("open", fmt.Sprintf("unknown object backend %q", backend))
	}
}
