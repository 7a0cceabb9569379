package commitmanager

import (
	"strings"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

type fileEntry struct {
	hash objects.ObjectHash
	mode objects.FileMode
}

// directoryNode is one directory of the in-memory tree built from flat
// index paths before it is written out as tree objects.
type directoryNode struct {
	name    string
	files   map[string]fileEntry
	subdirs map[string]*directoryNode
}

func newDirectoryNode(name string) *directoryNode {
	return &directoryNode{
		name:    name,
		files:   make(map[string]fileEntry),
		subdirs: make(map[string]*directoryNode),
	}
}

// addEntry files path under its first segment, creating subdirectories as
// needed. "src/utils/helper.go" lands in src -> utils as helper.go.
func (dn *directoryNode) addEntry(path string, hash objects.ObjectHash, mode objects.FileMode) error {
	first, rest, nested := strings.Cut(path, "/")
	if !nested {
		if _, clash := dn.subdirs[first]; clash {
			return newPathCollision(path)
		}
		dn.files[first] = fileEntry{hash: hash, mode: mode}
		return nil
	}

	if _, clash := dn.files[first]; clash {
		return newPathCollision(path)
	}
	return dn.getOrCreateSubdir(first).addEntry(rest, hash, mode)
}

func (dn *directoryNode) getOrCreateSubdir(name string) *directoryNode {
	if subdir, exists := dn.subdirs[name]; exists {
		return subdir
	}
	subdir := newDirectoryNode(name)
	dn.subdirs[name] = subdir
	return subdir
}
