package tree

import (
	"fmt"
	"strings"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// TreeEntry is one row of a tree object: a name, a mode and the digest of
// the blob, sub-tree or gitlink commit it refers to.
//
// Serialized form inside the tree payload:
//
//	<octal mode> SP <name> NUL <raw digest bytes>
type TreeEntry struct {
	Mode objects.FileMode
	Name string
	Hash objects.ObjectHash
}

// NewTreeEntry creates a new TreeEntry with validation
func NewTreeEntry(mode objects.FileMode, name string, hash objects.ObjectHash) (*TreeEntry, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("invalid mode %s for entry %q", mode, name)
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := hash.Validate(); err != nil {
		return nil, fmt.Errorf("entry %q: %w", name, err)
	}

	return &TreeEntry{Mode: mode, Name: name, Hash: objects.ObjectHash(strings.ToLower(hash.String()))}, nil
}

// IsDirectory returns true if this entry is a sub-tree
func (e *TreeEntry) IsDirectory() bool {
	return e.Mode.IsDirectory()
}

// sortKey is the name Git compares on: directories sort as "name/".
func (e *TreeEntry) sortKey() string {
	if e.IsDirectory() {
		return e.Name + "/"
	}
	return e.Name
}

// CompareTo orders entries the way tree payloads are written.
func (e *TreeEntry) CompareTo(other *TreeEntry) int {
	return strings.Compare(e.sortKey(), other.sortKey())
}

// appendTo appends the serialized entry to buf.
func (e *TreeEntry) appendTo(buf []byte) ([]byte, error) {
	raw, err := e.Hash.Bytes()
	if err != nil {
		return nil, fmt.Errorf("entry %q: %w", e.Name, err)
	}
	buf = append(buf, e.Mode.ToOctalString()...)
	buf = append(buf, objects.SpaceByte)
	buf = append(buf, e.Name...)
	buf = append(buf, objects.NullByte)
	return append(buf, raw...), nil
}

// String renders the entry like `ls-tree`: "100644 blob <hash>\tname".
func (e *TreeEntry) String() string {
	return fmt.Sprintf("%s %s %s\t%s", e.Mode, e.Mode.ObjectType(), e.Hash, e.Name)
}

func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("entry name cannot be empty")
	case name == "." || name == "..":
		return fmt.Errorf("invalid entry name %q", name)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("entry name %q cannot contain '/' or NUL", name)
	}
	return nil
}
