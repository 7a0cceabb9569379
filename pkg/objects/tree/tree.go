package tree

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// Tree is an immutable directory snapshot.
//
// Entries are kept in canonical order (byte-wise by name, directories
// compared as "name/") so that equal directory contents always serialize,
// and therefore hash, identically regardless of how they were assembled.
// Names are unique within a tree.
type Tree struct {
	entries []*TreeEntry
}

// NewTree creates a tree from entries in any order.
// It fails if two entries share a name.
func NewTree(entries []*TreeEntry) (*Tree, error) {
	sorted := make([]*TreeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CompareTo(sorted[j]) < 0
	})

	seen := make(map[string]struct{}, len(sorted))
	for _, e := range sorted {
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("duplicate tree entry %q", e.Name)
		}
		seen[e.Name] = struct{}{}
	}

	return &Tree{entries: sorted}, nil
}

// Parse decodes a tree payload (no header) whose digests are alg-sized.
func Parse(content []byte, alg objects.Algorithm) (*Tree, error) {
	var entries []*TreeEntry
	offset := 0

	for offset < len(content) {
		entry, next, err := parseEntry(content, offset, alg.Size())
		if err != nil {
			return nil, fmt.Errorf("failed to parse tree entry at offset %d: %w", offset, err)
		}
		entries = append(entries, entry)
		offset = next
	}

	return NewTree(entries)
}

func parseEntry(content []byte, offset, hashSize int) (*TreeEntry, int, error) {
	space := bytes.IndexByte(content[offset:], objects.SpaceByte)
	if space == -1 {
		return nil, 0, fmt.Errorf("missing space after mode")
	}
	mode, err := objects.FromOctalString(string(content[offset : offset+space]))
	if err != nil {
		return nil, 0, err
	}

	nameStart := offset + space + 1
	nul := bytes.IndexByte(content[nameStart:], objects.NullByte)
	if nul == -1 {
		return nil, 0, fmt.Errorf("missing NUL after name")
	}
	name := string(content[nameStart : nameStart+nul])

	hashStart := nameStart + nul + 1
	hashEnd := hashStart + hashSize
	if hashEnd > len(content) {
		return nil, 0, fmt.Errorf("truncated digest for %q", name)
	}

	entry, err := NewTreeEntry(mode, name, objects.NewObjectHashFromRaw(content[hashStart:hashEnd]))
	if err != nil {
		return nil, 0, err
	}
	return entry, hashEnd, nil
}

// Type returns the object type
func (t *Tree) Type() objects.ObjectType {
	return objects.TreeType
}

// Content returns the canonical payload: the concatenated entries.
func (t *Tree) Content() ([]byte, error) {
	var buf []byte
	var err error
	for _, entry := range t.entries {
		if buf, err = entry.appendTo(buf); err != nil {
			return nil, err
		}
	}
	if buf == nil {
		buf = []byte{}
	}
	return buf, nil
}

// Entries returns a copy of the entries in canonical order.
func (t *Tree) Entries() []*TreeEntry {
	entries := make([]*TreeEntry, len(t.entries))
	copy(entries, t.entries)
	return entries
}

// Lookup returns the entry with the given name.
func (t *Tree) Lookup(name string) (*TreeEntry, bool) {
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].Name >= name
	})
	// Directory sort keys break pure name order, so fall back to a scan.
	if i < len(t.entries) && t.entries[i].Name == name {
		return t.entries[i], true
	}
	for _, e := range t.entries {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// IsEmpty returns true if the tree has no entries
func (t *Tree) IsEmpty() bool {
	return len(t.entries) == 0
}

// String returns a human-readable representation
func (t *Tree) String() string {
	return fmt.Sprintf("Tree{entries: %d}", len(t.entries))
}
