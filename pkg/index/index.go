package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// Index is the in-memory staging table: entries keyed by (path, stage),
// kept sorted by path and then stage.
//
// Index File Format:
//
//	┌────────────────────────────────────────┐
//	│ Header (12 bytes)                      │
//	│   Signature: "DIRC" (4 bytes)          │
//	│   Version: 2 (4 bytes)                 │
//	│   Entry Count: N (4 bytes)             │
//	├────────────────────────────────────────┤
//	│ Entries (variable length)              │
//	├────────────────────────────────────────┤
//	│ Checksum of everything above           │
//	└────────────────────────────────────────┘
//
// Extensions are not written; on read they are skipped.
type Index struct {
	entries []*Entry
}

// NewIndex creates a new empty index.
func NewIndex() *Index {
	return &Index{}
}

// find returns the position of (path, stage) or where it would go.
func (idx *Index) find(path string, stage Stage) (int, bool) {
	return slices.BinarySearchFunc(idx.entries, &Entry{Path: path, Stage: stage}, compare)
}

// Set inserts or replaces the entry at (e.Path, e.Stage).
func (idx *Index) Set(e *Entry) {
	i, found := idx.find(e.Path, e.Stage)
	if found {
		idx.entries[i] = e
		return
	}
	idx.entries = slices.Insert(idx.entries, i, e)
}

// Get returns the entry at (path, stage).
func (idx *Index) Get(path string, stage Stage) (*Entry, bool) {
	i, found := idx.find(path, stage)
	if !found {
		return nil, false
	}
	return idx.entries[i], true
}

// Delete removes the entry at (path, stage) and reports whether it existed.
func (idx *Index) Delete(path string, stage Stage) bool {
	i, found := idx.find(path, stage)
	if found {
		idx.entries = slices.Delete(idx.entries, i, i+1)
	}
	return found
}

// DeletePath removes every stage of path and returns how many were removed.
func (idx *Index) DeletePath(path string) int {
	before := len(idx.entries)
	idx.entries = slices.DeleteFunc(idx.entries, func(e *Entry) bool {
		return e.Path == path
	})
	return before - len(idx.entries)
}

// DeleteConflicts removes stages 1-3 of path.
func (idx *Index) DeleteConflicts(path string) {
	idx.entries = slices.DeleteFunc(idx.entries, func(e *Entry) bool {
		return e.Path == path && e.Stage.IsConflict()
	})
}

// Entries returns all entries in (path, stage) order.
func (idx *Index) Entries() []*Entry {
	return slices.Clone(idx.entries)
}

// Count returns the number of entries.
func (idx *Index) Count() int {
	return len(idx.entries)
}

// ConflictPaths returns, in order, every path with a stage 1-3 entry.
func (idx *Index) ConflictPaths() []string {
	var paths []string
	for _, e := range idx.entries {
		if e.Stage.IsConflict() && (len(paths) == 0 || paths[len(paths)-1] != e.Path) {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// Serialize returns the on-disk form with a trailing alg checksum.
func (idx *Index) Serialize(alg objects.Algorithm) ([]byte, error) {
	buf := make([]byte, 0, IndexHeaderSize+len(idx.entries)*96)
	buf = append(buf, IndexSignature...)
	buf = binary.BigEndian.AppendUint32(buf, IndexVersion)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(idx.entries)))

	var err error
	for _, e := range idx.entries {
		if buf, err = e.appendTo(buf, alg); err != nil {
			return nil, err
		}
	}

	h := alg.New()
	h.Write(buf)
	return h.Sum(buf), nil
}

// Parse decodes an index file written with alg.
func Parse(data []byte, alg objects.Algorithm) (*Index, error) {
	sumSize := alg.Size()
	if len(data) < IndexHeaderSize+sumSize {
		return nil, fmt.Errorf("invalid index file: too small")
	}

	content, sum := data[:len(data)-sumSize], data[len(data)-sumSize:]
	h := alg.New()
	h.Write(content)
	if !bytes.Equal(h.Sum(nil), sum) {
		return nil, fmt.Errorf("index checksum mismatch")
	}

	if string(content[:4]) != IndexSignature {
		return nil, fmt.Errorf("invalid index signature: %q", content[:4])
	}
	if v := binary.BigEndian.Uint32(content[4:]); v != IndexVersion {
		return nil, fmt.Errorf("unsupported index version: %d", v)
	}
	count := binary.BigEndian.Uint32(content[8:])

	idx := &Index{entries: make([]*Entry, 0, count)}
	offset := IndexHeaderSize
	for i := uint32(0); i < count; i++ {
		e, n, err := parseEntry(content[offset:], alg.Size())
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if len(idx.entries) > 0 && compare(idx.entries[len(idx.entries)-1], e) >= 0 {
			return nil, fmt.Errorf("entry %d (%s) out of order", i, e.Path)
		}
		idx.entries = append(idx.entries, e)
		offset += n
	}

	return idx, nil
}

// String returns a human-readable representation of the index.
func (idx *Index) String() string {
	return fmt.Sprintf("Index{entries: %d}", len(idx.entries))
}
