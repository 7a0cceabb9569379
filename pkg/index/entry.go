package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/utkarsh5026/sourcevault/pkg/common"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// Entry is one row of the index, keyed by (Path, Stage).
//
// Binary layout (v2), digest width depends on the repository algorithm:
//
//	┌──────────────────────────────────────────────────────┐
//	│ ctime seconds (4)      │ ctime nanoseconds (4)       │
//	│ mtime seconds (4)      │ mtime nanoseconds (4)       │
//	│ device (4)             │ inode (4)                   │
//	│ mode (4)               │ uid (4)                     │
//	│ gid (4)                │ size (4)                    │
//	│ digest (20 or 32)                                    │
//	│ flags (2)                                            │
//	│ path + NUL + padding to a multiple of 8              │
//	└──────────────────────────────────────────────────────┘
//
// The stat fields are only a change-detection shortcut.
type Entry struct {
	Path  string
	Stage Stage
	Mode  objects.FileMode
	Hash  objects.ObjectHash

	CreationTime     common.Timestamp
	ModificationTime common.Timestamp
	DeviceID         uint32
	Inode            uint32
	UserID           uint32
	GroupID          uint32
	SizeInBytes      uint32

	AssumeValid bool
}

// NewEntry creates a stage-0 entry.
func NewEntry(path string, mode objects.FileMode, hash objects.ObjectHash) *Entry {
	return &Entry{Path: path, Mode: mode, Hash: hash}
}

// SetFileInfo fills the stat fields from info.
func (e *Entry) SetFileInfo(info os.FileInfo) {
	e.SizeInBytes = uint32(info.Size())
	e.ModificationTime = common.NewTimestamp(info.ModTime())
	e.CreationTime = e.ModificationTime
	fillStatIdentity(e, info)
}

// IsModified is the stat heuristic: true when size or mtime differ.
// A false result does not prove the content is unchanged.
func (e *Entry) IsModified(info os.FileInfo) bool {
	if e.AssumeValid {
		return false
	}
	if e.SizeInBytes != uint32(info.Size()) {
		return true
	}
	return !e.ModificationTime.Time().Equal(common.NewTimestamp(info.ModTime()).Time())
}

// compare orders entries by path bytes, then by stage.
func compare(a, b *Entry) int {
	if c := strings.Compare(a.Path, b.Path); c != 0 {
		return c
	}
	return int(a.Stage) - int(b.Stage)
}

// appendTo appends the entry's on-disk form to buf.
func (e *Entry) appendTo(buf []byte, alg objects.Algorithm) ([]byte, error) {
	if err := alg.ValidateHash(e.Hash); err != nil {
		return nil, fmt.Errorf("entry %s: %w", e.Path, err)
	}
	raw, err := e.Hash.Bytes()
	if err != nil {
		return nil, err
	}

	start := len(buf)
	for _, field := range []uint32{
		e.CreationTime.Seconds,
		e.CreationTime.Nanoseconds,
		e.ModificationTime.Seconds,
		e.ModificationTime.Nanoseconds,
		e.DeviceID,
		e.Inode,
		uint32(e.Mode),
		e.UserID,
		e.GroupID,
		e.SizeInBytes,
	} {
		buf = binary.BigEndian.AppendUint32(buf, field)
	}
	buf = append(buf, raw...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(NewEntryFlags(e.AssumeValid, e.Stage, len(e.Path))))
	buf = append(buf, e.Path...)

	// At least one NUL, then pad to the alignment boundary.
	size := len(buf) - start + 1
	padded := (size + AlignmentBoundary - 1) / AlignmentBoundary * AlignmentBoundary
	return append(buf, make([]byte, padded-size+1)...), nil
}

// parseEntry decodes one entry at data[0:] and returns it with its
// padded length.
func parseEntry(data []byte, hashSize int) (*Entry, int, error) {
	fixed := fixedFieldsSize + hashSize + FlagsLength
	if len(data) < fixed+1 {
		return nil, 0, fmt.Errorf("truncated entry: %d bytes", len(data))
	}

	u32 := func(i int) uint32 { return binary.BigEndian.Uint32(data[i*4:]) }
	e := &Entry{
		CreationTime:     common.Timestamp{Seconds: u32(0), Nanoseconds: u32(1)},
		ModificationTime: common.Timestamp{Seconds: u32(2), Nanoseconds: u32(3)},
		DeviceID:         u32(4),
		Inode:            u32(5),
		Mode:             objects.FileMode(u32(6)),
		UserID:           u32(7),
		GroupID:          u32(8),
		SizeInBytes:      u32(9),
		Hash:             objects.NewObjectHashFromRaw(data[fixedFieldsSize : fixedFieldsSize+hashSize]),
	}

	flags := EntryFlags(binary.BigEndian.Uint16(data[fixedFieldsSize+hashSize:]))
	if flags.Extended() {
		return nil, 0, fmt.Errorf("extended flags not supported in index version 2")
	}
	e.AssumeValid = flags.AssumeValid()
	e.Stage = flags.Stage()

	nul := bytes.IndexByte(data[fixed:], 0)
	if nul == -1 {
		return nil, 0, fmt.Errorf("unterminated path")
	}
	e.Path = string(data[fixed : fixed+nul])
	if n := flags.FilenameLength(); n < MaxFilenameLength && n != len(e.Path) {
		return nil, 0, fmt.Errorf("path length mismatch for %q: flags say %d", e.Path, n)
	}

	size := fixed + nul + 1
	padded := (size + AlignmentBoundary - 1) / AlignmentBoundary * AlignmentBoundary
	if padded > len(data) {
		return nil, 0, fmt.Errorf("truncated padding after %q", e.Path)
	}
	return e, padded, nil
}

// String returns a human-readable representation of the entry.
func (e *Entry) String() string {
	return fmt.Sprintf("%s %s %d\t%s", e.Mode, e.Hash, e.Stage, e.Path)
}
