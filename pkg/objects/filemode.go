package objects

import (
	"fmt"
	"os"
	"strconv"
)

// FileMode is the Git file mode stored in trees and index entries.
// The upper four bits carry the file type, the lower nine the permissions.
type FileMode uint32

const (
	FileModeTypeMask FileMode = 0xF000
	FileModePermMask FileMode = 0x01FF

	FileModeTypeRegular FileMode = 0x8000
	FileModeTypeSymlink FileMode = 0xA000
	FileModeTypeGitlink FileMode = 0xE000
	FileModeTypeDir     FileMode = 0x4000

	FileModeRegular    FileMode = 0o100644
	FileModeExecutable FileMode = 0o100755
	FileModeSymlink    FileMode = 0o120000
	FileModeGitlink    FileMode = 0o160000
	FileModeDirectory  FileMode = 0o040000
)

// Type returns the file type portion of the mode.
func (m FileMode) Type() FileMode {
	return m & FileModeTypeMask
}

// IsDirectory returns true for tree entries that point at sub-trees.
func (m FileMode) IsDirectory() bool {
	return m.Type() == FileModeTypeDir
}

// IsRegular returns true for regular and executable files.
func (m FileMode) IsRegular() bool {
	return m.Type() == FileModeTypeRegular
}

// IsSymlink returns true if this is a symbolic link.
func (m FileMode) IsSymlink() bool {
	return m.Type() == FileModeTypeSymlink
}

// IsGitlink returns true if this is a gitlink (submodule).
func (m FileMode) IsGitlink() bool {
	return m.Type() == FileModeTypeGitlink
}

// IsValid reports whether m is one of the modes a tree may contain.
func (m FileMode) IsValid() bool {
	switch m {
	case FileModeRegular, FileModeExecutable, FileModeSymlink, FileModeGitlink, FileModeDirectory:
		return true
	}
	return false
}

// ObjectType returns the kind of object an entry with this mode points to.
func (m FileMode) ObjectType() ObjectType {
	switch {
	case m.IsDirectory():
		return TreeType
	case m.IsGitlink():
		return CommitType
	default:
		return BlobType
	}
}

// ToOctalString returns the mode as written in tree objects
// ("100644", "40000"): octal without zero padding, as Git does.
func (m FileMode) ToOctalString() string {
	return strconv.FormatUint(uint64(m), 8)
}

// String returns the zero-padded octal form used in listings ("040000").
func (m FileMode) String() string {
	return fmt.Sprintf("%06o", uint32(m))
}

// FromOctalString parses a mode from an octal string.
func FromOctalString(s string) (FileMode, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid mode string %q: %w", s, err)
	}
	return FileMode(v), nil
}

// FromOSFileMode converts an os.FileMode to the matching Git mode.
func FromOSFileMode(mode os.FileMode) FileMode {
	switch {
	case mode.IsDir():
		return FileModeDirectory
	case mode&os.ModeSymlink != 0:
		return FileModeSymlink
	case mode&0o111 != 0:
		return FileModeExecutable
	default:
		return FileModeRegular
	}
}
