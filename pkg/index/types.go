package index

import (
	"fmt"
)

// Stage is the conflict slot of an index entry.
type Stage uint8

const (
	// StageNormal holds the single resolved version of a path.
	StageNormal Stage = 0
	// StageBase holds the common ancestor during a conflicted merge.
	StageBase Stage = 1
	// StageOurs holds the current branch's version.
	StageOurs Stage = 2
	// StageTheirs holds the merged-in branch's version.
	StageTheirs Stage = 3
)

// IsConflict reports whether s is one of the three conflict stages.
func (s Stage) IsConflict() bool {
	return s >= StageBase && s <= StageTheirs
}

// IsValid reports whether s fits in the two stage bits.
func (s Stage) IsValid() bool {
	return s <= StageTheirs
}

func (s Stage) String() string {
	switch s {
	case StageNormal:
		return "0"
	case StageBase:
		return "1 (base)"
	case StageOurs:
		return "2 (ours)"
	case StageTheirs:
		return "3 (theirs)"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(s))
	}
}

// EntryFlags represents the flags field in an index entry.
// The flags field contains several pieces of information packed into 16 bits:
// - Bit 15: assume-valid flag
// - Bit 14: extended flag (must be 0 for version 2)
// - Bits 13-12: stage number (0-3, for merge conflicts)
// - Bits 11-0: filename length (max 4095)
type EntryFlags uint16

const (
	FlagAssumeValidMask    EntryFlags = 0x8000
	FlagExtendedMask       EntryFlags = 0x4000
	FlagStageShift                    = 12
	FlagStageMask          EntryFlags = 0x3000
	FlagFilenameLengthMask EntryFlags = 0x0FFF
	MaxFilenameLength                 = 0x0FFF
)

// NewEntryFlags creates EntryFlags from components.
func NewEntryFlags(assumeValid bool, stage Stage, filenameLen int) EntryFlags {
	var flags EntryFlags

	if assumeValid {
		flags |= FlagAssumeValidMask
	}

	flags |= EntryFlags(stage&0x3) << FlagStageShift

	// Longer names store the maximum and rely on the NUL terminator.
	flags |= EntryFlags(min(filenameLen, MaxFilenameLength))

	return flags
}

// AssumeValid returns the assume-valid flag.
func (f EntryFlags) AssumeValid() bool {
	return (f & FlagAssumeValidMask) != 0
}

// Extended returns the extended flag.
func (f EntryFlags) Extended() bool {
	return (f & FlagExtendedMask) != 0
}

// Stage returns the stage number (0-3).
func (f EntryFlags) Stage() Stage {
	return Stage((f & FlagStageMask) >> FlagStageShift)
}

// FilenameLength returns the filename length from the flags.
func (f EntryFlags) FilenameLength() int {
	return int(f & FlagFilenameLengthMask)
}

// Binary layout constants for index entries. The digest field is as wide
// as the repository's algorithm, so the fixed part is 42 bytes plus that.
const (
	fixedFieldsSize   = 40 // ten uint32 fields before the digest
	FlagsLength       = 2
	AlignmentBoundary = 8
)

// Index file format constants
const (
	IndexSignature  = "DIRC"
	IndexVersion    = 2
	IndexHeaderSize = 12 // Signature (4) + Version (4) + Entry count (4)
)
