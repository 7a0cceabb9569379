package branch

import (
	"time"

	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

// BranchInfo contains detailed information about a branch
type BranchInfo struct {
	// Name is the short branch name (e.g., "main", "feature/new-feature")
	Name string

	// Hash is the commit the branch points to
	Hash objects.ObjectHash

	// IsCurrentBranch indicates HEAD is attached to this branch
	IsCurrentBranch bool

	// CommitCount is the number of commits reachable from the tip. Only
	// filled by GetBranch.
	CommitCount int

	// LastCommitDate is the committer time of the tip
	LastCommitDate time.Time

	// LastCommitSubject is the first line of the tip's message
	LastCommitSubject string
}

// TagInfo describes one tag reference.
type TagInfo struct {
	Name string

	// Hash is the stored ref value: the tag object for annotated tags,
	// the target itself for lightweight ones.
	Hash objects.ObjectHash

	// Target is Hash peeled to a non-tag object.
	Target objects.ObjectHash

	Annotated bool
	Message   string
}

// CreateConfig holds configuration for branch creation
type CreateConfig struct {
	// StartPoint is any revision naming a commit. If empty, uses HEAD
	StartPoint string

	// Switch attaches HEAD to the new branch after creation
	Switch bool

	// Force moves the branch if it already exists
	Force bool
}

// CreateOption is a functional option for configuring branch creation
type CreateOption func(*CreateConfig)

// WithStartPoint sets the starting point for the new branch
func WithStartPoint(rev string) CreateOption {
	return func(c *CreateConfig) {
		c.StartPoint = rev
	}
}

// WithSwitch makes the operation switch to the new branch after creation
func WithSwitch() CreateOption {
	return func(c *CreateConfig) {
		c.Switch = true
	}
}

// WithForceCreate forces creation even if the branch exists
func WithForceCreate() CreateOption {
	return func(c *CreateConfig) {
		c.Force = true
	}
}

// DeleteConfig holds configuration for branch deletion
type DeleteConfig struct {
	// Force deletes even if the branch is not fully merged
	Force bool
}

// DeleteOption is a functional option for configuring deletion
type DeleteOption func(*DeleteConfig)

// WithForceDelete forces deletion even if not merged
func WithForceDelete() DeleteOption {
	return func(c *DeleteConfig) {
		c.Force = true
	}
}

// RenameConfig holds configuration for branch renaming
type RenameConfig struct {
	// Force overwrites the target branch if it exists
	Force bool
}

// RenameOption is a functional option for configuring rename
type RenameOption func(*RenameConfig)

// WithForceRename forces rename even if target exists
func WithForceRename() RenameOption {
	return func(c *RenameConfig) {
		c.Force = true
	}
}

// TagConfig holds configuration for tag creation
type TagConfig struct {
	// Target is the revision to tag. If empty, uses HEAD
	Target string

	// Message makes the tag annotated when non-empty
	Message string

	// Force replaces an existing tag
	Force bool
}

// TagOption is a functional option for configuring tag creation
type TagOption func(*TagConfig)

// WithTarget sets the revision to tag
func WithTarget(rev string) TagOption {
	return func(c *TagConfig) { c.Target = rev }
}

// WithMessage creates an annotated tag carrying message
func WithMessage(message string) TagOption {
	return func(c *TagConfig) { c.Message = message }
}

// WithForceTag replaces an existing tag
func WithForceTag() TagOption {
	return func(c *TagConfig) { c.Force = true }
}
