package commitmanager

import (
	"github.com/utkarsh5026/sourcevault/pkg/objects"
	"github.com/utkarsh5026/sourcevault/pkg/objects/commit"
)

// CommitOptions contains configuration for creating a commit
type CommitOptions struct {
	// Message is the commit message (required)
	Message string

	// Author is the commit author (optional, defaults to the configured user)
	Author *commit.Person

	// Committer is the person committing (optional, defaults to Author)
	Committer *commit.Person

	// MergeParents are recorded after HEAD's commit, in order.
	MergeParents []objects.ObjectHash

	// Amend replaces HEAD's commit, reusing its parents.
	Amend bool

	// AllowEmpty allows a commit whose tree equals its only parent's tree.
	AllowEmpty bool
}

// Validate validates CommitOptions
func (opts *CommitOptions) Validate() error {
	if opts.Message == "" {
		return NewCommitError("validate options", ErrEmptyMessage, "")
	}
	return nil
}

// Result describes a commit that was written and recorded.
type Result struct {
	Hash   objects.ObjectHash
	Commit *commit.Commit

	// Branch is the full ref that moved, or "" when HEAD is detached.
	Branch string
}
