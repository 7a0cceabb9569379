package commitmanager

import (
	"errors"
	"fmt"

	"github.com/utkarsh5026/sourcevault/pkg/common/err"
)

const pkgName = "commitmanager"

var (
	// ErrEmptyMessage indicates an empty commit message was provided
	ErrEmptyMessage = errors.New("commit message cannot be empty")

	// ErrNoTreeChanges indicates the tree is identical to the parent
	ErrNoTreeChanges = errors.New("no changes to commit (tree is identical to parent)")
)

// CommitError represents an error that occurred during commit operations
type CommitError struct {
	Op      string // Operation that failed
	Err     error  // Underlying error
	Details string // Additional details
}

// Error implements the error interface
func (e *CommitError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("commit %s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("commit %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *CommitError) Unwrap() error {
	return e.Err
}

// NewCommitError creates a new CommitError
func NewCommitError(op string, cause error, details string) error {
	return &CommitError{
		Op:      op,
		Err:     cause,
		Details: details,
	}
}

func newPathCollision(path string) error {
	return err.New(pkgName, err.CodeInvalidInput, "build_tree",
		fmt.Sprintf("%s is both a file and a directory", path), nil).WithContext("path", path)
}

func newMissingParent(parent string) error {
	return err.New(pkgName, err.CodeObjectNotFound, "create_commit",
		fmt.Sprintf("parent %s is not a stored commit", parent), nil).WithContext("parent", parent)
}
