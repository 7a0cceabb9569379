package index

import (
	"fmt"
	"strings"

	"github.com/utkarsh5026/sourcevault/pkg/common/err"
)

const pkgName = "index"

// ErrUnresolvedConflicts matches any UnresolvedConflictsError.
var ErrUnresolvedConflicts = err.New(pkgName, err.CodeUnresolvedConflicts, "", "unresolved conflicts", nil)

// UnresolvedConflictsError is returned by Snapshot while any path still
// has stage 1-3 entries. The index is left untouched.
type UnresolvedConflictsError struct {
	baseError *err.Error
	Paths     []string
}

// NewUnresolvedConflictsError creates a new unresolved conflicts error
func NewUnresolvedConflictsError(op string, paths []string) error {
	return &UnresolvedConflictsError{
		baseError: err.New(
			pkgName,
			err.CodeUnresolvedConflicts,
			op,
			fmt.Sprintf("unresolved conflicts in: %s", strings.Join(paths, ", ")),
			nil,
		),
		Paths: paths,
	}
}

// Error implements the error interface
func (e *UnresolvedConflictsError) Error() string {
	return e.baseError.Error()
}

// Unwrap returns the underlying error
func (e *UnresolvedConflictsError) Unwrap() error {
	return e.baseError
}

func newStorageFault(op, message string, cause error) error {
	return err.New(pkgName, err.CodeStorageFault, op, message, cause)
}

func newInvalidInput(op, message string) error {
	return err.New(pkgName, err.CodeInvalidInput, op, message, nil)
}

// IsUnresolvedConflicts reports whether e means the index has conflicts.
func IsUnresolvedConflicts(e error) bool {
	return err.IsCode(e, err.CodeUnresolvedConflicts)
}
