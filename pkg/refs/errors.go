package refs

import (
	"fmt"

	"github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

const pkgName = "refs"

// Sentinels for errors.Is.
var (
	ErrRefAlreadyExists = err.New(pkgName, err.CodeRefAlreadyExists, "", "reference already exists", nil)
	ErrNoSuchRef        = err.New(pkgName, err.CodeNoSuchRef, "", "no such reference", nil)
	ErrUnbornRef        = err.New(pkgName, err.CodeUnbornRef, "", "reference has no commits yet", nil)
	ErrRefConflict      = err.New(pkgName, err.CodeRefConflict, "", "reference changed concurrently", nil)
)

// ConflictError is a failed compare-and-swap. Callers re-read the
// reference, recompute and retry.
type ConflictError struct {
	baseError *err.Error
	Name      string
	Expected  objects.ObjectHash
	Actual    objects.ObjectHash
}

// NewConflictError creates a new compare-and-swap conflict error.
// An empty digest means "did not exist".
func NewConflictError(name string, expected, actual objects.ObjectHash) error {
	return &ConflictError{
		baseError: err.New(
			pkgName,
			err.CodeRefConflict,
			"update",
			fmt.Sprintf("%s: expected %s, found %s", name, describe(expected), describe(actual)),
			nil,
		),
		Name:     name,
		Expected: expected,
		Actual:   actual,
	}
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.baseError.Error()
}

// Unwrap returns the underlying error
func (e *ConflictError) Unwrap() error {
	return e.baseError
}

func describe(h objects.ObjectHash) string {
	if h.IsZero() {
		return "no value"
	}
	return h.String()
}

func newAlreadyExists(name string) error {
	return err.New(pkgName, err.CodeRefAlreadyExists, "create",
		fmt.Sprintf("reference %s already exists", name), nil).WithContext("ref", name)
}

func newNoSuchRef(op, name string) error {
	return err.New(pkgName, err.CodeNoSuchRef, op,
		fmt.Sprintf("no such reference %s", name), nil).WithContext("ref", name)
}

func newUnborn(op, name string) error {
	return err.New(pkgName, err.CodeUnbornRef, op,
		fmt.Sprintf("%s has no commits yet", name), nil).WithContext("ref", name)
}

func newStorageFault(op, message string, cause error) error {
	return err.New(pkgName, err.CodeStorageFault, op, message, cause)
}

func newInvalidInput(op, message string) error {
	return err.New(pkgName, err.CodeInvalidInput, op, message, nil)
}

// IsNoSuchRef reports whether e means the reference does not exist.
func IsNoSuchRef(e error) bool {
	return err.IsCode(e, err.CodeNoSuchRef)
}

// IsUnbornRef reports whether e means HEAD points at a branch with no commits.
func IsUnbornRef(e error) bool {
	return err.IsCode(e, err.CodeUnbornRef)
}

// IsRefConflict reports whether e is a compare-and-swap mismatch.
func IsRefConflict(e error) bool {
	return err.IsCode(e, err.CodeRefConflict)
}

// IsRefAlreadyExists reports whether e means the name is taken.
func IsRefAlreadyExists(e error) bool {
	return err.IsCode(e, err.CodeRefAlreadyExists)
}
