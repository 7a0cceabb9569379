package branch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/utkarsh5026/sourcevault/pkg/common/err"
)

const (
	// Package name for error reporting
	pkgName = "branch"
)

// Error codes for branch operations
const (
	CodeNotFound      = "BRANCH_NOT_FOUND"
	CodeAlreadyExists = "BRANCH_ALREADY_EXISTS"
	CodeInvalidName   = "BRANCH_INVALID_NAME"
	CodeNotMerged     = "BRANCH_NOT_MERGED"
	CodeIsCurrent     = "BRANCH_IS_CURRENT"
	CodeDetached      = "BRANCH_DETACHED_HEAD"
)

// NotFoundError indicates a branch or tag doesn't exist
type NotFoundError struct {
	baseError *err.Error
	Name      string
}

// NewNotFoundError creates a new not found error for the short name.
func NewNotFoundError(name string) error {
	return &NotFoundError{
		baseError: err.New(pkgName, CodeNotFound, "lookup",
			fmt.Sprintf("'%s' not found", name), nil),
		Name: name,
	}
}

func (e *NotFoundError) Error() string { return e.baseError.Error() }
func (e *NotFoundError) Unwrap() error { return e.baseError }

// AlreadyExistsError indicates a branch or tag already exists
type AlreadyExistsError struct {
	baseError *err.Error
	Name      string
}

// NewAlreadyExistsError creates a new already exists error
func NewAlreadyExistsError(name string) error {
	return &AlreadyExistsError{
		baseError: err.New(pkgName, CodeAlreadyExists, "create",
			fmt.Sprintf("'%s' already exists", name), nil),
		Name: name,
	}
}

func (e *AlreadyExistsError) Error() string { return e.baseError.Error() }
func (e *AlreadyExistsError) Unwrap() error { return e.baseError }

// InvalidNameError indicates a name that cannot form a valid reference
type InvalidNameError struct {
	baseError *err.Error
	Name      string
	Reasons   []string
}

// NewInvalidNameError creates a new invalid name error
func NewInvalidNameError(name string, reasons ...string) error {
	msg := fmt.Sprintf("invalid name '%s'", name)
	if len(reasons) > 0 {
		msg += ": " + strings.Join(reasons, "; ")
	}

	return &InvalidNameError{
		baseError: err.New(pkgName, CodeInvalidName, "validate", msg, nil),
		Name:      name,
		Reasons:   reasons,
	}
}

func (e *InvalidNameError) Error() string { return e.baseError.Error() }
func (e *InvalidNameError) Unwrap() error { return e.baseError }

// NotMergedError indicates a branch whose tip HEAD does not contain
type NotMergedError struct {
	baseError *err.Error
	Name      string
}

// NewNotMergedError creates a new branch not merged error
func NewNotMergedError(name string) error {
	return &NotMergedError{
		baseError: err.New(pkgName, CodeNotMerged, "delete",
			fmt.Sprintf("branch '%s' is not fully merged", name), nil),
		Name: name,
	}
}

func (e *NotMergedError) Error() string { return e.baseError.Error() }
func (e *NotMergedError) Unwrap() error { return e.baseError }

// IsCurrentError indicates an operation refused on the checked-out branch
type IsCurrentError struct {
	baseError *err.Error
	Name      string
}

// NewIsCurrentError creates a new is current branch error
func NewIsCurrentError(name string) error {
	return &IsCurrentError{
		baseError: err.New(pkgName, CodeIsCurrent, "delete",
			fmt.Sprintf("cannot delete branch '%s' checked out as HEAD", name), nil),
		Name: name,
	}
}

func (e *IsCurrentError) Error() string { return e.baseError.Error() }
func (e *IsCurrentError) Unwrap() error { return e.baseError }

// DetachedHeadError indicates HEAD is in detached state
type DetachedHeadError struct {
	baseError *err.Error
	Commit    string
}

// NewDetachedHeadError creates a new detached HEAD error
func NewDetachedHeadError(commit string) error {
	msg := "HEAD is detached"
	if commit != "" {
		msg = fmt.Sprintf("HEAD is detached at %s", commit)
	}

	return &DetachedHeadError{
		baseError: err.New(pkgName, CodeDetached, "check", msg, nil),
		Commit:    commit,
	}
}

func (e *DetachedHeadError) Error() string { return e.baseError.Error() }
func (e *DetachedHeadError) Unwrap() error { return e.baseError }

// IsNotFound reports whether e is or wraps a *NotFoundError.
func IsNotFound(e error) bool {
	var target *NotFoundError
	return errors.As(e, &target)
}

// IsAlreadyExists reports whether e is or wraps an *AlreadyExistsError.
func IsAlreadyExists(e error) bool {
	var target *AlreadyExistsError
	return errors.As(e, &target)
}

// IsNotMerged reports whether e is or wraps a *NotMergedError.
func IsNotMerged(e error) bool {
	var target *NotMergedError
	return errors.As(e, &target)
}
