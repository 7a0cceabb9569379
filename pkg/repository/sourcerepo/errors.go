package sourcerepo

import (
	"errors"

	"github.com/utkarsh5026/sourcevault/pkg/common/err"
)

const pkgName = "sourcerepo"

var (
	// ErrNotARepository is returned when no .source directory exists.
	ErrNotARepository = err.New(pkgName, err.CodeNotFound, "", "not a source repository", nil)

	// ErrAlreadyInitialized is returned by Init on an existing repository.
	ErrAlreadyInitialized = err.New(pkgName, err.CodeAlreadyExists, "", "repository already exists", nil)
)

func newNotARepository(op, path string) error {
	return err.New(pkgName, err.CodeNotFound, op, "not a source repository: "+path, ErrNotARepository)
}

func newAlreadyInitialized(path string) error {
	return err.New(pkgName, err.CodeAlreadyExists, "init", "repository already exists: "+path, ErrAlreadyInitialized)
}

func newStorageFault(op, message string, cause error) error {
	return err.New(pkgName, err.CodeStorageFault, op, message, cause)
}

func newInvalidConfig(op string, cause error) error {
	return err.New(pkgName, err.CodeValidation, op, "invalid configuration", cause)
}

// IsNotARepository reports whether e means the path holds no repository.
func IsNotARepository(e error) bool {
	return errors.Is(e, ErrNotARepository)
}

// IsAlreadyInitialized reports whether Init found an existing repository.
func IsAlreadyInitialized(e error) bool {
	return errors.Is(e, ErrAlreadyInitialized)
}
