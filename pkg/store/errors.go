package store

import (
	"fmt"

	"github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

const pkgName = "store"

// Sentinels for errors.Is. They match any store error carrying the same code.
var (
	ErrObjectNotFound = err.New(pkgName, err.CodeObjectNotFound, "", "object not found", nil)
	ErrIntegrityFault = err.New(pkgName, err.CodeIntegrityFault, "", "integrity fault", nil)
	ErrStorageFault   = err.New(pkgName, err.CodeStorageFault, "", "storage fault", nil)
)

func newNotFound(op string, hash objects.ObjectHash) error {
	return err.New(pkgName, err.CodeObjectNotFound, op,
		fmt.Sprintf("object %s not found", hash), nil).
		WithContext("hash", hash.String())
}

func newIntegrityFault(op string, hash objects.ObjectHash, cause error) error {
	return err.New(pkgName, err.CodeIntegrityFault, op,
		fmt.Sprintf("object %s is corrupt", hash), cause).
		WithContext("hash", hash.String())
}

func newStorageFault(op, message string, cause error) error {
	return err.New(pkgName, err.CodeStorageFault, op, message, cause)
}

func newInvalidInput(op, message string) error {
	return err.New(pkgName, err.CodeInvalidInput, op, message, nil)
}

// IsObjectNotFound reports whether e means the object is absent.
func IsObjectNotFound(e error) bool {
	return err.IsCode(e, err.CodeObjectNotFound)
}

// IsIntegrityFault reports whether e means stored bytes are corrupt.
func IsIntegrityFault(e error) bool {
	return err.IsCode(e, err.CodeIntegrityFault)
}

// IsStorageFault reports whether e is a backend I/O failure.
func IsStorageFault(e error) bool {
	return err.IsCode(e, err.CodeStorageFault)
}
