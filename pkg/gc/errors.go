package gc

import (
	"fmt"

	"github.com/utkarsh5026/sourcevault/pkg/common/err"
)

const pkgName = "gc"

func newStorageFault(op, message string, cause error) error {
	return err.New(pkgName, err.CodeStorageFault, op, message, cause)
}

func newInvalidPolicy(message string) error {
	return err.New(pkgName, err.CodeInvalidInput, "collect", fmt.Sprintf("invalid policy: %s", message), nil)
}
