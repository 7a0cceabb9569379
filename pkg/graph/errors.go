package graph

import (
	"errors"
	"fmt"

	"github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

const pkgName = "graph"

var errTagChain = errors.New("tag chain too deep")

func newWrongKind(op string, hash objects.ObjectHash, want, got objects.ObjectType) error {
	return err.New(pkgName, err.CodeInvalidInput, op,
		fmt.Sprintf("object %s is a %s, not a %s", hash.Short(), got, want), nil).
		WithContext("hash", hash.String())
}

func newCorrupt(op string, hash objects.ObjectHash, cause error) error {
	return err.New(pkgName, err.CodeIntegrityFault, op,
		fmt.Sprintf("object %s does not parse", hash.Short()), cause).
		WithContext("hash", hash.String())
}

func wrap(op string, cause error) error {
	return err.Wrap(cause, pkgName, op)
}
