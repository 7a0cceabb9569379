package revision

import (
	"fmt"
	"strings"

	"github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/objects"
)

const pkgName = "revision"

// Sentinels for errors.Is.
var (
	ErrAmbiguousRevision = err.New(pkgName, err.CodeAmbiguousRevision, "", "ambiguous revision", nil)
	ErrNoSuchRevision    = err.New(pkgName, err.CodeNoSuchRevision, "", "no such revision", nil)
	ErrNoSuchParent      = err.New(pkgName, err.CodeNoSuchParent, "", "no such parent", nil)
)

// AmbiguousRevisionError is a short digest matching more than one object.
type AmbiguousRevisionError struct {
	baseError  *err.Error
	Prefix     string
	Candidates []objects.ObjectHash
}

// NewAmbiguousRevisionError creates a new ambiguous revision error
func NewAmbiguousRevisionError(prefix string, candidates []objects.ObjectHash) error {
	shown := make([]string, len(candidates))
	for i, c := range candidates {
		shown[i] = c.String()
	}
	return &AmbiguousRevisionError{
		baseError: err.New(
			pkgName,
			err.CodeAmbiguousRevision,
			"resolve",
			fmt.Sprintf("short digest %s is ambiguous: %s", prefix, strings.Join(shown, ", ")),
			nil,
		),
		Prefix:     prefix,
		Candidates: candidates,
	}
}

// Error implements the error interface
func (e *AmbiguousRevisionError) Error() string {
	return e.baseError.Error()
}

// Unwrap returns the underlying error
func (e *AmbiguousRevisionError) Unwrap() error {
	return e.baseError
}

func newNoSuchRevision(text string, cause error) error {
	return err.New(pkgName, err.CodeNoSuchRevision, "resolve",
		fmt.Sprintf("unknown revision %q", text), cause).WithContext("revision", text)
}

func newSyntaxError(text, detail string) error {
	return err.New(pkgName, err.CodeNoSuchRevision, "parse",
		fmt.Sprintf("invalid revision %q: %s", text, detail), nil).WithContext("revision", text)
}

func newNoSuchParent(text string, n int) error {
	return err.New(pkgName, err.CodeNoSuchParent, "resolve",
		fmt.Sprintf("%q has no parent %d", text, n), nil).WithContext("revision", text)
}

// IsAmbiguousRevision reports whether e is a short digest with several matches.
func IsAmbiguousRevision(e error) bool {
	return err.IsCode(e, err.CodeAmbiguousRevision)
}

// IsNoSuchRevision reports whether e means the text names nothing.
func IsNoSuchRevision(e error) bool {
	return err.IsCode(e, err.CodeNoSuchRevision)
}

// IsNoSuchParent reports whether e is a parent step past the available
// parents or the root.
func IsNoSuchParent(e error) bool {
	return err.IsCode(e, err.CodeNoSuchParent)
}
