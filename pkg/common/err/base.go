package err

import (
	"errors"
	"strings"
)

// Error is the base error type shared by every package in the module.
//
// Package errors embed or wrap it so that callers can branch on a stable,
// machine-readable Code regardless of which layer produced the failure:
//
//	if err.IsCode(e, err.CodeRefConflict) {
//	    // re-read the ref and retry
//	}
type Error struct {
	// Package names the originating package ("store", "refs", "index", ...).
	Package string

	// Code is the machine-readable category. See codes.go.
	Code string

	// Op is the operation in flight ("put", "update", "snapshot", ...).
	Op string

	// Message is a short human-readable description.
	Message string

	// Err is the wrapped cause, nil for leaf errors.
	Err error

	// Context carries optional structured detail, allocated on first use.
	Context map[string]any
}

// Error renders "[package][code] op: message: cause".
func (e *Error) Error() string {
	var b strings.Builder
	if e.Package != "" {
		b.WriteString("[" + e.Package + "]")
	}
	if e.Code != "" {
		b.WriteString("[" + e.Code + "]")
	}

	for _, part := range []string{e.Op, e.Message} {
		if part == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(part)
	}

	if e.Err != nil {
		if b.Len() > 0 {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same non-empty code.
// This lets package sentinels match any error carrying their code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithContext attaches a key/value pair and returns e for chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// GetContext returns the value stored under key, or nil.
func (e *Error) GetContext(key string) any {
	if e.Context == nil {
		return nil
	}
	return e.Context[key]
}

// New creates a base error.
func New(pkg, code, op, message string, err error) *Error {
	return &Error{
		Package: pkg,
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Wrap annotates err with package and operation. Returns nil for a nil err.
func Wrap(err error, pkg, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Package: pkg, Op: op, Err: err}
}

// WrapWithCode annotates err with package, code and operation.
// Returns nil for a nil err.
func WrapWithCode(err error, pkg, code, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Package: pkg, Code: code, Op: op, Err: err}
}

// IsCode reports whether any *Error in err's chain carries code.
func IsCode(err error, code string) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}

// GetCode returns the code of the outermost *Error that has one.
func GetCode(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.Code != "" {
			return e.Code
		}
		err = e.Err
	}
	return ""
}

// GetPackage returns the package of the outermost *Error, or "".
func GetPackage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Package
	}
	return ""
}

// GetOp returns the operation of the outermost *Error, or "".
func GetOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}
