// Package err provides the error model shared by the storage engine.
//
// # Structure
//
// Every failure is an *Error (or a package type that unwraps to one) with:
//
//   - Package: where it happened ("store", "index", "refs", "revision", "gc")
//   - Code: a stable category such as CodeObjectNotFound or CodeRefConflict
//   - Op: the operation being performed
//   - Err: the wrapped cause
//
// # Package errors
//
// Packages define a name constant and sentinels carrying their codes:
//
//	const pkgName = "store"
//
//	var ErrObjectNotFound = err.New(pkgName, err.CodeObjectNotFound, "", "object not found", nil)
//
// Because (*Error).Is compares codes, errors.Is(e, store.ErrObjectNotFound)
// holds for any error with CodeObjectNotFound, whatever its message.
//
// Types that need extra fields wrap a base error and expose it via Unwrap:
//
//	type ConflictError struct {
//	    base     *err.Error
//	    Expected objects.ObjectHash
//	    Actual   objects.ObjectHash
//	}
//
// # Checking
//
//	if err.IsCode(e, err.CodeRefConflict) { ... }
//
//	var ce *refs.ConflictError
//	if errors.As(e, &ce) { ... }
package err
