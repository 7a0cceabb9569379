package err

// Standard codes shared across packages.
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyExists    = "ALREADY_EXISTS"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeTimeout          = "TIMEOUT"
	CodeInternal         = "INTERNAL"
	CodeLockFailed       = "LOCK_FAILED"
	CodeValidation       = "VALIDATION"
	CodeConflict         = "CONFLICT"
	CodeInvalidFormat    = "INVALID_FORMAT"
	CodeReadOnly         = "READ_ONLY"
)

// Storage engine codes. Every failure surfaced by the object store, index,
// reference store, resolver or collector carries exactly one of these.
const (
	// CodeStorageFault is an I/O failure reading or writing objects, the
	// index or refs. The operation was not applied.
	CodeStorageFault = "STORAGE_FAULT"

	// CodeIntegrityFault means stored bytes do not hash to their digest.
	CodeIntegrityFault = "INTEGRITY_FAULT"

	// CodeObjectNotFound means no object has the requested digest.
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// CodeUnresolvedConflicts means the index still holds stage 1-3 entries.
	CodeUnresolvedConflicts = "UNRESOLVED_CONFLICTS"

	CodeRefAlreadyExists = "REF_ALREADY_EXISTS"
	CodeNoSuchRef        = "NO_SUCH_REF"
	CodeUnbornRef        = "UNBORN_REF"

	// CodeRefConflict is a compare-and-swap mismatch. Callers re-read and retry.
	CodeRefConflict = "REF_CONFLICT"

	CodeAmbiguousRevision = "AMBIGUOUS_REVISION"
	CodeNoSuchRevision    = "NO_SUCH_REVISION"
	CodeNoSuchParent      = "NO_SUCH_PARENT"
)
