package shared

import "errors"

// Sentinel errors shared by the document store and the domain services.
// Handlers map these onto HTTP status codes; everything else is a 500.
var (
	// ErrNotFound means a referenced id, day, or entry does not exist.
	// The mutation is rejected with no partial effect.
	ErrNotFound = errors.New("not found")

	// ErrCorruptDocument means a document on disk is not parseable JSON.
	// It is surfaced to the caller; there is no silent recovery.
	ErrCorruptDocument = errors.New("corrupt document")

	// ErrStoreUnavailable means the data directory is missing or not
	// writable. Raised once at startup, never per request.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrValidation means an input payload failed shape validation and
	// was rejected before any document was touched.
	ErrValidation = errors.New("validation failed")
)
