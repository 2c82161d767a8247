package model

import "errors"

// Error taxonomy shared across storage, service and api. Callers classify
// with errors.Is; backend detail stays in the wrapped error and the logs.
var (
	// ErrUnsupportedFormat rejects uploads whose extension is not an
	// accepted image format.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNotFound covers a missing record or blob for the requesting owner.
	ErrNotFound = errors.New("not found")

	// ErrStorageWrite reports an I/O failure while persisting blob content.
	ErrStorageWrite = errors.New("storage write failed")

	// ErrStoreUnavailable reports a metadata store backend failure.
	ErrStoreUnavailable = errors.New("metadata store unavailable")

	// ErrInconsistent marks a partial multi-step failure, e.g. a metadata
	// record deleted whose blob was already gone.
	ErrInconsistent = errors.New("inconsistent state")

	// ErrDuplicateEmail rejects a signup for an already registered address.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials rejects a signin with a wrong email or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
