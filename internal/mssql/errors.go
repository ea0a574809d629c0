package mssql

import "errors"

// Connection failures are classified so callers can decide whether to skip a
// destination and continue with the rest of the batch.
var (
	// ErrUnreachable means the host or port could not be reached.
	ErrUnreachable = errors.New("instance unreachable")

	// ErrAuth means the instance rejected the supplied credentials.
	ErrAuth = errors.New("authentication failed")

	// ErrVersion means the instance is too old for the requested feature.
	ErrVersion = errors.New("unsupported server version")
)
