package domain

import "errors"

// Storage-level errors. Repository implementations translate driver errors
// into these so the Logic layer never inspects Mongo, pgx or Redis errors.
var (
	// ErrNotFound is returned by compound writes whose parent document is missing.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicate is returned when a unique index (username, email) rejects a write.
	ErrDuplicate = errors.New("duplicate key")

	// ErrUnavailable wraps connectivity failures and timeouts of the backing store.
	ErrUnavailable = errors.New("store unavailable")
)
