package repository

import "errors"

var (
	// ErrNotFound is returned when a requested row doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an insert collides with an existing
	// primary key. Upsert relies on it to choose update over insert.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStorageUnavailable is returned when the store cannot be opened or
	// migrated. Unlike per-call failures it is recoverable by reopening.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
