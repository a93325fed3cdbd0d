package storage

import "errors"

// Sentinel errors shared by all store implementations.
var (
	// ErrNotFound is returned when no record exists for the given key.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned by insert-once stores when the signature
	// was already recorded. Pool events are immutable once stored.
	ErrDuplicateKey = errors.New("duplicate key: event already recorded")

	// ErrInvalidInput is returned when a record fails validation before it
	// reaches the store.
	ErrInvalidInput = errors.New("invalid input")
)
