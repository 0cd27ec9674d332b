// Package persistence defines the training item data model and the store contract.
package persistence

import "errors"

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when no item has the requested id.
	ErrNotFound = errors.New("training item not found")

	// ErrEmptyUpdate is returned when an ItemUpdate sets no field.
	ErrEmptyUpdate = errors.New("update sets no fields")

	// ErrInvalidStatus is returned for an unknown status or a forbidden status transition.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidItem is returned when an item violates a data invariant.
	ErrInvalidItem = errors.New("invalid training item")

	// ErrDuplicate is returned when a generated item for the same sentence and word already exists.
	ErrDuplicate = errors.New("generated item already exists for sentence and word")
)
