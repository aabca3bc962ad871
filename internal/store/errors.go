package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. This is the generic version of the entity-specific not found
	// errors.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation fails, for
	// example because the entity does not exist or the update violates
	// constraints.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTerminalState is returned when a terminal-state write finds the
	// task already completed or failed. Callers racing on the same
	// completion treat this as a benign no-op.
	ErrTerminalState = errors.New("task already in terminal state")

	// Entity-specific "not found" errors

	// ErrTaskNotFound indicates that the requested processing task does not
	// exist in the store.
	ErrTaskNotFound = fmt.Errorf("%w: processing task", ErrNotFound)

	// ErrTagNotFound indicates that the requested tag does not exist in the
	// store.
	ErrTagNotFound = fmt.Errorf("%w: tag", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrTagNotFound)
}
