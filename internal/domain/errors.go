package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUnauthorized is returned when an operation is not permitted
	// for the calling identity.
	ErrUnauthorized = errors.New("unauthorized operation")

	// ErrTaskNotOwned is returned when a caller queries a task that
	// belongs to a different owner.
	ErrTaskNotOwned = errors.New("task not owned by caller")

	// ErrTerminalState is returned when a mutation is attempted on a
	// task that has already reached completed or failed.
	ErrTerminalState = errors.New("task already in terminal state")

	// ErrExternalRefSet is returned when a second external reference
	// assignment is attempted. The reference is set at most once.
	ErrExternalRefSet = errors.New("external reference already set")
)
