package service

import (
	"errors"
	"fmt"
)

// Common sentinel errors for the processing services.
var (
	// ErrTaskNotFound indicates the task does not exist or does not belong
	// to the caller. The two cases are deliberately indistinguishable so
	// task IDs cannot be probed across owners.
	ErrTaskNotFound = errors.New("task not found")

	// ErrNoFilePayload indicates multipart parsing completed without any
	// file bytes. The orphan ledger row has already been deleted.
	ErrNoFilePayload = errors.New("no file payload received")

	// ErrEmptyText indicates a text submission with no content.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrTextTooLong indicates a text submission above the length ceiling.
	ErrTextTooLong = fmt.Errorf("text exceeds %d characters", MaxTextLength)

	// ErrEngineUnavailable indicates the external engine could not be
	// reached or errored at the transport level. It is a transient
	// condition, distinct from both "still processing" and "failed", and
	// never mutates the ledger when raised during a poll.
	ErrEngineUnavailable = errors.New("processing engine unavailable")
)

// MaxTextLength is the ceiling for text-only submissions.
const MaxTextLength = 100_000

// TaskServiceError wraps errors from the task services with operation
// context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g. "submit", "query").
	Operation string
	// Message is a human-readable description of the error.
	Message string
	// Err is the underlying error that caused the failure.
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// newServiceError wraps err with operation context, passing service-level
// sentinels through unchanged so callers can match on them.
func newServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{
		ErrTaskNotFound,
		ErrNoFilePayload,
		ErrEmptyText,
		ErrTextTooLong,
		ErrEngineUnavailable,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
