package api

import (
	"errors"
	"net/http"

	"github.com/tmarkell/scribe-api/internal/service"
	"github.com/tmarkell/scribe-api/internal/service/auth"
	"github.com/tmarkell/scribe-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized

	// Not found errors. Ownership mismatches deliberately map here too, so
	// callers cannot probe for task IDs they do not own.
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrTagNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, service.ErrNoFilePayload),
		errors.Is(err, service.ErrEmptyText),
		errors.Is(err, service.ErrTextTooLong),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// The engine transport failing is a gateway condition, not a server bug
	case errors.Is(err, service.ErrEngineUnavailable):
		return http.StatusBadGateway

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"

	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrTagNotFound):
		return "Tag not found"

	case errors.Is(err, service.ErrNoFilePayload):
		return "No file provided"

	case errors.Is(err, service.ErrEmptyText):
		return "Text must not be empty"

	case errors.Is(err, service.ErrTextTooLong):
		return "Text exceeds the maximum length"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, service.ErrEngineUnavailable):
		return "Processing engine unavailable"

	default:
		return "An unexpected error occurred"
	}
}
