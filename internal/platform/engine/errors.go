package engine

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the engine cannot be reached or answers
// at the transport level with an error. It marks a transient condition:
// callers must not record it against the task ledger.
var ErrUnavailable = errors.New("processing engine unavailable")

// unavailableError wraps the transport-level cause behind ErrUnavailable.
func unavailableError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// unavailableStatus maps a non-success HTTP response to ErrUnavailable.
func unavailableStatus(op string, code int, body string) error {
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Errorf("%w: %s returned HTTP %d: %s", ErrUnavailable, op, code, body)
}
