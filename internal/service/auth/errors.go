// Package auth implements the ownership gate: JWT bearer-token validation
// that resolves a request to the owner identity every ledger read is checked
// against. Token issuance (login flows, device enrollment) lives outside
// this server.
package auth

import "errors"

// Authentication errors.
var (
	// ErrInvalidToken is returned when a token fails signature or claim
	// validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when a token's expiry has passed.
	ErrExpiredToken = errors.New("token expired")

	// ErrEmptySecret is returned when the service is constructed without a
	// signing secret.
	ErrEmptySecret = errors.New("JWT secret cannot be empty")
)
