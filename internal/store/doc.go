// Package store defines the persistence interfaces and sentinel errors for
// the task ledger and tag vocabulary. Concrete implementations live under
// internal/platform/postgres.
package store
