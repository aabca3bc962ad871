// Package events defines the notification boundary: the task events pushed
// to owners on completion or failure, the Notifier interface services depend
// on, and an in-memory session hub implementation.
package events
