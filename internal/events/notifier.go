package events

import (
	"context"

	"github.com/google/uuid"
)

// Notifier pushes task events to whatever active sessions the owner
// currently has. Delivery is best-effort: implementations report failures
// through their return value, but callers treat notification as a side
// effect and never roll back the state transition that triggered it.
//
// The notifier is an explicit constructor dependency of the services that
// use it, substitutable with a test double.
type Notifier interface {
	NotifyOwner(ctx context.Context, ownerID uuid.UUID, event *TaskEvent) error
}

// NoopNotifier discards every event. Useful in tests and for deployments
// without a realtime channel.
type NoopNotifier struct{}

// NotifyOwner implements Notifier by doing nothing.
func (NoopNotifier) NotifyOwner(context.Context, uuid.UUID, *TaskEvent) error {
	return nil
}
