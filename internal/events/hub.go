package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ErrNoActiveSession is returned when the owner has no registered session.
// Callers log and continue; a missing session is not a failure of the
// triggering state transition.
var ErrNoActiveSession = errors.New("owner has no active session")

// sessionBuffer is the per-session channel capacity. A session that stops
// draining loses events rather than blocking the reconciler.
const sessionHubBuffer = 16

// SessionHub is an in-memory Notifier that fans events out to the buffered
// channels of an owner's registered sessions. It stands in for the realtime
// session/room registry at this boundary.
type SessionHub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[uuid.UUID]chan *TaskEvent
	logger   *slog.Logger
}

// NewSessionHub creates an empty hub.
func NewSessionHub(logger *slog.Logger) *SessionHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHub{
		sessions: make(map[uuid.UUID]map[uuid.UUID]chan *TaskEvent),
		logger:   logger.With(slog.String("component", "session_hub")),
	}
}

// Ensure SessionHub implements Notifier
var _ Notifier = (*SessionHub)(nil)

// Subscribe registers a new session for the owner and returns its event
// channel plus an unsubscribe function. The channel is closed on
// unsubscribe.
func (h *SessionHub) Subscribe(ownerID uuid.UUID) (<-chan *TaskEvent, func()) {
	sessionID := uuid.New()
	ch := make(chan *TaskEvent, sessionHubBuffer)

	h.mu.Lock()
	if h.sessions[ownerID] == nil {
		h.sessions[ownerID] = make(map[uuid.UUID]chan *TaskEvent)
	}
	h.sessions[ownerID][sessionID] = ch
	h.mu.Unlock()

	h.logger.Debug("session subscribed",
		slog.String("owner_id", ownerID.String()),
		slog.String("session_id", sessionID.String()))

	unsubscribe := func() {
		h.mu.Lock()
		if owned, ok := h.sessions[ownerID]; ok {
			if ch, ok := owned[sessionID]; ok {
				delete(owned, sessionID)
				close(ch)
			}
			if len(owned) == 0 {
				delete(h.sessions, ownerID)
			}
		}
		h.mu.Unlock()
	}

	return ch, unsubscribe
}

// NotifyOwner implements Notifier. Delivery to each session is non-blocking;
// a full buffer drops the event for that session. Returns ErrNoActiveSession
// when the owner has no sessions at all.
func (h *SessionHub) NotifyOwner(ctx context.Context, ownerID uuid.UUID, event *TaskEvent) error {
	h.mu.RLock()
	owned := h.sessions[ownerID]
	channels := make([]chan *TaskEvent, 0, len(owned))
	for _, ch := range owned {
		channels = append(channels, ch)
	}
	h.mu.RUnlock()

	if len(channels) == 0 {
		return ErrNoActiveSession
	}

	delivered := 0
	for _, ch := range channels {
		select {
		case ch <- event:
			delivered++
		default:
			h.logger.Warn("session buffer full, dropping event",
				slog.String("owner_id", ownerID.String()),
				slog.String("event_type", event.Type),
				slog.String("task_id", event.TaskID.String()))
		}
	}

	h.logger.Debug("event delivered",
		slog.String("owner_id", ownerID.String()),
		slog.String("event_type", event.Type),
		slog.Int("sessions", delivered))

	return nil
}
