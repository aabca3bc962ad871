package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types delivered to task owners.
const (
	EventTaskCompleted = "processing.completed"
	EventTaskFailed    = "processing.failed"
)

// TaskEvent is the payload pushed to a task owner's active sessions when
// their task reaches a terminal state. It carries only the common
// projection, never the sealed content.
type TaskEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	TaskID    uuid.UUID `json:"task_id"`
	Title     string    `json:"title,omitempty"`
	Error     string    `json:"error,omitempty"`
	ErrorCode string    `json:"error_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskEvent creates an event of the given type for a task.
func NewTaskEvent(eventType string, taskID uuid.UUID) *TaskEvent {
	return &TaskEvent{
		ID:        uuid.New(),
		Type:      eventType,
		TaskID:    taskID,
		CreatedAt: time.Now().UTC(),
	}
}
