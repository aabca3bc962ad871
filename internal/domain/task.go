package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the authoritative local processing state of a task.
type TaskStatus string

// Possible task status values.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether the status is absorbing: once a task reaches
// completed or failed, no further status change is permitted.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Common validation errors for ProcessingTask.
var (
	ErrEmptyTaskID      = errors.New("task ID cannot be empty")
	ErrEmptyTaskOwnerID = errors.New("task owner ID cannot be empty")
	ErrInvalidStatus    = errors.New("invalid task status")
)

// ProcessingTask represents one submitted unit of AI work and its lifecycle.
// The ID is the only identifier ever exposed to API callers; the engine's own
// identifier lives in ExternalReference and never leaves the server.
type ProcessingTask struct {
	ID                uuid.UUID  `json:"id"`
	OwnerID           uuid.UUID  `json:"owner_id"`
	ExternalReference *string    `json:"external_reference,omitempty"`
	Status            TaskStatus `json:"status"`
	ExternalPhase     string     `json:"external_phase,omitempty"`
	TemplateID        string     `json:"template_id,omitempty"`

	// Common projection of the result payload, extracted once at
	// completion so listings never re-parse the sealed blobs.
	Title string `json:"title,omitempty"`

	// Sealed result content. A blob and its IV are always written
	// together, never one without the other.
	SummaryBlob    []byte `json:"-"`
	SummaryIV      string `json:"-"`
	TranscriptBlob []byte `json:"-"`
	TranscriptIV   string `json:"-"`

	Confidence            float64 `json:"confidence,omitempty"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds,omitempty"`
	AudioDurationSeconds  float64 `json:"audio_duration_seconds,omitempty"`
	RealTimeFactor        float64 `json:"real_time_factor,omitempty"`

	// Populated only when Status is failed.
	ErrorMessage string `json:"error_message,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// NewProcessingTask creates a pending task for the given owner. It generates
// a fresh internal ID and sets the creation timestamp.
// Returns an error if validation fails.
func NewProcessingTask(ownerID uuid.UUID, templateID string) (*ProcessingTask, error) {
	task := &ProcessingTask{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Status:     TaskStatusPending,
		TemplateID: templateID,
		CreatedAt:  time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the ProcessingTask has valid data.
// Returns an error if any field fails validation.
func (t *ProcessingTask) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.OwnerID == uuid.Nil {
		return ErrEmptyTaskOwnerID
	}

	if !isValidTaskStatus(t.Status) {
		return ErrInvalidStatus
	}

	return nil
}

// CanTransitionTo reports whether moving to the given status is allowed by
// the state machine. Terminal states absorb every further transition.
func (t *ProcessingTask) CanTransitionTo(next TaskStatus) bool {
	if !isValidTaskStatus(next) {
		return false
	}
	if t.Status.IsTerminal() {
		return false
	}

	switch t.Status {
	case TaskStatusPending:
		return next == TaskStatusProcessing || next == TaskStatusFailed
	case TaskStatusProcessing:
		return next == TaskStatusProcessing ||
			next == TaskStatusCompleted ||
			next == TaskStatusFailed
	default:
		return false
	}
}

// isValidTaskStatus checks if the given status is a valid TaskStatus.
func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}
