package api

import (
	"time"

	"github.com/tmarkell/scribe-api/internal/domain"
)

// Wire-level request/response structures for the processing endpoints.
// Status strings on the wire are upper-case engine-style values; the
// internal enum stays lower-case.

// SubmitTextRequest defines the payload for the text-only submission endpoint.
type SubmitTextRequest struct {
	Text       string `json:"text"       validate:"required,min=1"`
	TemplateID string `json:"templateId" validate:"omitempty,max=128"`
}

// TaskAcceptedResponse is returned when a submission has been durably
// recorded, whether or not the engine accepted it yet.
type TaskAcceptedResponse struct {
	TaskID string `json:"taskId"`
	Status string `json:"status"`
}

// TaskFailedSubmitResponse is returned with 502 when the engine rejected a
// submission. The task ID is still present so the caller can poll the
// durably recorded outcome.
type TaskFailedSubmitResponse struct {
	TaskID string `json:"taskId"`
	Error  string `json:"error"`
}

// TaskResultPayload is the decrypted result projection for a completed task.
type TaskResultPayload struct {
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	Tags           []string `json:"tags"`
	ASRConfidence  float64  `json:"asrConfidence"`
	ProcessingTime float64  `json:"processingTime"`
	AudioDuration  float64  `json:"audioDuration"`
}

// TaskStatusResponse is the answer to a status poll. Result is present only
// for completed tasks; Error and ErrorCode only for failed ones.
type TaskStatusResponse struct {
	TaskID    string             `json:"taskId"`
	Status    string             `json:"status"`
	Progress  int                `json:"progress"`
	Result    *TaskResultPayload `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	ErrorCode string             `json:"errorCode,omitempty"`
}

// PendingTaskResponse describes one unresolved task in the pending listing.
type PendingTaskResponse struct {
	TaskID     string    `json:"taskId"`
	Status     string    `json:"status"`
	Phase      string    `json:"phase,omitempty"`
	Progress   int       `json:"progress"`
	TemplateID string    `json:"templateId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HealthResponse reports reachability of the external engine.
type HealthResponse struct {
	Engine    string    `json:"engine"`
	Timestamp time.Time `json:"timestamp"`
}

// wireStatus converts the internal status enum to its wire representation.
func wireStatus(status domain.TaskStatus) string {
	switch status {
	case domain.TaskStatusPending:
		return "PENDING"
	case domain.TaskStatusProcessing:
		return "PROCESSING"
	case domain.TaskStatusCompleted:
		return "COMPLETE"
	case domain.TaskStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
