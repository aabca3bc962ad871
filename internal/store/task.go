package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tmarkell/scribe-api/internal/domain"
)

// TaskCompletion carries everything a completed task persists in a single
// write: the plaintext projection, the sealed blobs with their IVs, and the
// engine-reported metrics. Blobs and IVs travel together so one is never
// stored without the other.
type TaskCompletion struct {
	Title          string
	SummaryBlob    []byte
	SummaryIV      string
	TranscriptBlob []byte
	TranscriptIV   string

	Confidence            float64
	ProcessingTimeSeconds float64
	AudioDurationSeconds  float64
	RealTimeFactor        float64

	ProcessedAt time.Time
}

// TaskStore defines the persistence contract for the processing-task ledger.
//
// Writes that land a task in a terminal state (Complete, MarkFailed) are
// guarded: if the row is already completed or failed they return
// ErrTerminalState and change nothing, which makes concurrent duplicate
// transitions safe.
type TaskStore interface {
	// Create saves a new pending task row. This must happen before any
	// network call to the external engine is attempted for the task.
	Create(ctx context.Context, task *domain.ProcessingTask) error

	// GetByID retrieves a task by its internal ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ProcessingTask, error)

	// SetExternalReference records the engine-assigned reference and its
	// initial phase, moving the task to processing. The reference column is
	// written only while NULL; a second assignment returns ErrUpdateFailed.
	SetExternalReference(ctx context.Context, id uuid.UUID, ref, phase string) error

	// UpdatePhase mirrors the engine's self-reported sub-phase on a
	// non-terminal row. Terminal rows are left untouched.
	UpdatePhase(ctx context.Context, id uuid.UUID, phase string) error

	// Complete persists the sealed result and marks the task completed.
	// Returns ErrTerminalState if the task already reached a terminal state.
	Complete(ctx context.Context, id uuid.UUID, result TaskCompletion) error

	// MarkFailed records the failure message and code and marks the task
	// failed. Returns ErrTerminalState on already-terminal rows.
	MarkFailed(ctx context.Context, id uuid.UUID, message, code string) error

	// ListUnresolvedByOwner returns the owner's pending and processing
	// tasks, oldest first.
	ListUnresolvedByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.ProcessingTask, error)

	// Delete removes a task row. Used only for the zero-byte orphan case
	// during submission; completed work is never deleted.
	Delete(ctx context.Context, id uuid.UUID) error
}

// TagStore defines the persistence contract for the shared tag vocabulary
// and its association with tasks. Both upserts are idempotent.
type TagStore interface {
	// UpsertTag inserts a tag by unique normalized name, or returns the
	// existing tag's ID.
	UpsertTag(ctx context.Context, name string) (uuid.UUID, error)

	// AttachTag links a tag to a task. Re-attaching the same pair is a
	// no-op.
	AttachTag(ctx context.Context, taskID, tagID uuid.UUID) error

	// ListTagsForTask returns the normalized tag names associated with a
	// task, sorted alphabetically.
	ListTagsForTask(ctx context.Context, taskID uuid.UUID) ([]string, error)
}
