package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tmarkell/scribe-api/internal/audit"
	"github.com/tmarkell/scribe-api/internal/domain"
	"github.com/tmarkell/scribe-api/internal/platform/engine"
	"github.com/tmarkell/scribe-api/internal/platform/logger"
	"github.com/tmarkell/scribe-api/internal/store"
)

// Upload is a fully-buffered submission. The inbound multipart stream does
// not guarantee field-before-file ordering, so the API layer consumes the
// whole request into memory before the service ever sees it; forwarding to
// the engine cannot begin until all fields are known.
type Upload struct {
	Filename   string
	Data       []byte
	TemplateID string
	Features   []string
}

// SubmissionService is the submission gateway: it durably records a unit of
// work in the ledger before forwarding it to the external engine. A crash or
// network failure right after creation leaves a queryable pending (or
// quickly-marked-failed) row instead of silently dropping the request.
type SubmissionService struct {
	tasks   store.TaskStore
	engine  EngineClient
	auditor audit.Recorder
	logger  *slog.Logger
}

// NewSubmissionService creates a SubmissionService. The auditor is a
// best-effort collaborator; a nil logger falls back to the default.
func NewSubmissionService(
	tasks store.TaskStore,
	engineClient EngineClient,
	auditor audit.Recorder,
	log *slog.Logger,
) *SubmissionService {
	if tasks == nil {
		panic("task store cannot be nil")
	}
	if engineClient == nil {
		panic("engine client cannot be nil")
	}
	if auditor == nil {
		panic("audit recorder cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &SubmissionService{
		tasks:   tasks,
		engine:  engineClient,
		auditor: auditor,
		logger:  log.With(slog.String("component", "submission_service")),
	}
}

// Submit accepts an uploaded file for processing. The ledger row is written
// before any call to the external engine; on engine failure the row is
// marked failed and the task is still returned alongside
// ErrEngineUnavailable so the caller keeps a pollable ID.
//
// A submission that parsed to zero file bytes deletes its orphan row and
// returns ErrNoFilePayload.
func (s *SubmissionService) Submit(ctx context.Context, ownerID uuid.UUID, upload Upload) (*domain.ProcessingTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewProcessingTask(ownerID, upload.TemplateID)
	if err != nil {
		return nil, newServiceError("submit", "invalid task", err)
	}

	// Write-before-call: the row must exist before the engine is contacted.
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, newServiceError("submit", "failed to create ledger row", err)
	}

	if len(upload.Data) == 0 {
		if err := s.tasks.Delete(ctx, task.ID); err != nil {
			log.Error("failed to delete orphan task row",
				slog.String("task_id", task.ID.String()),
				slog.String("error", err.Error()))
		}
		return nil, ErrNoFilePayload
	}

	return s.forward(ctx, task, upload)
}

// SubmitText accepts a text-only submission. Validation failures are
// rejected synchronously with no ledger row left behind.
func (s *SubmissionService) SubmitText(ctx context.Context, ownerID uuid.UUID, text, templateID string) (*domain.ProcessingTask, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if len(text) > MaxTextLength {
		return nil, ErrTextTooLong
	}

	task, err := domain.NewProcessingTask(ownerID, templateID)
	if err != nil {
		return nil, newServiceError("submit_text", "invalid task", err)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, newServiceError("submit_text", "failed to create ledger row", err)
	}

	return s.forward(ctx, task, Upload{
		Filename:   "transcript.txt",
		Data:       []byte(text),
		TemplateID: templateID,
	})
}

// forward sends the buffered payload to the engine and records the outcome
// on the already-created ledger row.
func (s *SubmissionService) forward(ctx context.Context, task *domain.ProcessingTask, upload Upload) (*domain.ProcessingTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.engine.SubmitFile(ctx, upload.Filename, upload.Data, engine.SubmitOptions{
		TemplateID: upload.TemplateID,
		Features:   upload.Features,
	})
	if err != nil {
		// Record the failure durably: a client that loses this response
		// can still recover the outcome by polling.
		if markErr := s.tasks.MarkFailed(ctx, task.ID, err.Error(), ""); markErr != nil {
			log.Error("failed to mark task failed after engine rejection",
				slog.String("task_id", task.ID.String()),
				slog.String("error", markErr.Error()))
		}
		task.Status = domain.TaskStatusFailed
		task.ErrorMessage = err.Error()

		s.recordAudit(ctx, audit.ActionTaskFailed, task)
		log.Warn("engine submission failed",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))

		return task, ErrEngineUnavailable
	}

	if err := s.tasks.SetExternalReference(ctx, task.ID, result.TaskID, result.Status); err != nil {
		return nil, newServiceError("submit", "failed to record external reference", err)
	}
	task.Status = domain.TaskStatusProcessing
	task.ExternalReference = &result.TaskID
	task.ExternalPhase = result.Status

	s.recordAudit(ctx, audit.ActionTaskSubmitted, task)
	log.Info("task forwarded to engine",
		slog.String("task_id", task.ID.String()),
		slog.String("phase", result.Status))

	return task, nil
}

// recordAudit is log-and-continue: audit failures never abort the flow.
func (s *SubmissionService) recordAudit(ctx context.Context, action string, task *domain.ProcessingTask) {
	err := s.auditor.Record(ctx, action, map[string]any{
		"task_id":  task.ID.String(),
		"owner_id": task.OwnerID.String(),
		"status":   string(task.Status),
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("audit record failed",
			slog.String("action", action),
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
	}
}
