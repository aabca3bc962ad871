package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tmarkell/scribe-api/internal/audit"
	"github.com/tmarkell/scribe-api/internal/cryptobox"
	"github.com/tmarkell/scribe-api/internal/domain"
	"github.com/tmarkell/scribe-api/internal/events"
	"github.com/tmarkell/scribe-api/internal/platform/engine"
	"github.com/tmarkell/scribe-api/internal/platform/logger"
	"github.com/tmarkell/scribe-api/internal/store"
)

// TaskResultView is the decrypted, projected result returned to the owner
// of a completed task.
type TaskResultView struct {
	Title          string
	Summary        string
	Tags           []string
	ASRConfidence  float64
	ProcessingTime float64
	AudioDuration  float64
}

// TaskStatusView is the reconciler's answer to one status query.
type TaskStatusView struct {
	Task     *domain.ProcessingTask
	Progress int
	Result   *TaskResultView
}

// ReconcilerService translates a client's synchronous poll into at most one
// engine status check and a local state advance. It never loops or sleeps:
// repetition and backoff belong to the caller.
//
// Terminal rows are served from the ledger with no engine call at all,
// which decouples repeated client polling from the engine's capacity.
type ReconcilerService struct {
	tasks    store.TaskStore
	tagsSvc  *TagService
	engine   EngineClient
	envelope *cryptobox.Envelope
	notifier events.Notifier
	auditor  audit.Recorder
	logger   *slog.Logger
}

// NewReconcilerService creates a ReconcilerService. All collaborators are
// explicit constructor dependencies; the notifier and auditor are
// best-effort and their failures never surface to callers.
func NewReconcilerService(
	tasks store.TaskStore,
	tagsSvc *TagService,
	engineClient EngineClient,
	envelope *cryptobox.Envelope,
	notifier events.Notifier,
	auditor audit.Recorder,
	log *slog.Logger,
) *ReconcilerService {
	if tasks == nil {
		panic("task store cannot be nil")
	}
	if tagsSvc == nil {
		panic("tag service cannot be nil")
	}
	if engineClient == nil {
		panic("engine client cannot be nil")
	}
	if envelope == nil {
		panic("envelope cannot be nil")
	}
	if notifier == nil {
		panic("notifier cannot be nil")
	}
	if auditor == nil {
		panic("audit recorder cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ReconcilerService{
		tasks:    tasks,
		tagsSvc:  tagsSvc,
		engine:   engineClient,
		envelope: envelope,
		notifier: notifier,
		auditor:  auditor,
		logger:   log.With(slog.String("component", "reconciler")),
	}
}

// Query returns the current state of the caller's task, advancing the local
// state machine when the engine reports progress. Unknown IDs and tasks
// owned by someone else both return ErrTaskNotFound.
//
// An engine transport failure mutates nothing and returns
// ErrEngineUnavailable, so "cannot currently check" stays distinguishable
// from "still working".
func (s *ReconcilerService) Query(ctx context.Context, ownerID, taskID uuid.UUID) (*TaskStatusView, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, newServiceError("query", "failed to load task", err)
	}

	if task.OwnerID != ownerID {
		return nil, ErrTaskNotFound
	}

	// Terminal rows are cached: answer locally, never touch the engine.
	if task.Status.IsTerminal() {
		return s.viewFromLedger(ctx, task)
	}

	// Submission has not reached the engine yet.
	if task.ExternalReference == nil {
		return &TaskStatusView{Task: task, Progress: 0}, nil
	}

	status, err := s.engine.TaskStatus(ctx, *task.ExternalReference)
	if err != nil {
		if errors.Is(err, engine.ErrUnavailable) {
			return nil, ErrEngineUnavailable
		}
		return nil, newServiceError("query", "engine poll failed", err)
	}

	switch status.Status {
	case domain.PhaseComplete:
		if status.Results == nil {
			// Observed upstream race: the engine reports COMPLETE before
			// its results are readable. A task is never marked completed
			// without a persisted result, so treat it as still in the LLM
			// phase and let the next poll pick the payload up.
			return s.advancePhase(ctx, task, domain.PhaseLLM)
		}
		return s.complete(ctx, task, status)

	case domain.PhaseFailed:
		return s.fail(ctx, task, status)

	default:
		return s.advancePhase(ctx, task, status.Status)
	}
}

// Pending returns the caller's unresolved tasks with their mirrored phase
// and table-driven progress.
func (s *ReconcilerService) Pending(ctx context.Context, ownerID uuid.UUID) ([]*TaskStatusView, error) {
	tasks, err := s.tasks.ListUnresolvedByOwner(ctx, ownerID)
	if err != nil {
		return nil, newServiceError("pending", "failed to list unresolved tasks", err)
	}

	views := make([]*TaskStatusView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, &TaskStatusView{
			Task:     task,
			Progress: domain.PhaseProgress(task.ExternalPhase),
		})
	}
	return views, nil
}

// EngineHealthy reports whether the engine currently answers its health
// endpoint with a success status.
func (s *ReconcilerService) EngineHealthy(ctx context.Context) bool {
	health, err := s.engine.Health(ctx)
	if err != nil {
		return false
	}
	return health.Healthy()
}

// advancePhase mirrors the engine's sub-phase on the row and reports
// processing.
func (s *ReconcilerService) advancePhase(ctx context.Context, task *domain.ProcessingTask, phase string) (*TaskStatusView, error) {
	if err := s.tasks.UpdatePhase(ctx, task.ID, phase); err != nil {
		return nil, newServiceError("query", "failed to mirror phase", err)
	}

	task.Status = domain.TaskStatusProcessing
	task.ExternalPhase = phase
	return &TaskStatusView{Task: task, Progress: domain.PhaseProgress(phase)}, nil
}

// complete seals the result payload, persists it with the terminal-state
// guard, indexes tags, and requests a completion notification. Losing the
// guard race to a concurrent poller is benign: the row is re-read and served
// from cache.
func (s *ReconcilerService) complete(ctx context.Context, task *domain.ProcessingTask, status *engine.StatusResult) (*TaskStatusView, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	results := status.Results

	summary := domain.NewSummaryPayload(results.Summary)
	title := results.Title
	if title == "" {
		title = summary.ProjectText()
		if len(title) > 80 {
			title = title[:80]
		}
	}

	summaryBlob, summaryIV, err := s.envelope.Encrypt(summary.Raw())
	if err != nil {
		return nil, newServiceError("query", "failed to seal summary", err)
	}
	transcriptBlob, transcriptIV, err := s.envelope.Encrypt([]byte(results.Transcript()))
	if err != nil {
		return nil, newServiceError("query", "failed to seal transcript", err)
	}

	completion := store.TaskCompletion{
		Title:          title,
		SummaryBlob:    summaryBlob,
		SummaryIV:      summaryIV,
		TranscriptBlob: transcriptBlob,
		TranscriptIV:   transcriptIV,
		ProcessedAt:    time.Now().UTC(),
	}
	if status.Metrics != nil {
		completion.Confidence = status.Metrics.ASRConfidenceAvg
		completion.ProcessingTimeSeconds = status.Metrics.ProcessingTimeSeconds
		completion.AudioDurationSeconds = status.Metrics.InputDurationSeconds
		completion.RealTimeFactor = status.Metrics.RTF
	}

	err = s.tasks.Complete(ctx, task.ID, completion)
	if errors.Is(err, store.ErrTerminalState) {
		// A concurrent poller finished the transition first.
		log.Debug("completion raced, serving cached row",
			slog.String("task_id", task.ID.String()))
		fresh, err := s.tasks.GetByID(ctx, task.ID)
		if err != nil {
			return nil, newServiceError("query", "failed to reload task", err)
		}
		return s.viewFromLedger(ctx, fresh)
	}
	if err != nil {
		return nil, newServiceError("query", "failed to persist completion", err)
	}

	if err := s.tagsSvc.AddTags(ctx, task.ID, results.Tags); err != nil {
		// Tag indexing is repairable on a later submission; the completed
		// result must not be withheld over it.
		log.Warn("tag indexing failed",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
	}

	task.Status = domain.TaskStatusCompleted
	task.ExternalPhase = domain.PhaseComplete
	task.Title = title
	task.SummaryBlob = summaryBlob
	task.SummaryIV = summaryIV
	task.TranscriptBlob = transcriptBlob
	task.TranscriptIV = transcriptIV
	task.Confidence = completion.Confidence
	task.ProcessingTimeSeconds = completion.ProcessingTimeSeconds
	task.AudioDurationSeconds = completion.AudioDurationSeconds
	task.RealTimeFactor = completion.RealTimeFactor
	task.ProcessedAt = &completion.ProcessedAt

	s.recordAudit(ctx, audit.ActionTaskCompleted, task)
	s.notify(ctx, task, events.EventTaskCompleted)

	tags, err := s.tagsSvc.TagsForTask(ctx, task.ID)
	if err != nil {
		log.Warn("failed to list tags for completed task",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		tags = nil
	}

	return &TaskStatusView{
		Task:     task,
		Progress: domain.PhaseProgress(domain.PhaseComplete),
		Result: &TaskResultView{
			Title:          title,
			Summary:        summary.ProjectText(),
			Tags:           tags,
			ASRConfidence:  completion.Confidence,
			ProcessingTime: completion.ProcessingTimeSeconds,
			AudioDuration:  completion.AudioDurationSeconds,
		},
	}, nil
}

// fail persists the engine-reported failure with its code before surfacing
// it, so the error is visible to every subsequent query.
func (s *ReconcilerService) fail(ctx context.Context, task *domain.ProcessingTask, status *engine.StatusResult) (*TaskStatusView, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	message := status.Error
	if message == "" {
		message = "engine reported failure"
	}

	err := s.tasks.MarkFailed(ctx, task.ID, message, status.ErrorCode)
	if errors.Is(err, store.ErrTerminalState) {
		log.Debug("failure raced, serving cached row",
			slog.String("task_id", task.ID.String()))
		fresh, err := s.tasks.GetByID(ctx, task.ID)
		if err != nil {
			return nil, newServiceError("query", "failed to reload task", err)
		}
		return s.viewFromLedger(ctx, fresh)
	}
	if err != nil {
		return nil, newServiceError("query", "failed to persist failure", err)
	}

	task.Status = domain.TaskStatusFailed
	task.ErrorMessage = message
	task.ErrorCode = status.ErrorCode

	s.recordAudit(ctx, audit.ActionTaskFailed, task)
	s.notify(ctx, task, events.EventTaskFailed)

	return &TaskStatusView{Task: task, Progress: 0}, nil
}

// viewFromLedger builds a view for an already-terminal row without touching
// the engine, decrypting the sealed summary for completed tasks.
func (s *ReconcilerService) viewFromLedger(ctx context.Context, task *domain.ProcessingTask) (*TaskStatusView, error) {
	if task.Status == domain.TaskStatusFailed {
		return &TaskStatusView{Task: task, Progress: 0}, nil
	}

	summaryRaw, err := s.envelope.Decrypt(task.SummaryBlob, task.SummaryIV)
	if err != nil {
		return nil, newServiceError("query", "failed to open sealed summary", err)
	}
	summary := domain.NewSummaryPayload(summaryRaw)

	tags, err := s.tagsSvc.TagsForTask(ctx, task.ID)
	if err != nil {
		return nil, newServiceError("query", "failed to list tags", err)
	}

	return &TaskStatusView{
		Task:     task,
		Progress: domain.PhaseProgress(domain.PhaseComplete),
		Result: &TaskResultView{
			Title:          task.Title,
			Summary:        summary.ProjectText(),
			Tags:           tags,
			ASRConfidence:  task.Confidence,
			ProcessingTime: task.ProcessingTimeSeconds,
			AudioDuration:  task.AudioDurationSeconds,
		},
	}, nil
}

// notify is log-and-continue: delivery failure never fails or rolls back
// the state transition that triggered it.
func (s *ReconcilerService) notify(ctx context.Context, task *domain.ProcessingTask, eventType string) {
	event := events.NewTaskEvent(eventType, task.ID)
	event.Title = task.Title
	event.Error = task.ErrorMessage
	event.ErrorCode = task.ErrorCode

	if err := s.notifier.NotifyOwner(ctx, task.OwnerID, event); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Debug("notification not delivered",
			slog.String("task_id", task.ID.String()),
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}

// recordAudit is log-and-continue, same contract as the submission gateway.
func (s *ReconcilerService) recordAudit(ctx context.Context, action string, task *domain.ProcessingTask) {
	err := s.auditor.Record(ctx, action, map[string]any{
		"task_id":    task.ID.String(),
		"owner_id":   task.OwnerID.String(),
		"status":     string(task.Status),
		"error_code": task.ErrorCode,
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("audit record failed",
			slog.String("action", action),
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
	}
}
