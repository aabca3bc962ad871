package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tmarkell/scribe-api/internal/api/shared"
	"github.com/tmarkell/scribe-api/internal/domain"
	"github.com/tmarkell/scribe-api/internal/service"
)

// SubmissionService accepts new units of work for asynchronous processing.
type SubmissionService interface {
	Submit(ctx context.Context, ownerID uuid.UUID, upload service.Upload) (*domain.ProcessingTask, error)
	SubmitText(ctx context.Context, ownerID uuid.UUID, text, templateID string) (*domain.ProcessingTask, error)
}

// ReconcilerService answers status queries against the task ledger.
type ReconcilerService interface {
	Query(ctx context.Context, ownerID, taskID uuid.UUID) (*service.TaskStatusView, error)
	Pending(ctx context.Context, ownerID uuid.UUID) ([]*service.TaskStatusView, error)
	EngineHealthy(ctx context.Context) bool
}

// Compile-time checks that the concrete services satisfy the handler's
// collaborator interfaces.
var (
	_ SubmissionService = (*service.SubmissionService)(nil)
	_ ReconcilerService = (*service.ReconcilerService)(nil)
)

// ProcessHandler handles the processing-task HTTP endpoints.
type ProcessHandler struct {
	submissions    SubmissionService
	reconciler     ReconcilerService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(
	submissions SubmissionService,
	reconciler ReconcilerService,
	maxUploadBytes int64,
	log *slog.Logger,
) *ProcessHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ProcessHandler{
		submissions:    submissions,
		reconciler:     reconciler,
		maxUploadBytes: maxUploadBytes,
		logger:         log.With(slog.String("component", "process_handler")),
	}
}

// SubmitFile handles POST /process requests. The whole upload is buffered in
// memory before anything is dispatched; maxUploadBytes bounds the request
// body so a single caller cannot exhaust the process.
func (h *ProcessHandler) SubmitFile(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart request")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn("failed to clean up multipart form", "error", err)
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "No file provided")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to read uploaded file", err)
		return
	}

	upload := service.Upload{
		Filename:   header.Filename,
		Data:       data,
		TemplateID: r.FormValue("templateId"),
	}
	if features := r.MultipartForm.Value["features"]; len(features) > 0 {
		upload.Features = features
	}

	task, err := h.submissions.Submit(r.Context(), ownerID, upload)
	if err != nil {
		h.respondSubmitError(w, r, task, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, TaskAcceptedResponse{
		TaskID: task.ID.String(),
		Status: wireStatus(domain.TaskStatusPending),
	})
}

// SubmitText handles POST /process/text requests, the text-only variant of
// the submission contract.
func (h *ProcessHandler) SubmitText(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req SubmitTextRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	task, err := h.submissions.SubmitText(r.Context(), ownerID, req.Text, req.TemplateID)
	if err != nil {
		h.respondSubmitError(w, r, task, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, TaskAcceptedResponse{
		TaskID: task.ID.String(),
		Status: wireStatus(domain.TaskStatusPending),
	})
}

// Status handles GET /process/{taskId}/status requests.
func (h *ProcessHandler) Status(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "taskId"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
		return
	}

	view, err := h.reconciler.Query(r.Context(), ownerID, taskID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, statusResponse(view))
}

// Pending handles GET /process/pending requests, listing the caller's own
// unresolved tasks.
func (h *ProcessHandler) Pending(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	views, err := h.reconciler.Pending(r.Context(), ownerID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	pending := make([]PendingTaskResponse, 0, len(views))
	for _, view := range views {
		pending = append(pending, PendingTaskResponse{
			TaskID:     view.Task.ID.String(),
			Status:     wireStatus(view.Task.Status),
			Phase:      view.Task.ExternalPhase,
			Progress:   view.Progress,
			TemplateID: view.Task.TemplateID,
			CreatedAt:  view.Task.CreatedAt,
		})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, pending)
}

// Health handles GET /process/health requests.
func (h *ProcessHandler) Health(w http.ResponseWriter, r *http.Request) {
	engineState := "unavailable"
	if h.reconciler.EngineHealthy(r.Context()) {
		engineState = "healthy"
	}

	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Engine:    engineState,
		Timestamp: time.Now().UTC(),
	})
}

// respondSubmitError maps a submission failure to the wire contract. When
// the engine rejected the forward, the task row exists and its ID is echoed
// so the caller can still poll the recorded outcome.
func (h *ProcessHandler) respondSubmitError(w http.ResponseWriter, r *http.Request, task *domain.ProcessingTask, err error) {
	if errors.Is(err, service.ErrEngineUnavailable) && task != nil {
		h.logger.Warn("engine rejected submission",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		shared.RespondWithJSON(w, r, http.StatusBadGateway, TaskFailedSubmitResponse{
			TaskID: task.ID.String(),
			Error:  GetSafeErrorMessage(err),
		})
		return
	}

	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}

// statusResponse shapes a reconciler view for the wire.
func statusResponse(view *service.TaskStatusView) TaskStatusResponse {
	resp := TaskStatusResponse{
		TaskID:   view.Task.ID.String(),
		Status:   wireStatus(view.Task.Status),
		Progress: view.Progress,
	}

	switch view.Task.Status {
	case domain.TaskStatusCompleted:
		if view.Result != nil {
			resp.Result = &TaskResultPayload{
				Title:          view.Result.Title,
				Summary:        view.Result.Summary,
				Tags:           view.Result.Tags,
				ASRConfidence:  view.Result.ASRConfidence,
				ProcessingTime: view.Result.ProcessingTime,
				AudioDuration:  view.Result.AudioDuration,
			}
		}
	case domain.TaskStatusFailed:
		resp.Error = view.Task.ErrorMessage
		resp.ErrorCode = view.Task.ErrorCode
	}

	return resp
}

func ownerFromContext(r *http.Request) (uuid.UUID, bool) {
	ownerID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || ownerID == uuid.Nil {
		return uuid.Nil, false
	}
	return ownerID, true
}
