package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tmarkell/scribe-api/internal/domain"
	"github.com/tmarkell/scribe-api/internal/platform/logger"
	"github.com/tmarkell/scribe-api/internal/store"
)

// PostgreSQL error codes.
const (
	pgForeignKeyViolationCode = "23503"
	pgUniqueViolationCode     = "23505"
)

// taskColumns is the select list shared by every task read.
const taskColumns = `
	id, owner_id, external_reference, status, external_phase, template_id,
	title, summary_blob, summary_iv, transcript_blob, transcript_iv,
	confidence, processing_time_seconds, audio_duration_seconds,
	real_time_factor, error_message, error_code, created_at, processed_at
`

// PostgresTaskStore implements the store.TaskStore interface using a
// PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller. If logger is nil, a
// default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create.
// Returns store.ErrInvalidEntity if the owner does not exist (foreign key
// violation) or the task fails domain validation.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.ProcessingTask) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO processing_tasks (id, owner_id, status, external_phase, template_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.OwnerID,
		task.Status,
		task.ExternalPhase,
		task.TemplateID,
		task.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolationCode {
			log.Warn("foreign key violation during task creation",
				slog.String("task_id", task.ID.String()),
				slog.String("owner_id", task.OwnerID.String()))
			return fmt.Errorf("%w: owner with ID %s not found",
				store.ErrInvalidEntity, task.OwnerID)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("failed to create task: %w", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.OwnerID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProcessingTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM processing_tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// SetExternalReference implements store.TaskStore.SetExternalReference.
// The reference column is filled only while NULL; invariant: once set it
// never changes. Returns store.ErrUpdateFailed when the row is missing or
// the reference was already assigned.
func (s *PostgresTaskStore) SetExternalReference(ctx context.Context, id uuid.UUID, ref, phase string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE processing_tasks
		SET external_reference = $2, external_phase = $3, status = $4
		WHERE id = $1 AND external_reference IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, id, ref, phase, domain.TaskStatusProcessing)
	if err != nil {
		log.Error("failed to set external reference",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return fmt.Errorf("failed to set external reference: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		log.Warn("external reference not set: row missing or already assigned",
			slog.String("task_id", id.String()))
		return fmt.Errorf("%w: external reference for task %s", store.ErrUpdateFailed, id)
	}

	return nil
}

// UpdatePhase implements store.TaskStore.UpdatePhase.
// Terminal rows are deliberately skipped; the mirrored phase is advisory
// and must never resurrect a finished task.
func (s *PostgresTaskStore) UpdatePhase(ctx context.Context, id uuid.UUID, phase string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE processing_tasks
		SET external_phase = $2
		WHERE id = $1 AND status NOT IN ($3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, id, phase,
		domain.TaskStatusCompleted, domain.TaskStatusFailed)
	if err != nil {
		log.Error("failed to update phase",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()),
			slog.String("phase", phase))
		return fmt.Errorf("failed to update phase: %w", err)
	}

	return nil
}

// Complete implements store.TaskStore.Complete.
// The sealed blobs, their IVs, the projection, and the metrics land in one
// UPDATE guarded against terminal rows, so two pollers racing on the same
// completion cannot double-apply.
func (s *PostgresTaskStore) Complete(ctx context.Context, id uuid.UUID, result store.TaskCompletion) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE processing_tasks
		SET status = $2,
		    external_phase = $3,
		    title = $4,
		    summary_blob = $5, summary_iv = $6,
		    transcript_blob = $7, transcript_iv = $8,
		    confidence = $9, processing_time_seconds = $10,
		    audio_duration_seconds = $11, real_time_factor = $12,
		    processed_at = $13
		WHERE id = $1 AND status NOT IN ($14, $15)
	`
	res, err := s.db.ExecContext(ctx, query,
		id,
		domain.TaskStatusCompleted,
		domain.PhaseComplete,
		result.Title,
		result.SummaryBlob, result.SummaryIV,
		result.TranscriptBlob, result.TranscriptIV,
		result.Confidence, result.ProcessingTimeSeconds,
		result.AudioDurationSeconds, result.RealTimeFactor,
		result.ProcessedAt,
		domain.TaskStatusCompleted, domain.TaskStatusFailed,
	)
	if err != nil {
		log.Error("failed to complete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return fmt.Errorf("failed to complete task: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		log.Debug("completion skipped: task already terminal",
			slog.String("task_id", id.String()))
		return store.ErrTerminalState
	}

	log.Info("task completed", slog.String("task_id", id.String()))
	return nil
}

// MarkFailed implements store.TaskStore.MarkFailed.
// Guarded the same way as Complete: a terminal row is never overwritten.
func (s *PostgresTaskStore) MarkFailed(ctx context.Context, id uuid.UUID, message, code string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE processing_tasks
		SET status = $2, error_message = $3, error_code = $4, processed_at = NOW()
		WHERE id = $1 AND status NOT IN ($5, $6)
	`
	res, err := s.db.ExecContext(ctx, query,
		id, domain.TaskStatusFailed, message, code,
		domain.TaskStatusCompleted, domain.TaskStatusFailed,
	)
	if err != nil {
		log.Error("failed to mark task failed",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return fmt.Errorf("failed to mark task failed: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		log.Debug("failure skipped: task already terminal",
			slog.String("task_id", id.String()))
		return store.ErrTerminalState
	}

	log.Info("task marked failed",
		slog.String("task_id", id.String()),
		slog.String("error_code", code))
	return nil
}

// ListUnresolvedByOwner implements store.TaskStore.ListUnresolvedByOwner.
func (s *PostgresTaskStore) ListUnresolvedByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.ProcessingTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + taskColumns + `
		FROM processing_tasks
		WHERE owner_id = $1 AND status IN ($2, $3)
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, ownerID,
		domain.TaskStatusPending, domain.TaskStatusProcessing)
	if err != nil {
		log.Error("failed to list unresolved tasks",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, fmt.Errorf("failed to list unresolved tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.ProcessingTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// Delete implements store.TaskStore.Delete.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM processing_tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrTaskNotFound
	}

	log.Info("task deleted", slog.String("task_id", id.String()))
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row into a domain entity, mapping the nullable
// columns onto pointer and zero-value fields.
func scanTask(row rowScanner) (*domain.ProcessingTask, error) {
	var task domain.ProcessingTask
	var externalRef, externalPhase, templateID sql.NullString
	var title, summaryIV, transcriptIV sql.NullString
	var errorMessage, errorCode sql.NullString
	var confidence, processingTime, audioDuration, rtf sql.NullFloat64
	var processedAt sql.NullTime
	var status string

	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&externalRef,
		&status,
		&externalPhase,
		&templateID,
		&title,
		&task.SummaryBlob,
		&summaryIV,
		&task.TranscriptBlob,
		&transcriptIV,
		&confidence,
		&processingTime,
		&audioDuration,
		&rtf,
		&errorMessage,
		&errorCode,
		&task.CreatedAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	if externalRef.Valid {
		task.ExternalReference = &externalRef.String
	}
	task.ExternalPhase = externalPhase.String
	task.TemplateID = templateID.String
	task.Title = title.String
	task.SummaryIV = summaryIV.String
	task.TranscriptIV = transcriptIV.String
	task.Confidence = confidence.Float64
	task.ProcessingTimeSeconds = processingTime.Float64
	task.AudioDurationSeconds = audioDuration.Float64
	task.RealTimeFactor = rtf.Float64
	task.ErrorMessage = errorMessage.String
	task.ErrorCode = errorCode.String
	if processedAt.Valid {
		t := processedAt.Time
		task.ProcessedAt = &t
	}

	return &task, nil
}
