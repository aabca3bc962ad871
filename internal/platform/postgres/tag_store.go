package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tmarkell/scribe-api/internal/domain"
	"github.com/tmarkell/scribe-api/internal/platform/logger"
	"github.com/tmarkell/scribe-api/internal/store"
)

// PostgresTagStore implements the store.TagStore interface using a
// PostgreSQL database as the storage backend.
type PostgresTagStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTagStore creates a new PostgreSQL implementation of the
// TagStore interface. If logger is nil, a default logger will be used.
func NewPostgresTagStore(db store.DBTX, logger *slog.Logger) *PostgresTagStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTagStore{
		db:     db,
		logger: logger.With(slog.String("component", "tag_store")),
	}
}

// Ensure PostgresTagStore implements store.TagStore interface
var _ store.TagStore = (*PostgresTagStore)(nil)

// UpsertTag implements store.TagStore.UpsertTag.
// The no-op DO UPDATE makes RETURNING yield the existing row's ID on
// conflict, so insert and lookup are a single round trip.
func (s *PostgresTagStore) UpsertTag(ctx context.Context, name string) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if name == "" {
		return uuid.Nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrEmptyTagName)
	}

	query := `
		INSERT INTO tags (id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`

	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, query, uuid.New(), name, time.Now().UTC()).Scan(&id)
	if err != nil {
		log.Error("failed to upsert tag",
			slog.String("error", err.Error()),
			slog.String("tag_name", name))
		return uuid.Nil, fmt.Errorf("failed to upsert tag: %w", err)
	}

	return id, nil
}

// AttachTag implements store.TagStore.AttachTag.
// Re-inserting the same (task, tag) pair is a no-op.
func (s *PostgresTagStore) AttachTag(ctx context.Context, taskID, tagID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO task_tags (task_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT (task_id, tag_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, taskID, tagID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolationCode {
			log.Warn("foreign key violation attaching tag",
				slog.String("task_id", taskID.String()),
				slog.String("tag_id", tagID.String()))
			return fmt.Errorf("%w: task or tag does not exist", store.ErrInvalidEntity)
		}

		log.Error("failed to attach tag",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.String("tag_id", tagID.String()))
		return fmt.Errorf("failed to attach tag: %w", err)
	}

	return nil
}

// ListTagsForTask implements store.TagStore.ListTagsForTask.
func (s *PostgresTagStore) ListTagsForTask(ctx context.Context, taskID uuid.UUID) ([]string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT t.name
		FROM tags t
		JOIN task_tags tt ON tt.tag_id = t.id
		WHERE tt.task_id = $1
		ORDER BY t.name ASC
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		log.Error("failed to list tags for task",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag rows: %w", err)
	}

	return names, nil
}
