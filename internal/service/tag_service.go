package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tmarkell/scribe-api/internal/domain"
	"github.com/tmarkell/scribe-api/internal/platform/logger"
	"github.com/tmarkell/scribe-api/internal/store"
)

// TagService normalizes free-text labels against the shared vocabulary and
// associates them with tasks. Every operation is idempotent: re-indexing the
// same labels produces no duplicate rows and no errors.
type TagService struct {
	tags   store.TagStore
	logger *slog.Logger
}

// NewTagService creates a TagService. If logger is nil, a default logger
// will be used.
func NewTagService(tags store.TagStore, log *slog.Logger) *TagService {
	if tags == nil {
		panic("tag store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &TagService{
		tags:   tags,
		logger: log.With(slog.String("component", "tag_service")),
	}
}

// AddTags normalizes and deduplicates the given labels, then upserts each
// tag and its association with the task.
func (s *TagService) AddTags(ctx context.Context, taskID uuid.UUID, names []string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	normalized := domain.NormalizeTagSet(names)
	if len(normalized) == 0 {
		return nil
	}

	for _, name := range normalized {
		tagID, err := s.tags.UpsertTag(ctx, name)
		if err != nil {
			return newServiceError("add_tags", "failed to upsert tag "+name, err)
		}

		if err := s.tags.AttachTag(ctx, taskID, tagID); err != nil {
			return newServiceError("add_tags", "failed to attach tag "+name, err)
		}
	}

	log.Debug("tags indexed",
		slog.String("task_id", taskID.String()),
		slog.Int("count", len(normalized)))
	return nil
}

// TagsForTask returns the normalized tag names associated with a task.
func (s *TagService) TagsForTask(ctx context.Context, taskID uuid.UUID) ([]string, error) {
	names, err := s.tags.ListTagsForTask(ctx, taskID)
	if err != nil {
		return nil, newServiceError("list_tags", "failed to list tags", err)
	}
	return names, nil
}
