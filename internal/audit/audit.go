// Package audit provides the best-effort audit-log sink. Recording an event
// must never abort the primary flow: callers log a recorder failure and
// continue.
package audit

import (
	"context"
	"log/slog"

	"github.com/tmarkell/scribe-api/internal/platform/logger"
)

// Audited actions.
const (
	ActionTaskSubmitted = "task.submitted"
	ActionTaskCompleted = "task.completed"
	ActionTaskFailed    = "task.failed"
)

// Recorder records audit events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(ctx context.Context, action string, fields map[string]any) error
}

// LogRecorder writes audit events to the structured log under a dedicated
// component key.
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder creates a Recorder backed by slog. If logger is nil, the
// default logger is used.
func NewLogRecorder(log *slog.Logger) *LogRecorder {
	if log == nil {
		log = slog.Default()
	}
	return &LogRecorder{
		logger: log.With(slog.String("component", "audit")),
	}
}

// Ensure LogRecorder implements Recorder
var _ Recorder = (*LogRecorder)(nil)

// Record implements Recorder.
func (r *LogRecorder) Record(ctx context.Context, action string, fields map[string]any) error {
	log := logger.FromContextOrDefault(ctx, r.logger)

	attrs := make([]any, 0, 2+2*len(fields))
	attrs = append(attrs, slog.String("action", action))
	for key, value := range fields {
		attrs = append(attrs, slog.Any(key, value))
	}

	log.Info("audit event", attrs...)
	return nil
}
