package service

import (
	"context"

	"github.com/tmarkell/scribe-api/internal/platform/engine"
)

// EngineClient is the slice of the external engine's contract the services
// depend on. Satisfied by *engine.Client and substitutable with a test
// double.
type EngineClient interface {
	// SubmitFile forwards a fully-buffered payload to the engine.
	SubmitFile(ctx context.Context, filename string, data []byte, opts engine.SubmitOptions) (*engine.SubmitResult, error)

	// TaskStatus issues exactly one status poll for an engine task.
	TaskStatus(ctx context.Context, externalRef string) (*engine.StatusResult, error)

	// Health checks the engine's own health endpoint.
	Health(ctx context.Context) (*engine.HealthResult, error)
}

// Ensure the real client satisfies the interface.
var _ EngineClient = (*engine.Client)(nil)
