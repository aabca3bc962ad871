// Package engine implements the HTTP client for the external processing
// engine that performs speech transcription and summarization. The engine is
// consumed strictly through its submit/status/health contract; its own task
// identifiers never leave this server.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to the external processing engine.
type Client struct {
	baseURL string
	http    *resty.Client
}

// NewClient creates an engine client for the given base URL. The timeout
// bounds every request; the engine offers no cancellation for accepted work,
// so the timeout only limits how long a single call may block.
func NewClient(baseURL string, timeout time.Duration) *Client {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
	}

	client.http = resty.New().
		SetBaseURL(client.baseURL).
		SetTimeout(timeout)

	return client
}

// SubmitFile uploads a payload for processing via POST /v1/process.
// The payload is already fully buffered: the inbound multipart stream does
// not guarantee field-before-file ordering, so all metadata has to be known
// before this call can be made.
func (c *Client) SubmitFile(ctx context.Context, filename string, data []byte, opts SubmitOptions) (*SubmitResult, error) {
	req := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, bytes.NewReader(data))

	if opts.TemplateID != "" {
		req.SetFormData(map[string]string{"template_id": opts.TemplateID})
	}
	if len(opts.Features) > 0 {
		req.SetFormData(map[string]string{"features": strings.Join(opts.Features, ",")})
	}

	resp, err := req.Post("/v1/process")
	if err != nil {
		return nil, unavailableError("submit", err)
	}
	if !resp.IsSuccess() {
		return nil, unavailableStatus("submit", resp.StatusCode(), string(resp.Body()))
	}

	var result SubmitResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, unavailableError("submit", fmt.Errorf("malformed response: %w", err))
	}
	if result.TaskID == "" {
		return nil, unavailableError("submit", fmt.Errorf("response missing task_id"))
	}

	return &result, nil
}

// TaskStatus polls GET /v1/status/{task_id} for the engine's view of a task.
// Exactly one poll is issued per call; repetition cadence belongs to the
// caller.
func (c *Client) TaskStatus(ctx context.Context, externalRef string) (*StatusResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/v1/status/" + externalRef)
	if err != nil {
		return nil, unavailableError("status", err)
	}
	if !resp.IsSuccess() {
		return nil, unavailableStatus("status", resp.StatusCode(), string(resp.Body()))
	}

	var result StatusResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, unavailableError("status", fmt.Errorf("malformed response: %w", err))
	}

	return &result, nil
}

// Health checks GET /health.
func (c *Client) Health(ctx context.Context) (*HealthResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return nil, unavailableError("health", err)
	}
	if !resp.IsSuccess() {
		return nil, unavailableStatus("health", resp.StatusCode(), string(resp.Body()))
	}

	var result HealthResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, unavailableError("health", fmt.Errorf("malformed response: %w", err))
	}

	return &result, nil
}
