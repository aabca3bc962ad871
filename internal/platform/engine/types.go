package engine

import "encoding/json"

// SubmitResult is the engine's response to a processing submission.
type SubmitResult struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// SubmitOptions carries the optional submission parameters.
type SubmitOptions struct {
	TemplateID string
	Features   []string
}

// StatusResult is the engine's self-reported state for one of its tasks.
// Results and Metrics are present only once the engine considers the task
// complete, and even then the engine has been observed to report COMPLETE
// with the results payload still missing.
type StatusResult struct {
	Status    string   `json:"status"`
	Progress  int      `json:"progress,omitempty"`
	Results   *Results `json:"results,omitempty"`
	Metrics   *Metrics `json:"metrics,omitempty"`
	Error     string   `json:"error,omitempty"`
	ErrorCode string   `json:"error_code,omitempty"`
}

// Results is the engine's completion payload. Summary is variable-shaped
// JSON: a bare string or a template-specific object.
type Results struct {
	Title           string          `json:"title,omitempty"`
	Summary         json.RawMessage `json:"summary,omitempty"`
	CleanTranscript string          `json:"clean_transcript,omitempty"`
	RawTranscript   string          `json:"raw_transcript,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
}

// Transcript returns the cleaned transcript when available, falling back to
// the raw ASR output.
func (r *Results) Transcript() string {
	if r.CleanTranscript != "" {
		return r.CleanTranscript
	}
	return r.RawTranscript
}

// Metrics carries the engine's processing measurements.
type Metrics struct {
	ASRConfidenceAvg      float64 `json:"asr_confidence_avg"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	InputDurationSeconds  float64 `json:"input_duration_seconds"`
	RTF                   float64 `json:"rtf"`
}

// HealthResult is the engine's health-check response.
type HealthResult struct {
	Status     string `json:"status"`
	QueueDepth int    `json:"queue_depth"`
}

// Healthy reports whether the engine considers itself operational.
func (h *HealthResult) Healthy() bool {
	return h.Status == "ok" || h.Status == "healthy"
}
