package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrEmptySummaryPayload is returned when a summary payload holds no JSON.
var ErrEmptySummaryPayload = errors.New("summary payload is empty")

// SummaryPayload carries the variable-shaped summary JSON produced by the
// external engine. Depending on the template the engine ran, it is either a
// bare string or an object with a nested text field; the payload keeps the
// raw form intact for sealing and exposes a one-time plain-text projection
// for listings and notifications.
type SummaryPayload struct {
	raw json.RawMessage
}

// NewSummaryPayload wraps raw summary JSON from the engine.
func NewSummaryPayload(raw json.RawMessage) SummaryPayload {
	return SummaryPayload{raw: bytes.TrimSpace(raw)}
}

// SummaryFromText builds a payload from already-plain text.
func SummaryFromText(text string) SummaryPayload {
	raw, _ := json.Marshal(text)
	return SummaryPayload{raw: raw}
}

// IsEmpty reports whether the payload holds no JSON at all.
func (p SummaryPayload) IsEmpty() bool {
	return len(p.raw) == 0 || bytes.Equal(p.raw, []byte("null"))
}

// Raw returns the payload exactly as the engine produced it.
func (p SummaryPayload) Raw() json.RawMessage {
	return p.raw
}

// ProjectText extracts the human-readable summary text: a bare JSON string
// is returned as-is, an object yields its "summary" (or, failing that,
// "text") field. Anything else projects to the empty string.
func (p SummaryPayload) ProjectText() string {
	if p.IsEmpty() {
		return ""
	}

	var asString string
	if err := json.Unmarshal(p.raw, &asString); err == nil {
		return asString
	}

	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(p.raw, &asObject); err != nil {
		return ""
	}

	for _, key := range []string{"summary", "text"} {
		field, ok := asObject[key]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(field, &text); err == nil {
			return text
		}
	}

	return ""
}

// MarshalJSON emits the raw engine payload unchanged.
func (p SummaryPayload) MarshalJSON() ([]byte, error) {
	if p.IsEmpty() {
		return []byte("null"), nil
	}
	return p.raw, nil
}

// UnmarshalJSON stores the raw JSON without interpreting its shape.
func (p *SummaryPayload) UnmarshalJSON(data []byte) error {
	p.raw = bytes.TrimSpace(data)
	return nil
}

// TaskResult is the engine's completion payload after the common projection
// has been extracted: the title and summary text are computed once here, at
// completion time, so reads never re-parse the raw payload.
type TaskResult struct {
	Title      string
	Summary    SummaryPayload
	Transcript string
	Tags       []string

	Confidence            float64
	ProcessingTimeSeconds float64
	AudioDurationSeconds  float64
	RealTimeFactor        float64
}
