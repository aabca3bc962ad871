package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptyTagName is returned when a tag normalizes to the empty string.
var ErrEmptyTagName = errors.New("tag name cannot be empty")

// Tag is a free-text label shared across tasks, keyed by its unique
// normalized name.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTag creates a tag from an already-normalized name.
func NewTag(name string) (*Tag, error) {
	if name == "" {
		return nil, ErrEmptyTagName
	}

	return &Tag{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NormalizeTagName canonicalizes a free-text label so that spelling variants
// collapse to one vocabulary entry: trim surrounding whitespace, lowercase,
// and apply Unicode NFC composition. Returns "" for labels that are all
// whitespace.
func NormalizeTagName(name string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(name)))
}

// NormalizeTagSet normalizes every label and removes duplicates and empty
// results, preserving first-seen order.
func NormalizeTagSet(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))

	for _, raw := range names {
		name := NormalizeTagName(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	return out
}
