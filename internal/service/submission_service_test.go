package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarkell/scribe-api/internal/audit"
	"github.com/tmarkell/scribe-api/internal/domain"
	"github.com/tmarkell/scribe-api/internal/platform/engine"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSubmissionFixture() (*SubmissionService, *fakeTaskStore, *fakeEngine, *fakeAuditor) {
	tasks := newFakeTaskStore()
	eng := &fakeEngine{
		submitResult: &engine.SubmitResult{TaskID: "eng-1", Status: domain.PhasePending},
	}
	auditor := &fakeAuditor{}
	svc := NewSubmissionService(tasks, eng, auditor, discardLogger())
	return svc, tasks, eng, auditor
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("successful submission records external reference", func(t *testing.T) {
		svc, tasks, eng, auditor := newSubmissionFixture()
		ownerID := uuid.New()

		task, err := svc.Submit(ctx, ownerID, Upload{
			Filename:   "standup.wav",
			Data:       []byte("RIFF audio"),
			TemplateID: "meeting_notes_v2",
		})
		require.NoError(t, err)

		assert.Equal(t, domain.TaskStatusProcessing, task.Status)
		require.NotNil(t, task.ExternalReference)
		assert.Equal(t, "eng-1", *task.ExternalReference)
		assert.Equal(t, 1, eng.submitCalls)

		row := tasks.snapshot(task.ID)
		require.NotNil(t, row)
		assert.Equal(t, domain.TaskStatusProcessing, row.Status)
		require.NotNil(t, row.ExternalReference)
		assert.Equal(t, "eng-1", *row.ExternalReference)
		assert.Equal(t, domain.PhasePending, row.ExternalPhase)

		assert.Contains(t, auditor.recorded(), audit.ActionTaskSubmitted)
	})

	t.Run("engine failure leaves durable failed row with pollable id", func(t *testing.T) {
		svc, tasks, eng, _ := newSubmissionFixture()
		eng.submitErr = engine.ErrUnavailable

		task, err := svc.Submit(ctx, uuid.New(), Upload{Filename: "a.wav", Data: []byte("x")})
		assert.ErrorIs(t, err, ErrEngineUnavailable)

		// The caller still gets the internal id so it can poll later.
		require.NotNil(t, task)
		assert.NotEqual(t, uuid.Nil, task.ID)

		row := tasks.snapshot(task.ID)
		require.NotNil(t, row)
		assert.Equal(t, domain.TaskStatusFailed, row.Status)
		assert.NotEmpty(t, row.ErrorMessage)
		assert.Nil(t, row.ExternalReference)
	})

	t.Run("zero-byte payload deletes orphan row", func(t *testing.T) {
		svc, tasks, eng, _ := newSubmissionFixture()

		_, err := svc.Submit(ctx, uuid.New(), Upload{Filename: "empty.wav", Data: nil})
		assert.ErrorIs(t, err, ErrNoFilePayload)
		assert.Zero(t, tasks.count())
		assert.Zero(t, eng.submitCalls, "engine must not be contacted for empty payloads")
	})

	t.Run("ledger write failure never reaches the engine", func(t *testing.T) {
		svc, tasks, eng, _ := newSubmissionFixture()
		tasks.createErr = assert.AnError

		_, err := svc.Submit(ctx, uuid.New(), Upload{Filename: "a.wav", Data: []byte("x")})
		assert.Error(t, err)
		assert.Zero(t, eng.submitCalls, "write-before-call ordering")
	})

	t.Run("audit failure does not abort submission", func(t *testing.T) {
		svc, _, _, auditor := newSubmissionFixture()
		auditor.err = assert.AnError

		task, err := svc.Submit(ctx, uuid.New(), Upload{Filename: "a.wav", Data: []byte("x")})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusProcessing, task.Status)
	})
}

func TestSubmitText(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts text within the ceiling", func(t *testing.T) {
		svc, tasks, _, _ := newSubmissionFixture()

		task, err := svc.SubmitText(ctx, uuid.New(), "please summarize this", "meeting_notes_v2")
		require.NoError(t, err)

		assert.Equal(t, domain.TaskStatusProcessing, task.Status)
		assert.Equal(t, "meeting_notes_v2", task.TemplateID)
		assert.NotNil(t, tasks.snapshot(task.ID))
	})

	t.Run("rejects empty text with no ledger row", func(t *testing.T) {
		svc, tasks, _, _ := newSubmissionFixture()

		_, err := svc.SubmitText(ctx, uuid.New(), "", "")
		assert.ErrorIs(t, err, ErrEmptyText)
		assert.Zero(t, tasks.count())
	})

	t.Run("rejects oversized text with no ledger row", func(t *testing.T) {
		svc, tasks, _, _ := newSubmissionFixture()

		_, err := svc.SubmitText(ctx, uuid.New(), strings.Repeat("a", MaxTextLength+1), "")
		assert.ErrorIs(t, err, ErrTextTooLong)
		assert.Zero(t, tasks.count())
	})

	t.Run("engine failure marks row failed", func(t *testing.T) {
		svc, tasks, eng, _ := newSubmissionFixture()
		eng.submitErr = engine.ErrUnavailable

		task, err := svc.SubmitText(ctx, uuid.New(), "summarize", "")
		assert.ErrorIs(t, err, ErrEngineUnavailable)
		require.NotNil(t, task)

		row := tasks.snapshot(task.ID)
		require.NotNil(t, row)
		assert.Equal(t, domain.TaskStatusFailed, row.Status)
		assert.NotEmpty(t, row.ErrorMessage)
	})
}
