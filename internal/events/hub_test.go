package events

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHub() *SessionHub {
	return NewSessionHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSessionHub(t *testing.T) {
	t.Run("delivers to subscribed session", func(t *testing.T) {
		hub := testHub()
		ownerID := uuid.New()

		ch, unsubscribe := hub.Subscribe(ownerID)
		defer unsubscribe()

		event := NewTaskEvent(EventTaskCompleted, uuid.New())
		require.NoError(t, hub.NotifyOwner(context.Background(), ownerID, event))

		got := <-ch
		assert.Equal(t, event, got)
	})

	t.Run("delivers to every session of the owner", func(t *testing.T) {
		hub := testHub()
		ownerID := uuid.New()

		ch1, unsub1 := hub.Subscribe(ownerID)
		defer unsub1()
		ch2, unsub2 := hub.Subscribe(ownerID)
		defer unsub2()

		event := NewTaskEvent(EventTaskFailed, uuid.New())
		require.NoError(t, hub.NotifyOwner(context.Background(), ownerID, event))

		assert.Equal(t, event, <-ch1)
		assert.Equal(t, event, <-ch2)
	})

	t.Run("no session reports ErrNoActiveSession", func(t *testing.T) {
		hub := testHub()
		err := hub.NotifyOwner(context.Background(), uuid.New(), NewTaskEvent(EventTaskCompleted, uuid.New()))
		assert.ErrorIs(t, err, ErrNoActiveSession)
	})

	t.Run("does not deliver to other owners", func(t *testing.T) {
		hub := testHub()
		ownerA := uuid.New()
		ownerB := uuid.New()

		chA, unsubA := hub.Subscribe(ownerA)
		defer unsubA()
		_, unsubB := hub.Subscribe(ownerB)
		defer unsubB()

		require.NoError(t, hub.NotifyOwner(context.Background(), ownerB, NewTaskEvent(EventTaskCompleted, uuid.New())))
		assert.Empty(t, chA)
	})

	t.Run("unsubscribe closes the channel", func(t *testing.T) {
		hub := testHub()
		ownerID := uuid.New()

		ch, unsubscribe := hub.Subscribe(ownerID)
		unsubscribe()

		_, open := <-ch
		assert.False(t, open)

		err := hub.NotifyOwner(context.Background(), ownerID, NewTaskEvent(EventTaskCompleted, uuid.New()))
		assert.ErrorIs(t, err, ErrNoActiveSession)
	})

	t.Run("full buffer drops instead of blocking", func(t *testing.T) {
		hub := testHub()
		ownerID := uuid.New()

		ch, unsubscribe := hub.Subscribe(ownerID)
		defer unsubscribe()

		for i := 0; i < sessionHubBuffer+5; i++ {
			require.NoError(t, hub.NotifyOwner(context.Background(), ownerID, NewTaskEvent(EventTaskCompleted, uuid.New())))
		}

		assert.Len(t, ch, sessionHubBuffer)
	})
}

func TestNoopNotifier(t *testing.T) {
	var n NoopNotifier
	assert.NoError(t, n.NotifyOwner(context.Background(), uuid.New(), NewTaskEvent(EventTaskCompleted, uuid.New())))
}
