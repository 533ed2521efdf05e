package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickshop-support/internal/models"
)

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestMemoryStore_TiesKeepInsertionOrder(t *testing.T) {
	frozen := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore().WithClock(func() time.Time { return frozen })
	ctx := context.Background()

	c, err := s.CreateConversation(ctx)
	require.NoError(t, err)

	for _, text := range []string{"a", "b", "c"} {
		_, err := s.CreateMessage(ctx, c.ID, models.SenderUser, text)
		require.NoError(t, err)
	}

	msgs, err := s.ListMessages(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, texts(msgs))

	recent, err := s.ListRecentMessages(ctx, c.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, texts(recent))
}

func TestMemoryStore_ClockStepBackKeepsOrder(t *testing.T) {
	times := []time.Time{
		time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),  // conversation
		time.Date(2025, 3, 1, 12, 0, 5, 0, time.UTC),  // first message
		time.Date(2025, 3, 1, 12, 0, 5, 0, time.UTC),  // touch
		time.Date(2025, 3, 1, 11, 59, 0, 0, time.UTC), // second message, clock went back
		time.Date(2025, 3, 1, 11, 59, 0, 0, time.UTC), // touch
	}
	i := 0
	s := NewMemoryStore().WithClock(func() time.Time {
		ts := times[i]
		i++
		return ts
	})
	ctx := context.Background()

	c, err := s.CreateConversation(ctx)
	require.NoError(t, err)
	first, err := s.CreateMessage(ctx, c.ID, models.SenderUser, "first")
	require.NoError(t, err)
	second, err := s.CreateMessage(ctx, c.ID, models.SenderAssistant, "second")
	require.NoError(t, err)

	assert.False(t, second.Timestamp.Before(first.Timestamp))

	got, err := s.GetConversation(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, times[1], got.UpdatedAt)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	c, err := s.CreateConversation(ctx)
	require.NoError(t, err)
	c.ID = "mutated"

	_, err = s.CreateMessage(ctx, c.ID, models.SenderUser, "hi")
	assert.ErrorIs(t, err, ErrConstraintViolation)
}
