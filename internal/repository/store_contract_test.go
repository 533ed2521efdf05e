package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickshop-support/internal/models"
)

// runStoreContract exercises the behaviour every Store implementation shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("create and get conversation", func(t *testing.T) {
		s := newStore(t)

		c, err := s.CreateConversation(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, c.ID)
		assert.Equal(t, c.CreatedAt, c.UpdatedAt)
		assert.Equal(t, "UTC", c.CreatedAt.Location().String())

		got, err := s.GetConversation(ctx, c.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, c.ID, got.ID)
	})

	t.Run("unknown conversation is absent, not an error", func(t *testing.T) {
		s := newStore(t)

		for _, id := range []string{"9b2f4c1e-4a43-4c53-9d5a-0c4f1f0e9a11", "not-a-uuid", ""} {
			got, err := s.GetConversation(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, got, "id %q", id)
		}
	})

	t.Run("message round trip keeps sender and text", func(t *testing.T) {
		s := newStore(t)
		c, err := s.CreateConversation(ctx)
		require.NoError(t, err)

		m, err := s.CreateMessage(ctx, c.ID, models.SenderUser, "Where is my order?")
		require.NoError(t, err)
		assert.Equal(t, c.ID, m.ConversationID)

		msgs, err := s.ListMessages(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, m.ID, msgs[0].ID)
		assert.Equal(t, models.SenderUser, msgs[0].Sender)
		assert.Equal(t, "Where is my order?", msgs[0].Text)
	})

	t.Run("create message touches conversation", func(t *testing.T) {
		s := newStore(t)
		c, err := s.CreateConversation(ctx)
		require.NoError(t, err)

		previous := c.UpdatedAt
		for i := 0; i < 3; i++ {
			_, err := s.CreateMessage(ctx, c.ID, models.SenderAssistant, fmt.Sprintf("reply %d", i))
			require.NoError(t, err)

			got, err := s.GetConversation(ctx, c.ID)
			require.NoError(t, err)
			assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
			assert.False(t, got.UpdatedAt.Before(previous))
			previous = got.UpdatedAt
		}
	})

	t.Run("constraint violations", func(t *testing.T) {
		s := newStore(t)
		c, err := s.CreateConversation(ctx)
		require.NoError(t, err)

		_, err = s.CreateMessage(ctx, "9b2f4c1e-4a43-4c53-9d5a-0c4f1f0e9a11", models.SenderUser, "hi")
		assert.True(t, errors.Is(err, ErrConstraintViolation), "missing conversation: %v", err)

		_, err = s.CreateMessage(ctx, c.ID, models.Sender("ai"), "hi")
		assert.True(t, errors.Is(err, ErrConstraintViolation), "bad sender: %v", err)

		msgs, err := s.ListMessages(ctx, c.ID)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("recent messages are a chronological suffix", func(t *testing.T) {
		s := newStore(t)
		c, err := s.CreateConversation(ctx)
		require.NoError(t, err)

		for i := 0; i < 15; i++ {
			sender := models.SenderUser
			if i%2 == 1 {
				sender = models.SenderAssistant
			}
			_, err := s.CreateMessage(ctx, c.ID, sender, fmt.Sprintf("message %02d", i))
			require.NoError(t, err)
		}

		all, err := s.ListMessages(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, all, 15)

		recent, err := s.ListRecentMessages(ctx, c.ID, 10)
		require.NoError(t, err)
		require.Len(t, recent, 10)
		assert.Equal(t, all[5:], recent)

		for i := 1; i < len(recent); i++ {
			assert.False(t, recent[i].Timestamp.Before(recent[i-1].Timestamp))
		}

		defaulted, err := s.ListRecentMessages(ctx, c.ID, 0)
		require.NoError(t, err)
		assert.Len(t, defaulted, DefaultRecentLimit)

		few, err := s.ListRecentMessages(ctx, c.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"message 12", "message 13", "message 14"}, texts(few))
	})

	t.Run("short conversation returns everything", func(t *testing.T) {
		s := newStore(t)
		c, err := s.CreateConversation(ctx)
		require.NoError(t, err)

		_, err = s.CreateMessage(ctx, c.ID, models.SenderUser, "one")
		require.NoError(t, err)
		_, err = s.CreateMessage(ctx, c.ID, models.SenderAssistant, "two")
		require.NoError(t, err)

		recent, err := s.ListRecentMessages(ctx, c.ID, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"one", "two"}, texts(recent))
	})
}

func texts(msgs []models.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}
