package repository

import (
	"context"
	"errors"

	"quickshop-support/internal/models"
)

// DefaultRecentLimit is the history window used when a caller passes a
// non-positive limit to ListRecentMessages.
const DefaultRecentLimit = 10

// ErrConstraintViolation is returned when a write would break referential or
// sender integrity.
var ErrConstraintViolation = errors.New("constraint violation")

// Store is the durable record of conversations and messages.
type Store interface {
	CreateConversation(ctx context.Context) (*models.Conversation, error)
	// GetConversation returns (nil, nil) when the conversation does not exist.
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	TouchConversation(ctx context.Context, id string) error
	CreateMessage(ctx context.Context, conversationID string, sender models.Sender, text string) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	return limit
}

func reverseMessages(msgs []models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
