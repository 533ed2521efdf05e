package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"quickshop-support/internal/models"
)

// MemoryStore keeps everything in process memory. It backs tests and the
// STORE_DRIVER=memory demo mode.
type MemoryStore struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation
	messages      map[string][]models.Message
	now           func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[string][]models.Message),
		now:           time.Now,
	}
}

// WithClock replaces the time source; tests use it to force timestamp ties.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) CreateConversation(ctx context.Context) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	c := &models.Conversation{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	s.conversations[c.ID] = c

	copied := *c
	return &copied, nil
}

func (s *MemoryStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (s *MemoryStore) TouchConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touchLocked(id)
	return nil
}

func (s *MemoryStore) touchLocked(id string) {
	c, ok := s.conversations[id]
	if !ok {
		return
	}
	if now := s.now().UTC(); now.After(c.UpdatedAt) {
		c.UpdatedAt = now
	}
}

func (s *MemoryStore) CreateMessage(ctx context.Context, conversationID string, sender models.Sender, text string) (*models.Message, error) {
	if !sender.Valid() {
		return nil, fmt.Errorf("%w: invalid sender %q", ErrConstraintViolation, sender)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, fmt.Errorf("%w: unknown conversation %q", ErrConstraintViolation, conversationID)
	}

	// Slices stay sorted by timestamp: a new message never predates the last one.
	ts := s.now().UTC()
	existing := s.messages[conversationID]
	if n := len(existing); n > 0 && ts.Before(existing[n-1].Timestamp) {
		ts = existing[n-1].Timestamp
	}

	m := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Sender:         sender,
		Text:           text,
		Timestamp:      ts,
	}
	s.messages[conversationID] = append(existing, m)
	s.touchLocked(conversationID)

	return &m, nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.messages[conversationID]
	out := make([]models.Message, len(src))
	copy(out, src)
	return out, nil
}

func (s *MemoryStore) ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.messages[conversationID]
	limit = normalizeLimit(limit)

	// Newest first, then back to reading order.
	out := make([]models.Message, 0, limit)
	for i := len(src) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, src[i])
	}
	reverseMessages(out)
	return out, nil
}
