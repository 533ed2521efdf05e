package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"quickshop-support/internal/models"
)

const (
	defaultCacheTTL   = 10 * time.Minute
	defaultCacheDepth = 20
)

// CachedStore keeps the newest messages of each conversation in a Redis list
// so turn coordination does not hit the database for history on every
// request. Redis failures fall through to the wrapped Store.
type CachedStore struct {
	Store
	rdb   *redis.Client
	ttl   time.Duration
	depth int
	log   zerolog.Logger
}

func NewCachedStore(store Store, rdb *redis.Client, log zerolog.Logger) *CachedStore {
	return &CachedStore{
		Store: store,
		rdb:   rdb,
		ttl:   defaultCacheTTL,
		depth: defaultCacheDepth,
		log:   log,
	}
}

func recentKey(conversationID string) string {
	return "conversation:" + conversationID + ":recent"
}

func (s *CachedStore) CreateMessage(ctx context.Context, conversationID string, sender models.Sender, text string) (*models.Message, error) {
	m, err := s.Store.CreateMessage(ctx, conversationID, sender, text)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, conversationID)
	return m, nil
}

func (s *CachedStore) TouchConversation(ctx context.Context, id string) error {
	if err := s.Store.TouchConversation(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *CachedStore) ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	limit = normalizeLimit(limit)
	if limit > s.depth {
		return s.Store.ListRecentMessages(ctx, conversationID, limit)
	}

	key := recentKey(conversationID)
	vals, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		s.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("recent message cache read failed")
	} else if len(vals) > 0 {
		msgs, decodeErr := decodeMessages(vals)
		if decodeErr == nil {
			return tail(msgs, limit), nil
		}
		s.log.Warn().Err(decodeErr).Str("conversation_id", conversationID).Msg("dropping corrupt cache entry")
		s.invalidate(ctx, conversationID)
	}

	msgs, err := s.Store.ListRecentMessages(ctx, conversationID, s.depth)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, msgs)
	return tail(msgs, limit), nil
}

func (s *CachedStore) fill(ctx context.Context, key string, msgs []models.Message) {
	if len(msgs) == 0 {
		return
	}

	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return
		}
		values = append(values, data)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("recent message cache fill failed")
	}
}

func (s *CachedStore) invalidate(ctx context.Context, conversationID string) {
	if err := s.rdb.Del(ctx, recentKey(conversationID)).Err(); err != nil {
		s.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("recent message cache invalidation failed")
	}
}

func decodeMessages(vals []string) ([]models.Message, error) {
	msgs := make([]models.Message, 0, len(vals))
	for _, v := range vals {
		var m models.Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, err
		}
		m.Timestamp = m.Timestamp.UTC()
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func tail(msgs []models.Message, n int) []models.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
