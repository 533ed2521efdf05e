package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"quickshop-support/internal/models"
)

const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateConversation(ctx context.Context) (*models.Conversation, error) {
	c := &models.Conversation{ID: uuid.NewString()}

	query := `INSERT INTO conversations (id) VALUES ($1) RETURNING created_at, updated_at`
	if err := s.pool.QueryRow(ctx, query, c.ID).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	if !isUUID(id) {
		return nil, nil
	}

	c := &models.Conversation{}
	query := `SELECT id::text, created_at, updated_at FROM conversations WHERE id = $1`

	err := s.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

func (s *PostgresStore) TouchConversation(ctx context.Context, id string) error {
	if !isUUID(id) {
		return nil
	}
	_, err := s.pool.Exec(ctx, touchQuery, id)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}

// GREATEST keeps updated_at monotonic even if the clock steps backwards.
const touchQuery = `UPDATE conversations SET updated_at = GREATEST(updated_at, NOW()) WHERE id = $1`

func (s *PostgresStore) CreateMessage(ctx context.Context, conversationID string, sender models.Sender, text string) (*models.Message, error) {
	if !sender.Valid() {
		return nil, fmt.Errorf("%w: invalid sender %q", ErrConstraintViolation, sender)
	}
	if !isUUID(conversationID) {
		return nil, fmt.Errorf("%w: unknown conversation %q", ErrConstraintViolation, conversationID)
	}

	m := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Sender:         sender,
		Text:           text,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO messages (id, conversation_id, sender, text)
		VALUES ($1, $2, $3, $4) RETURNING created_at`
	if err := tx.QueryRow(ctx, query, m.ID, conversationID, string(sender), text).Scan(&m.Timestamp); err != nil {
		return nil, mapWriteError("failed to create message", err)
	}

	if _, err := tx.Exec(ctx, touchQuery, conversationID); err != nil {
		return nil, fmt.Errorf("failed to touch conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}

	m.Timestamp = m.Timestamp.UTC()
	return m, nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	if !isUUID(conversationID) {
		return []models.Message{}, nil
	}

	query := `SELECT id::text, conversation_id::text, sender, text, created_at
		FROM messages WHERE conversation_id = $1
		ORDER BY created_at ASC, seq ASC`

	rows, err := s.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return scanMessages(rows)
}

func (s *PostgresStore) ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	if !isUUID(conversationID) {
		return []models.Message{}, nil
	}

	query := `SELECT id::text, conversation_id::text, sender, text, created_at
		FROM messages WHERE conversation_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, conversationID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}

	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	reverseMessages(msgs)
	return msgs, nil
}

func scanMessages(rows pgx.Rows) ([]models.Message, error) {
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var m models.Message
		var sender string
		if err := rows.Scan(&m.ID, &m.ConversationID, &sender, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Sender = models.Sender(sender)
		m.Timestamp = m.Timestamp.UTC()
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return msgs, nil
}

func mapWriteError(msg string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation, pgCheckViolation:
			return fmt.Errorf("%s: %w: %s", msg, ErrConstraintViolation, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
