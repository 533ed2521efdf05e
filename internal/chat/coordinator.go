// Package chat runs one customer turn end to end: persist, generate, persist.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"quickshop-support/internal/logger"
	"quickshop-support/internal/metrics"
	"quickshop-support/internal/models"
	"quickshop-support/internal/reply"
	"quickshop-support/internal/repository"
)

// ErrConversationNotFound is returned by History for an unknown session id.
var ErrConversationNotFound = errors.New("conversation not found")

// EventTurnCompleted is the WSMessage type published after every turn.
const EventTurnCompleted = "turn_completed"

// Notifier fans a finished turn out to live listeners.
type Notifier interface {
	Publish(ctx context.Context, conversationID string, msg models.WSMessage) error
}

type TurnResult struct {
	Reply            string
	ConversationID   string
	UserMessage      *models.Message
	AssistantMessage *models.Message
	// Created is true when this turn started a new conversation.
	Created bool
	// Substituted is true when Reply is a user-safe failure message.
	Substituted bool
}

type HistoryResult struct {
	Conversation *models.Conversation
	Messages     []models.Message
}

type Coordinator struct {
	store     repository.Store
	generator reply.Generator
	notifier  Notifier
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

type Option func(*Coordinator)

func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

func NewCoordinator(store repository.Store, generator reply.Generator, log zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		generator: generator,
		log:       logger.Component(log, "chat"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HandleTurn records text under sessionID (or a new conversation), generates
// the assistant reply and records it. Generator failures of type *reply.Error
// are replaced by their user-safe message; any other failure aborts the turn
// and leaves the already-saved user message in place.
func (c *Coordinator) HandleTurn(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	// A started turn runs to completion even if the caller goes away. The
	// remote generator bounds its own call.
	ctx = context.WithoutCancel(ctx)

	result, err := c.handleTurn(ctx, sessionID, text)
	if err != nil {
		c.metrics.RecordTurn(metrics.OutcomeFailed)
		return nil, err
	}

	if result.Substituted {
		c.metrics.RecordTurn(metrics.OutcomeSubstituted)
	} else {
		c.metrics.RecordTurn(metrics.OutcomeOK)
	}
	c.publish(ctx, result)
	return result, nil
}

func (c *Coordinator) handleTurn(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	conv, created, err := c.resolveConversation(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	userMsg, err := c.store.CreateMessage(ctx, conv.ID, models.SenderUser, text)
	if err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	recent, err := c.store.ListRecentMessages(ctx, conv.ID, repository.DefaultRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("load recent messages: %w", err)
	}
	history := withoutMessage(recent, userMsg.ID)

	start := time.Now()
	replyText, err := c.generator.GenerateReply(ctx, history, text)
	c.metrics.RecordReply(c.generator.Name(), time.Since(start))

	substituted := false
	if err != nil {
		var replyErr *reply.Error
		if !errors.As(err, &replyErr) {
			return nil, fmt.Errorf("generate reply: %w", err)
		}
		c.metrics.RecordReplyError(string(replyErr.Kind))
		c.log.Warn().Err(replyErr.Err).
			Str("conversation_id", conv.ID).
			Str("kind", string(replyErr.Kind)).
			Msg("Substituting user-safe reply")
		replyText = replyErr.UserMessage
		substituted = true
	}

	assistantMsg, err := c.store.CreateMessage(ctx, conv.ID, models.SenderAssistant, replyText)
	if err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}

	return &TurnResult{
		Reply:            replyText,
		ConversationID:   conv.ID,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Created:          created,
		Substituted:      substituted,
	}, nil
}

// resolveConversation reuses an existing conversation or starts a new one.
// An id that does not resolve silently starts a new conversation.
func (c *Coordinator) resolveConversation(ctx context.Context, sessionID string) (*models.Conversation, bool, error) {
	if sessionID != "" {
		conv, err := c.store.GetConversation(ctx, sessionID)
		if err != nil {
			return nil, false, fmt.Errorf("get conversation: %w", err)
		}
		if conv != nil {
			return conv, false, nil
		}
		c.log.Info().Str("session_id", sessionID).Msg("Unknown session id, starting a new conversation")
	}

	conv, err := c.store.CreateConversation(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("create conversation: %w", err)
	}
	c.metrics.RecordConversationCreated()
	return conv, true, nil
}

// History returns the conversation and every message in order.
func (c *Coordinator) History(ctx context.Context, sessionID string) (*HistoryResult, error) {
	conv, err := c.store.GetConversation(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	msgs, err := c.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return &HistoryResult{Conversation: conv, Messages: msgs}, nil
}

func (c *Coordinator) publish(ctx context.Context, result *TurnResult) {
	if c.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	event := models.TurnEvent{
		SessionID:        result.ConversationID,
		UserMessage:      models.ToHistoryMessage(*result.UserMessage),
		AssistantMessage: models.ToHistoryMessage(*result.AssistantMessage),
	}
	msg := models.WSMessage{Type: EventTurnCompleted, Payload: event}
	if err := c.notifier.Publish(ctx, result.ConversationID, msg); err != nil {
		c.log.Warn().Err(err).Str("conversation_id", result.ConversationID).Msg("Failed to publish turn event")
	}
}

func withoutMessage(msgs []models.Message, id string) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}
