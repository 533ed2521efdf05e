package models

import (
	"strings"
	"time"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Valid reports whether s is one of the two sender tags the store accepts.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// Conversation groups an ordered thread of messages under one id.
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is immutable once stored.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         Sender    `json:"sender"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
}

// SendMessageRequest is the payload of POST /api/chat/message. Pointers let
// validation tell a missing field apart from an empty one.
type SendMessageRequest struct {
	Message   *string `json:"message"`
	SessionID *string `json:"sessionId"`
}

type SendMessageResponse struct {
	Reply         string `json:"reply"`
	SessionID     string `json:"sessionId"`
	MessageID     string `json:"messageId"`
	Timestamp     string `json:"timestamp"`
	UserMessageID string `json:"userMessageId"`
	UserTimestamp string `json:"userTimestamp"`
}

type HistoryMessage struct {
	ID        string `json:"id"`
	Sender    Sender `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type ConversationInfo struct {
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type HistoryResponse struct {
	SessionID        string           `json:"sessionId"`
	Messages         []HistoryMessage `json:"messages"`
	ConversationInfo ConversationInfo `json:"conversationInfo"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment,omitempty"`
}

// TimestampLayout is the wire format for every timestamp: ISO-8601, UTC, with
// an explicit Z marker.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NormalizeTimestamp turns a storage-layer timestamp string into the wire
// format. Strings without a zone marker (for example "2024-05-01 10:00:00")
// are taken to be UTC. Unparseable input is returned unchanged.
func NormalizeTimestamp(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999Z07:00", "2006-01-02 15:04:05.999999999-07"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return FormatTimestamp(t)
		}
	}
	for _, layout := range []string{"2006-01-02 15:04:05.999999999", "2006-01-02T15:04:05.999999999"} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return FormatTimestamp(t)
		}
	}
	return raw
}

// ToHistoryMessage converts a stored message to its wire form.
func ToHistoryMessage(m Message) HistoryMessage {
	return HistoryMessage{
		ID:        m.ID,
		Sender:    m.Sender,
		Text:      m.Text,
		Timestamp: FormatTimestamp(m.Timestamp),
	}
}
