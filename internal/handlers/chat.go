package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"quickshop-support/internal/chat"
	"quickshop-support/internal/logger"
	"quickshop-support/internal/models"
)

// maxBodyBytes leaves room for a 2000 character message in any encoding.
const maxBodyBytes = 64 << 10

// chatService is the part of chat.Coordinator the handlers need.
type chatService interface {
	HandleTurn(ctx context.Context, sessionID, text string) (*chat.TurnResult, error)
	History(ctx context.Context, sessionID string) (*chat.HistoryResult, error)
}

type ChatHandler struct {
	chat chatService
	log  zerolog.Logger
}

func NewChatHandler(chat chatService, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		chat: chat,
		log:  logger.Component(log, "handlers"),
	}
}

// SendMessage handles POST /api/chat/message.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var raw rawSendMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	in, fields := validateSendMessage(raw)
	if fields != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	result, err := h.chat.HandleTurn(r.Context(), in.SessionID, in.Message)
	if err != nil {
		h.log.Error().Err(err).Str("request_id", r.Header.Get("X-Request-ID")).Msg("Chat turn failed")
		handleServiceError(w, r, err, msgTurnFailed)
		return
	}

	writeJSON(w, http.StatusOK, models.SendMessageResponse{
		Reply:         result.Reply,
		SessionID:     result.ConversationID,
		MessageID:     result.AssistantMessage.ID,
		Timestamp:     models.FormatTimestamp(result.AssistantMessage.Timestamp),
		UserMessageID: result.UserMessage.ID,
		UserTimestamp: models.FormatTimestamp(result.UserMessage.Timestamp),
	})
}

// GetHistory handles GET /api/chat/history/{sessionId}.
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionId"))
	if sessionID == "" || len(sessionID) > MaxSessionIDLength {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", msgNotFound, r))
		return
	}

	result, err := h.chat.History(r.Context(), sessionID)
	if err != nil {
		if !isNotFound(err) {
			h.log.Error().Err(err).Str("session_id", sessionID).Msg("History lookup failed")
		}
		handleServiceError(w, r, err, msgHistoryFailed)
		return
	}

	msgs := make([]models.HistoryMessage, 0, len(result.Messages))
	for _, m := range result.Messages {
		msgs = append(msgs, models.ToHistoryMessage(m))
	}

	writeJSON(w, http.StatusOK, models.HistoryResponse{
		SessionID: result.Conversation.ID,
		Messages:  msgs,
		ConversationInfo: models.ConversationInfo{
			CreatedAt: models.FormatTimestamp(result.Conversation.CreatedAt),
			UpdatedAt: models.FormatTimestamp(result.Conversation.UpdatedAt),
		},
	})
}

type HealthHandler struct {
	env string
	now func() time.Time
}

func NewHealthHandler(env string) *HealthHandler {
	return &HealthHandler{env: env, now: time.Now}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:      "ok",
		Timestamp:   models.FormatTimestamp(h.now()),
		Environment: h.env,
	})
}

// NotFound answers unknown routes with the standard envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Cannot "+r.Method+" "+r.URL.Path, r))
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResp("METHOD_NOT_ALLOWED", "Cannot "+r.Method+" "+r.URL.Path, r))
}
