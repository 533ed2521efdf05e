package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"quickshop-support/internal/chat"
	"quickshop-support/internal/models"
)

const (
	msgTurnFailed    = "An error occurred while processing your message. Please try again or contact support@quickshop.com."
	msgHistoryFailed = "An error occurred while fetching conversation history. Please try again or contact support@quickshop.com."
	msgNotFound      = "The requested conversation does not exist."
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

// handleServiceError maps coordinator errors to responses. internalMsg is the
// pre-written text used for anything unexpected.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, internalMsg string) {
	switch {
	case isNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", msgNotFound, r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", internalMsg, r))
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, chat.ErrConversationNotFound)
}
