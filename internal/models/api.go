package models

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// TurnEvent is published after a turn completes so open widgets on the same
// conversation can append both messages without polling.
type TurnEvent struct {
	SessionID        string         `json:"sessionId"`
	UserMessage      HistoryMessage `json:"userMessage"`
	AssistantMessage HistoryMessage `json:"assistantMessage"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
