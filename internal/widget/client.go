// Package widget is the customer-facing side of the chat: an HTTP client for
// the support API, a session that owns the transcript, and its local state.
package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"quickshop-support/internal/models"
)

const (
	msgSendFailed    = "Failed to send message"
	msgHistoryFailed = "Failed to fetch history"
	msgUnreachable   = "Unable to reach QuickShop support. Please check your connection and try again."
)

// API is the support backend as the session sees it.
type API interface {
	SendMessage(ctx context.Context, text, sessionID string) (*models.SendMessageResponse, error)
	GetHistory(ctx context.Context, sessionID string) (*models.HistoryResponse, error)
}

// APIError is a non-2xx answer from the backend. Message is safe to show.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrUnreachable wraps transport failures.
var ErrUnreachable = errors.New(msgUnreachable)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient talks to baseURL, for example http://localhost:3000/api.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sendBody struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

func (c *Client) SendMessage(ctx context.Context, text, sessionID string) (*models.SendMessageResponse, error) {
	body, err := json.Marshal(sendBody{Message: text, SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/message", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out models.SendMessageResponse
	if err := c.do(req, &out, msgSendFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetHistory(ctx context.Context, sessionID string) (*models.HistoryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/chat/history/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	var out models.HistoryResponse
	if err := c.do(req, &out, msgHistoryFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(req *http.Request, out interface{}, fallback string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: fallback}
		var envelope models.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&envelope) == nil && envelope.Error.Message != "" {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
			apiErr.Fields = envelope.Error.Fields
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: fallback}
	}
	return nil
}

// UserMessage picks the text to show for err.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		// Field errors are more specific than the envelope summary.
		for _, field := range []string{"message", "sessionId"} {
			if msg := apiErr.Fields[field]; msg != "" {
				return msg
			}
		}
		return apiErr.Message
	case errors.Is(err, ErrUnreachable):
		return msgUnreachable
	default:
		return fallback
	}
}
