package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"quickshop-support/internal/models"
)

const eventTurnCompleted = "turn_completed"

// LiveURL derives the websocket endpoint for sessionID from the API base URL.
func LiveURL(apiBaseURL, sessionID string) (string, error) {
	u, err := url.Parse(apiBaseURL)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/chat/ws/" + url.PathEscape(sessionID)
	return u.String(), nil
}

// Listen streams turn events for sessionID until ctx ends or the socket
// closes. The returned channel is closed when streaming stops.
func Listen(ctx context.Context, apiBaseURL, sessionID string) (<-chan models.TurnEvent, error) {
	wsURL, err := LiveURL(apiBaseURL, sessionID)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial live updates: %w", err)
	}

	events := make(chan models.TurnEvent)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var msg struct {
				Type    string           `json:"type"`
				Payload models.TurnEvent `json:"payload"`
			}
			if json.Unmarshal(data, &msg) != nil || msg.Type != eventTurnCompleted {
				continue
			}

			select {
			case events <- msg.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}
