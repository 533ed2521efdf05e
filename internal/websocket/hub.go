// Package websocket streams finished turns to widgets watching a conversation.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"quickshop-support/internal/logger"
	"quickshop-support/internal/models"
)

const maxSessionIDLength = 64

func channelName(conversationID string) string {
	return "conversation_updates:" + conversationID
}

// Publisher sends turn events over Redis pub/sub so every server instance can
// deliver them to its own sockets.
type Publisher struct {
	redis *redis.Client
}

func NewPublisher(redisClient *redis.Client) *Publisher {
	return &Publisher{redis: redisClient}
}

func (p *Publisher) Publish(ctx context.Context, conversationID string, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal ws message: %w", err)
	}
	return p.redis.Publish(ctx, channelName(conversationID), data).Err()
}

type Hub struct {
	mu          sync.RWMutex
	connections map[string][]*websocket.Conn
	redisClient *redis.Client
	cancelFuncs map[string]context.CancelFunc
	upgrader    websocket.Upgrader
	log         zerolog.Logger

	// ready is closed once the conversation's subscription is confirmed.
	ready map[string]chan struct{}
}

// NewHub accepts browser connections only from allowedOrigin. Requests
// without an Origin header (non-browser clients) are always accepted.
func NewHub(redisClient *redis.Client, allowedOrigin string, log zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[string][]*websocket.Conn),
		redisClient: redisClient,
		cancelFuncs: make(map[string]context.CancelFunc),
		ready:       make(map[string]chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
		log: logger.Component(log, "websocket"),
	}
}

// HandleWebSocket serves GET /api/chat/ws/{sessionId}.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" || len(sessionID) > maxSessionIDLength {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	// Wait outside the lock so a slow Redis only delays this socket.
	<-h.registerConnection(sessionID, conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(sessionID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// registerConnection adds conn and returns a channel that is closed when the
// conversation's subscription is live.
func (h *Hub) registerConnection(sessionID string, conn *websocket.Conn) <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[sessionID] = append(h.connections[sessionID], conn)

	// First watcher for this conversation opens the subscription.
	if len(h.connections[sessionID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[sessionID] = cancel
		ready := make(chan struct{})
		h.ready[sessionID] = ready
		go h.subscribe(ctx, sessionID, ready)
	}

	h.log.Debug().Str("session_id", sessionID).Int("connections", len(h.connections[sessionID])).Msg("WebSocket connected")
	return h.ready[sessionID]
}

func (h *Hub) unregisterConnection(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[sessionID]
	for i, c := range conns {
		if c == conn {
			h.connections[sessionID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[sessionID]) == 0 {
		delete(h.connections, sessionID)
		delete(h.ready, sessionID)
		if cancel, ok := h.cancelFuncs[sessionID]; ok {
			cancel()
			delete(h.cancelFuncs, sessionID)
		}
	}

	h.log.Debug().Str("session_id", sessionID).Msg("WebSocket disconnected")
}

func (h *Hub) subscribe(ctx context.Context, sessionID string, ready chan<- struct{}) {
	pubsub := h.redisClient.Subscribe(ctx, channelName(sessionID))
	defer pubsub.Close()

	// Wait for the subscription to be confirmed so no event published right
	// after connect is lost.
	if _, err := pubsub.ReceiveTimeout(ctx, 5*time.Second); err != nil {
		h.log.Warn().Err(err).Str("session_id", sessionID).Msg("Subscribe failed")
	}
	close(ready)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(sessionID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(sessionID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[sessionID] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug().Err(err).Str("session_id", sessionID).Msg("WebSocket write failed")
		}
	}
}

// Close drops every socket and subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conns := range h.connections {
		for _, c := range conns {
			c.Close()
		}
		if cancel, ok := h.cancelFuncs[id]; ok {
			cancel()
		}
	}
	h.connections = make(map[string][]*websocket.Conn)
	h.cancelFuncs = make(map[string]context.CancelFunc)
	h.ready = make(map[string]chan struct{})
}
