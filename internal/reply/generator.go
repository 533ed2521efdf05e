// Package reply produces assistant replies for a support conversation.
package reply

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"quickshop-support/internal/models"
)

// Generator turns a conversation history plus the newest customer text into
// an assistant reply.
type Generator interface {
	GenerateReply(ctx context.Context, history []models.Message, userText string) (string, error)
	// Name labels the variant in logs and metrics.
	Name() string
}

const (
	ProviderMock   = "mock"
	ProviderGemini = "gemini"
)

type Config struct {
	Provider       string
	GeminiAPIKey   string
	GeminiModel    string
	ConcurrentReqs int
	MockDelay      time.Duration
}

// New builds the variant named by cfg.Provider. A Remote generator owns its
// completer and must be closed by the caller.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (Generator, error) {
	switch cfg.Provider {
	case ProviderMock:
		return NewScripted(cfg.MockDelay), nil
	case ProviderGemini:
		completer, err := NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ConcurrentReqs)
		if err != nil {
			return nil, err
		}
		return NewRemote(completer, log), nil
	default:
		return nil, fmt.Errorf("unknown reply provider %q", cfg.Provider)
	}
}
