package reply

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"quickshop-support/internal/logger"
	"quickshop-support/internal/models"
)

const (
	// HistoryWindow caps how many prior messages are sent to the provider.
	HistoryWindow   = 10
	maxOutputTokens = 500
	temperature     = 0.7
	remoteTimeout   = 30 * time.Second
)

// Role of a prompt turn as the provider understands it.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Turn struct {
	Role Role
	Text string
}

// Prompt is everything a completer needs for one call.
type Prompt struct {
	System          string
	History         []Turn
	UserText        string
	MaxOutputTokens int32
	Temperature     float32
}

// Completer sends a prompt to a language model and returns the raw text.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Remote generates replies through a Completer and classifies its failures.
type Remote struct {
	completer Completer
	timeout   time.Duration
	log       zerolog.Logger
}

func NewRemote(completer Completer, log zerolog.Logger) *Remote {
	return &Remote{
		completer: completer,
		timeout:   remoteTimeout,
		log:       logger.Component(log, "reply"),
	}
}

func (r *Remote) Name() string { return ProviderGemini }

// GenerateReply returns *Error on every failure.
func (r *Remote) GenerateReply(ctx context.Context, history []models.Message, userText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	text, err := r.completer.Complete(ctx, BuildPrompt(history, userText))
	if err != nil {
		return "", r.fail(err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", r.fail(ErrEmptyCompletion)
	}
	return text, nil
}

func (r *Remote) fail(err error) *Error {
	classified := Wrap(err)
	r.log.Error().Err(err).Str("kind", string(classified.Kind)).Msg("Reply generation failed")
	return classified
}

// Close releases the completer when it holds resources.
func (r *Remote) Close() error {
	if c, ok := r.completer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// BuildPrompt keeps the last HistoryWindow messages and maps senders to
// provider roles.
func BuildPrompt(history []models.Message, userText string) Prompt {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}

	turns := make([]Turn, 0, len(history))
	for _, m := range history {
		role := RoleUser
		if m.Sender == models.SenderAssistant {
			role = RoleModel
		}
		turns = append(turns, Turn{Role: role, Text: m.Text})
	}

	return Prompt{
		System:          systemInstruction,
		History:         turns,
		UserText:        userText,
		MaxOutputTokens: maxOutputTokens,
		Temperature:     temperature,
	}
}
