package reply

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"quickshop-support/internal/models"
)

type stubCompleter struct {
	text   string
	err    error
	block  bool
	prompt Prompt
	calls  int
	closed bool
}

func (s *stubCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	s.calls++
	s.prompt = p
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.text, s.err
}

func (s *stubCompleter) Close() error {
	s.closed = true
	return nil
}

func makeHistory(n int) []models.Message {
	msgs := make([]models.Message, n)
	for i := range msgs {
		sender := models.SenderUser
		if i%2 == 1 {
			sender = models.SenderAssistant
		}
		msgs[i] = models.Message{Sender: sender, Text: fmt.Sprintf("m%d", i)}
	}
	return msgs
}

func TestRemote_Success(t *testing.T) {
	stub := &stubCompleter{text: "  We accept returns within 30 days.\n"}
	r := NewRemote(stub, zerolog.Nop())

	reply, err := r.GenerateReply(context.Background(), makeHistory(2), "What's your return policy?")
	require.NoError(t, err)
	assert.Equal(t, "We accept returns within 30 days.", reply)

	assert.Equal(t, "What's your return policy?", stub.prompt.UserText)
	assert.Equal(t, int32(500), stub.prompt.MaxOutputTokens)
	assert.InDelta(t, 0.7, stub.prompt.Temperature, 0.0001)
	assert.Contains(t, stub.prompt.System, "customer support agent for QuickShop")
	assert.Contains(t, stub.prompt.System, "We accept returns within 30 days of delivery")
}

func TestBuildPrompt_HistoryWindowAndRoles(t *testing.T) {
	p := BuildPrompt(makeHistory(12), "latest")

	require.Len(t, p.History, HistoryWindow)
	assert.Equal(t, Turn{Role: RoleUser, Text: "m2"}, p.History[0])
	assert.Equal(t, Turn{Role: RoleModel, Text: "m3"}, p.History[1])
	assert.Equal(t, "m11", p.History[9].Text)
}

func TestRemote_RateLimited(t *testing.T) {
	stub := &stubCompleter{err: &googleapi.Error{Code: 429, Message: "Resource has been exhausted"}}
	r := NewRemote(stub, zerolog.Nop())

	_, err := r.GenerateReply(context.Background(), nil, "hi")

	var replyErr *Error
	require.True(t, errors.As(err, &replyErr))
	assert.Equal(t, KindRateLimited, replyErr.Kind)
	assert.Equal(t, UserMessage(KindRateLimited), replyErr.UserMessage)
}

func TestRemote_EmptyCompletion(t *testing.T) {
	r := NewRemote(&stubCompleter{text: "   "}, zerolog.Nop())

	_, err := r.GenerateReply(context.Background(), nil, "hi")

	var replyErr *Error
	require.True(t, errors.As(err, &replyErr))
	assert.Equal(t, KindUnknown, replyErr.Kind)
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestRemote_Timeout(t *testing.T) {
	r := NewRemote(&stubCompleter{block: true}, zerolog.Nop())
	r.timeout = 10 * time.Millisecond

	_, err := r.GenerateReply(context.Background(), nil, "hi")

	var replyErr *Error
	require.True(t, errors.As(err, &replyErr))
	assert.Equal(t, KindTimeout, replyErr.Kind)
}

func TestRemote_Close(t *testing.T) {
	stub := &stubCompleter{}
	r := NewRemote(stub, zerolog.Nop())

	require.NoError(t, r.Close())
	assert.True(t, stub.closed)
	assert.Equal(t, ProviderGemini, r.Name())
}

func TestNew_SelectsVariant(t *testing.T) {
	gen, err := New(context.Background(), Config{Provider: ProviderMock}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Scripted{}, gen)

	_, err = New(context.Background(), Config{Provider: "openai"}, zerolog.Nop())
	assert.Error(t, err)

	_, err = New(context.Background(), Config{Provider: ProviderGemini}, zerolog.Nop())
	assert.Error(t, err, "missing key must not build a client")
}

func TestFirstCandidateText_Empty(t *testing.T) {
	assert.Equal(t, "", firstCandidateText(nil))
}
