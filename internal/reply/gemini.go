package reply

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiCompleter calls Google Gemini. It owns its client.
type GeminiCompleter struct {
	client   *genai.Client
	model    string
	rateChan chan struct{} // Token bucket
}

func NewGeminiCompleter(ctx context.Context, apiKey, model string, concurrentReqs int) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if concurrentReqs < 1 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiCompleter{client: client, model: model, rateChan: rateChan}, nil
}

func (g *GeminiCompleter) Close() error {
	return g.client.Close()
}

func (g *GeminiCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	// Waiting for a slot counts against the caller's deadline.
	select {
	case <-g.rateChan:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { g.rateChan <- struct{}{} }()

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(p.Temperature)
	model.SetMaxOutputTokens(p.MaxOutputTokens)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(p.System)}}

	cs := model.StartChat()
	for _, t := range p.History {
		cs.History = append(cs.History, &genai.Content{
			Role:  string(t.Role),
			Parts: []genai.Part{genai.Text(t.Text)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(p.UserText))
	if err != nil {
		return "", err
	}
	return firstCandidateText(resp), nil
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}
