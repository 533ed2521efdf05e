package reply

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickshop-support/internal/models"
)

func TestScriptedReply_Keywords(t *testing.T) {
	tests := []struct {
		text     string
		contains string
	}{
		{"How long does SHIPPING take?", "free standard shipping on orders over $50"},
		{"When will it be delivered?", "free standard shipping on orders over $50"},
		{"What's your return policy?", "hassle-free 30-day return policy"},
		{"I want a refund", "hassle-free 30-day return policy"},
		{"Where is my order?", "viewing your order history"},
		{"Can I pay with PayPal?", "Apple Pay"},
		{"Is there a guarantee?", "manufacturer's warranty"},
		{"hello there", "Welcome to QuickShop Support!"},
		{"thanks a lot", "You're very welcome"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Contains(t, ScriptedReply(tt.text), tt.contains)
		})
	}
}

func TestScriptedReply_PriorityOrder(t *testing.T) {
	// shipping outranks return
	assert.Contains(t, ScriptedReply("return shipping cost?"), "free standard shipping on orders over $50")
	// "track" outranks "pay"
	assert.Contains(t, ScriptedReply("track my payment"), "viewing your order history")
}

func TestScriptedReply_Fallback(t *testing.T) {
	got := ScriptedReply("Do you sell bikes?")
	assert.Equal(t, `Thank you for your question about "Do you sell bikes?". I'd be happy to help! For specific information about your inquiry, please contact our support team at support@quickshop.com or call 1-800-QUICKSHOP. Is there anything else I can assist you with regarding shipping, returns, or order tracking?`, got)
}

func TestScripted_Deterministic(t *testing.T) {
	s := NewScripted(0)
	history := []models.Message{{Sender: models.SenderUser, Text: "hello"}}

	first, err := s.GenerateReply(context.Background(), history, "What's your return policy?")
	require.NoError(t, err)
	second, err := s.GenerateReply(context.Background(), nil, "What's your return policy?")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, ProviderMock, s.Name())
}

func TestScripted_DelayHonoursContext(t *testing.T) {
	s := NewScripted(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply, err := s.GenerateReply(ctx, nil, "hi")
	require.NoError(t, err)
	assert.Contains(t, reply, "Welcome to QuickShop Support!")
}

func TestScriptedReply_ReturnPolicyText(t *testing.T) {
	assert.Equal(t,
		"We have a hassle-free 30-day return policy! If you're not completely satisfied, you can return items in their original condition for a full refund. Just contact us at support@quickshop.com to initiate the return process.",
		ScriptedReply("What's your return policy?"))
}
