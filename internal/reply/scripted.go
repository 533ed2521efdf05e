package reply

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quickshop-support/internal/models"
)

type scriptedRule struct {
	keywords []string
	reply    string
}

// Checked in order; the first rule with a matching keyword answers.
var scriptedRules = []scriptedRule{
	{
		keywords: []string{"shipping", "deliver"},
		reply:    "We offer free standard shipping on orders over $50! Standard shipping typically takes 3-5 business days, while express shipping (2-3 days) is available for $9.99. You can track your order anytime using your order number.",
	},
	{
		keywords: []string{"return", "refund"},
		reply:    "We have a hassle-free 30-day return policy! If you're not completely satisfied, you can return items in their original condition for a full refund. Just contact us at support@quickshop.com to initiate the return process.",
	},
	{
		keywords: []string{"track", "order"},
		reply:    "You can track your order by logging into your account and viewing your order history. You'll also receive tracking updates via email. If you need help finding your order, please share your order number and I'll look it up for you!",
	},
	{
		keywords: []string{"payment", "pay"},
		reply:    "We accept all major credit cards (Visa, MasterCard, American Express), PayPal, Apple Pay, and Google Pay. All transactions are secured with industry-standard encryption to protect your information.",
	},
	{
		keywords: []string{"warranty", "guarantee"},
		reply:    "All our products come with a manufacturer's warranty. Electronics typically have a 1-year warranty, while other items vary. We also offer extended warranty options at checkout. Need specific warranty details for a product? Let me know!",
	},
	{
		keywords: []string{"hi", "hello", "hey"},
		reply:    "Hello! Welcome to QuickShop Support! 👋 I'm here to help you with any questions about orders, shipping, returns, or our products. How can I assist you today?",
	},
	{
		keywords: []string{"thank"},
		reply:    "You're very welcome! If you have any other questions, feel free to ask. I'm here to help! Have a great day! 😊",
	},
}

const scriptedFallback = "Thank you for your question about \"%s\". I'd be happy to help! For specific information about your inquiry, please contact our support team at " + SupportContact + " or call 1-800-QUICKSHOP. Is there anything else I can assist you with regarding shipping, returns, or order tracking?"

// Scripted answers from canned keyword replies. It never fails and is used
// for demos and tests.
type Scripted struct {
	delay time.Duration
}

func NewScripted(delay time.Duration) *Scripted {
	return &Scripted{delay: delay}
}

func (s *Scripted) Name() string { return ProviderMock }

// GenerateReply ignores history. A cancelled context cuts the artificial
// delay short but still yields the canned reply.
func (s *Scripted) GenerateReply(ctx context.Context, _ []models.Message, userText string) (string, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}
	return ScriptedReply(userText), nil
}

// ScriptedReply is the deterministic keyword lookup behind Scripted.
func ScriptedReply(userText string) string {
	lower := strings.ToLower(userText)
	for _, rule := range scriptedRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.reply
			}
		}
	}
	return fmt.Sprintf(scriptedFallback, userText)
}
