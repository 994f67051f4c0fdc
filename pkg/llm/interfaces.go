// Package llm provides provider-agnostic LLM client functionality.
package llm

import (
	"context"
)

// Client is the single call-and-result primitive every agent in the engine
// uses. Implementations exist for OpenAI-compatible endpoints and Anthropic.
// Use this interface for dependency injection to enable mocking in tests.
type Client interface {
	// Complete generates a completion for the given system and user prompts.
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (*CompletionResult, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// CompletionResult carries the completion text plus usage stats.
type CompletionResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// Ensure implementations satisfy Client at compile time.
var (
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*AnthropicClient)(nil)
	_ Client = (*MockClient)(nil)
)
