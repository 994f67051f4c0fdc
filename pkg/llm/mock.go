package llm

import (
	"context"
)

// MockClient is a configurable mock for testing LLM-backed components.
// Set CompleteFunc to control behavior in tests.
type MockClient struct {
	// CompleteFunc is called when Complete is invoked.
	// If nil, returns an empty result and nil error.
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (*CompletionResult, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// CompleteCalls counts invocations for verification.
	CompleteCalls int

	// Prompts records every (system, user) prompt pair for inspection.
	Prompts []MockPrompt
}

// MockPrompt records one Complete invocation's prompts.
type MockPrompt struct {
	System string
	User   string
}

// NewMockClient creates a new mock with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{Model: "mock-model"}
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (*CompletionResult, error) {
	m.CompleteCalls++
	m.Prompts = append(m.Prompts, MockPrompt{System: systemPrompt, User: userPrompt})
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, userPrompt, temperature)
	}
	return &CompletionResult{}, nil
}

// GetModel implements Client.
func (m *MockClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// RespondWith configures the mock to always return the given content.
func (m *MockClient) RespondWith(content string) *MockClient {
	m.CompleteFunc = func(context.Context, string, string, float64) (*CompletionResult, error) {
		return &CompletionResult{Content: content}, nil
	}
	return m
}

// FailWith configures the mock to always return the given error.
func (m *MockClient) FailWith(err error) *MockClient {
	m.CompleteFunc = func(context.Context, string, string, float64) (*CompletionResult, error) {
		return nil, err
	}
	return m
}
