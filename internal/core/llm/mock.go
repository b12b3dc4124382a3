package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockClient implements Client for testing and for running without an API key.
// It records every call and returns a canned or computed response.
type MockClient struct {
	mu    sync.Mutex
	calls []MockCall

	// Response computes the reply for a call. When nil, a stub answer
	// derived from the user prompt is returned.
	Response func(systemPrompt, userPrompt string) (Result, error)
}

// MockCall is one recorded Generate invocation.
type MockCall struct {
	SystemPrompt string
	UserPrompt   string
	Params       Params
}

// NewMock creates a mock generation client.
func NewMock() *MockClient {
	return &MockClient{}
}

// Generate implements Client.
func (m *MockClient) Generate(_ context.Context, systemPrompt, userPrompt string, params Params) (Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{SystemPrompt: systemPrompt, UserPrompt: userPrompt, Params: params})
	m.mu.Unlock()

	if m.Response != nil {
		return m.Response(systemPrompt, userPrompt)
	}

	return Result{
		Text:       fmt.Sprintf("mock answer (%d chars of context)", len(userPrompt)),
		TokensUsed: 42,
	}, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)

	return out
}

// CallCount returns the number of Generate invocations.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.calls)
}
