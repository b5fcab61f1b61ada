package llm

import (
	"context"
	"fmt"
	"sync"

	"tafahom/internal/ports"
)

// MockClient implements ports.LLMClient for testing. Responses are consumed
// in order; every request is recorded so tests can assert on call counts and
// message shapes.
type MockClient struct {
	mu        sync.Mutex
	model     string
	responses []string
	errs      []error
	Requests  []ports.CompletionRequest
}

// NewMockClient returns a mock that replays the given responses in order.
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{model: "mock-model", responses: responses}
}

// FailWith queues an error to be returned before any remaining responses.
func (m *MockClient) FailWith(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
	return m
}

func (m *MockClient) Complete(_ context.Context, req ports.CompletionRequest) (*ports.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)

	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return nil, err
	}
	if len(m.responses) == 0 {
		return nil, fmt.Errorf("mock client: no scripted response left (call %d)", len(m.Requests))
	}
	content := m.responses[0]
	m.responses = m.responses[1:]

	return &ports.CompletionResponse{
		Content:    content,
		StopReason: "stop",
		Usage:      ports.TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}, nil
}

func (m *MockClient) Model() string {
	return m.model
}

// CallCount returns how many completions were requested.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
