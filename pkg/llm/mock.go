package llm

import (
	"context"
	"sync"
)

// MockLLMClient is a configurable mock for testing LLM functionality.
// Set the function fields to control behavior in tests.
type MockLLMClient struct {
	// GenerateResponseFunc is called when GenerateResponse is invoked.
	// If nil, returns an empty result and nil error.
	GenerateResponseFunc func(ctx context.Context, messages []Message, temperature float64) (*GenerateResponseResult, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	mu sync.Mutex
	// Call tracking for verification
	GenerateResponseCalls int
	Requests              [][]Message
	Temperatures          []float64
}

// NewMockLLMClient creates a new mock with sensible defaults.
func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{Model: "mock-model"}
}

// NewMockLLMClientWithReplies returns a mock that answers with replies in order,
// repeating the last one once they run out.
func NewMockLLMClientWithReplies(replies ...string) *MockLLMClient {
	m := NewMockLLMClient()
	m.GenerateResponseFunc = func(ctx context.Context, messages []Message, temperature float64) (*GenerateResponseResult, error) {
		if len(replies) == 0 {
			return &GenerateResponseResult{}, nil
		}
		i := m.GenerateResponseCalls - 1
		if i >= len(replies) {
			i = len(replies) - 1
		}
		return &GenerateResponseResult{Content: replies[i]}, nil
	}
	return m
}

// GenerateResponse implements LLMClient.
func (m *MockLLMClient) GenerateResponse(ctx context.Context, messages []Message, temperature float64) (*GenerateResponseResult, error) {
	m.mu.Lock()
	m.GenerateResponseCalls++
	m.Requests = append(m.Requests, messages)
	m.Temperatures = append(m.Temperatures, temperature)
	m.mu.Unlock()

	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, messages, temperature)
	}
	return &GenerateResponseResult{}, nil
}

// GetModel implements LLMClient.
func (m *MockLLMClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// GetProvider implements LLMClient.
func (m *MockLLMClient) GetProvider() string {
	return "mock"
}

// LastRequest returns the messages of the most recent call, or nil.
func (m *MockLLMClient) LastRequest() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}

// Reset clears call tracking.
func (m *MockLLMClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateResponseCalls = 0
	m.Requests = nil
	m.Temperatures = nil
}

// MockClientFactory hands out a fixed client, or fails with Err.
type MockClientFactory struct {
	Client LLMClient
	Err    error

	CreateCalls int
	Credentials []string
}

// Create implements LLMClientFactory.
func (f *MockClientFactory) Create(ctx context.Context, credential string) (LLMClient, error) {
	f.CreateCalls++
	f.Credentials = append(f.Credentials, credential)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Client, nil
}

var (
	_ LLMClient        = (*MockLLMClient)(nil)
	_ LLMClientFactory = (*MockClientFactory)(nil)
)
