package llm

import (
	"context"
	"fmt"
	"time"
)

// TestResult is the outcome of probing a model API key.
type TestResult struct {
	Valid          bool      `json:"valid"`
	Message        string    `json:"message"`
	ErrorType      ErrorType `json:"error_type,omitempty"`
	ResponseTimeMs int64     `json:"response_time_ms,omitempty"`
}

// ConnectionTester checks whether an API key is accepted by the configured provider.
// This interface enables mocking in tests.
type ConnectionTester interface {
	Test(ctx context.Context, apiKey string) *TestResult
}

// connectionTester implements ConnectionTester with a real one-shot completion.
type connectionTester struct {
	factory LLMClientFactory
	timeout time.Duration
}

// NewConnectionTester creates a tester that builds clients through factory.
func NewConnectionTester(factory LLMClientFactory) ConnectionTester {
	return &connectionTester{factory: factory, timeout: 30 * time.Second}
}

// Test sends a tiny prompt with the key and reports whether it was accepted.
func (t *connectionTester) Test(ctx context.Context, apiKey string) *TestResult {
	if apiKey == "" {
		return &TestResult{Message: "No API key provided."}
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	client, err := t.factory.Create(ctx, apiKey)
	if err != nil {
		return &TestResult{Message: "API key initialization failed (likely invalid).", ErrorType: ErrorTypeUnknown}
	}

	start := time.Now()
	_, err = client.GenerateResponse(ctx, []Message{{Role: RoleUser, Content: "Say 'ok' and nothing else."}}, 0)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		msg, errType := categorizeError(err)
		return &TestResult{Message: msg, ErrorType: errType, ResponseTimeMs: elapsed}
	}

	return &TestResult{
		Valid:          true,
		Message:        fmt.Sprintf("API key is valid (model: %s, %dms).", client.GetModel(), elapsed),
		ResponseTimeMs: elapsed,
	}
}

func categorizeError(err error) (string, ErrorType) {
	llmErr := ClassifyError(err)
	switch llmErr.Type {
	case ErrorTypeAuth:
		return "The provided API key is invalid.", ErrorTypeAuth
	case ErrorTypeModel:
		return "API key accepted but the configured model was not found.", ErrorTypeModel
	case ErrorTypeRateLimit:
		return "API key accepted but the provider is rate limiting requests.", ErrorTypeRateLimit
	case ErrorTypeEndpoint:
		return "Could not reach the model provider.", ErrorTypeEndpoint
	default:
		return "Error testing API key: check server logs.", llmErr.Type
	}
}

// Ensure connectionTester implements ConnectionTester at compile time.
var _ ConnectionTester = (*connectionTester)(nil)
