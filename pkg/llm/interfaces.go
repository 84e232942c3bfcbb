// Package llm talks to the language models that analyze questions and write SQL.
package llm

import (
	"context"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one entry of a chat conversation.
type Message struct {
	Role    Role
	Content string
}

// SystemUser builds the two-message conversation every pipeline stage sends.
func SystemUser(system, user string) []Message {
	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}

// splitSystem separates system instructions from the conversation turns, for
// providers that take the system prompt out of band.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	turns := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return joinNonEmpty(system), turns
}

func joinNonEmpty(parts []string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += p
	}
	return out
}

// GenerateResponseResult is a model reply with token usage when the provider reports it.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LLMClient is a chat-completion model.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse sends the conversation and returns the reply text.
	GenerateResponse(ctx context.Context, messages []Message, temperature float64) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetProvider returns the provider name (gemini, openai, anthropic).
	GetProvider() string
}

// Ensure the providers implement LLMClient at compile time.
var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*GeminiClient)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
)
