package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anass1209/NL2SQL/pkg/apperrors"
)

func TestClientFactory_RequiresCredential(t *testing.T) {
	f := NewClientFactory(ProviderConfig{Provider: ProviderOpenAI, Model: "gpt-4o-mini"}, zap.NewNop())

	_, err := f.Create(context.Background(), "  ")
	assert.ErrorIs(t, err, apperrors.ErrNoCredential)
}

func TestClientFactory_DefaultsToGemini(t *testing.T) {
	f := NewClientFactory(ProviderConfig{}, nil)
	assert.Equal(t, ProviderGemini, f.Provider())
}

func TestClientFactory_Providers(t *testing.T) {
	tests := []struct {
		provider string
		model    string
	}{
		{provider: "OpenAI", model: "gpt-4o-mini"},
		{provider: ProviderAnthropic, model: "claude-3-5-haiku-latest"},
		{provider: ProviderGemini, model: "gemini-1.5-flash"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			f := NewClientFactory(ProviderConfig{Provider: tt.provider, Model: tt.model, Endpoint: "http://127.0.0.1:1"}, zap.NewNop())
			client, err := f.Create(context.Background(), "test-key")
			require.NoError(t, err)
			assert.Equal(t, tt.model, client.GetModel())
			assert.Equal(t, f.Provider(), client.GetProvider())
		})
	}
}

func TestClientFactory_UnknownProvider(t *testing.T) {
	f := NewClientFactory(ProviderConfig{Provider: "cohere", Model: "x"}, zap.NewNop())
	_, err := f.Create(context.Background(), "key")
	assert.ErrorContains(t, err, "unsupported llm provider")
}

func TestNewClient_RequiresModel(t *testing.T) {
	_, err := NewClient(&Config{APIKey: "k"}, nil)
	assert.Error(t, err)

	_, err = NewAnthropicClient(&Config{APIKey: "k"}, nil)
	assert.Error(t, err)

	_, err = NewGeminiClient(context.Background(), &Config{}, nil)
	assert.Error(t, err)
}
