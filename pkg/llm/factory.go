package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/anass1209/NL2SQL/pkg/apperrors"
)

// Supported providers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ProviderConfig is the server-wide model selection. The API key is not part of
// it: credentials arrive per run.
type ProviderConfig struct {
	Provider  string
	Model     string
	Endpoint  string
	MaxTokens int
}

// LLMClientFactory builds a client for one credential.
// Use this interface for dependency injection and testing.
type LLMClientFactory interface {
	Create(ctx context.Context, credential string) (LLMClient, error)
}

// ClientFactory creates provider clients from the server configuration.
type ClientFactory struct {
	cfg    ProviderConfig
	logger *zap.Logger
}

// NewClientFactory creates a new factory.
func NewClientFactory(cfg ProviderConfig, logger *zap.Logger) *ClientFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	return &ClientFactory{cfg: cfg, logger: logger}
}

// Provider returns the configured provider name.
func (f *ClientFactory) Provider() string {
	return f.cfg.Provider
}

// Create builds a client that authenticates with credential.
// An empty credential yields apperrors.ErrNoCredential.
func (f *ClientFactory) Create(ctx context.Context, credential string) (LLMClient, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, apperrors.ErrNoCredential
	}

	cfg := &Config{
		Endpoint:  f.cfg.Endpoint,
		Model:     f.cfg.Model,
		APIKey:    credential,
		MaxTokens: f.cfg.MaxTokens,
	}

	switch f.cfg.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg, f.logger)
	case ProviderOpenAI:
		return NewClient(cfg, f.logger)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg, f.logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", f.cfg.Provider)
	}
}

// Ensure ClientFactory implements LLMClientFactory at compile time.
var _ LLMClientFactory = (*ClientFactory)(nil)
