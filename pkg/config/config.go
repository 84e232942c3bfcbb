package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/anass1209/NL2SQL/pkg/models"
)

// DefaultPath is where Load looks for the YAML file when no path is given.
const DefaultPath = "config.yaml"

// Config holds all configuration for the nl2sql server.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr       string        `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port           string        `yaml:"port" env:"PORT" env-default:"5010"`
	Env            string        `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"2m"`
	Version        string        `yaml:"-"` // Set at load time, not from config

	// SessionSecret signs and encrypts the session cookie and the API key stored in it.
	SessionSecret string `yaml:"-" env:"SESSION_SECRET,FLASK_SECRET_KEY"` // Secret - not in YAML

	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig is the PostgreSQL database questions are asked against.
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"DB_HOST,PGHOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT,PGPORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER,PGUSER"`
	Password string `yaml:"-" env:"DB_PASSWORD,PGPASSWORD"` // Secret - not in YAML
	Name     string `yaml:"name" env:"DB_NAME,PGDATABASE"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSLMODE,PGSSLMODE" env-default:"disable"`
	Schema   string `yaml:"schema" env:"DB_SCHEMA" env-default:"public"`
}

// LLMConfig selects the model provider.
type LLMConfig struct {
	// Provider is one of gemini, openai, anthropic.
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"gemini"`
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:"gemini-1.5-pro-latest"`
	// Endpoint overrides the provider base URL (OpenAI-compatible servers).
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT"`
	// APIKey is the server-wide fallback when the session carries none.
	APIKey string `yaml:"-" env:"GOOGLE_API_KEY,LLM_API_KEY"` // Secret - not in YAML

	IntentTemperature     float32 `yaml:"intent_temperature" env:"LLM_INTENT_TEMPERATURE" env-default:"0.3"`
	GenerationTemperature float32 `yaml:"generation_temperature" env:"LLM_GENERATION_TEMPERATURE" env-default:"0.1"`
	MaxTokens             int     `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"1024"`
}

// PipelineConfig tunes the text-to-SQL run.
type PipelineConfig struct {
	// SampleRows is how many rows are sampled per table.
	SampleRows int `yaml:"sample_rows" env:"PIPELINE_SAMPLE_ROWS" env-default:"3"`
	// PromptSampleRows caps the sample rows rendered per table in the generation prompt.
	PromptSampleRows int `yaml:"prompt_sample_rows" env:"PIPELINE_PROMPT_SAMPLE_ROWS" env-default:"3"`
	// MaxRows truncates executed results; 0 means unlimited.
	MaxRows        int `yaml:"max_rows" env:"PIPELINE_MAX_ROWS" env-default:"0"`
	ConnectRetries int `yaml:"connect_retries" env:"PIPELINE_CONNECT_RETRIES" env-default:"3"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from the YAML file at path with environment variable
// overrides. A missing file is not an error: configuration then comes from the
// environment alone.
func Load(path, version string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := &Config{Version: version}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	return cfg, nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string
	if c.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if c.Database.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.Database.Port == 0 {
		missing = append(missing, "DB_PORT")
	}
	if c.Database.Name == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.Database.User == "" {
		missing = append(missing, "DB_USER")
	}
	if c.Database.Password == "" {
		missing = append(missing, "DB_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	switch c.LLM.Provider {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	return nil
}

// DBConfig converts the database section into the per-run connection settings,
// rewriting localhost when running inside Docker.
func (c *DatabaseConfig) DBConfig() models.DBConfig {
	return models.DBConfig{
		Host:     ResolveHostForDocker(c.Host),
		Port:     c.Port,
		Name:     c.Name,
		User:     c.User,
		Password: c.Password,
		SSLMode:  c.SSLMode,
		Schema:   c.Schema,
	}
}
