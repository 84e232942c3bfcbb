// ask runs one question through the pipeline and prints the result as JSON.
//
// Configuration comes from config.yaml and the environment, exactly like the
// server; flags override the question-specific bits.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/anass1209/NL2SQL/pkg/adapters/datasource/postgres"
	"github.com/anass1209/NL2SQL/pkg/config"
	"github.com/anass1209/NL2SQL/pkg/llm"
	"github.com/anass1209/NL2SQL/pkg/logging"
	"github.com/anass1209/NL2SQL/pkg/services"
)

// errRunFailed makes the process exit 2 when the pipeline itself failed.
var errRunFailed = errors.New("run failed")

func main() {
	var (
		configPath string
		apiKey     string
		schema     string
		logLevel   string
		timeout    time.Duration
		compact    bool
	)

	rootCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a natural-language question against the configured database",
		Long: `ask turns a question into a single SELECT statement, validates and repairs it,
executes it read-only and prints the full pipeline result as JSON.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, "cli")
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}

			logger, err := logging.NewLogger(cfg.Env, cfg.Log.Level)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			credential := apiKey
			if credential == "" {
				credential = cfg.LLM.APIKey
			}
			if credential == "" {
				return fmt.Errorf("no model API key: pass --api-key or set GOOGLE_API_KEY")
			}

			dbCfg := cfg.Database.DBConfig()
			if schema != "" {
				dbCfg.Schema = schema
			}

			pipeline := services.NewPipeline(
				postgres.NewConnector(cfg.Pipeline.ConnectRetries, logger),
				llm.NewClientFactory(llm.ProviderConfig{
					Provider:  cfg.LLM.Provider,
					Model:     cfg.LLM.Model,
					Endpoint:  cfg.LLM.Endpoint,
					MaxTokens: cfg.LLM.MaxTokens,
				}, logger),
				pipelineConfig(cfg),
				logger,
			)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result := pipeline.Run(ctx, strings.Join(args, " "), dbCfg, credential)

			enc := json.NewEncoder(os.Stdout)
			if !compact {
				enc.SetIndent("", "  ")
			}
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}

			if result.Failed() {
				logger.Debug("Run failed", zap.String("run_id", result.RunID))
				return fmt.Errorf("%w: %s", errRunFailed, result.Error.Kind)
			}
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML config file")
	rootCmd.Flags().StringVarP(&apiKey, "api-key", "k", "", "Model API key (default: GOOGLE_API_KEY)")
	rootCmd.Flags().StringVarP(&schema, "schema", "s", "", "Database schema to inspect (default: from config)")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 2*time.Minute, "Overall run timeout")
	rootCmd.Flags().BoolVar(&compact, "compact", false, "Print single-line JSON")

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errRunFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func pipelineConfig(cfg *config.Config) services.PipelineConfig {
	return services.PipelineConfig{
		SampleRows:            cfg.Pipeline.SampleRows,
		PromptSampleRows:      cfg.Pipeline.PromptSampleRows,
		MaxRows:               cfg.Pipeline.MaxRows,
		IntentTemperature:     float64(cfg.LLM.IntentTemperature),
		GenerationTemperature: float64(cfg.LLM.GenerationTemperature),
	}
}
