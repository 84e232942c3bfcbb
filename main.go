package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/anass1209/NL2SQL/pkg/adapters/datasource/postgres"
	"github.com/anass1209/NL2SQL/pkg/config"
	"github.com/anass1209/NL2SQL/pkg/handlers"
	"github.com/anass1209/NL2SQL/pkg/llm"
	"github.com/anass1209/NL2SQL/pkg/logging"
	"github.com/anass1209/NL2SQL/pkg/mcp"
	"github.com/anass1209/NL2SQL/pkg/mcp/tools"
	"github.com/anass1209/NL2SQL/pkg/middleware"
	"github.com/anass1209/NL2SQL/pkg/services"
	"github.com/anass1209/NL2SQL/pkg/session"
	"github.com/anass1209/NL2SQL/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath, Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	dbCfg := cfg.Database.DBConfig()
	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", dbCfg.User+"@"+dbCfg.Host+"/"+dbCfg.Name),
		zap.String("schema", dbCfg.WorkingSchema()),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Bool("server_api_key", cfg.LLM.APIKey != ""),
	)

	llmFactory := llm.NewClientFactory(llm.ProviderConfig{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.Model,
		Endpoint:  cfg.LLM.Endpoint,
		MaxTokens: cfg.LLM.MaxTokens,
	}, logger)

	pipeline := services.NewPipeline(
		postgres.NewConnector(cfg.Pipeline.ConnectRetries, logger),
		llmFactory,
		services.PipelineConfig{
			SampleRows:            cfg.Pipeline.SampleRows,
			PromptSampleRows:      cfg.Pipeline.PromptSampleRows,
			MaxRows:               cfg.Pipeline.MaxRows,
			IntentTemperature:     float64(cfg.LLM.IntentTemperature),
			GenerationTemperature: float64(cfg.LLM.GenerationTemperature),
		},
		logger,
	)

	sessions, err := session.NewManager(cfg.SessionSecret, cfg.Env != "local")
	if err != nil {
		logger.Fatal("Failed to create session manager", zap.Error(err))
	}

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAskHandler(pipeline, sessions, dbCfg, cfg.LLM.APIKey, cfg.RequestTimeout, logger).RegisterRoutes(mux)
	handlers.NewAPIKeyHandler(sessions, llm.NewConnectionTester(llmFactory), logger).RegisterRoutes(mux)

	indexHandler, err := handlers.NewIndexHandler(ui.DistFS(), logger)
	if err != nil {
		logger.Fatal("Failed to load UI", zap.Error(err))
	}
	indexHandler.RegisterRoutes(mux)

	mcp.NewServer("nl2sql", cfg.Version, &tools.AskToolDeps{
		Pipeline: pipeline,
		DBConfig: dbCfg,
		APIKey:   cfg.LLM.APIKey,
		Timeout:  cfg.RequestTimeout,
	}, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Starting nl2sql server",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
