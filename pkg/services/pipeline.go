package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anass1209/NL2SQL/pkg/adapters/datasource"
	"github.com/anass1209/NL2SQL/pkg/apperrors"
	"github.com/anass1209/NL2SQL/pkg/llm"
	"github.com/anass1209/NL2SQL/pkg/logging"
	"github.com/anass1209/NL2SQL/pkg/models"
	"github.com/anass1209/NL2SQL/pkg/prompts"
	"github.com/anass1209/NL2SQL/pkg/sql"
)

// Stage names used in the stage timings debug entry.
const (
	StageModel    = "model"
	StageConnect  = "connect"
	StageInspect  = "inspect"
	StageIntent   = "intent"
	StageGenerate = "generate"
	StageValidate = "validate"
	StageRepair   = "repair"
	StageExecute  = "execute"
)

// PipelineConfig tunes a Pipeline.
type PipelineConfig struct {
	SampleRows            int
	PromptSampleRows      int
	MaxRows               int
	IntentTemperature     float64
	GenerationTemperature float64
}

// DefaultPipelineConfig returns the settings the service ships with.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		SampleRows:            DefaultSampleRows,
		PromptSampleRows:      prompts.DefaultPromptSampleRows,
		IntentTemperature:     DefaultIntentTemperature,
		GenerationTemperature: DefaultGenerationTemperature,
	}
}

// QuestionAnswerer runs a question end to end. Handlers depend on this interface.
type QuestionAnswerer interface {
	Run(ctx context.Context, question string, dbCfg models.DBConfig, credential string) *models.PipelineResult
}

// Pipeline turns a question into executed SQL. It holds only immutable
// collaborators, so one Pipeline serves concurrent runs.
type Pipeline struct {
	connector   datasource.Connector
	llmFactory  llm.LLMClientFactory
	inspector   *SchemaInspector
	analyzer    *IntentAnalyzer
	synthesizer *QuerySynthesizer
	validator   *QueryValidator
	repairer    *QueryRepairer
	executor    *QueryExecutor
	logger      *zap.Logger
}

var _ QuestionAnswerer = (*Pipeline)(nil)

// NewPipeline wires the stages.
func NewPipeline(connector datasource.Connector, llmFactory llm.LLMClientFactory, cfg PipelineConfig, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		connector:   connector,
		llmFactory:  llmFactory,
		inspector:   NewSchemaInspector(cfg.SampleRows, logger),
		analyzer:    NewIntentAnalyzer(cfg.IntentTemperature, logger),
		synthesizer: NewQuerySynthesizer(cfg.GenerationTemperature, cfg.PromptSampleRows, logger),
		validator:   NewQueryValidator(),
		repairer:    NewQueryRepairer(cfg.GenerationTemperature, logger),
		executor:    NewQueryExecutor(cfg.MaxRows, logger),
		logger:      logger.Named("pipeline"),
	}
}

// Run answers one question. It always returns a populated result: failures,
// including panics in a stage, are recorded on it rather than returned.
func (p *Pipeline) Run(ctx context.Context, question string, dbCfg models.DBConfig, credential string) (result *models.PipelineResult) {
	result = models.NewPipelineResult(uuid.NewString(), question)
	logger := p.logger.With(zap.String("run_id", result.RunID))
	started := time.Now()

	timings := map[string]int64{}
	stage := func(name string, since time.Time) {
		timings[name] = time.Since(since).Milliseconds()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Pipeline panicked",
				zap.Any("panic", r),
				zap.Stack("stack"))
			result.Fail(models.ErrorKindInternal, fmt.Sprintf("Internal error: %v", r))
		}
		result.SetDebug(models.DebugStageTimings, timings)

		fields := []zap.Field{zap.Duration("elapsed", time.Since(started))}
		if result.Error != nil {
			fields = append(fields,
				zap.String("error_kind", string(result.Error.Kind)),
				zap.String("error", result.Error.Message))
		}
		logger.Info("Pipeline finished", fields...)
	}()

	logger.Info("Pipeline started", zap.String("question", logging.TruncateString(question, logging.MaxQueryLogLength)))

	if strings.TrimSpace(question) == "" {
		result.Fail(models.ErrorKindGenerationFailed, "Please enter a question.")
		return result
	}

	t := time.Now()
	client, err := p.llmFactory.Create(ctx, credential)
	stage(StageModel, t)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoCredential) {
			result.Fail(models.ErrorKindModelUnavailable, "Model API key is missing. Please provide an API key.")
		} else {
			result.Fail(models.ErrorKindModelUnavailable, "Failed to initialize the language model: "+logging.SanitizeError(err))
		}
		return result
	}
	if client == nil {
		result.Fail(models.ErrorKindInternal, "Failed to initialize the language model: "+apperrors.ErrNoResult.Error())
		return result
	}

	t = time.Now()
	conn, err := p.connector.Connect(ctx, dbCfg)
	stage(StageConnect, t)
	if err != nil {
		result.Fail(models.ErrorKindConnectionFailed, "Failed to connect to database: "+logging.SanitizeError(err))
		return result
	}
	if conn == nil {
		result.Fail(models.ErrorKindInternal, "Failed to connect to database: "+apperrors.ErrNoResult.Error())
		return result
	}
	defer func() {
		if err := conn.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Failed to close connection", zap.Error(err))
		}
	}()

	t = time.Now()
	snap := p.inspector.Inspect(ctx, conn, dbCfg.WorkingSchema())
	stage(StageInspect, t)
	result.SetDebug(models.DebugSchemaTables, len(snap.Schema))
	result.SetDebug(models.DebugSampleTables, len(snap.Samples))
	if len(snap.SampleErrors) > 0 {
		result.SetDebug(models.DebugSampleErrors, snap.SampleErrors)
	}

	t = time.Now()
	intent := p.analyzer.Analyze(ctx, client, question)
	stage(StageIntent, t)
	if intent.AnalysisFailed {
		result.SetDebug(models.DebugIntentError, intent)
	} else {
		result.SetDebug(models.DebugIntentAnalysis, intent)
	}
	result.CorrectedQuery = intent.CorrectedOr(question)

	t = time.Now()
	stmt, err := p.synthesizer.Synthesize(ctx, client, prompts.GenerationInput{
		Question: question,
		Intent:   intent,
		Schema:   snap.Schema,
		Samples:  snap.Samples,
	})
	stage(StageGenerate, t)
	if err != nil {
		switch {
		case llm.IsAPIKeyInvalid(err):
			result.Fail(models.ErrorKindAPIKeyInvalid, "The provided API key is invalid. Please check it and try again.")
		case errors.Is(err, sql.ErrNoSQLFound):
			result.Fail(models.ErrorKindGenerationFailed, "The model did not return a SQL query.")
		default:
			result.Fail(models.ErrorKindGenerationFailed, "Failed to generate SQL: "+logging.SanitizeError(err))
		}
		return result
	}
	result.GeneratedSQL = stmt

	t = time.Now()
	diagnostic := p.validator.Validate(stmt, intent, snap.Schema)
	stage(StageValidate, t)

	if diagnostic != "" {
		result.SetDebug(models.DebugValidationError, diagnostic)
		logger.Info("Statement flagged, attempting repair", zap.String("diagnostic", diagnostic))

		t = time.Now()
		repaired, err := p.repairer.Repair(ctx, client, RepairRequest{
			SQL:        stmt,
			Diagnostic: diagnostic,
			Intent:     intent,
			Schema:     snap.Schema,
		})
		stage(StageRepair, t)
		if err != nil {
			result.SetDebug(models.DebugRepairError, logging.SanitizeError(err))
		} else if repaired != stmt {
			result.PreviousSQL = stmt
			result.SetDebug(models.DebugOriginalSQL, stmt)
			result.GeneratedSQL = repaired
			stmt = repaired
		}
	}

	t = time.Now()
	outcome, err := p.executor.Execute(ctx, conn, stmt)
	stage(StageExecute, t)
	if err != nil {
		msg := logging.SanitizeError(err)
		result.SetDebug(models.DebugExecutionError, msg)
		switch {
		case errors.Is(err, apperrors.ErrNotSelect):
			result.Fail(models.ErrorKindSafetyRejected, "Only SELECT queries are allowed for safety.")
		case errors.Is(err, ErrSafetyRejected):
			result.Fail(models.ErrorKindSafetyRejected, "Only a single SELECT statement can be executed.")
		default:
			result.Fail(models.ErrorKindExecutionFailed, "Database execution error: "+msg)
		}
		return result
	}

	result.ColumnNames = outcome.Columns
	result.Rows = outcome.Rows
	if outcome.Truncated {
		result.SetDebug(models.DebugRowsTruncated, outcome.TotalRows)
	}
	return result
}
