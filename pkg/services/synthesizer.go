package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/anass1209/NL2SQL/pkg/apperrors"
	"github.com/anass1209/NL2SQL/pkg/llm"
	"github.com/anass1209/NL2SQL/pkg/logging"
	"github.com/anass1209/NL2SQL/pkg/prompts"
	"github.com/anass1209/NL2SQL/pkg/sql"
)

// DefaultGenerationTemperature is the sampling temperature for SQL generation and repair.
const DefaultGenerationTemperature = 0.1

// QuerySynthesizer asks the model for one SELECT statement.
type QuerySynthesizer struct {
	temperature      float64
	promptSampleRows int
	logger           *zap.Logger
}

// NewQuerySynthesizer creates a synthesizer. promptSampleRows caps the sample
// rows shown per table.
func NewQuerySynthesizer(temperature float64, promptSampleRows int, logger *zap.Logger) *QuerySynthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuerySynthesizer{
		temperature:      temperature,
		promptSampleRows: promptSampleRows,
		logger:           logger.Named("synthesizer"),
	}
}

// Synthesize returns a semicolon-terminated statement. Model errors are returned
// wrapped so callers can still classify them with llm.IsAPIKeyInvalid.
func (s *QuerySynthesizer) Synthesize(ctx context.Context, client llm.LLMClient, in prompts.GenerationInput) (string, error) {
	if in.SampleRows <= 0 {
		in.SampleRows = s.promptSampleRows
	}
	system, user := prompts.BuildGenerationPrompt(in)

	resp, err := client.GenerateResponse(ctx, llm.SystemUser(system, user), s.temperature)
	if err != nil {
		return "", fmt.Errorf("generate SQL: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("generate SQL: %w", apperrors.ErrNoResult)
	}

	stmt, err := sql.ExtractStatement(resp.Content)
	if err != nil {
		s.logger.Warn("Model reply contained no SQL",
			zap.String("reply", logging.TruncateString(resp.Content, logging.MaxQueryLogLength)))
		return "", err
	}

	s.logger.Debug("SQL generated", zap.String("sql", logging.SanitizeQuery(stmt)))
	return stmt, nil
}
