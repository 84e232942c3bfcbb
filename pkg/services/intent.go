package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/anass1209/NL2SQL/pkg/jsonutil"
	"github.com/anass1209/NL2SQL/pkg/llm"
	"github.com/anass1209/NL2SQL/pkg/logging"
	"github.com/anass1209/NL2SQL/pkg/models"
	"github.com/anass1209/NL2SQL/pkg/prompts"
)

// DefaultIntentTemperature is the sampling temperature for intent analysis.
const DefaultIntentTemperature = 0.3

// IntentAnalyzer asks the model to read a question into an IntentRecord.
type IntentAnalyzer struct {
	temperature float64
	logger      *zap.Logger
}

// NewIntentAnalyzer creates an analyzer.
func NewIntentAnalyzer(temperature float64, logger *zap.Logger) *IntentAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntentAnalyzer{temperature: temperature, logger: logger.Named("intent")}
}

// intentReply mirrors the JSON the model is asked for. Every field is decoded
// leniently since models drift from the requested shape.
type intentReply struct {
	Correction json.RawMessage `json:"correction"`
	Tables     json.RawMessage `json:"tables"`
	Filters    json.RawMessage `json:"filters"`
	Actions    json.RawMessage `json:"actions"`
	Action     json.RawMessage `json:"action"`
	Language   json.RawMessage `json:"language"`
}

// Analyze makes exactly one model call. It always returns a record; failures
// are reported through AnalysisFailed.
func (a *IntentAnalyzer) Analyze(ctx context.Context, client llm.LLMClient, question string) *models.IntentRecord {
	system, user := prompts.BuildIntentPrompt(question)

	resp, err := client.GenerateResponse(ctx, llm.SystemUser(system, user), a.temperature)
	if err != nil {
		reason := "model call failed: " + logging.SanitizeError(err)
		a.logger.Warn("Intent analysis failed", zap.String("reason", reason))
		return models.FailedIntent(reason, nil)
	}
	if resp == nil {
		return models.FailedIntent("model returned no response", nil)
	}

	intent, err := ParseIntentReply(resp.Content)
	if err != nil {
		raw := resp.Content
		a.logger.Warn("Could not parse intent reply",
			zap.Error(err),
			zap.String("reply", logging.TruncateString(raw, logging.MaxQueryLogLength)))
		return models.FailedIntent(err.Error(), &raw)
	}

	a.logger.Debug("Intent analyzed",
		zap.Strings("tables", intent.Tables),
		zap.String("action", string(intent.Action)),
		zap.String("language", string(intent.Language)))
	return intent
}

// ParseIntentReply decodes the first JSON object in a model reply into an IntentRecord.
func ParseIntentReply(reply string) (*models.IntentRecord, error) {
	parsed, err := llm.ParseJSONObject[intentReply](reply)
	if err != nil {
		return nil, fmt.Errorf("parse intent: %w", err)
	}

	intent := models.DefaultIntent()
	intent.CorrectedText = jsonutil.FlexibleStringValue(parsed.Correction)
	intent.Tables = jsonutil.FlexibleStringSlice(parsed.Tables)
	intent.Filters = jsonutil.FlexibleStringMap(parsed.Filters)

	action := parsed.Actions
	if len(action) == 0 {
		action = parsed.Action
	}
	intent.Action = models.ParseAction(jsonutil.FlexibleStringValue(action))
	intent.Language = models.ParseLanguage(jsonutil.FlexibleStringValue(parsed.Language))

	return intent, nil
}
