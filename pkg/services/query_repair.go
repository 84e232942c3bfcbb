package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/anass1209/NL2SQL/pkg/apperrors"
	"github.com/anass1209/NL2SQL/pkg/llm"
	"github.com/anass1209/NL2SQL/pkg/logging"
	"github.com/anass1209/NL2SQL/pkg/models"
	"github.com/anass1209/NL2SQL/pkg/prompts"
	"github.com/anass1209/NL2SQL/pkg/sql"
)

// RepairRequest is one statement the validator flagged.
type RepairRequest struct {
	SQL        string
	Diagnostic string
	Intent     *models.IntentRecord
	Schema     models.SchemaMap
}

// QueryRepairer makes one model call to fix a flagged statement.
type QueryRepairer struct {
	temperature float64
	logger      *zap.Logger
}

// NewQueryRepairer creates a repairer.
func NewQueryRepairer(temperature float64, logger *zap.Logger) *QueryRepairer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryRepairer{temperature: temperature, logger: logger.Named("repairer")}
}

// Repair returns the fixed statement. On any failure it returns the original
// statement together with the error.
func (r *QueryRepairer) Repair(ctx context.Context, client llm.LLMClient, req RepairRequest) (string, error) {
	system, user := prompts.BuildRepairPrompt(prompts.RepairInput{
		SQL:           req.SQL,
		Diagnostic:    req.Diagnostic,
		Intent:        req.Intent,
		SchemaText:    req.Schema.Format(),
		SimilarTables: SimilarTables(req.SQL, req.Schema),
	})

	resp, err := client.GenerateResponse(ctx, llm.SystemUser(system, user), r.temperature)
	if err != nil {
		r.logger.Warn("Repair call failed", zap.String("error", logging.SanitizeError(err)))
		return req.SQL, fmt.Errorf("repair SQL: %w", err)
	}
	if resp == nil {
		return req.SQL, fmt.Errorf("repair SQL: %w", apperrors.ErrNoResult)
	}

	fixed, err := sql.ExtractStatement(resp.Content)
	if err != nil {
		return req.SQL, fmt.Errorf("repair SQL: %w", err)
	}

	r.logger.Debug("SQL repaired",
		zap.String("diagnostic", req.Diagnostic),
		zap.String("sql", logging.SanitizeQuery(fixed)))
	return fixed, nil
}

// SimilarTables maps each table the statement references but the schema lacks
// to schema tables that are its singular or plural form.
func SimilarTables(stmt string, schema models.SchemaMap) map[string][]string {
	hints := map[string][]string{}
	for _, ref := range ReferencedTables(stmt) {
		if schema.HasTable(ref) {
			continue
		}
		if _, done := hints[ref]; done {
			continue
		}
		singular := inflection.Singular(ref)
		var matches []string
		for _, table := range schema.TableNames() {
			if inflection.Singular(strings.ToLower(table)) == singular {
				matches = append(matches, table)
			}
		}
		if len(matches) > 0 {
			hints[ref] = matches
		}
	}
	return hints
}
