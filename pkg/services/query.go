package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/anass1209/NL2SQL/pkg/adapters/datasource"
	"github.com/anass1209/NL2SQL/pkg/apperrors"
	"github.com/anass1209/NL2SQL/pkg/logging"
	"github.com/anass1209/NL2SQL/pkg/sql"
)

// ErrSafetyRejected wraps every refusal to run a statement.
var ErrSafetyRejected = errors.New("statement rejected")

// ExecutionOutcome is what a successful execution returned.
type ExecutionOutcome struct {
	Columns   []string
	Rows      [][]any
	Truncated bool
	TotalRows int
}

// QueryExecutor runs a single SELECT statement read-only.
type QueryExecutor struct {
	maxRows int
	logger  *zap.Logger
}

// NewQueryExecutor creates an executor. maxRows of 0 means unlimited.
func NewQueryExecutor(maxRows int, logger *zap.Logger) *QueryExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryExecutor{maxRows: maxRows, logger: logger.Named("executor")}
}

// Execute refuses anything but one SELECT statement without touching conn.
// Refusals wrap ErrSafetyRejected.
func (e *QueryExecutor) Execute(ctx context.Context, conn datasource.Conn, stmt string) (*ExecutionOutcome, error) {
	normalized, err := sql.CheckExecutable(stmt)
	if err != nil {
		e.logger.Warn("Refusing statement",
			zap.String("sql", logging.SanitizeQuery(stmt)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSafetyRejected, err)
	}

	res, err := conn.QueryReadOnly(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("execute SQL: %w", err)
	}
	if res == nil {
		return nil, fmt.Errorf("execute SQL: %w", apperrors.ErrNoResult)
	}

	out := &ExecutionOutcome{Columns: res.Columns, Rows: res.Rows, TotalRows: len(res.Rows)}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	if out.Rows == nil {
		out.Rows = [][]any{}
	}
	if e.maxRows > 0 && len(out.Rows) > e.maxRows {
		out.Rows = out.Rows[:e.maxRows]
		out.Truncated = true
	}

	e.logger.Debug("Statement executed",
		zap.Int("columns", len(out.Columns)),
		zap.Int("rows", out.TotalRows))
	return out, nil
}
