package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/anass1209/NL2SQL/pkg/models"
	"github.com/anass1209/NL2SQL/pkg/services"
)

// AskToolName is the name the question tool is registered under.
const AskToolName = "ask_database"

// AskToolDeps holds what the ask_database tool needs.
type AskToolDeps struct {
	Pipeline services.QuestionAnswerer
	DBConfig models.DBConfig
	// APIKey is the server-side model key; MCP callers have no session.
	APIKey  string
	Timeout time.Duration
	Logger  *zap.Logger
}

type askResult struct {
	RunID          string         `json:"run_id"`
	Question       string         `json:"question"`
	CorrectedQuery string         `json:"corrected_query,omitempty"`
	SQL            string         `json:"sql"`
	PreviousSQL    string         `json:"previous_sql,omitempty"`
	Columns        []string       `json:"columns"`
	Rows           [][]any        `json:"rows"`
	RowCount       int            `json:"row_count"`
	Debug          map[string]any `json:"debug,omitempty"`
}

// RegisterAskTool adds the ask_database tool to the MCP server.
func RegisterAskTool(s *server.MCPServer, deps *AskToolDeps) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tool := mcp.NewTool(
		AskToolName,
		mcp.WithDescription("Answers a natural-language question (English or French) about the connected database. "+
			"The question is turned into a single read-only SELECT statement which is executed; "+
			"the statement and its rows are returned."),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The question to answer, e.g. 'Show me all customers in Casablanca'"),
		),
		mcp.WithBoolean(
			"include_debug",
			mcp.Description("Optional: include per-stage debug information in the result"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil || strings.TrimSpace(question) == "" {
			return NewErrorResult("invalid_parameters", "question is required"), nil
		}
		if deps.APIKey == "" {
			return NewErrorResult(string(models.ErrorKindModelUnavailable), "no model API key is configured on the server"), nil
		}

		if deps.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, deps.Timeout)
			defer cancel()
		}

		result := deps.Pipeline.Run(ctx, strings.TrimSpace(question), deps.DBConfig, deps.APIKey)
		logger.Debug("ask_database completed",
			zap.String("run_id", result.RunID),
			zap.Bool("succeeded", result.Succeeded()))

		if result.Error != nil {
			return NewErrorResultWithDetails(string(result.Error.Kind), result.Error.Message, map[string]any{
				"run_id":        result.RunID,
				"generated_sql": result.GeneratedSQL,
			}), nil
		}

		out := askResult{
			RunID:          result.RunID,
			Question:       result.UserQuery,
			CorrectedQuery: result.CorrectedQuery,
			SQL:            result.GeneratedSQL,
			PreviousSQL:    result.PreviousSQL,
			Columns:        result.ColumnNames,
			Rows:           result.Rows,
			RowCount:       len(result.Rows),
		}
		if req.GetBool("include_debug", false) {
			out.Debug = result.DebugInfo
		}

		body, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal ask result: %w", err)
		}
		return mcp.NewToolResultText(string(body)), nil
	})
}
