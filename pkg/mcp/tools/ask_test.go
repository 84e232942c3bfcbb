package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anass1209/NL2SQL/pkg/models"
)

type stubAnswerer struct {
	result      *models.PipelineResult
	questions   []string
	credentials []string
}

func (s *stubAnswerer) Run(ctx context.Context, question string, dbCfg models.DBConfig, credential string) *models.PipelineResult {
	s.questions = append(s.questions, question)
	s.credentials = append(s.credentials, credential)
	return s.result
}

func newAskServer(answerer *stubAnswerer, apiKey string) *server.MCPServer {
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterAskTool(s, &AskToolDeps{Pipeline: answerer, APIKey: apiKey})
	return s
}

func casablancaResult() *models.PipelineResult {
	r := models.NewPipelineResult("run-42", "customers in Casablanca")
	r.CorrectedQuery = "Show me all customers in Casablanca"
	r.GeneratedSQL = "SELECT name FROM customers WHERE city = 'Casablanca';"
	r.ColumnNames = []string{"name"}
	r.Rows = [][]any{{"Amina Benali"}, {"Claire Martin"}}
	r.SetDebug(models.DebugSchemaTables, []string{"customers", "orders", "products"})
	return r
}

func TestRegisterAskTool_Listed(t *testing.T) {
	s := newAskServer(&stubAnswerer{}, "key")

	var resp toolListResponse
	handle(t, s, `{"jsonrpc":"2.0","method":"tools/list","id":1}`, &resp)

	require.Len(t, resp.Result.Tools, 1)
	tool := resp.Result.Tools[0]
	assert.Equal(t, AskToolName, tool.Name)
	assert.Contains(t, tool.Description, "SELECT")
	assert.Equal(t, []any{"question"}, tool.InputSchema["required"])
}

func TestAskTool_Success(t *testing.T) {
	answerer := &stubAnswerer{result: casablancaResult()}
	s := newAskServer(answerer, "server-key")

	var resp toolResponse
	handle(t, s, `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"ask_database","arguments":{"question":"  customers in Casablanca "}},"id":1}`, &resp)

	require.False(t, resp.Result.IsError)
	require.Len(t, resp.Result.Content, 1)

	var out askResult
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &out))
	assert.Equal(t, "run-42", out.RunID)
	assert.Equal(t, "SELECT name FROM customers WHERE city = 'Casablanca';", out.SQL)
	assert.Equal(t, []string{"name"}, out.Columns)
	assert.Equal(t, 2, out.RowCount)
	assert.Nil(t, out.Debug)

	assert.Equal(t, []string{"customers in Casablanca"}, answerer.questions)
	assert.Equal(t, []string{"server-key"}, answerer.credentials)
}

func TestAskTool_IncludeDebug(t *testing.T) {
	s := newAskServer(&stubAnswerer{result: casablancaResult()}, "server-key")

	var resp toolResponse
	handle(t, s, `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"ask_database","arguments":{"question":"customers in Casablanca","include_debug":true}},"id":1}`, &resp)

	var out askResult
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &out))
	assert.Contains(t, out.Debug, models.DebugSchemaTables)
}

func TestAskTool_PipelineError(t *testing.T) {
	failed := models.NewPipelineResult("run-7", "drop everything")
	failed.GeneratedSQL = "DROP TABLE customers;"
	failed.Fail(models.ErrorKindSafetyRejected, "Only SELECT queries are allowed for safety.")
	s := newAskServer(&stubAnswerer{result: failed}, "server-key")

	var resp toolResponse
	handle(t, s, `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"ask_database","arguments":{"question":"drop everything"}},"id":1}`, &resp)

	require.True(t, resp.Result.IsError)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &errResp))
	assert.Equal(t, "safety_rejected", errResp.Code)
	assert.Equal(t, "Only SELECT queries are allowed for safety.", errResp.Message)
}

func TestAskTool_InvalidCalls(t *testing.T) {
	tests := []struct {
		name     string
		apiKey   string
		args     string
		wantCode string
	}{
		{"missing question", "key", `{}`, "invalid_parameters"},
		{"blank question", "key", `{"question":"   "}`, "invalid_parameters"},
		{"no server key", "", `{"question":"list customers"}`, "model_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answerer := &stubAnswerer{result: casablancaResult()}
			s := newAskServer(answerer, tt.apiKey)

			var resp toolResponse
			handle(t, s, `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"ask_database","arguments":`+tt.args+`},"id":1}`, &resp)

			require.True(t, resp.Result.IsError)
			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &errResp))
			assert.Equal(t, tt.wantCode, errResp.Code)
			assert.Empty(t, answerer.questions)
		})
	}
}
