package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toolResponse is the subset of a JSON-RPC tools/call response the tests read.
type toolResponse struct {
	Result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
}

// toolListResponse is the subset of a tools/list response the tests read.
type toolListResponse struct {
	Result struct {
		Tools []struct {
			Name        string         `json:"name"`
			Description string         `json:"description"`
			InputSchema map[string]any `json:"inputSchema"`
		} `json:"tools"`
	} `json:"result"`
}

func handle(t *testing.T, s *server.MCPServer, request string, out any) {
	t.Helper()
	result := s.HandleMessage(context.Background(), []byte(request))
	raw, err := json.Marshal(result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestHealthTool_Execute(t *testing.T) {
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterHealthTool(s, "1.2.3")

	var resp toolResponse
	handle(t, s, `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"health"},"id":1}`, &resp)

	require.Len(t, resp.Result.Content, 1)
	assert.Equal(t, "text", resp.Result.Content[0].Type)

	var health healthResult
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &health))
	assert.Equal(t, healthResult{Status: "ok", Service: "nl2sql", Version: "1.2.3"}, health)
}
