package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anass1209/NL2SQL/pkg/adapters/datasource/postgres"
	"github.com/anass1209/NL2SQL/pkg/llm"
	"github.com/anass1209/NL2SQL/pkg/models"
	"github.com/anass1209/NL2SQL/pkg/testhelpers"
)

func TestPipeline_Run_AgainstPostgres(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	logger := zaptest.NewLogger(t)

	client := llm.NewMockLLMClientWithReplies(
		casablancaIntentReply,
		"SELECT name, city FROM customers WHERE city = 'Casablanca' ORDER BY customer_id;",
	)
	p := NewPipeline(postgres.NewConnector(1, logger), &llm.MockClientFactory{Client: client}, DefaultPipelineConfig(), logger)

	result := p.Run(context.Background(), "show me all cutomers from casablanca", testDB.Config, "test-key")

	require.Nil(t, result.Error)
	assert.Equal(t, []string{"name", "city"}, result.ColumnNames)
	assert.Equal(t, [][]any{{"Amina Benali", "Casablanca"}, {"Claire Martin", "Casablanca"}}, result.Rows)
	assert.GreaterOrEqual(t, result.DebugInfo[models.DebugSchemaTables], 3)

	// The generation prompt was grounded on the live catalog and samples.
	genPrompt := client.Requests[1][0].Content
	assert.Contains(t, genPrompt, "Table customers:\n  Columns: customer_id integer, name text, email text, city text, created_at timestamp with time zone")
	assert.Contains(t, genPrompt, "Amina Benali")
}

func TestPipeline_Run_AgainstPostgres_ExecutionError(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	logger := zaptest.NewLogger(t)

	client := llm.NewMockLLMClientWithReplies("{}", "SELECT town FROM customers;")
	p := NewPipeline(postgres.NewConnector(1, logger), &llm.MockClientFactory{Client: client}, DefaultPipelineConfig(), logger)

	result := p.Run(context.Background(), "towns", testDB.Config, "test-key")

	require.NotNil(t, result.Error)
	assert.Equal(t, models.ErrorKindExecutionFailed, result.Error.Kind)
	assert.Contains(t, result.Error.Message, "town")
}
