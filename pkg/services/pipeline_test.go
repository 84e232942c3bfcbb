package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anass1209/NL2SQL/pkg/adapters/datasource"
	"github.com/anass1209/NL2SQL/pkg/apperrors"
	"github.com/anass1209/NL2SQL/pkg/llm"
	"github.com/anass1209/NL2SQL/pkg/models"
)

var testDBConfig = models.DBConfig{Host: "localhost", Port: 5432, Name: "store", User: "app", Password: "secret"}

type pipelineFixture struct {
	conn      *datasource.MockConn
	connector *datasource.MockConnector
	client    *llm.MockLLMClient
	factory   *llm.MockClientFactory
	pipeline  *Pipeline
}

func newPipelineFixture(t *testing.T, replies ...string) *pipelineFixture {
	t.Helper()

	conn := storeConn()
	conn.QueryReadOnlyFunc = func(context.Context, string) (*datasource.QueryResult, error) {
		return &datasource.QueryResult{
			Columns: []string{"customer_id", "name", "city"},
			Rows:    [][]any{{1, "Amina Benali", "Casablanca"}},
		}, nil
	}
	client := llm.NewMockLLMClientWithReplies(replies...)

	f := &pipelineFixture{
		conn:      conn,
		connector: &datasource.MockConnector{Conn: conn},
		client:    client,
		factory:   &llm.MockClientFactory{Client: client},
	}
	f.rebuild(t, DefaultPipelineConfig())
	return f
}

func (f *pipelineFixture) rebuild(t *testing.T, cfg PipelineConfig) {
	f.pipeline = NewPipeline(f.connector, f.factory, cfg, zaptest.NewLogger(t))
}

func (f *pipelineFixture) run(question string) *models.PipelineResult {
	return f.pipeline.Run(context.Background(), question, testDBConfig, "test-key")
}

func TestPipeline_Run_Casablanca(t *testing.T) {
	f := newPipelineFixture(t,
		casablancaIntentReply,
		"SELECT * FROM customers WHERE city = 'Casablanca';",
	)

	result := f.run("show me all cutomers from casablanca")

	require.Nil(t, result.Error)
	assert.True(t, result.Succeeded())
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "show me all cutomers from casablanca", result.UserQuery)
	assert.Equal(t, "show me all customers from casablanca", result.CorrectedQuery)
	assert.Equal(t, "SELECT * FROM customers WHERE city = 'Casablanca';", result.GeneratedSQL)
	assert.Empty(t, result.PreviousSQL)
	assert.Equal(t, []string{"customer_id", "name", "city"}, result.ColumnNames)
	assert.Equal(t, [][]any{{1, "Amina Benali", "Casablanca"}}, result.Rows)

	assert.Equal(t, casablancaIntent(), result.DebugInfo[models.DebugIntentAnalysis])
	assert.NotContains(t, result.DebugInfo, models.DebugValidationError)
	assert.Equal(t, 3, result.DebugInfo[models.DebugSchemaTables])
	assert.Equal(t, 3, result.DebugInfo[models.DebugSampleTables])
	assert.Contains(t, result.DebugInfo[models.DebugStageTimings], StageExecute)

	assert.Equal(t, 2, f.client.GenerateResponseCalls)
	assert.Equal(t, []string{"test-key"}, f.factory.Credentials)
	assert.Equal(t, []models.DBConfig{testDBConfig}, f.connector.Configs)
	assert.Equal(t, []string{"SELECT * FROM customers WHERE city = 'Casablanca'"}, f.conn.QueryCalls)
	assert.Equal(t, 1, f.conn.Closed)
}

func TestPipeline_Run_FailedAnalysisStillGenerates(t *testing.T) {
	f := newPipelineFixture(t,
		"I am not able to produce JSON today.",
		"SELECT COUNT(*) FROM orders;",
	)

	result := f.run("how many orders")

	require.Nil(t, result.Error)
	assert.Equal(t, "how many orders", result.CorrectedQuery)
	assert.Equal(t, "SELECT COUNT(*) FROM orders;", result.GeneratedSQL)
	assert.NotContains(t, result.DebugInfo, models.DebugIntentAnalysis)

	failed, ok := result.DebugInfo[models.DebugIntentError].(*models.IntentRecord)
	require.True(t, ok)
	assert.True(t, failed.AnalysisFailed)
	require.NotNil(t, failed.RawModelOutput)
	assert.Equal(t, "I am not able to produce JSON today.", *failed.RawModelOutput)

	// Generation saw the defaults.
	genPrompt := f.client.Requests[1][0].Content
	assert.Contains(t, genPrompt, "- Query action: unknown")
	assert.Contains(t, genPrompt, "- Likely tables needed: none identified")
}

func TestPipeline_Run_Repair(t *testing.T) {
	f := newPipelineFixture(t,
		casablancaIntentReply,
		"SELECT * FROM customers WHERE city = 'Rabat';",
		"SELECT * FROM customers WHERE city = 'Casablanca';",
	)

	result := f.run("show me all cutomers from casablanca")

	require.Nil(t, result.Error)
	assert.Equal(t, "SELECT * FROM customers WHERE city = 'Casablanca';", result.GeneratedSQL)
	assert.Equal(t, "SELECT * FROM customers WHERE city = 'Rabat';", result.PreviousSQL)
	assert.Equal(t, "missing filter value for column city.", result.DebugInfo[models.DebugValidationError])
	assert.Equal(t, "SELECT * FROM customers WHERE city = 'Rabat';", result.DebugInfo[models.DebugOriginalSQL])
	assert.Equal(t, 3, f.client.GenerateResponseCalls)
	assert.Equal(t, []string{"SELECT * FROM customers WHERE city = 'Casablanca'"}, f.conn.QueryCalls)
}

func TestPipeline_Run_UnchangedRepairKeepsNoPreviousSQL(t *testing.T) {
	f := newPipelineFixture(t,
		"{}",
		"SELECT * FROM clients;",
		"SELECT * FROM clients;",
	)

	result := f.run("list clients")

	assert.Equal(t, "references nonexistent table clients.", result.DebugInfo[models.DebugValidationError])
	assert.Equal(t, "SELECT * FROM clients;", result.GeneratedSQL)
	assert.Empty(t, result.PreviousSQL)
	assert.NotContains(t, result.DebugInfo, models.DebugOriginalSQL)
	assert.Equal(t, []string{"SELECT * FROM clients"}, f.conn.QueryCalls)
}

func TestPipeline_Run_RepairFailureIsNotFatal(t *testing.T) {
	f := newPipelineFixture(t)
	f.client.GenerateResponseFunc = func(context.Context, []llm.Message, float64) (*llm.GenerateResponseResult, error) {
		switch f.client.GenerateResponseCalls {
		case 1:
			return &llm.GenerateResponseResult{Content: casablancaIntentReply}, nil
		case 2:
			return &llm.GenerateResponseResult{Content: "SELECT * FROM customers;"}, nil
		default:
			return nil, llm.ClassifyError(errors.New("API key not valid"))
		}
	}

	result := f.run("show me all cutomers from casablanca")

	require.Nil(t, result.Error)
	assert.Equal(t, "missing filter column city.", result.DebugInfo[models.DebugValidationError])
	assert.Contains(t, result.DebugInfo[models.DebugRepairError], "authentication failed")
	assert.Equal(t, "SELECT * FROM customers;", result.GeneratedSQL)
	assert.Equal(t, []string{"SELECT * FROM customers"}, f.conn.QueryCalls)
}

func TestPipeline_Run_APIKeyInvalid(t *testing.T) {
	f := newPipelineFixture(t)
	f.client.GenerateResponseFunc = func(context.Context, []llm.Message, float64) (*llm.GenerateResponseResult, error) {
		return nil, llm.ClassifyError(errors.New("googleapi: Error 400: API key not valid. Please pass a valid API key. API_KEY_INVALID"))
	}

	result := f.run("show me all customers")

	require.NotNil(t, result.Error)
	assert.Equal(t, models.ErrorKindAPIKeyInvalid, result.Error.Kind)
	assert.True(t, result.Failed())
	assert.Empty(t, result.GeneratedSQL)
	assert.Contains(t, result.DebugInfo, models.DebugIntentError)
	assert.Empty(t, f.conn.QueryCalls)
	assert.Equal(t, 1, f.conn.Closed)
}

func TestPipeline_Run_ModelErrorWithDigitsIsNotAuth(t *testing.T) {
	f := newPipelineFixture(t)
	f.client.GenerateResponseFunc = func(context.Context, []llm.Message, float64) (*llm.GenerateResponseResult, error) {
		return nil, errors.New("input token count (1401873) exceeds the maximum number of tokens allowed (1048576)")
	}

	result := f.run("show me all customers")

	require.NotNil(t, result.Error)
	assert.Equal(t, models.ErrorKindGenerationFailed, result.Error.Kind)
	assert.Empty(t, f.conn.QueryCalls)
	assert.Equal(t, 1, f.conn.Closed)
}

func TestPipeline_Run_GenerationFailed(t *testing.T) {
	f := newPipelineFixture(t, casablancaIntentReply, "Sorry, I cannot do that.")

	result := f.run("show me all customers")

	require.NotNil(t, result.Error)
	assert.Equal(t, models.ErrorKindGenerationFailed, result.Error.Kind)
	assert.Equal(t, 2, f.client.GenerateResponseCalls)
	assert.Empty(t, f.conn.QueryCalls)
}

func TestPipeline_Run_ModelUnavailable(t *testing.T) {
	f := newPipelineFixture(t)
	f.factory.Err = apperrors.ErrNoCredential

	result := f.run("show me all customers")

	require.NotNil(t, result.Error)
	assert.Equal(t, models.ErrorKindModelUnavailable, result.Error.Kind)
	assert.Empty(t, f.connector.Configs)
	assert.Equal(t, 0, f.client.GenerateResponseCalls)
}

func TestPipeline_Run_ConnectionFailed(t *testing.T) {
	f := newPipelineFixture(t)
	f.connector.Err = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

	result := f.run("show me all customers")

	require.NotNil(t, result.Error)
	assert.Equal(t, models.ErrorKindConnectionFailed, result.Error.Kind)
	assert.Contains(t, result.Error.Message, "connection refused")
	assert.Equal(t, 0, f.client.GenerateResponseCalls)
}

func TestPipeline_Run_SafetyRejected(t *testing.T) {
	f := newPipelineFixture(t,
		"{}",
		"DELETE FROM customers WHERE customer_id IN (SELECT customer_id FROM orders)",
	)

	result := f.run("remove customers with orders")

	require.NotNil(t, result.Error)
	assert.Equal(t, models.ErrorKindSafetyRejected, result.Error.Kind)
	assert.Equal(t, "Only SELECT queries are allowed for safety.", result.Error.Message)
	assert.Empty(t, f.conn.QueryCalls)
}

func TestPipeline_Run_ExecutionFailed(t *testing.T) {
	f := newPipelineFixture(t, casablancaIntentReply, "SELECT * FROM customers WHERE city = 'Casablanca';")
	f.conn.QueryReadOnlyFunc = func(context.Context, string) (*datasource.QueryResult, error) {
		return nil, errors.New(`column "town" does not exist`)
	}

	result := f.run("show me all cutomers from casablanca")

	require.NotNil(t, result.Error)
	assert.Equal(t, models.ErrorKindExecutionFailed, result.Error.Kind)
	assert.Contains(t, result.Error.Message, "Database execution error")
	assert.Contains(t, result.DebugInfo[models.DebugExecutionError], `column "town" does not exist`)
	assert.Nil(t, result.ColumnNames)
}

func TestPipeline_Run_RecoversPanic(t *testing.T) {
	f := newPipelineFixture(t, casablancaIntentReply)
	f.conn.ListTablesFunc = func(context.Context, string) ([]string, error) {
		panic("catalog exploded")
	}

	result := f.run("show me all customers")

	require.NotNil(t, result.Error)
	assert.Equal(t, models.ErrorKindInternal, result.Error.Kind)
	assert.Contains(t, result.Error.Message, "catalog exploded")
	assert.Equal(t, 1, f.conn.Closed)
	assert.Contains(t, result.DebugInfo, models.DebugStageTimings)
}

func TestPipeline_Run_EmptyQuestion(t *testing.T) {
	f := newPipelineFixture(t)

	result := f.run("   ")

	require.NotNil(t, result.Error)
	assert.Equal(t, models.ErrorKindGenerationFailed, result.Error.Kind)
	assert.Equal(t, 0, f.factory.CreateCalls)
}

func TestPipeline_Run_MaxRows(t *testing.T) {
	f := newPipelineFixture(t, casablancaIntentReply, "SELECT * FROM customers WHERE city = 'Casablanca';")
	f.conn.QueryReadOnlyFunc = func(context.Context, string) (*datasource.QueryResult, error) {
		return &datasource.QueryResult{Columns: []string{"n"}, Rows: [][]any{{1}, {2}, {3}}}, nil
	}
	cfg := DefaultPipelineConfig()
	cfg.MaxRows = 2
	f.rebuild(t, cfg)

	result := f.run("show me all cutomers from casablanca")

	require.Nil(t, result.Error)
	assert.Len(t, result.Rows, 2)
	assert.Equal(t, 3, result.DebugInfo[models.DebugRowsTruncated])
}

func TestPipeline_Run_SampleErrorsInDebug(t *testing.T) {
	f := newPipelineFixture(t, casablancaIntentReply, "SELECT * FROM customers WHERE city = 'Casablanca';")
	f.conn.SampleRowsFunc = func(_ context.Context, _ string, table string, _ int) ([]models.SampleRow, error) {
		if table == "products" {
			return nil, errors.New("permission denied for table products")
		}
		return storeSamples()[table], nil
	}

	result := f.run("show me all cutomers from casablanca")

	require.Nil(t, result.Error)
	assert.Equal(t, 2, result.DebugInfo[models.DebugSampleTables])
	assert.Equal(t, map[string]string{"products": "permission denied for table products"}, result.DebugInfo[models.DebugSampleErrors])
}
