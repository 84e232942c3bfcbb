package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anass1209/NL2SQL/pkg/models"
)

// carry copies the cookies set on rec onto a new request.
func carry(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager("", false)
	assert.Error(t, err)
}

func TestManager_APIKeyRoundTrip(t *testing.T) {
	m, err := NewManager("test-secret", false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, m.SetAPIKey(rec, httptest.NewRequest(http.MethodPost, "/", nil), "AIzaSyExampleKey0123456789"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, Name, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotContains(t, cookies[0].Value, "AIzaSyExampleKey0123456789")

	assert.Equal(t, "AIzaSyExampleKey0123456789", m.APIKey(carry(rec)))
}

func TestManager_APIKeyFromOtherSecretIsIgnored(t *testing.T) {
	m1, err := NewManager("secret-one", false)
	require.NoError(t, err)
	m2, err := NewManager("secret-two", false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, m1.SetAPIKey(rec, httptest.NewRequest(http.MethodPost, "/", nil), "key-123"))

	assert.Empty(t, m2.APIKey(carry(rec)))
}

func TestManager_ClearAPIKey(t *testing.T) {
	m, err := NewManager("test-secret", false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, m.SetAPIKey(rec, httptest.NewRequest(http.MethodPost, "/", nil), "key-123"))

	rec2 := httptest.NewRecorder()
	require.NoError(t, m.ClearAPIKey(rec2, carry(rec)))

	assert.Empty(t, m.APIKey(carry(rec2)))
}

func TestManager_LastResult(t *testing.T) {
	m, err := NewManager("test-secret", false)
	require.NoError(t, err)

	_, ok := m.LastResult(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)

	result := models.NewPipelineResult("run-1", "show me all customers from casablanca")
	result.GeneratedSQL = "SELECT * FROM customers WHERE city = 'Casablanca';"
	result.ColumnNames = []string{"name"}
	result.Rows = [][]any{{"Amina"}, {"Claire"}}

	rec := httptest.NewRecorder()
	require.NoError(t, m.SetAPIKey(rec, httptest.NewRequest(http.MethodPost, "/", nil), "key-123"))
	rec2 := httptest.NewRecorder()
	require.NoError(t, m.SetLastResult(rec2, carry(rec), result, true))

	summary, ok := m.LastResult(carry(rec2))
	require.True(t, ok)
	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, result.GeneratedSQL, summary.GeneratedSQL)
	assert.Equal(t, 2, summary.RowCount)
	assert.Empty(t, m.APIKey(carry(rec2)))
}

// distinct returns n characters that do not compress into repeats.
func distinct(prefix string, n int) string {
	var b strings.Builder
	b.WriteString(prefix)
	for i := 0; b.Len() < n; i++ {
		b.WriteString(strconv.Itoa(i * 7919))
		b.WriteByte(' ')
	}
	return b.String()[:n]
}

func TestManager_LastResultWithLongRepairedStatement(t *testing.T) {
	m, err := NewManager("test-secret", false)
	require.NoError(t, err)

	result := models.NewPipelineResult("run-long", distinct("question ", 1000))
	result.CorrectedQuery = distinct("corrected ", 1000)
	result.GeneratedSQL = distinct("SELECT ", 1000)
	result.PreviousSQL = distinct("SELECT prev ", 1000)
	result.ColumnNames = []string{"customer_id", "name"}
	result.Fail(models.ErrorKindAPIKeyInvalid, distinct("invalid key ", 1000))

	rec := httptest.NewRecorder()
	require.NoError(t, m.SetAPIKey(rec, httptest.NewRequest(http.MethodPost, "/", nil), "AIzaSyExampleKey0123456789"))

	rec2 := httptest.NewRecorder()
	require.NoError(t, m.SetLastResult(rec2, carry(rec), result, true))
	require.Len(t, rec2.Result().Cookies(), 1)

	summary, ok := m.LastResult(carry(rec2))
	require.True(t, ok)
	assert.Equal(t, "run-long", summary.RunID)
	assert.True(t, strings.HasPrefix(summary.GeneratedSQL, "SELECT "))
	require.NotNil(t, summary.Error)
	assert.Equal(t, models.ErrorKindAPIKeyInvalid, summary.Error.Kind)
	assert.Empty(t, m.APIKey(carry(rec2)))
}

func TestEncodeSummary_StaysWithinBudget(t *testing.T) {
	cols := make([]string, 200)
	for i := range cols {
		cols[i] = distinct("column_", 40)
	}
	result := models.NewPipelineResult("run-1", distinct("q ", 5000))
	result.CorrectedQuery = distinct("c ", 5000)
	result.GeneratedSQL = distinct("SELECT ", 5000)
	result.PreviousSQL = distinct("SELECT ", 5000)
	result.ColumnNames = cols

	data, err := encodeSummary(Summarize(result))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(data), maxSummaryBytes)

	var summary ResultSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, "run-1", summary.RunID)
	assert.NotEmpty(t, summary.GeneratedSQL)
}

func TestEncodeSummary_SmallSummaryUntouched(t *testing.T) {
	result := models.NewPipelineResult("run-1", "list customers")
	result.CorrectedQuery = "List all customers"
	result.GeneratedSQL = "SELECT * FROM customers WHERE name <> 'x';"
	result.PreviousSQL = "SELECT * FROM client;"

	data, err := encodeSummary(Summarize(result))
	require.NoError(t, err)

	var summary ResultSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, Summarize(result), summary)
}
