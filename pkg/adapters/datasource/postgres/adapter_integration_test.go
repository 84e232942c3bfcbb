package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anass1209/NL2SQL/pkg/adapters/datasource"
	"github.com/anass1209/NL2SQL/pkg/testhelpers"
)

func connectTestDB(t *testing.T) datasource.Conn {
	t.Helper()

	testDB := testhelpers.GetTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := NewConnector(1, zaptest.NewLogger(t)).Connect(ctx, testDB.Config)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close(context.Background())
	})
	return conn
}

func TestConn_ListTablesAndColumns(t *testing.T) {
	conn := connectTestDB(t)
	ctx := context.Background()

	tables, err := conn.ListTables(ctx, "public")
	require.NoError(t, err)
	assert.Subset(t, tables, []string{"customers", "orders", "products"})

	schema, err := conn.ListColumns(ctx, "public")
	require.NoError(t, err)
	require.Contains(t, schema, "customers")
	assert.Equal(t, "customer_id", schema["customers"][0].Name)
	assert.Equal(t, "integer", schema["customers"][0].DataType)
}

func TestConn_SampleRows(t *testing.T) {
	conn := connectTestDB(t)

	rows, err := conn.SampleRows(context.Background(), "public", "orders", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"order_id", "customer_id", "product_id", "order_date", "quantity"}, rows[0].Columns)
	assert.Equal(t, "2024-01-15", rows[0].Get("order_date"))
}

func TestConn_QueryReadOnly(t *testing.T) {
	conn := connectTestDB(t)

	result, err := conn.QueryReadOnly(context.Background(),
		"SELECT name, city FROM customers WHERE city = 'Casablanca' ORDER BY customer_id")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "city"}, result.Columns)
	assert.Equal(t, [][]any{{"Amina Benali", "Casablanca"}, {"Claire Martin", "Casablanca"}}, result.Rows)
}

func TestConn_QueryReadOnly_RejectsWrites(t *testing.T) {
	conn := connectTestDB(t)
	ctx := context.Background()

	_, err := conn.QueryReadOnly(ctx, "UPDATE customers SET city = 'Rabat'")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")

	// The connection is still usable after the rollback.
	result, err := conn.QueryReadOnly(ctx, "SELECT COUNT(*) AS n FROM customers WHERE city = 'Casablanca'")
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(2)}}, result.Rows)
}

func TestConn_QueryReadOnly_Error(t *testing.T) {
	conn := connectTestDB(t)

	_, err := conn.QueryReadOnly(context.Background(), "SELECT * FROM clients")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clients")
}
