package datasource

import (
	"context"
	"sync"

	"github.com/anass1209/NL2SQL/pkg/models"
)

// MockConn is a Conn for tests. Unset funcs return empty results.
type MockConn struct {
	ListTablesFunc    func(ctx context.Context, schema string) ([]string, error)
	ListColumnsFunc   func(ctx context.Context, schema string) (models.SchemaMap, error)
	SampleRowsFunc    func(ctx context.Context, schema, table string, limit int) ([]models.SampleRow, error)
	QueryReadOnlyFunc func(ctx context.Context, sql string) (*QueryResult, error)

	mu            sync.Mutex
	Calls         int // every call, Close included
	QueryCalls    []string
	SampledTables []string
	Closed        int
}

var _ Conn = (*MockConn)(nil)

func (m *MockConn) record(f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if f != nil {
		f()
	}
}

func (m *MockConn) ListTables(ctx context.Context, schema string) ([]string, error) {
	m.record(nil)
	if m.ListTablesFunc != nil {
		return m.ListTablesFunc(ctx, schema)
	}
	return []string{}, nil
}

func (m *MockConn) ListColumns(ctx context.Context, schema string) (models.SchemaMap, error) {
	m.record(nil)
	if m.ListColumnsFunc != nil {
		return m.ListColumnsFunc(ctx, schema)
	}
	return models.SchemaMap{}, nil
}

func (m *MockConn) SampleRows(ctx context.Context, schema, table string, limit int) ([]models.SampleRow, error) {
	m.record(func() { m.SampledTables = append(m.SampledTables, table) })
	if m.SampleRowsFunc != nil {
		return m.SampleRowsFunc(ctx, schema, table, limit)
	}
	return []models.SampleRow{}, nil
}

func (m *MockConn) QueryReadOnly(ctx context.Context, sql string) (*QueryResult, error) {
	m.record(func() { m.QueryCalls = append(m.QueryCalls, sql) })
	if m.QueryReadOnlyFunc != nil {
		return m.QueryReadOnlyFunc(ctx, sql)
	}
	return &QueryResult{Columns: []string{}, Rows: [][]any{}}, nil
}

func (m *MockConn) Close(context.Context) error {
	m.record(func() { m.Closed++ })
	return nil
}

// CallCount returns how many calls the connection has seen.
func (m *MockConn) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// NewFixtureConn returns a MockConn serving a fixed schema and samples.
func NewFixtureConn(schema models.SchemaMap, samples models.SampleSet) *MockConn {
	return &MockConn{
		ListTablesFunc: func(context.Context, string) ([]string, error) {
			return schema.TableNames(), nil
		},
		ListColumnsFunc: func(context.Context, string) (models.SchemaMap, error) {
			return schema, nil
		},
		SampleRowsFunc: func(_ context.Context, _ string, table string, limit int) ([]models.SampleRow, error) {
			rows := samples[table]
			if limit > 0 && len(rows) > limit {
				rows = rows[:limit]
			}
			return rows, nil
		},
	}
}

// MockConnector hands out Conn or fails with Err.
type MockConnector struct {
	Conn Conn
	Err  error

	mu      sync.Mutex
	Configs []models.DBConfig
}

var _ Connector = (*MockConnector)(nil)

func (m *MockConnector) Connect(_ context.Context, cfg models.DBConfig) (Conn, error) {
	m.mu.Lock()
	m.Configs = append(m.Configs, cfg)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Conn, nil
}
