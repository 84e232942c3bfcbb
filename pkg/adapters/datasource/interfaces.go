// Package datasource defines the database collaborator a pipeline run talks to.
package datasource

import (
	"context"

	"github.com/anass1209/NL2SQL/pkg/models"
)

// Connector opens one connection per pipeline run.
type Connector interface {
	Connect(ctx context.Context, cfg models.DBConfig) (Conn, error)
}

// Conn is a single live database connection. It is owned by one run and
// must be closed when the run ends.
type Conn interface {
	// ListTables returns the base tables of a schema in name order.
	ListTables(ctx context.Context, schema string) ([]string, error)

	// ListColumns returns the columns of every base table in a schema, in ordinal order.
	ListColumns(ctx context.Context, schema string) (models.SchemaMap, error)

	// SampleRows returns up to limit rows of a table.
	SampleRows(ctx context.Context, schema, table string, limit int) ([]models.SampleRow, error)

	// QueryReadOnly runs a statement inside a read-only transaction.
	QueryReadOnly(ctx context.Context, sql string) (*QueryResult, error)

	Close(ctx context.Context) error
}

// QueryResult holds the rows a statement returned, converted to JSON-friendly values.
// Statements without a row description yield empty, non-nil slices.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}
