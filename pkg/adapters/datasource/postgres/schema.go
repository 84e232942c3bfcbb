package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/anass1209/NL2SQL/pkg/models"
)

// qualifiedTableName returns a quoted table reference, "schema"."table"
// when a schema is given.
func qualifiedTableName(schemaName, tableName string) string {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	if schemaName == "" {
		return quotedTable
	}
	return pgx.Identifier{schemaName}.Sanitize() + "." + quotedTable
}

// ListTables returns the base tables of a schema.
func (c *Conn) ListTables(ctx context.Context, schema string) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := c.conn.Query(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	tables, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan tables: %w", err)
	}
	return tables, nil
}

// ListColumns returns every base table's columns in ordinal order.
func (c *Conn) ListColumns(ctx context.Context, schema string) (models.SchemaMap, error) {
	const query = `
		SELECT c.table_name, c.column_name, c.data_type
		FROM information_schema.columns c
		JOIN information_schema.tables t
		  ON t.table_schema = c.table_schema
		 AND t.table_name = c.table_name
		WHERE c.table_schema = $1
		  AND t.table_type = 'BASE TABLE'
		ORDER BY c.table_name, c.ordinal_position
	`

	rows, err := c.conn.Query(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	result := make(models.SchemaMap)
	for rows.Next() {
		var table string
		var col models.ColumnDef
		if err := rows.Scan(&table, &col.Name, &col.DataType); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		result[table] = append(result[table], col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return result, nil
}

// SampleRows returns up to limit rows of a table, values converted like query results.
func (c *Conn) SampleRows(ctx context.Context, schema, table string, limit int) ([]models.SampleRow, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT $1", qualifiedTableName(schema, table))

	rows, err := c.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	samples := make([]models.SampleRow, 0, limit)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read sample row of %s: %w", table, err)
		}
		row := models.SampleRow{Columns: columns, Values: make(map[string]any, len(columns))}
		for i, col := range columns {
			row.Values[col] = convertValue(fields[i].DataTypeOID, values[i])
		}
		samples = append(samples, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sample rows of %s: %w", table, err)
	}
	return samples, nil
}
