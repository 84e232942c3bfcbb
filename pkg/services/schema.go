package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/anass1209/NL2SQL/pkg/adapters/datasource"
	"github.com/anass1209/NL2SQL/pkg/logging"
	"github.com/anass1209/NL2SQL/pkg/models"
)

// DefaultSampleRows is how many rows are sampled from each table.
const DefaultSampleRows = 3

// SchemaSnapshot is what one run knows about the database: its tables and
// columns plus a few rows per table.
type SchemaSnapshot struct {
	Schema  models.SchemaMap
	Samples models.SampleSet
	// SampleErrors maps tables whose sample query failed to the sanitized error.
	SampleErrors map[string]string
}

// SchemaInspector reads the catalog and samples every base table.
type SchemaInspector struct {
	sampleRows int
	logger     *zap.Logger
}

// NewSchemaInspector creates an inspector sampling sampleRows rows per table.
func NewSchemaInspector(sampleRows int, logger *zap.Logger) *SchemaInspector {
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchemaInspector{sampleRows: sampleRows, logger: logger.Named("schema-inspector")}
}

// Inspect builds the snapshot for one schema. It never fails: a catalog error
// yields an empty schema and a per-table sampling error leaves that table out
// of the samples.
func (s *SchemaInspector) Inspect(ctx context.Context, conn datasource.Conn, schemaName string) *SchemaSnapshot {
	snap := &SchemaSnapshot{
		Schema:       models.SchemaMap{},
		Samples:      models.SampleSet{},
		SampleErrors: map[string]string{},
	}

	tables, err := conn.ListTables(ctx, schemaName)
	if err != nil {
		s.logger.Error("Failed to list tables",
			zap.String("schema", schemaName),
			zap.String("error", logging.SanitizeError(err)))
		return snap
	}

	columns, err := conn.ListColumns(ctx, schemaName)
	if err != nil {
		s.logger.Error("Failed to list columns",
			zap.String("schema", schemaName),
			zap.String("error", logging.SanitizeError(err)))
		return snap
	}

	for _, table := range tables {
		cols := columns[table]
		if cols == nil {
			cols = []models.ColumnDef{}
		}
		snap.Schema[table] = cols
	}

	for _, table := range tables {
		if ctx.Err() != nil {
			break
		}
		rows, err := conn.SampleRows(ctx, schemaName, table, s.sampleRows)
		if err != nil {
			msg := logging.SanitizeError(err)
			s.logger.Warn("Failed to sample table",
				zap.String("table", table),
				zap.String("error", msg))
			snap.SampleErrors[table] = msg
			continue
		}
		snap.Samples[table] = rows
	}

	s.logger.Debug("Schema inspected",
		zap.Int("tables", len(snap.Schema)),
		zap.Int("sampled", len(snap.Samples)))

	return snap
}
