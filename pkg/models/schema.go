package models

import (
	"fmt"
	"sort"
	"strings"
)

// ColumnDef is a single column as reported by the database catalog.
// DataType is advisory and only ever used for prompt text.
type ColumnDef struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

// String renders the column the way it appears in prompts ("city text").
func (c ColumnDef) String() string {
	if c.DataType == "" {
		return c.Name
	}
	return c.Name + " " + c.DataType
}

// SchemaMap maps table name to its columns in ordinal order.
// A SchemaMap is built once per pipeline run and never mutated afterwards.
type SchemaMap map[string][]ColumnDef

// TableNames returns the table names in sorted order.
func (s SchemaMap) TableNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasTable reports whether the schema contains the table, ignoring case.
func (s SchemaMap) HasTable(name string) bool {
	_, ok := s.lookup(name)
	return ok
}

// Columns returns the columns for a table, ignoring case.
func (s SchemaMap) Columns(name string) []ColumnDef {
	cols, _ := s.lookup(name)
	return cols
}

func (s SchemaMap) lookup(name string) ([]ColumnDef, bool) {
	if cols, ok := s[name]; ok {
		return cols, true
	}
	lower := strings.ToLower(name)
	for table, cols := range s {
		if strings.ToLower(table) == lower {
			return cols, true
		}
	}
	return nil, false
}

// Format renders the schema as prompt text.
//
//	Database Schema:
//	Table customers:
//	  Columns: id integer, name text, city text
func (s SchemaMap) Format() string {
	var b strings.Builder
	b.WriteString("Database Schema:\n")
	for _, table := range s.TableNames() {
		cols := make([]string, len(s[table]))
		for i, c := range s[table] {
			cols[i] = c.String()
		}
		fmt.Fprintf(&b, "Table %s:\n", table)
		fmt.Fprintf(&b, "  Columns: %s\n", strings.Join(cols, ", "))
	}
	return b.String()
}

// SampleRow is one sampled row. Columns preserves result order; Values is keyed by column name.
type SampleRow struct {
	Columns []string       `json:"columns"`
	Values  map[string]any `json:"values"`
}

// Get returns the value for a column, or nil when absent.
func (r SampleRow) Get(column string) any {
	if r.Values == nil {
		return nil
	}
	return r.Values[column]
}

// SampleSet maps table name to a few sampled rows.
// Tables whose sample query failed are simply absent.
type SampleSet map[string][]SampleRow

// Rows returns the sampled rows for a table, ignoring case.
func (s SampleSet) Rows(table string) []SampleRow {
	if rows, ok := s[table]; ok {
		return rows
	}
	lower := strings.ToLower(table)
	for name, rows := range s {
		if strings.ToLower(name) == lower {
			return rows
		}
	}
	return nil
}
