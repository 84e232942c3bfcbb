package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/anass1209/NL2SQL/pkg/adapters/datasource"
)

// QueryReadOnly runs sql inside a read-only transaction and returns every row.
// Any error rolls the transaction back.
func (c *Conn) QueryReadOnly(ctx context.Context, sql string) (*datasource.QueryResult, error) {
	tx, err := c.conn.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin read-only transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			c.logger.Warn("Rollback failed", zap.Error(rbErr))
		}
	}()

	rows, err := tx.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	result := &datasource.QueryResult{Columns: []string{}, Rows: [][]any{}}

	fields := rows.FieldDescriptions()
	for _, fd := range fields {
		result.Columns = append(result.Columns, fd.Name)
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = convertValue(fields[i].DataTypeOID, v)
		}
		result.Rows = append(result.Rows, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit read-only transaction: %w", err)
	}
	return result, nil
}

const isoTimestamp = "2006-01-02T15:04:05.999999999"

// convertValue turns a decoded pgx value into something encoding/json renders
// the way a client expects: times as ISO-8601, bytes as text, numerics as numbers.
func convertValue(oid uint32, v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		switch oid {
		case pgtype.DateOID:
			return t.Format(time.DateOnly)
		case pgtype.TimestampOID:
			return t.Format(isoTimestamp)
		default:
			return t.Format(time.RFC3339Nano)
		}
	case []byte:
		return string(t)
	case [16]byte:
		return uuid.UUID(t).String()
	case float64:
		return finiteOrString(t)
	case float32:
		return finiteOrString(float64(t))
	case pgtype.Numeric:
		return numericValue(t)
	case pgtype.Time:
		if !t.Valid {
			return nil
		}
		d := time.Duration(t.Microseconds) * time.Microsecond
		return time.Time{}.Add(d).Format("15:04:05.999999")
	case pgtype.Interval:
		if !t.Valid {
			return nil
		}
		v, err := t.Value()
		if err != nil {
			return nil
		}
		return v
	case netip.Prefix:
		return t.String()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = convertValue(0, e)
		}
		return out
	default:
		return v
	}
}

func numericValue(n pgtype.Numeric) any {
	if !n.Valid {
		return nil
	}
	if n.NaN {
		return "NaN"
	}
	switch n.InfinityModifier {
	case pgtype.Infinity:
		return "Infinity"
	case pgtype.NegativeInfinity:
		return "-Infinity"
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		if s, err := n.Value(); err == nil {
			return s
		}
		return nil
	}
	return f.Float64
}

func finiteOrString(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}
