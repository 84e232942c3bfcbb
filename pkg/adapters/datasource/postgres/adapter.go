// Package postgres implements the datasource collaborator on top of pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/anass1209/NL2SQL/pkg/adapters/datasource"
	"github.com/anass1209/NL2SQL/pkg/logging"
	"github.com/anass1209/NL2SQL/pkg/models"
	"github.com/anass1209/NL2SQL/pkg/retry"
)

// Connector opens single pgx connections. Transient connect failures
// (refused, too many clients, server starting up) are retried.
type Connector struct {
	retryCfg *retry.Config
	logger   *zap.Logger
}

var _ datasource.Connector = (*Connector)(nil)

// NewConnector creates a Connector. retries is the number of extra connect attempts.
func NewConnector(retries int, logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{
		retryCfg: retry.WithMaxRetries(retries),
		logger:   logger.Named("postgres"),
	}
}

// Connect opens a connection to the configured database.
func (c *Connector) Connect(ctx context.Context, cfg models.DBConfig) (datasource.Conn, error) {
	connStr := buildConnectionString(cfg)

	attempt := 0
	conn, err := retry.DoWithResultIfRetryable(ctx, c.retryCfg, func() (*pgx.Conn, error) {
		attempt++
		conn, err := pgx.Connect(ctx, connStr)
		if err != nil && attempt <= c.retryCfg.MaxRetries && retry.IsRetryable(err) {
			c.logger.Warn("Connect attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.String("error", logging.SanitizeError(err)))
		}
		return conn, err
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres at %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}

	c.logger.Debug("Connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name))

	return &Conn{conn: conn, logger: c.logger}, nil
}

// Conn is a single pgx connection.
type Conn struct {
	conn   *pgx.Conn
	logger *zap.Logger
}

var _ datasource.Conn = (*Conn)(nil)

// Close closes the connection. Closing twice is harmless.
func (c *Conn) Close(ctx context.Context) error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(ctx)
	c.conn = nil
	return err
}
