package postgres

import (
	"fmt"
	"net/url"

	"github.com/anass1209/NL2SQL/pkg/models"
)

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// DefaultSSLMode returns the SSL mode used when none is configured.
func DefaultSSLMode() string {
	return "prefer"
}

// buildConnectionString builds a PostgreSQL URL. User-provided fields are
// URL-escaped so passwords containing @, /, # or ? survive parsing.
func buildConnectionString(cfg models.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = DefaultSSLMode()
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort()
	}

	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		port,
		url.QueryEscape(cfg.Name),
		url.QueryEscape(sslMode),
	)
}
