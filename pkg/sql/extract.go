package sql

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoSQLFound is returned when a model reply contains no SELECT statement.
var ErrNoSQLFound = errors.New("generated response doesn't contain a valid SQL query")

var (
	// Leftmost SELECT through the last semicolon in the reply.
	selectStatementPattern = regexp.MustCompile(`(?is)SELECT\s+.+;`)

	// A reply that is nothing but one fenced code block.
	codeFencePattern = regexp.MustCompile("(?s)^```[A-Za-z]*\\s*\n(.*?)\\s*```$")
)

// ExtractStatement pulls the SQL statement out of a model reply.
//
// The match starts at the first "SELECT" followed by whitespace and ends at the
// last ";" in the reply. Without a semicolon, a reply that mentions SELECT is
// used whole with ";" appended. A reply that is a single fenced code block is
// unwrapped first. Anything else yields ErrNoSQLFound.
func ExtractStatement(reply string) (string, error) {
	if m := selectStatementPattern.FindString(reply); m != "" {
		return strings.TrimSpace(m), nil
	}

	trimmed := strings.TrimSpace(reply)
	if !strings.Contains(strings.ToUpper(trimmed), "SELECT") {
		return "", ErrNoSQLFound
	}

	if m := codeFencePattern.FindStringSubmatch(trimmed); m != nil {
		trimmed = strings.TrimSpace(m[1])
	}
	if !strings.HasSuffix(trimmed, ";") {
		trimmed += ";"
	}
	return trimmed, nil
}
