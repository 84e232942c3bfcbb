// Package sql holds the lexical SQL helpers used around model-written statements.
package sql

import (
	"errors"
	"strings"
	"unicode"

	"github.com/anass1209/NL2SQL/pkg/apperrors"
)

var (
	// ErrMultipleStatements indicates the query contains multiple SQL statements.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")
)

// ValidationResult contains the normalized SQL and any validation errors.
type ValidationResult struct {
	NormalizedSQL string
	Error         error
}

// ValidateAndNormalize strips one trailing semicolon and rejects any further
// semicolon outside string literals, quoted identifiers and comments.
func ValidateAndNormalize(sqlQuery string) ValidationResult {
	sqlQuery = strings.TrimSpace(sqlQuery)
	if sqlQuery == "" {
		return ValidationResult{NormalizedSQL: sqlQuery}
	}

	normalized := stripTrailingSemicolon(sqlQuery)
	if hasSemicolonOutsideStrings(normalized) {
		return ValidationResult{Error: ErrMultipleStatements}
	}
	return ValidationResult{NormalizedSQL: normalized}
}

// CheckExecutable accepts exactly one SELECT statement and returns it without
// its terminating semicolon. It never touches a database.
func CheckExecutable(sqlQuery string) (string, error) {
	if LeadingKeyword(sqlQuery) != "SELECT" {
		return "", apperrors.ErrNotSelect
	}
	res := ValidateAndNormalize(sqlQuery)
	if res.Error != nil {
		return "", res.Error
	}
	return res.NormalizedSQL, nil
}

// LeadingKeyword returns the first word of the trimmed statement, upper-cased.
func LeadingKeyword(sqlQuery string) string {
	s := strings.TrimSpace(sqlQuery)
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_'
	})
	if end == -1 {
		end = len(s)
	}
	return strings.ToUpper(s[:end])
}

// hasSemicolonOutsideStrings reports a semicolon outside '...' and "..." and
// outside -- and /* */ comments. Doubled quotes ('' and "") stay inside the literal.
func hasSemicolonOutsideStrings(sqlQuery string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	runes := []rune(sqlQuery)

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch state {
		case stateNormal:
			switch {
			case c == ';':
				return true
			case c == '\'':
				state = stateSingleQuote
			case c == '"':
				state = stateDoubleQuote
			case c == '-' && next == '-':
				state = stateLineComment
				i++
			case c == '/' && next == '*':
				state = stateBlockComment
				i++
			}
		case stateSingleQuote:
			if c == '\\' {
				i++ // E'...' escape
			} else if c == '\'' {
				if next == '\'' {
					i++
				} else {
					state = stateNormal
				}
			}
		case stateDoubleQuote:
			if c == '"' {
				if next == '"' {
					i++
				} else {
					state = stateNormal
				}
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return false
}

// stripTrailingSemicolon removes a trailing semicolon and any whitespace around it.
func stripTrailingSemicolon(sqlQuery string) string {
	sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	if strings.HasSuffix(sqlQuery, ";") {
		sqlQuery = strings.TrimSuffix(sqlQuery, ";")
		sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	}
	return sqlQuery
}
