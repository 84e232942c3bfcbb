package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/anass1209/NL2SQL/pkg/models"
)

// tableRefPattern matches the identifier after FROM or JOIN, with an optional
// schema qualifier and double quotes.
var tableRefPattern = regexp.MustCompile(`(?i)\b(FROM|JOIN)\s+((?:"[^"]+"|[A-Za-z_][A-Za-z0-9_$]*)(?:\s*\.\s*(?:"[^"]+"|[A-Za-z_][A-Za-z0-9_$]*))?)`)

// FROM also appears inside expressions: EXTRACT(YEAR FROM d), a IS DISTINCT FROM b,
// TRIM(BOTH ' ' FROM s). What precedes the FROM tells these apart from a table reference.
var expressionFromPattern = regexp.MustCompile(`(?i)(EXTRACT\s*\(\s*[A-Za-z_]+|\bIS\s+(NOT\s+)?DISTINCT|\b(LEADING|TRAILING|BOTH)(\s+'[^']*')?)\s*$`)

// QueryValidator runs lexical sanity checks of a statement against the intent
// and the schema. It stops at the first problem.
type QueryValidator struct{}

// NewQueryValidator creates a validator.
func NewQueryValidator() *QueryValidator {
	return &QueryValidator{}
}

// Validate returns "" when the statement passes, else one diagnostic, checked in order:
// filter value then column (per filter, in column order), expected tables, referenced tables.
func (v *QueryValidator) Validate(stmt string, intent *models.IntentRecord, schema models.SchemaMap) string {
	if intent == nil {
		intent = models.DefaultIntent()
	}
	lowerSQL := strings.ToLower(stmt)
	unquotedSQL := stripQuotes(lowerSQL)

	columns := make([]string, 0, len(intent.Filters))
	for col := range intent.Filters {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	for _, col := range columns {
		if !containsWord(stmt, col) {
			return fmt.Sprintf("missing filter column %s.", col)
		}
		value := stripQuotes(strings.ToLower(intent.Filters[col]))
		if !strings.Contains(unquotedSQL, value) {
			return fmt.Sprintf("missing filter value for column %s.", col)
		}
	}

	for _, table := range intent.Tables {
		if !containsWord(stmt, table) {
			return fmt.Sprintf("missing expected table %s.", table)
		}
	}

	for _, table := range ReferencedTables(stmt) {
		if !schema.HasTable(table) {
			return fmt.Sprintf("references nonexistent table %s.", table)
		}
	}

	return ""
}

// ReferencedTables lists the lower-cased, unqualified table names that follow
// FROM or JOIN, in order of appearance. Function calls in FROM position are skipped.
func ReferencedTables(stmt string) []string {
	var tables []string
	for _, m := range tableRefPattern.FindAllStringSubmatchIndex(stmt, -1) {
		if strings.EqualFold(stmt[m[2]:m[3]], "FROM") && expressionFromPattern.MatchString(stmt[:m[2]]) {
			continue
		}
		if rest := strings.TrimLeft(stmt[m[5]:], " \t\r\n"); strings.HasPrefix(rest, "(") {
			continue
		}

		ref := stmt[m[4]:m[5]]
		if i := strings.LastIndex(ref, "."); i >= 0 && !insideQuotes(ref, i) {
			ref = ref[i+1:]
		}
		ref = strings.ToLower(strings.Trim(strings.TrimSpace(ref), `"`))
		tables = append(tables, ref)
	}
	return tables
}

func insideQuotes(s string, idx int) bool {
	return strings.Count(s[:idx], `"`)%2 == 1
}

func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	pattern := `(?i)(^|[^A-Za-z0-9_])` + regexp.QuoteMeta(word) + `($|[^A-Za-z0-9_])`
	return regexp.MustCompile(pattern).MatchString(text)
}

func stripQuotes(s string) string {
	return strings.NewReplacer(`'`, "", `"`, "").Replace(s)
}
