package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/anass1209/NL2SQL/pkg/models"
)

// RepairInput is the context handed to the repair prompt.
type RepairInput struct {
	SQL        string
	Diagnostic string
	Intent     *models.IntentRecord
	SchemaText string
	// SimilarTables maps a table the statement referenced but the schema lacks
	// to schema tables with a matching singular/plural form.
	SimilarTables map[string][]string
}

// BuildRepairPrompt returns the system and user messages for the repair pass.
func BuildRepairPrompt(in RepairInput) (system, user string) {
	intent := in.Intent
	if intent == nil {
		intent = models.DefaultIntent()
	}

	correction := intent.CorrectedText
	if correction == "" {
		correction = "Unknown"
	}

	var b strings.Builder
	b.WriteString("You are an expert PostgreSQL error fixer.\n")
	b.WriteString("Your task is to fix an invalid SQL query based on the error message and the database schema.\n\n")
	b.WriteString(in.SchemaText)
	fmt.Fprintf(&b, "\nOriginal SQL Query:\n%s\n", in.SQL)
	fmt.Fprintf(&b, "\nError/Issue:\n%s\n", in.Diagnostic)
	fmt.Fprintf(&b, "\nUser's Intent:\n%s\n", correction)
	fmt.Fprintf(&b, "Tables likely needed: %s\n", strings.Join(intent.Tables, ", "))
	fmt.Fprintf(&b, "Filters requested: %s\n", FormatFilters(intent.Filters))

	if len(in.SimilarTables) > 0 {
		b.WriteString("\nTables that exist with a similar name:\n")
		for _, missing := range sortedKeys(in.SimilarTables) {
			fmt.Fprintf(&b, "- %s -> %s\n", missing, strings.Join(in.SimilarTables[missing], ", "))
		}
	}

	b.WriteString(`
Fix the SQL query to:
1. Use only tables and columns that exist in the schema
2. Include all the filters requested by the user
3. Keep the query structure as close as possible to the original
4. Return ONLY the fixed SQL query with no additional text
`)

	return b.String(), "Fix the SQL query:"
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
