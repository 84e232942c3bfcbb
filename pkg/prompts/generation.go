package prompts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anass1209/NL2SQL/pkg/models"
)

// DefaultPromptSampleRows is how many sample rows per table go into the prompt.
const DefaultPromptSampleRows = 3

// GenerationInput is everything the SQL generation prompt is grounded on.
type GenerationInput struct {
	Question   string
	Intent     *models.IntentRecord
	Schema     models.SchemaMap
	Samples    models.SampleSet
	SampleRows int
}

const generationRules = `CRITICAL RULES:
1. Generate ONLY a valid PostgreSQL SQL query that matches the user's intent.
2. The query MUST use only tables and columns that exist in the schema.
3. Filters should match the user's request exactly (e.g., city='Casablanca' if asked for Casablanca).
4. Use the correct case for table and column names as shown in the schema.
5. Include appropriate JOINs only if needed to fulfill the query.
6. Return only the SQL query string with no additional text or explanation.
7. End the query with a semicolon.
8. If a filter value is mentioned in the query, make sure to include it with proper SQL syntax.
9. Write a single SELECT statement. Never modify data.`

// BuildGenerationPrompt returns the system and user messages for SQL generation.
func BuildGenerationPrompt(in GenerationInput) (system, user string) {
	intent := in.Intent
	if intent == nil {
		intent = models.DefaultIntent()
	}

	var b strings.Builder
	b.WriteString("You are an expert PostgreSQL SQL generator.\n")
	b.WriteString("Your task is to generate a valid SQL query based on the user's natural language request.\n\n")
	b.WriteString(FormatIntent(intent, in.Question))
	b.WriteString("\n")
	b.WriteString(in.Schema.Format())
	b.WriteString("\n")
	b.WriteString(FormatSamples(intent.Tables, in.Samples, in.SampleRows))
	b.WriteString("\n")
	b.WriteString(generationRules)
	b.WriteString("\n\nExamples:\n")
	b.WriteString(SelectExamples(intent))

	return b.String(), "Generate a SQL query for: " + in.Question
}

// FormatIntent restates the intent in prose.
func FormatIntent(intent *models.IntentRecord, question string) string {
	tables := "none identified"
	if len(intent.Tables) > 0 {
		tables = strings.Join(intent.Tables, ", ")
	}

	var b strings.Builder
	b.WriteString("User query intent analysis:\n")
	fmt.Fprintf(&b, "- Corrected query: %s\n", intent.CorrectedOr(question))
	fmt.Fprintf(&b, "- Likely tables needed: %s\n", tables)
	fmt.Fprintf(&b, "- Requested filters: %s\n", FormatFilters(intent.Filters))
	fmt.Fprintf(&b, "- Query action: %s\n", intent.Action)
	fmt.Fprintf(&b, "- Query language: %s\n", intent.Language)
	return b.String()
}

// FormatFilters renders filters as `col = "value"` pairs in column order.
func FormatFilters(filters map[string]string) string {
	if len(filters) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s = %q", k, filters[k])
	}
	return strings.Join(parts, ", ")
}

// FormatSamples renders up to limit sampled rows for each listed table as a
// markdown table. Tables without samples are skipped.
func FormatSamples(tables []string, samples models.SampleSet, limit int) string {
	if limit <= 0 {
		limit = DefaultPromptSampleRows
	}

	var b strings.Builder
	b.WriteString("Sample data from relevant tables:\n")
	for _, table := range tables {
		rows := samples.Rows(table)
		if len(rows) == 0 {
			continue
		}
		if len(rows) > limit {
			rows = rows[:limit]
		}
		cols := rows[0].Columns

		fmt.Fprintf(&b, "\nTable %s (first %d rows):\n", table, len(rows))
		b.WriteString("| " + strings.Join(cols, " | ") + " |\n")
		b.WriteString("|" + strings.Repeat(" --- |", len(cols)) + "\n")
		for _, row := range rows {
			cells := make([]string, len(cols))
			for i, c := range cols {
				cells[i] = formatCell(row.Get(c))
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	}
	return b.String()
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\n", " ", "\r", " ")

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return cellReplacer.Replace(t)
	case []byte:
		return cellReplacer.Replace(string(t))
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return cellReplacer.Replace(fmt.Sprint(t))
	}
}
