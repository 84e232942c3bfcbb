// Package prompts builds the model prompts for each stage of a text-to-SQL run.
// Every builder is deterministic: the same inputs always produce the same text.
package prompts

// IntentSystemPrompt instructs the model to read a question into a JSON intent object.
const IntentSystemPrompt = `You are an expert in understanding database query intentions.
Analyze the user's natural language query and extract key information.
Your output should be a JSON object with these fields:
- correction: A corrected version of the query with typos fixed
- tables: Array of table names likely needed (e.g., "customers", "orders")
- filters: Object with column names and values to filter by (e.g., {"city": "Casablanca"})
- actions: Simple description of the query intent (e.g., "list", "count", "find", "show")
- language: Either "english" or "french"

For example:
Query: "show me all cutomers from casablanca"
Response: {
  "correction": "show me all customers from casablanca",
  "tables": ["customers"],
  "filters": {"city": "Casablanca"},
  "actions": "list",
  "language": "english"
}`

// BuildIntentPrompt returns the system and user messages for intent analysis.
func BuildIntentPrompt(question string) (system, user string) {
	return IntentSystemPrompt, "Analyze this query: " + question
}
