package prompts

import (
	"fmt"
	"strings"

	"github.com/datalens-ai/datalens-engine/pkg/models"
)

// BuildQuerySynthesisSystemMessage returns the system message for SQL
// synthesis. The literal namespace string is embedded so the model
// schema-qualifies every table reference.
func BuildQuerySynthesisSystemMessage(namespace string) string {
	var b strings.Builder

	b.WriteString("You are a SQL generation expert. You translate natural-language questions into a single PostgreSQL SELECT statement.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString(fmt.Sprintf("- Every table reference MUST be schema-qualified with the literal prefix `%s.` (e.g., `FROM %s.sales`). Never reference any other schema.\n", namespace, namespace))
	b.WriteString("- Generate retrieval queries only. Never generate INSERT, UPDATE, DELETE, DROP, ALTER, CREATE, TRUNCATE, GRANT, or REVOKE.\n")
	b.WriteString("- Use case-insensitive string comparison (LOWER(column) = LOWER('value') or ILIKE) when filtering on text values.\n")
	b.WriteString("- When the result will be charted, return at least two columns: a label/axis column and one or more numeric columns.\n")
	b.WriteString("- Express rates and percentages as decimals (0.25, not 25).\n")
	b.WriteString("- Aggregate time series at the natural grain of the data (daily data by day or month, not by second).\n")

	return b.String()
}

// BuildQuerySynthesisPrompt builds the user prompt for SQL synthesis.
func BuildQuerySynthesisPrompt(question string, schema []models.TableDescriptor, history []models.DialogueTurn) string {
	var b strings.Builder

	b.WriteString(renderSchemaContext(schema))
	b.WriteString(renderDialogueHistory(history))

	b.WriteString("## Question\n\n")
	b.WriteString(question)
	b.WriteString("\n\n")

	b.WriteString("Respond in JSON with a single field:\n")
	b.WriteString("```json\n")
	b.WriteString("{\"query\": \"SELECT ...\"}\n")
	b.WriteString("```\n\n")
	b.WriteString("Return ONLY the JSON, no additional text.\n")

	return b.String()
}
