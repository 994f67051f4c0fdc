package prompts

import (
	"fmt"
	"strings"

	"github.com/datalens-ai/datalens-engine/pkg/models"
)

// BuildChartSystemMessage returns the system message for chart configuration.
func BuildChartSystemMessage() string {
	return `You are a data visualization expert. Given tabular query results and the question they answer, you choose the most appropriate chart configuration.`
}

// BuildChartPrompt builds the chart configuration prompt. Callers truncate
// the result rows before invoking this; the full set never reaches the model.
func BuildChartPrompt(question string, result *models.QueryResult) string {
	var b strings.Builder

	b.WriteString("## Question\n\n")
	b.WriteString(question)
	b.WriteString("\n\n")

	b.WriteString("## Query Results\n\n")
	b.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(result.Columns, ", ")))
	b.WriteString("Rows:\n")
	for _, row := range result.Rows {
		b.WriteString("- ")
		b.WriteString(compactJSON(row))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("Chart type guidance:\n")
	b.WriteString("- `line` for trends over time\n")
	b.WriteString("- `bar` for comparisons across categories\n")
	b.WriteString("- `pie` for proportions of a whole (single numeric column, few categories)\n")
	b.WriteString("- `scatter` for correlation between two numeric columns\n\n")

	b.WriteString("Respond in JSON:\n")
	b.WriteString("```json\n")
	b.WriteString(`{"type": "line", "xKey": "month", "yKeys": ["amount"], "legend": false}`)
	b.WriteString("\n```\n\n")
	b.WriteString("xKey must be one of the result columns; every yKey must be a numeric result column.\n")
	b.WriteString("Return ONLY the JSON, no additional text.\n")

	return b.String()
}
