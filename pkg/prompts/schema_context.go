// Package prompts builds every LLM prompt the engine sends: query synthesis,
// intent classification, chart configuration, and the deep-analysis stages.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/datalens-ai/datalens-engine/pkg/models"
)

// renderSchemaContext formats table descriptors as a markdown section shared
// by several prompts.
func renderSchemaContext(tables []models.TableDescriptor) string {
	var b strings.Builder

	b.WriteString("## Available Tables\n\n")
	for _, table := range tables {
		b.WriteString(fmt.Sprintf("### %s\n", table.Name))
		b.WriteString("Columns:\n")
		for _, col := range table.Columns {
			nullability := "NOT NULL"
			if col.Nullable {
				nullability = "nullable"
			}
			b.WriteString(fmt.Sprintf("- %s (%s, %s)\n", col.Name, col.DataType, nullability))
		}
		if len(table.SampleRows) > 0 {
			b.WriteString("Sample rows:\n")
			for _, row := range table.SampleRows {
				b.WriteString("- ")
				b.WriteString(compactJSON(row))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// renderDialogueHistory formats prior turns, most recent last.
func renderDialogueHistory(history []models.DialogueTurn) string {
	if len(history) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Conversation So Far\n\n")
	for _, turn := range history {
		b.WriteString(fmt.Sprintf("%s: %s\n", turn.Role, turn.Content))
	}
	b.WriteString("\n")
	return b.String()
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
