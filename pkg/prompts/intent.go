package prompts

import (
	"strings"

	"github.com/datalens-ai/datalens-engine/pkg/models"
)

// BuildIntentSystemMessage returns the system message for intent
// classification.
func BuildIntentSystemMessage() string {
	return `You classify user messages in a data analysis conversation. Decide whether the message asks a question about the user's data (requiring a database query) or is conversational (greetings, thanks, questions about the assistant itself).`
}

// BuildIntentPrompt builds the classification prompt from the question, the
// available tables, and recent dialogue.
func BuildIntentPrompt(question string, schema []models.TableDescriptor, history []models.DialogueTurn) string {
	var b strings.Builder

	if len(schema) > 0 {
		b.WriteString("The user has these tables available:\n")
		for _, table := range schema {
			b.WriteString("- ")
			b.WriteString(table.Name)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(renderDialogueHistory(history))

	b.WriteString("## Message to Classify\n\n")
	b.WriteString(question)
	b.WriteString("\n\n")

	b.WriteString("Respond in JSON:\n")
	b.WriteString("```json\n")
	b.WriteString("{\"intent\": \"DATABASE_QUERY\" or \"CONVERSATION\", \"explanation\": \"brief reason\"}\n")
	b.WriteString("```\n\n")
	b.WriteString("Return ONLY the JSON, no additional text.\n")

	return b.String()
}

// BuildConversationPrompt builds the prompt for a conversational (non-query)
// turn.
func BuildConversationPrompt(question string, history []models.DialogueTurn) string {
	var b strings.Builder

	b.WriteString(renderDialogueHistory(history))
	b.WriteString(question)
	b.WriteString("\n")

	return b.String()
}
