package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"query": "SELECT 1"}`,
			want:  `{"query": "SELECT 1"}`,
		},
		{
			name:  "markdown fenced",
			input: "```json\n{\"query\": \"SELECT 1\"}\n```",
			want:  `{"query": "SELECT 1"}`,
		},
		{
			name:  "think tags then object",
			input: "<think>reasoning here</think>\n{\"intent\": \"DATABASE_QUERY\"}",
			want:  `{"intent": "DATABASE_QUERY"}`,
		},
		{
			name:  "prose around object",
			input: "Here is the result:\n{\"a\": 1}\nHope that helps!",
			want:  `{"a": 1}`,
		},
		{
			name:  "array",
			input: `[{"purpose": "totals"}, {"purpose": "trend"}]`,
			want:  `[{"purpose": "totals"}, {"purpose": "trend"}]`,
		},
		{
			name:  "braces inside string literals",
			input: `{"query": "SELECT '{' || col FROM t"}`,
			want:  `{"query": "SELECT '{' || col FROM t"}`,
		},
		{
			name:    "no json",
			input:   "I cannot answer that.",
			wantErr: true,
		},
		{
			name:    "unbalanced",
			input:   `{"query": "SELECT 1"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	type queryOut struct {
		Query string `json:"query"`
	}

	out, err := ParseJSONResponse[queryOut]("```json\n{\"query\": \"SELECT a FROM t\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "SELECT a FROM t", out.Query)

	_, err = ParseJSONResponse[queryOut]("no json here")
	assert.Error(t, err)

	// Valid JSON, wrong shape: unmarshal into struct ignores unknown fields,
	// mismatched types fail.
	_, err = ParseJSONResponse[queryOut](`{"query": 42}`)
	assert.Error(t, err)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "<h1>Report</h1>", StripCodeFences("```html\n<h1>Report</h1>\n```"))
	assert.Equal(t, "<h1>Report</h1>", StripCodeFences("<h1>Report</h1>"))
	assert.Equal(t, "plain", StripCodeFences("```\nplain\n```"))
}
