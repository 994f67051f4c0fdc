package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datalens-ai/datalens-engine/pkg/models"
)

func sampleSchema() []models.TableDescriptor {
	return []models.TableDescriptor{
		{
			Name: "sales",
			Columns: []models.ColumnDescriptor{
				{Name: "month", DataType: "TEXT"},
				{Name: "amount", DataType: "NUMERIC", Nullable: true},
			},
			SampleRows: []map[string]any{{"month": "2026-01", "amount": 1200}},
		},
	}
}

func TestQuerySynthesisSystemMessage_EmbedsNamespace(t *testing.T) {
	msg := BuildQuerySynthesisSystemMessage("user_42")

	assert.Contains(t, msg, "user_42.")
	assert.Contains(t, msg, "FROM user_42.sales")
	assert.Contains(t, msg, "TRUNCATE")
}

func TestQuerySynthesisPrompt_IncludesSchemaAndHistory(t *testing.T) {
	history := []models.DialogueTurn{
		{Role: "user", Content: "show me sales"},
		{Role: "assistant", Content: "here are your sales"},
	}

	prompt := BuildQuerySynthesisPrompt("total by month", sampleSchema(), history)

	assert.Contains(t, prompt, "### sales")
	assert.Contains(t, prompt, "amount (NUMERIC, nullable)")
	assert.Contains(t, prompt, `"month":"2026-01"`)
	assert.Contains(t, prompt, "show me sales")
	assert.Contains(t, prompt, `{"query": "SELECT ..."}`)
}

func TestIntentPrompt_ListsTables(t *testing.T) {
	prompt := BuildIntentPrompt("hello there", sampleSchema(), nil)

	assert.Contains(t, prompt, "- sales")
	assert.Contains(t, prompt, "DATABASE_QUERY")
	assert.Contains(t, prompt, "CONVERSATION")
}

func TestChartPrompt_IncludesRowsAndColumns(t *testing.T) {
	result := &models.QueryResult{
		Columns: []string{"month", "amount"},
		Rows:    []map[string]any{{"month": "2026-01", "amount": 1200}},
	}

	prompt := BuildChartPrompt("total by month", result)

	assert.Contains(t, prompt, "Columns: month, amount")
	assert.Contains(t, prompt, `"amount":1200`)
}

func TestRefinePrompt_ListsRequiredComponents(t *testing.T) {
	style := &models.ReportStyle{
		Name:               "downtime_analysis",
		Title:              "Downtime Analysis",
		RequiredComponents: []string{"failure patterns", "root causes", "recovery procedures"},
	}

	prompt := BuildRefinePrompt("analyze machine downtime", style)

	assert.Contains(t, prompt, "Downtime Analysis")
	for _, component := range style.RequiredComponents {
		assert.Contains(t, prompt, component)
	}
}

func TestAnalyzeDataPrompt_MarksFailedEntries(t *testing.T) {
	results := []models.BatchQueryResult{
		{Purpose: "overview", Columns: []string{"n"}, Data: []map[string]any{{"n": 1}}},
		{Purpose: "trend", Error: `column "revnue" does not exist`},
	}

	prompt := BuildAnalyzeDataPrompt("analyze sales", results)

	assert.Contains(t, prompt, "### overview")
	assert.Contains(t, prompt, "Unavailable")
	assert.Contains(t, prompt, "revnue")
}

func TestChartSuggestionsPrompt_SkipsFailedEntries(t *testing.T) {
	results := []models.BatchQueryResult{
		{Purpose: "overview", Columns: []string{"n"}, Data: []map[string]any{{"n": 1}}},
		{Purpose: "broken", Error: "boom"},
	}

	prompt := BuildChartSuggestionsPrompt(results)

	assert.Contains(t, prompt, "### overview")
	assert.NotContains(t, prompt, "broken")
}

func TestAssembleReportPrompt_ReferencesChartsByMarker(t *testing.T) {
	charts := []models.ChartWithData{
		{Purpose: "monthly sales trend", Spec: models.ChartSpec{Type: "line"}},
		{Purpose: "top products", Spec: models.ChartSpec{Type: "bar"}},
	}
	style := &models.ReportStyle{Name: "generic", Title: "Analysis Report"}

	prompt := BuildAssembleReportPrompt("req", "plan", "analysis", "insights", charts, style)

	assert.Contains(t, prompt, "[CHART-1]: monthly sales trend (line)")
	assert.Contains(t, prompt, "[CHART-2]: top products (bar)")
	assert.True(t, strings.Contains(prompt, "<h1>"))
}
