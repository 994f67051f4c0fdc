package prompts

import (
	"fmt"
	"strings"

	"github.com/datalens-ai/datalens-engine/pkg/models"
)

// BuildRefinePromptSystemMessage returns the system message for the prompt
// refinement stage.
func BuildRefinePromptSystemMessage() string {
	return `You rewrite analysis requests so they explicitly ask for every component a report template requires. Keep the user's original intent; add what is missing.`
}

// BuildRefinePrompt asks the model to rewrite the user's request around the
// style's required components.
func BuildRefinePrompt(userPrompt string, style *models.ReportStyle) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("The report will use the %q template, which requires these components:\n", style.Title))
	for _, component := range style.RequiredComponents {
		b.WriteString("- ")
		b.WriteString(component)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("## Original Request\n\n")
	b.WriteString(userPrompt)
	b.WriteString("\n\n")

	b.WriteString("Rewrite the request so it explicitly asks for each required component. ")
	b.WriteString("Return ONLY the rewritten request text, no preamble.\n")

	return b.String()
}

// BuildSQLBatchSystemMessage returns the system message for batch SQL
// generation, sharing the synthesis rules with the single-query path.
func BuildSQLBatchSystemMessage(namespace string) string {
	return BuildQuerySynthesisSystemMessage(namespace)
}

// BuildSQLBatchPrompt asks for an ordered set of purposed queries that
// together cover the analysis request.
func BuildSQLBatchPrompt(analysisPrompt string, schema []models.TableDescriptor) string {
	var b strings.Builder

	b.WriteString(renderSchemaContext(schema))

	b.WriteString("## Analysis Request\n\n")
	b.WriteString(analysisPrompt)
	b.WriteString("\n\n")

	b.WriteString("Produce 3 to 6 SELECT queries that together answer the request. ")
	b.WriteString("Each query serves one stated purpose: an overview, a breakdown, a trend, an outlier check.\n\n")

	b.WriteString("Respond in JSON:\n")
	b.WriteString("```json\n")
	b.WriteString(`{"queries": [{"purpose": "monthly sales trend", "query": "SELECT ..."}]}`)
	b.WriteString("\n```\n\n")
	b.WriteString("Return ONLY the JSON, no additional text.\n")

	return b.String()
}

// BuildAnalyzeDataSystemMessage returns the system message for the data
// analysis stage.
func BuildAnalyzeDataSystemMessage() string {
	return `You are a senior data analyst. You summarize query results with statistical rigor: identify magnitudes, trends, distributions, and outliers, and compare against common benchmarks where the domain makes that meaningful.`
}

// BuildAnalyzeDataPrompt summarizes the successful batch results for
// analysis. Failed entries are listed by purpose so the analysis can note
// gaps instead of inventing data.
func BuildAnalyzeDataPrompt(analysisPrompt string, results []models.BatchQueryResult) string {
	var b strings.Builder

	b.WriteString("## Analysis Request\n\n")
	b.WriteString(analysisPrompt)
	b.WriteString("\n\n")

	b.WriteString("## Query Results\n\n")
	for _, result := range results {
		b.WriteString(fmt.Sprintf("### %s\n", result.Purpose))
		if result.Failed() {
			b.WriteString(fmt.Sprintf("Unavailable: %s\n\n", result.Error))
			continue
		}
		b.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(result.Columns, ", ")))
		for _, row := range result.Data {
			b.WriteString("- ")
			b.WriteString(compactJSON(row))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Write an analytical summary of this data. Cover each available result set; note explicitly which requested data was unavailable. Free text, no JSON.\n")

	return b.String()
}

// BuildPlanReportSystemMessage returns the system message for report
// planning.
func BuildPlanReportSystemMessage() string {
	return `You are a report architect. You design clear report outlines: sections, their order, and what each should contain.`
}

// BuildPlanReportPrompt builds the outline prompt from the style, the
// request, and the analysis summary.
func BuildPlanReportPrompt(analysisPrompt, analysisSummary string, style *models.ReportStyle) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Design a report outline for a %q report.\n\n", style.Title))
	if len(style.RequiredComponents) > 0 {
		b.WriteString("The outline must include sections covering:\n")
		for _, component := range style.RequiredComponents {
			b.WriteString("- ")
			b.WriteString(component)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Request\n\n")
	b.WriteString(analysisPrompt)
	b.WriteString("\n\n")

	b.WriteString("## Data Analysis\n\n")
	b.WriteString(analysisSummary)
	b.WriteString("\n\n")

	b.WriteString("Return the outline as free text: numbered sections with one line describing each.\n")

	return b.String()
}

// BuildInsightsSystemMessage returns the system message for insight
// generation.
func BuildInsightsSystemMessage() string {
	return `You turn data analysis into actionable recommendations. Every recommendation must be grounded in a specific observation from the analysis, never generic advice.`
}

// BuildInsightsPrompt builds the recommendations prompt from the plan and
// the analysis.
func BuildInsightsPrompt(plan, analysisSummary string) string {
	var b strings.Builder

	b.WriteString("## Report Plan\n\n")
	b.WriteString(plan)
	b.WriteString("\n\n")

	b.WriteString("## Data Analysis\n\n")
	b.WriteString(analysisSummary)
	b.WriteString("\n\n")

	b.WriteString("Write the key insights and recommendations this report should deliver. Free text, no JSON.\n")

	return b.String()
}

// BuildChartSuggestionsSystemMessage returns the system message for the
// chart suggestion stage.
func BuildChartSuggestionsSystemMessage() string {
	return BuildChartSystemMessage()
}

// BuildChartSuggestionsPrompt asks for chart configurations over the
// successful batch results.
func BuildChartSuggestionsPrompt(results []models.BatchQueryResult) string {
	var b strings.Builder

	b.WriteString("## Available Data Sets\n\n")
	for _, result := range results {
		if result.Failed() {
			continue
		}
		b.WriteString(fmt.Sprintf("### %s\n", result.Purpose))
		b.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(result.Columns, ", ")))
		for _, row := range result.Data {
			b.WriteString("- ")
			b.WriteString(compactJSON(row))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Suggest a chart for each data set worth visualizing. The `purpose` field ties a chart to its data set.\n\n")
	b.WriteString("Respond in JSON:\n")
	b.WriteString("```json\n")
	b.WriteString(`{"charts": [{"purpose": "monthly sales trend", "type": "line", "xKey": "month", "yKeys": ["amount"], "legend": false}]}`)
	b.WriteString("\n```\n\n")
	b.WriteString("Return ONLY the JSON, no additional text.\n")

	return b.String()
}

// BuildAssembleReportSystemMessage returns the system message for the final
// report assembly stage.
func BuildAssembleReportSystemMessage() string {
	return `You write polished analytical reports as clean HTML body markup (h1, h2, p, ul, table). No <html> or <head> wrapper, no scripts, no inline styles.`
}

// BuildAssembleReportPrompt builds the final assembly prompt. Charts are
// referenced by textual marker; rendering happens outside the engine.
func BuildAssembleReportPrompt(analysisPrompt, plan, analysisSummary, insights string, charts []models.ChartWithData, style *models.ReportStyle) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Write the full %q report following this plan.\n\n", style.Title))

	b.WriteString("## Plan\n\n")
	b.WriteString(plan)
	b.WriteString("\n\n")

	b.WriteString("## Request\n\n")
	b.WriteString(analysisPrompt)
	b.WriteString("\n\n")

	b.WriteString("## Data Analysis\n\n")
	b.WriteString(analysisSummary)
	b.WriteString("\n\n")

	b.WriteString("## Insights\n\n")
	b.WriteString(insights)
	b.WriteString("\n\n")

	if len(charts) > 0 {
		b.WriteString("## Charts\n\n")
		b.WriteString("These charts exist and will be rendered externally. Reference each where it belongs using the exact marker shown; never embed images or chart markup.\n")
		for i, chart := range charts {
			b.WriteString(fmt.Sprintf("- [CHART-%d]: %s (%s)\n", i+1, chart.Purpose, chart.Spec.Type))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("Start with an <h1> title for the %s. ", style.Title))
	b.WriteString("Return ONLY the HTML body markup, no code fences, no commentary.\n")

	return b.String()
}
