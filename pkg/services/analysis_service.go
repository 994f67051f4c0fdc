package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datalens-ai/datalens-engine/pkg/adapters/datasource"
	"github.com/datalens-ai/datalens-engine/pkg/apperrors"
	"github.com/datalens-ai/datalens-engine/pkg/config"
	"github.com/datalens-ai/datalens-engine/pkg/llm"
	"github.com/datalens-ai/datalens-engine/pkg/metrics"
	"github.com/datalens-ai/datalens-engine/pkg/models"
	"github.com/datalens-ai/datalens-engine/pkg/prompts"
	"github.com/datalens-ai/datalens-engine/pkg/sqlgate"
	"github.com/datalens-ai/datalens-engine/pkg/tenant"
)

// Pipeline stage names, in execution order.
const (
	StageRefinePrompt     = "refine_prompt"
	StageGenerateSQLBatch = "generate_sql_batch"
	StageExecuteSQLBatch  = "execute_sql_batch"
	StageAnalyzeData      = "analyze_data"
	StagePlanReport       = "plan_report"
	StageGenerateInsights = "generate_insights"
	StageSuggestCharts    = "suggest_charts"
	StageAssembleReport   = "assemble_report"
)

// AnalysisRequest starts one deep-analysis run.
type AnalysisRequest struct {
	Prompt         string   `json:"prompt"`
	Style          string   `json:"style"`
	TableSelection []string `json:"tables,omitempty"`
}

// AnalysisService runs the multi-stage report pipeline.
type AnalysisService interface {
	Run(ctx context.Context, tenantID string, req *AnalysisRequest) (*models.ReportArtifact, error)
}

type analysisService struct {
	client   llm.Client
	resolver SchemaResolver
	gate     *sqlgate.Gate
	executor datasource.SQLExecutor
	styles   *models.StyleRegistry
	pool     *llm.WorkerPool
	llmCfg   *config.LLMConfig
	logger   *zap.Logger
}

// NewAnalysisService creates the deep-analysis pipeline driver.
func NewAnalysisService(
	client llm.Client,
	resolver SchemaResolver,
	gate *sqlgate.Gate,
	executor datasource.SQLExecutor,
	styles *models.StyleRegistry,
	pool *llm.WorkerPool,
	llmCfg *config.LLMConfig,
	logger *zap.Logger,
) AnalysisService {
	return &analysisService{
		client:   client,
		resolver: resolver,
		gate:     gate,
		executor: executor,
		styles:   styles,
		pool:     pool,
		llmCfg:   llmCfg,
		logger:   logger.Named("analysis-service"),
	}
}

// pipelineRun carries the accumulated context of one run through the stage
// chain. Owned exclusively by the run that created it.
type pipelineRun struct {
	id        uuid.UUID
	tenantID  string
	namespace string
	style     *models.ReportStyle

	prompt        string // original user prompt
	refinedPrompt string // style-refined, empty if refinement skipped/failed

	schema  []models.TableDescriptor
	queries []models.BatchQuery
	results []models.BatchQueryResult

	analysis string
	plan     string
	insights string
	charts   []models.ChartWithData
	html     string
}

// effectivePrompt is the refined prompt when refinement succeeded, the
// original otherwise.
func (r *pipelineRun) effectivePrompt() string {
	if r.refinedPrompt != "" {
		return r.refinedPrompt
	}
	return r.prompt
}

func (s *analysisService) Run(ctx context.Context, tenantID string, req *AnalysisRequest) (*models.ReportArtifact, error) {
	if req.Prompt == "" {
		return nil, apperrors.NewInputValidation("prompt", "must not be empty")
	}

	metrics.PipelineRunStarted()
	defer metrics.PipelineRunFinished()

	run := &pipelineRun{
		id:        uuid.New(),
		tenantID:  tenantID,
		namespace: tenant.Namespace(tenantID),
		style:     s.styles.Get(req.Style),
		prompt:    req.Prompt,
	}
	s.logger.Info("pipeline run started",
		zap.String("run_id", run.id.String()),
		zap.String("tenant", tenantID),
		zap.String("style", run.style.Name))

	schema, err := s.resolver.Resolve(ctx, tenantID, req.TableSelection)
	if err != nil {
		metrics.ObservePipelineRun(metrics.OutcomeFailed)
		return nil, err
	}
	if len(schema) == 0 {
		metrics.ObservePipelineRun(metrics.OutcomeFailed)
		return nil, apperrors.ErrNoData
	}
	run.schema = schema

	// The stage chain is strictly sequential. Fatal stages abort the run;
	// non-fatal stages log and continue with degraded output.
	stages := []struct {
		name  string
		fatal bool
		fn    func(context.Context, *pipelineRun) error
	}{
		{StageRefinePrompt, false, s.refinePrompt},
		{StageGenerateSQLBatch, true, s.generateSQLBatch},
		{StageExecuteSQLBatch, true, s.executeSQLBatch},
		{StageAnalyzeData, true, s.analyzeData},
		{StagePlanReport, true, s.planReport},
		{StageGenerateInsights, true, s.generateInsights},
		{StageSuggestCharts, false, s.suggestCharts},
		{StageAssembleReport, true, s.assembleReport},
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			metrics.ObservePipelineRun(metrics.OutcomeFailed)
			return nil, apperrors.ErrCancelled
		}

		stageStart := time.Now()
		err := stage.fn(ctx, run)
		metrics.ObservePipelineStage(stage.name, time.Since(stageStart))

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				metrics.ObservePipelineRun(metrics.OutcomeFailed)
				return nil, apperrors.ErrCancelled
			}
			if stage.fatal {
				s.logger.Error("pipeline stage failed",
					zap.String("stage", stage.name),
					zap.String("tenant", tenantID),
					zap.Error(err))
				metrics.ObservePipelineRun(metrics.OutcomeFailed)
				return nil, apperrors.NewPipelineStage(stage.name, err)
			}
			s.logger.Warn("pipeline stage degraded",
				zap.String("stage", stage.name),
				zap.String("tenant", tenantID),
				zap.Error(err))
		}
	}

	metrics.ObservePipelineRun(metrics.OutcomeOK)
	return &models.ReportArtifact{
		RunID:            run.id,
		HTMLContent:      run.html,
		Charts:           run.charts,
		PromptRefinement: run.refinedPrompt,
	}, nil
}

// refinePrompt rewrites the user's prompt around the style's required
// components. Skipped for the generic style; failure is non-fatal.
func (s *analysisService) refinePrompt(ctx context.Context, run *pipelineRun) error {
	if run.style.IsGeneric() {
		return nil
	}

	completion, err := s.client.Complete(ctx,
		prompts.BuildRefinePromptSystemMessage(),
		prompts.BuildRefinePrompt(run.prompt, run.style),
		s.llmCfg.TextTemperature)
	if err != nil {
		return err
	}
	metrics.ObserveLLMTokens(completion.PromptTokens, completion.CompletionTokens)

	run.refinedPrompt = completion.Content
	return nil
}

type sqlBatchResponse struct {
	Queries []models.BatchQuery `json:"queries"`
}

func (s *analysisService) generateSQLBatch(ctx context.Context, run *pipelineRun) error {
	completion, err := s.client.Complete(ctx,
		prompts.BuildSQLBatchSystemMessage(run.namespace),
		prompts.BuildSQLBatchPrompt(run.effectivePrompt(), run.schema),
		s.llmCfg.Temperature)
	if err != nil {
		return apperrors.NewSynthesis("sql_batch", err)
	}
	metrics.ObserveLLMTokens(completion.PromptTokens, completion.CompletionTokens)

	parsed, err := llm.ParseJSONResponse[sqlBatchResponse](completion.Content)
	if err != nil {
		return apperrors.NewSynthesis("sql_batch", err)
	}
	if len(parsed.Queries) == 0 {
		return apperrors.NewSynthesis("sql_batch",
			fmt.Errorf("model returned an empty query batch"))
	}

	run.queries = parsed.Queries
	return nil
}

// executeSQLBatch gates and executes every batch query independently and
// concurrently. One failing query yields a failed entry, not an aborted
// batch; the stage fails only when nothing usable came back at all.
func (s *analysisService) executeSQLBatch(ctx context.Context, run *pipelineRun) error {
	items := make([]func(ctx context.Context) (models.BatchQueryResult, error), len(run.queries))
	for i, query := range run.queries {
		q := query
		items[i] = func(ctx context.Context) (models.BatchQueryResult, error) {
			return s.runBatchQuery(ctx, run.namespace, q), nil
		}
	}

	results := llm.ProcessOrdered(ctx, s.pool, items)

	run.results = make([]models.BatchQueryResult, len(results))
	usable := false
	for i, r := range results {
		if r.Err != nil {
			// Only context cancellation reaches here; query failures are
			// contained inside the entry.
			run.results[i] = models.BatchQueryResult{
				Purpose: run.queries[i].Purpose,
				Data:    []map[string]any{},
				Columns: []string{},
				Error:   r.Err.Error(),
			}
			continue
		}
		run.results[i] = r.Result
		if !r.Result.Failed() && len(r.Result.Data) > 0 {
			usable = true
		}
	}

	if !usable {
		return apperrors.ErrNoData
	}
	return nil
}

func (s *analysisService) runBatchQuery(ctx context.Context, namespace string, query models.BatchQuery) models.BatchQueryResult {
	entry := models.BatchQueryResult{
		Purpose: query.Purpose,
		Data:    []map[string]any{},
		Columns: []string{},
	}

	validated := s.gate.Validate(query.Query, namespace)
	if !validated.IsValid {
		entry.Error = validated.ErrorReason
		return entry
	}

	result, err := s.executor.Execute(ctx, validated.SQLText)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}

	entry.Data = result.Rows
	entry.Columns = result.Columns
	return entry
}

func (s *analysisService) analyzeData(ctx context.Context, run *pipelineRun) error {
	completion, err := s.client.Complete(ctx,
		prompts.BuildAnalyzeDataSystemMessage(),
		prompts.BuildAnalyzeDataPrompt(run.effectivePrompt(), run.results),
		s.llmCfg.TextTemperature)
	if err != nil {
		return err
	}
	metrics.ObserveLLMTokens(completion.PromptTokens, completion.CompletionTokens)

	run.analysis = completion.Content
	return nil
}

func (s *analysisService) planReport(ctx context.Context, run *pipelineRun) error {
	completion, err := s.client.Complete(ctx,
		prompts.BuildPlanReportSystemMessage(),
		prompts.BuildPlanReportPrompt(run.effectivePrompt(), run.analysis, run.style),
		s.llmCfg.TextTemperature)
	if err != nil {
		return err
	}
	metrics.ObserveLLMTokens(completion.PromptTokens, completion.CompletionTokens)

	run.plan = completion.Content
	return nil
}

func (s *analysisService) generateInsights(ctx context.Context, run *pipelineRun) error {
	completion, err := s.client.Complete(ctx,
		prompts.BuildInsightsSystemMessage(),
		prompts.BuildInsightsPrompt(run.plan, run.analysis),
		s.llmCfg.TextTemperature)
	if err != nil {
		return err
	}
	metrics.ObserveLLMTokens(completion.PromptTokens, completion.CompletionTokens)

	run.insights = completion.Content
	return nil
}

type chartSuggestion struct {
	Purpose string   `json:"purpose"`
	Type    string   `json:"type"`
	XKey    string   `json:"xKey"`
	YKeys   []string `json:"yKeys"`
	Legend  bool     `json:"legend"`
}

type chartSuggestionsResponse struct {
	Charts []chartSuggestion `json:"charts"`
}

// suggestCharts is best-effort: any failure degrades to a report without
// charts.
func (s *analysisService) suggestCharts(ctx context.Context, run *pipelineRun) error {
	completion, err := s.client.Complete(ctx,
		prompts.BuildChartSuggestionsSystemMessage(),
		prompts.BuildChartSuggestionsPrompt(run.results),
		s.llmCfg.Temperature)
	if err != nil {
		return err
	}
	metrics.ObserveLLMTokens(completion.PromptTokens, completion.CompletionTokens)

	parsed, err := llm.ParseJSONResponse[chartSuggestionsResponse](completion.Content)
	if err != nil {
		return err
	}

	dataByPurpose := make(map[string][]map[string]any, len(run.results))
	for _, result := range run.results {
		if !result.Failed() {
			dataByPurpose[result.Purpose] = result.Data
		}
	}

	for _, suggestion := range parsed.Charts {
		data, ok := dataByPurpose[suggestion.Purpose]
		if !ok {
			continue
		}
		spec := models.ChartSpec{
			Type:  suggestion.Type,
			XKey:  suggestion.XKey,
			YKeys: suggestion.YKeys,
		}
		spec.ApplyPalette()
		run.charts = append(run.charts, models.ChartWithData{
			Purpose: suggestion.Purpose,
			Spec:    spec,
			Data:    data,
		})
	}

	return nil
}

func (s *analysisService) assembleReport(ctx context.Context, run *pipelineRun) error {
	completion, err := s.client.Complete(ctx,
		prompts.BuildAssembleReportSystemMessage(),
		prompts.BuildAssembleReportPrompt(
			run.effectivePrompt(), run.plan, run.analysis, run.insights,
			run.charts, run.style),
		s.llmCfg.TextTemperature)
	if err != nil {
		return err
	}
	metrics.ObserveLLMTokens(completion.PromptTokens, completion.CompletionTokens)

	run.html = SanitizeReportHTML(completion.Content, run.style.Title)
	if run.html == "" {
		return fmt.Errorf("report assembly produced empty output")
	}
	return nil
}
