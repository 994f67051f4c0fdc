// Package services orchestrates the engine's two top-level flows: the
// single-query turn and the deep-analysis report pipeline.
package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/datalens-ai/datalens-engine/pkg/adapters/datasource"
	"github.com/datalens-ai/datalens-engine/pkg/apperrors"
	"github.com/datalens-ai/datalens-engine/pkg/config"
	"github.com/datalens-ai/datalens-engine/pkg/llm"
	"github.com/datalens-ai/datalens-engine/pkg/logging"
	"github.com/datalens-ai/datalens-engine/pkg/metrics"
	"github.com/datalens-ai/datalens-engine/pkg/models"
	"github.com/datalens-ai/datalens-engine/pkg/prompts"
	"github.com/datalens-ai/datalens-engine/pkg/repositories"
	"github.com/datalens-ai/datalens-engine/pkg/sqlgate"
	"github.com/datalens-ai/datalens-engine/pkg/tenant"
)

// SchemaResolver builds per-turn schema context for a tenant.
type SchemaResolver interface {
	Resolve(ctx context.Context, tenantID string, tables []string) ([]models.TableDescriptor, error)
}

// QueryTurnResult is the outcome of one user turn.
type QueryTurnResult struct {
	Intent      models.Intent       `json:"intent"`
	Reply       string              `json:"reply,omitempty"` // conversational turns only
	SQL         string              `json:"sql,omitempty"`
	Result      *models.QueryResult `json:"result,omitempty"`
	Chart       *models.ChartSpec   `json:"chart,omitempty"`
	Explanation string              `json:"explanation,omitempty"`
}

// QueryService runs the natural-language-to-SQL turn: intent classification,
// synthesis, safety gating, execution, and chart configuration.
type QueryService interface {
	// Run executes one full user turn for a tenant.
	Run(ctx context.Context, tenantID string, req *models.QueryRequest) (*QueryTurnResult, error)

	// ClassifyIntent decides whether a turn needs database access. Errors
	// default to IntentDatabaseQuery.
	ClassifyIntent(ctx context.Context, req *models.QueryRequest) (models.Intent, string)

	// Synthesize produces a candidate SQL statement for a question.
	Synthesize(ctx context.Context, tenantID string, req *models.QueryRequest) (models.CandidateQuery, error)

	// SynthesizeChart derives a chart spec from executed results.
	SynthesizeChart(ctx context.Context, question string, result *models.QueryResult) (*models.ChartSpec, error)
}

type queryService struct {
	client        llm.Client
	resolver      SchemaResolver
	gate          *sqlgate.Gate
	executor      datasource.SQLExecutor
	history       repositories.QueryHistoryRepository
	llmCfg        *config.LLMConfig
	chartRowLimit int
	logger        *zap.Logger
}

// NewQueryService creates the query turn orchestrator. history may be nil;
// recording is then skipped entirely.
func NewQueryService(
	client llm.Client,
	resolver SchemaResolver,
	gate *sqlgate.Gate,
	executor datasource.SQLExecutor,
	history repositories.QueryHistoryRepository,
	llmCfg *config.LLMConfig,
	chartRowLimit int,
	logger *zap.Logger,
) QueryService {
	return &queryService{
		client:        client,
		resolver:      resolver,
		gate:          gate,
		executor:      executor,
		history:       history,
		llmCfg:        llmCfg,
		chartRowLimit: chartRowLimit,
		logger:        logger.Named("query-service"),
	}
}

func (s *queryService) Run(ctx context.Context, tenantID string, req *models.QueryRequest) (*QueryTurnResult, error) {
	if req.Question == "" {
		return nil, apperrors.NewInputValidation("question", "must not be empty")
	}

	started := time.Now()

	if len(req.SchemaContext) == 0 {
		schema, err := s.resolver.Resolve(ctx, tenantID, req.TableSelection)
		if err != nil {
			metrics.ObserveQuery(metrics.OutcomeFailed, time.Since(started))
			return nil, err
		}
		req.SchemaContext = schema
	}

	intent, explanation := s.ClassifyIntent(ctx, req)
	if intent == models.IntentConversation {
		reply, err := s.converse(ctx, req)
		if err != nil {
			metrics.ObserveQuery(metrics.OutcomeFailed, time.Since(started))
			return nil, err
		}
		metrics.ObserveQuery(metrics.OutcomeOK, time.Since(started))
		return &QueryTurnResult{Intent: intent, Reply: reply, Explanation: explanation}, nil
	}

	candidate, err := s.Synthesize(ctx, tenantID, req)
	if err != nil {
		metrics.ObserveQuery(metrics.OutcomeFailed, time.Since(started))
		return nil, err
	}

	namespace := tenant.Namespace(tenantID)
	validated := s.gate.Validate(candidate.SQLText, namespace)
	if !validated.IsValid {
		s.recordHistory(ctx, tenantID, req.Question, candidate.SQLText, "rejected", validated.ErrorReason, 0, started)
		metrics.ObserveQuery(metrics.OutcomeRejected, time.Since(started))
		return nil, &apperrors.SafetyRejection{Reason: validated.ErrorReason}
	}

	result, err := s.executor.Execute(ctx, validated.SQLText)
	if err != nil {
		s.recordHistory(ctx, tenantID, req.Question, validated.SQLText, "failed", err.Error(), 0, started)
		metrics.ObserveQuery(metrics.OutcomeFailed, time.Since(started))
		return nil, err
	}

	s.recordHistory(ctx, tenantID, req.Question, validated.SQLText, "ok", "", len(result.Rows), started)

	turn := &QueryTurnResult{
		Intent:      intent,
		SQL:         validated.SQLText,
		Result:      result,
		Explanation: explanation,
	}

	if chart, err := s.SynthesizeChart(ctx, req.Question, result); err != nil {
		// A missing chart degrades the turn, it doesn't fail it.
		s.logger.Warn("chart synthesis failed", zap.Error(err))
	} else {
		turn.Chart = chart
	}

	metrics.ObserveQuery(metrics.OutcomeOK, time.Since(started))
	return turn, nil
}

type intentResponse struct {
	Intent      string `json:"intent"`
	Explanation string `json:"explanation"`
}

func (s *queryService) ClassifyIntent(ctx context.Context, req *models.QueryRequest) (models.Intent, string) {
	completion, err := s.client.Complete(ctx,
		prompts.BuildIntentSystemMessage(),
		prompts.BuildIntentPrompt(req.Question, req.SchemaContext, req.DialogueHistory),
		s.llmCfg.Temperature)
	if err != nil {
		// Prefer attempting a query over silently ignoring a data question.
		s.logger.Warn("intent classification failed, defaulting to database query",
			zap.Error(err))
		return models.IntentDatabaseQuery, ""
	}
	metrics.ObserveLLMTokens(completion.PromptTokens, completion.CompletionTokens)

	parsed, err := llm.ParseJSONResponse[intentResponse](completion.Content)
	if err != nil {
		s.logger.Warn("intent response unparseable, defaulting to database query",
			zap.Error(err))
		return models.IntentDatabaseQuery, ""
	}

	if parsed.Intent == string(models.IntentConversation) {
		return models.IntentConversation, parsed.Explanation
	}
	return models.IntentDatabaseQuery, parsed.Explanation
}

type queryResponse struct {
	Query string `json:"query"`
}

func (s *queryService) Synthesize(ctx context.Context, tenantID string, req *models.QueryRequest) (models.CandidateQuery, error) {
	namespace := tenant.Namespace(tenantID)

	completion, err := s.client.Complete(ctx,
		prompts.BuildQuerySynthesisSystemMessage(namespace),
		prompts.BuildQuerySynthesisPrompt(req.Question, req.SchemaContext, req.DialogueHistory),
		s.llmCfg.Temperature)
	if err != nil {
		return models.CandidateQuery{}, apperrors.NewSynthesis("query", err)
	}
	metrics.ObserveLLMTokens(completion.PromptTokens, completion.CompletionTokens)

	parsed, err := llm.ParseJSONResponse[queryResponse](completion.Content)
	if err != nil {
		return models.CandidateQuery{}, apperrors.NewSynthesis("query", err)
	}
	if parsed.Query == "" {
		return models.CandidateQuery{}, apperrors.NewSynthesis("query",
			apperrors.NewInputValidation("query", "model returned an empty query"))
	}

	sqlText := parsed.Query
	if !sqlgate.ContainsNamespace(sqlText, namespace) {
		repaired := sqlgate.QualifySchema(sqlText, namespace)
		s.logger.Debug("namespace missing from candidate, repaired",
			zap.String("before", logging.SanitizeQuery(sqlText)),
			zap.String("after", logging.SanitizeQuery(repaired)))
		sqlText = repaired
	}

	return models.CandidateQuery{SQLText: sqlText}, nil
}

type chartResponse struct {
	Type   string   `json:"type"`
	XKey   string   `json:"xKey"`
	YKeys  []string `json:"yKeys"`
	Legend bool     `json:"legend"`
}

func (s *queryService) SynthesizeChart(ctx context.Context, question string, result *models.QueryResult) (*models.ChartSpec, error) {
	if len(result.Rows) == 0 {
		return nil, apperrors.ErrNoData
	}

	// Bound the prompt: the model sees at most chartRowLimit rows. Chart
	// fidelity for very large result sets is based on this prefix sample.
	truncated := result
	if len(result.Rows) > s.chartRowLimit {
		truncated = &models.QueryResult{
			Columns: result.Columns,
			Rows:    result.Rows[:s.chartRowLimit],
		}
	}

	completion, err := s.client.Complete(ctx,
		prompts.BuildChartSystemMessage(),
		prompts.BuildChartPrompt(question, truncated),
		s.llmCfg.Temperature)
	if err != nil {
		return nil, apperrors.NewSynthesis("chart", err)
	}
	metrics.ObserveLLMTokens(completion.PromptTokens, completion.CompletionTokens)

	parsed, err := llm.ParseJSONResponse[chartResponse](completion.Content)
	if err != nil {
		return nil, apperrors.NewSynthesis("chart", err)
	}

	spec := &models.ChartSpec{
		Type:  parsed.Type,
		XKey:  parsed.XKey,
		YKeys: parsed.YKeys,
	}
	spec.ApplyPalette()
	return spec, nil
}

func (s *queryService) converse(ctx context.Context, req *models.QueryRequest) (string, error) {
	completion, err := s.client.Complete(ctx,
		"You are a helpful data analysis assistant. Answer conversationally and briefly.",
		prompts.BuildConversationPrompt(req.Question, req.DialogueHistory),
		s.llmCfg.TextTemperature)
	if err != nil {
		return "", apperrors.NewSynthesis("conversation", err)
	}
	metrics.ObserveLLMTokens(completion.PromptTokens, completion.CompletionTokens)
	return completion.Content, nil
}

func (s *queryService) recordHistory(ctx context.Context, tenantID, question, sqlText, status, errText string, rowCount int, started time.Time) {
	if s.history == nil {
		return
	}

	entry := &models.QueryHistoryEntry{
		TenantID:   tenantID,
		Question:   question,
		SQLText:    sqlText,
		Status:     status,
		Error:      errText,
		RowCount:   rowCount,
		DurationMS: time.Since(started).Milliseconds(),
	}
	if err := s.history.Record(ctx, entry); err != nil {
		// Best effort. A recording failure never fails the user call.
		s.logger.Warn("query history record failed", zap.Error(err))
	}
}
