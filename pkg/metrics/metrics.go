// Package metrics exposes Prometheus instrumentation for the query path and
// the deep-analysis pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datalens_queries_total",
			Help: "Total number of query turns by outcome.",
		},
		[]string{"outcome"},
	)

	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datalens_query_duration_seconds",
			Help:    "End-to-end query turn latency.",
			Buckets: prometheus.DefBuckets,
		},
	)

	pipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datalens_pipeline_runs_total",
			Help: "Total number of deep-analysis runs by outcome.",
		},
		[]string{"outcome"},
	)

	pipelineStageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datalens_pipeline_stage_duration_seconds",
			Help:    "Per-stage latency of the deep-analysis pipeline.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	pipelineRunsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "datalens_pipeline_runs_in_flight",
			Help: "Deep-analysis runs currently executing.",
		},
	)

	llmTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datalens_llm_tokens_total",
			Help: "LLM tokens consumed, by direction.",
		},
		[]string{"direction"},
	)
)

func init() {
	prometheus.MustRegister(
		queriesTotal,
		queryDurationSeconds,
		pipelineRunsTotal,
		pipelineStageDurationSeconds,
		pipelineRunsInFlight,
		llmTokensTotal,
	)
}

// Query turn outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

func ObserveQuery(outcome string, elapsed time.Duration) {
	queriesTotal.WithLabelValues(outcome).Inc()
	queryDurationSeconds.Observe(elapsed.Seconds())
}

func ObservePipelineRun(outcome string) {
	pipelineRunsTotal.WithLabelValues(outcome).Inc()
}

func ObservePipelineStage(stage string, elapsed time.Duration) {
	pipelineStageDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func PipelineRunStarted() {
	pipelineRunsInFlight.Inc()
}

func PipelineRunFinished() {
	pipelineRunsInFlight.Dec()
}

func ObserveLLMTokens(promptTokens, completionTokens int) {
	if promptTokens > 0 {
		llmTokensTotal.WithLabelValues("prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		llmTokensTotal.WithLabelValues("completion").Add(float64(completionTokens))
	}
}
