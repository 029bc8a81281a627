// ABOUTME: Prometheus metrics for pipeline stages, strategies and guardrails
// ABOUTME: Registered lazily on the default registry and served by the mcp command
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

var (
	once sync.Once

	stageLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retail_pipeline_stage_latency_ms",
		Help:    "Latency of each pipeline stage in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"stage"})

	strategyOutcome = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_strategy_outcome_total",
		Help: "Strategy attempts by component, strategy and outcome (accepted/rejected/error)",
	}, []string{"component", "strategy", "outcome"})

	guardrailVerdict = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_guardrail_verdict_total",
		Help: "Guardrail verdicts by stage, kind and reason",
	}, []string{"stage", "kind", "reason"})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_cache_lookups_total",
		Help: "Response cache lookups by result (hit/miss/shared)",
	}, []string{"result"})

	retrievalResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "retail_retrieval_results",
		Help:    "Number of passages returned per query",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 20},
	})

	pipelineOutcome = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "retail_pipeline_outcome_total",
		Help: "Completed requests by terminal state and intent",
	}, []string{"state", "intent"})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(stageLatency, strategyOutcome, guardrailVerdict, cacheLookups, retrievalResults, pipelineOutcome)
	})
}

// ObserveStage records how long a stage took
func ObserveStage(stage string, d time.Duration) {
	ensureRegistered()
	stageLatency.WithLabelValues(stage).Observe(float64(d.Milliseconds()))
}

// IncStrategy counts one strategy attempt
func IncStrategy(component, strategy, outcome string) {
	ensureRegistered()
	strategyOutcome.WithLabelValues(component, strategy, outcome).Inc()
}

// IncGuardrail counts one guardrail verdict
func IncGuardrail(stage, kind, reason string) {
	ensureRegistered()
	guardrailVerdict.WithLabelValues(stage, kind, reason).Inc()
}

// IncCache counts one cache lookup
func IncCache(result string) {
	ensureRegistered()
	cacheLookups.WithLabelValues(result).Inc()
}

// ObserveRetrieval records how many passages a search returned
func ObserveRetrieval(n int) {
	ensureRegistered()
	retrievalResults.Observe(float64(n))
}

// IncOutcome counts a finished request
func IncOutcome(state, intent string) {
	ensureRegistered()
	pipelineOutcome.WithLabelValues(state, intent).Inc()
}

// Handler exposes the registered metrics over HTTP
func Handler() http.Handler {
	ensureRegistered()
	return promhttp.Handler()
}

// StrategyCount returns the current value of a strategy counter (tests, diagnostics)
func StrategyCount(component, strategy, outcome string) float64 {
	ensureRegistered()
	return counterValue(strategyOutcome.WithLabelValues(component, strategy, outcome))
}

// CacheCount returns the current value of a cache counter
func CacheCount(result string) float64 {
	ensureRegistered()
	return counterValue(cacheLookups.WithLabelValues(result))
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
