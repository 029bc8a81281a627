// ABOUTME: Tests for pipeline metrics
// ABOUTME: Reads counters back through the Prometheus client model
package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncStrategy(t *testing.T) {
	before := StrategyCount("intent", "rule", "accepted")
	IncStrategy("intent", "rule", "accepted")
	IncStrategy("intent", "rule", "accepted")
	assert.Equal(t, before+2, StrategyCount("intent", "rule", "accepted"))
}

func TestIncCache(t *testing.T) {
	before := CacheCount("hit")
	IncCache("hit")
	assert.Equal(t, before+1, CacheCount("hit"))
}

func TestHandlerExposesMetrics(t *testing.T) {
	ObserveStage("classify", 12*time.Millisecond)
	IncGuardrail("input", "blocked", "profanity")
	ObserveRetrieval(3)
	IncOutcome("done", "kpi_query")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	out := string(body)
	assert.Contains(t, out, "retail_pipeline_stage_latency_ms")
	assert.Contains(t, out, `retail_guardrail_verdict_total{kind="blocked",reason="profanity",stage="input"}`)
	assert.Contains(t, out, "retail_retrieval_results")
	assert.Contains(t, out, `retail_pipeline_outcome_total{intent="kpi_query",state="done"}`)
}
