// ABOUTME: Tests for rule and LLM intent classification
// ABOUTME: Verifies scoring, thresholds and the fallback chain
package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/llm"
	"github.com/harper/retail-nlp/internal/llm/llmtest"
	"github.com/harper/retail-nlp/internal/logging"
	"github.com/harper/retail-nlp/internal/metrics"
	"github.com/harper/retail-nlp/internal/models"
)

func TestRuleClassifier(t *testing.T) {
	tests := []struct {
		text    string
		want    models.Intent
		minConf float64
	}{
		{"How busy was branch A yesterday?", models.IntentKPIQuery, 0.5},
		{"Show me sales and revenue for store B12 last week", models.IntentKPIQuery, 0.75},
		{"Is branch C crowded right now?", models.IntentBranchStatus, 0.5},
		{"Is store A open today?", models.IntentBranchStatus, 0.5},
		{"Show open tasks for John", models.IntentTaskQuery, 0.5},
		{"Any overdue tasks assigned to Maria?", models.IntentTaskQuery, 0.8},
		{"Were there any incidents this week?", models.IntentEventQuery, 0.5},
		{"What promotions are running this week?", models.IntentPromotionQuery, 0.5},
		{"Hello there", models.IntentChitchat, 0.5},
		{"What's the weather tomorrow?", models.IntentOutOfScope, 0.5},
	}

	c := NewRuleClassifier()
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := c.Classify(context.Background(), tt.text, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Intent)
			assert.GreaterOrEqual(t, got.Confidence, tt.minConf)
			assert.LessOrEqual(t, got.Confidence, 1.0)
			assert.Equal(t, "rule", got.Strategy)
		})
	}
}

func TestRuleClassifier_ConfidenceFormula(t *testing.T) {
	c := NewRuleClassifier()

	// one kpi term, no competitors: share 1, saturation 0.5
	got, _ := c.Classify(context.Background(), "How busy was branch A yesterday?", nil)
	assert.InDelta(t, 0.5, got.Confidence, 1e-9)

	// two kpi terms: share 1, saturation 0.75
	got, _ = c.Classify(context.Background(), "sales and revenue", nil)
	assert.InDelta(t, 0.75, got.Confidence, 1e-9)

	// one kpi term and one promotion term tie: priority picks kpi, share 0.5
	got, _ = c.Classify(context.Background(), "sales during the promotion", nil)
	assert.Equal(t, models.IntentKPIQuery, got.Intent)
	assert.InDelta(t, 0.25, got.Confidence, 1e-9)
}

func TestRuleClassifier_NoMatch(t *testing.T) {
	got, err := NewRuleClassifier().Classify(context.Background(), "zxcv qwerty", nil)
	require.NoError(t, err)
	assert.Equal(t, models.IntentUnknown, got.Intent)
	assert.Zero(t, got.Confidence)
}

func TestRuleClassifier_WholeWordsOnly(t *testing.T) {
	got, _ := NewRuleClassifier().Classify(context.Background(), "this shipment", nil)
	assert.NotEqual(t, models.IntentChitchat, got.Intent, "hi must not match inside this or shipment")
}

func TestLLMClassifier(t *testing.T) {
	fake := llmtest.Reply("```json\n{\"intent\": \"promotion_query\", \"confidence\": 0.91, \"reasoning\": \"asks about deals\"}\n```")
	c := NewLLMClassifier(fake, 200)

	got, err := c.Classify(context.Background(), "Any deals on  shoes?", []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, models.IntentPromotionQuery, got.Intent)
	assert.InDelta(t, 0.91, got.Confidence, 1e-9)
	assert.Equal(t, "asks about deals", got.Rationale)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.True(t, reqs[0].JSON)
	assert.Contains(t, reqs[0].Prompt, "Query: Any deals on shoes?")
	assert.Contains(t, reqs[0].Prompt, "- hello")
	assert.Contains(t, reqs[0].System, "promotion_query")
}

func TestLLMClassifier_FailsClosed(t *testing.T) {
	got, err := NewLLMClassifier(llmtest.Reply(`{"intent": "performance_analysis", "confidence": 0.99}`), 200).
		Classify(context.Background(), "compare A and B", nil)
	require.NoError(t, err)
	assert.Equal(t, models.IntentUnknown, got.Intent)
	assert.Zero(t, got.Confidence)
}

func TestLLMClassifier_Errors(t *testing.T) {
	_, err := NewLLMClassifier(llmtest.Reply("I think it is kpi_query"), 200).Classify(context.Background(), "sales", nil)
	assert.ErrorIs(t, err, llm.ErrMalformedOutput)

	_, err = NewLLMClassifier(llmtest.Fail(llm.ErrBackendUnavailable), 200).Classify(context.Background(), "sales", nil)
	assert.ErrorIs(t, err, llm.ErrBackendUnavailable)
}

func TestLLMClassifier_ClampsConfidence(t *testing.T) {
	got, err := NewLLMClassifier(llmtest.Reply(`{"intent": "kpi_query", "confidence": 7}`), 200).
		Classify(context.Background(), "sales", nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestChain_FallsBackOnTimeout(t *testing.T) {
	chain := NewChain([]Classifier{NewLLMClassifier(llmtest.Hang(), 200), NewRuleClassifier()},
		0.3, 30*time.Millisecond, logging.Discard())

	before := metrics.StrategyCount("intent", "llm", "error")
	start := time.Now()
	got := chain.Classify(context.Background(), "How busy was branch A yesterday?", nil)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, models.IntentKPIQuery, got.Intent)
	assert.Equal(t, "rule", got.Strategy)
	assert.InDelta(t, 0.5, got.Confidence, 1e-9, "confidence comes from the accepted strategy alone")
	assert.Equal(t, before+1, metrics.StrategyCount("intent", "llm", "error"))
}

func TestChain_PrimaryAccepted(t *testing.T) {
	fake := llmtest.Reply(`{"intent": "branch_status", "confidence": 0.8}`)
	chain := NewChain([]Classifier{NewLLMClassifier(fake, 200), NewRuleClassifier()}, 0.3, time.Second, logging.Discard())

	got := chain.Classify(context.Background(), "How busy was branch A yesterday?", nil)
	assert.Equal(t, models.IntentBranchStatus, got.Intent)
	assert.Equal(t, 0.8, got.Confidence)
	assert.Equal(t, "llm", got.Strategy)
}

func TestChain_LowConfidenceFallsThrough(t *testing.T) {
	chain := NewChain([]Classifier{
		NewLLMClassifier(llmtest.Reply(`{"intent": "event_query", "confidence": 0.1}`), 200),
		NewRuleClassifier(),
	}, 0.3, time.Second, logging.Discard())

	got := chain.Classify(context.Background(), "What promotions are running?", nil)
	assert.Equal(t, models.IntentPromotionQuery, got.Intent)
}

func TestChain_Unresolved(t *testing.T) {
	chain := NewChain([]Classifier{
		NewLLMClassifier(llmtest.Fail(errors.New("connection refused")), 200),
		NewRuleClassifier(),
	}, 0.3, time.Second, logging.Discard())

	got := chain.Classify(context.Background(), "zxcv qwerty", nil)
	assert.Equal(t, models.IntentUnknown, got.Intent)
	assert.Zero(t, got.Confidence)
}

func TestNew(t *testing.T) {
	chain, err := New(config.RuleMode(), nil, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"rule"}, chain.Strategies())

	cfg := config.Default()
	_, err = New(cfg, nil, logging.Discard())
	assert.Error(t, err)

	chain, err = New(cfg, llmtest.Reply("{}"), logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"llm", "rule"}, chain.Strategies())

	cfg.FallbackToRules = false
	chain, err = New(cfg, llmtest.Reply("{}"), logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"llm"}, chain.Strategies())

	cfg.IntentStrategy = "magic"
	_, err = New(cfg, llmtest.Reply("{}"), logging.Discard())
	assert.Error(t, err)
}
