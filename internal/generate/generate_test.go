// ABOUTME: Tests for template and LLM response generation
// ABOUTME: Verifies templates, prompt contents and chain fallback
package generate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/llm"
	"github.com/harper/retail-nlp/internal/llm/llmtest"
	"github.com/harper/retail-nlp/internal/logging"
	"github.com/harper/retail-nlp/internal/models"
	"github.com/harper/retail-nlp/internal/router"
)

func kpiRequest(passages ...models.RetrievedPassage) Request {
	slots := models.SlotSet{models.SlotBranchID: "A", models.SlotTimeRange: "yesterday", models.SlotKPIType: "traffic"}
	return Request{
		Query:    "How busy was branch A yesterday?",
		Intent:   models.IntentKPIQuery,
		Slots:    slots,
		Route:    router.Route(models.IntentKPIQuery, slots),
		Passages: passages,
	}
}

var (
	trafficDoc = models.RetrievedPassage{DocumentID: "kpi-traffic", Collection: "kpi_definitions", Text: "Traffic counts visitors entering the branch.", Score: 0.8}
	hoursDoc   = models.RetrievedPassage{DocumentID: "ops-hours", Collection: "branch_operations", Text: "Branches open at 9am.", Score: 0.4}
	salesDoc   = models.RetrievedPassage{DocumentID: "kpi-sales", Collection: "kpi_definitions", Text: "Sales is gross revenue.", Score: 0.3}
)

func TestTemplateKPI(t *testing.T) {
	resp, err := NewTemplateGenerator().Generate(context.Background(), kpiRequest(trafficDoc, hoursDoc))
	require.NoError(t, err)

	assert.Contains(t, resp.Text, "I'll retrieve the traffic KPI data for branch A during yesterday.")
	assert.Contains(t, resp.Text, "Context: Traffic counts visitors entering the branch.")
	assert.Contains(t, resp.Text, "Endpoint: /kpis/branch/A")
	assert.NotContains(t, resp.Text, "Branches open")
	assert.Equal(t, []string{"kpi_definitions"}, resp.Sources)
	assert.Equal(t, config.StrategyTemplate, resp.Strategy)
}

func TestTemplateWithoutPassages(t *testing.T) {
	resp, err := NewTemplateGenerator().Generate(context.Background(), kpiRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Text)
	assert.NotContains(t, resp.Text, "Context:")
	assert.NotNil(t, resp.Sources)
	assert.Empty(t, resp.Sources)
}

func TestTemplateDefaults(t *testing.T) {
	tests := []struct {
		intent models.Intent
		slots  models.SlotSet
		want   string
	}{
		{models.IntentKPIQuery, nil, "I'll retrieve the general KPI data for the specified branch during the requested period."},
		{models.IntentKPIQuery, models.SlotSet{models.SlotKPIType: "dwell_time", models.SlotTimeRange: "last_week"}, "I'll retrieve the dwell time KPI data for the specified branch during last week."},
		{models.IntentBranchStatus, models.SlotSet{models.SlotBranchID: "C"}, "I'll check the current status of branch C."},
		{models.IntentTaskQuery, nil, "I'll retrieve the task list."},
		{models.IntentTaskQuery, models.SlotSet{models.SlotEmployeeName: "John Smith", models.SlotBranchID: "A"}, "I'll retrieve tasks assigned to John Smith at branch A."},
		{models.IntentEventQuery, nil, "I'll retrieve all events from recent days."},
		{models.IntentPromotionQuery, models.SlotSet{models.SlotProductName: "running shoes"}, "I'll check for promotions related to running shoes."},
		{models.IntentPromotionQuery, nil, "I'll retrieve current promotions."},
		{models.IntentOutOfScope, nil, "I'm specialized in retail analytics queries"},
	}

	g := NewTemplateGenerator()
	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			resp, _ := g.Generate(context.Background(), Request{Intent: tt.intent, Slots: tt.slots, Route: router.Route(tt.intent, tt.slots)})
			assert.Contains(t, resp.Text, tt.want)
		})
	}
}

func TestTemplateChitchat(t *testing.T) {
	tests := map[string]string{
		"Hi there":            "Hello!",
		"How are you?":        "I'm functioning well",
		"thanks a lot":        "You're welcome!",
		"ok bye":              "Goodbye!",
		"this is nice":        "I'm here to help with retail analytics.",
		"Thank you, goodbye!": "You're welcome!",
	}

	g := NewTemplateGenerator()
	for query, want := range tests {
		resp, _ := g.Generate(context.Background(), Request{Query: query, Intent: models.IntentChitchat, Passages: []models.RetrievedPassage{trafficDoc}})
		assert.Contains(t, resp.Text, want, query)
		assert.NotContains(t, resp.Text, "Context:", "chitchat never quotes the corpus")
		assert.Empty(t, resp.Sources)
	}
}

func TestLLMGenerator(t *testing.T) {
	fake := llmtest.Reply("  I'll pull yesterday's traffic for branch A.  ")
	g := NewLLMGenerator(fake, 0.7, 300)

	resp, err := g.Generate(context.Background(), kpiRequest(trafficDoc, hoursDoc, salesDoc))
	require.NoError(t, err)
	assert.Equal(t, "I'll pull yesterday's traffic for branch A.", resp.Text)
	assert.Equal(t, []string{"kpi_definitions", "branch_operations"}, resp.Sources)
	assert.Equal(t, config.StrategyLLM, resp.Strategy)

	req := fake.Requests()[0]
	assert.Contains(t, req.System, "Do NOT make up data or numbers")
	assert.Contains(t, req.Prompt, "- [kpi_definitions] Traffic counts visitors entering the branch.")
	assert.Contains(t, req.Prompt, "Extracted information: branch_id=A, kpi_type=traffic, time_range=yesterday")
	assert.Contains(t, req.Prompt, "API endpoint to call: /kpis/branch/A")
	assert.False(t, req.JSON)
	assert.Equal(t, 300, req.MaxTokens)
}

func TestChainFallsBackToTemplate(t *testing.T) {
	tests := []struct {
		name    string
		backend *llmtest.Fake
	}{
		{"error", llmtest.Fail(llm.ErrBackendUnavailable)},
		{"empty", llmtest.Reply("   ")},
		{"hang", llmtest.Hang()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := NewChain([]Generator{NewLLMGenerator(tt.backend, 0.7, 100)}, 20*time.Millisecond, logging.Discard())
			resp := chain.Generate(context.Background(), kpiRequest(trafficDoc))
			assert.Equal(t, config.StrategyTemplate, resp.Strategy)
			assert.Contains(t, resp.Text, "I'll retrieve the traffic KPI data")
			assert.Equal(t, []string{"kpi_definitions"}, resp.Sources)
		})
	}
}

func TestChainUsesLLM(t *testing.T) {
	chain := NewChain([]Generator{NewLLMGenerator(llmtest.Reply("Sure."), 0.7, 100)}, time.Second, logging.Discard())
	resp := chain.Generate(context.Background(), kpiRequest())
	assert.Equal(t, "Sure.", resp.Text)
	assert.Equal(t, config.StrategyLLM, resp.Strategy)
}

func TestNew(t *testing.T) {
	chain, err := New(config.RuleMode(), nil, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"template"}, chain.Strategies())

	_, err = New(config.Default(), nil, logging.Discard())
	assert.Error(t, err)

	chain, err = New(config.Default(), llmtest.Reply("ok"), logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"llm", "template"}, chain.Strategies())
}
