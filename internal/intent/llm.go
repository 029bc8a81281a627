// ABOUTME: LLM-backed intent classifier using few-shot JSON prompting
// ABOUTME: Labels outside the closed intent set fail closed to unknown
package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/llm"
	"github.com/harper/retail-nlp/internal/models"
)

const classifierSystemPrompt = `You are an intent classifier for a retail intelligence system.
Classify the user query into exactly one of these intents:
- kpi_query: questions about metrics like sales, traffic, conversion, revenue, dwell time or basket size
- branch_status: questions about a branch's current status, occupancy, crowding or staff on duty
- task_query: viewing or managing tasks assigned to staff
- event_query: questions about incidents, maintenance, deliveries or meetings
- promotion_query: questions about promotions, discounts, offers or deals
- chitchat: greetings, thanks and small talk
- out_of_scope: requests unrelated to retail operations (weather, news, sports, recipes)
- unknown: anything you cannot place

Respond with a JSON object with keys "intent", "confidence" (0.0 to 1.0) and "reasoning".

Examples:
Query: What were the sales yesterday?
{"intent": "kpi_query", "confidence": 0.95, "reasoning": "asks for a sales KPI over a time period"}

Query: Is branch A crowded right now?
{"intent": "branch_status", "confidence": 0.92, "reasoning": "asks about the current state of a branch"}

Query: Show the overdue tasks for John
{"intent": "task_query", "confidence": 0.93, "reasoning": "asks to list tasks for an employee"}

Query: Hello, how are you?
{"intent": "chitchat", "confidence": 0.98, "reasoning": "casual greeting"}

Query: What's the weather tomorrow?
{"intent": "out_of_scope", "confidence": 0.9, "reasoning": "not a retail analytics request"}`

type classifierResponse struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// LLMClassifier asks a language model to label the query
type LLMClassifier struct {
	backend   llm.Backend
	maxTokens int
}

// NewLLMClassifier creates an LLMClassifier
func NewLLMClassifier(backend llm.Backend, maxTokens int) *LLMClassifier {
	return &LLMClassifier{backend: backend, maxTokens: maxTokens}
}

// Name implements Classifier
func (c *LLMClassifier) Name() string { return config.StrategyLLM }

// Classify implements Classifier
func (c *LLMClassifier) Classify(ctx context.Context, text string, history []string) (models.Classification, error) {
	var prompt strings.Builder
	if len(history) > 0 {
		prompt.WriteString("Recent conversation:\n")
		for _, turn := range history {
			fmt.Fprintf(&prompt, "- %s\n", normalizeText(turn))
		}
		prompt.WriteString("\n")
	}
	fmt.Fprintf(&prompt, "Query: %s", normalizeText(text))

	raw, err := c.backend.Complete(ctx, llm.Request{
		System:      classifierSystemPrompt,
		Prompt:      prompt.String(),
		Temperature: 0.1,
		MaxTokens:   c.maxTokens,
		JSON:        true,
	})
	if err != nil {
		return models.Classification{}, err
	}

	var resp classifierResponse
	if err := llm.ParseJSONObject(raw, &resp); err != nil {
		return models.Classification{}, err
	}

	intent, ok := models.ParseIntent(resp.Intent)
	if !ok {
		return models.Classification{
			Intent:    models.IntentUnknown,
			Rationale: fmt.Sprintf("unrecognized label %q", resp.Intent),
			Strategy:  c.Name(),
		}, nil
	}

	return models.Classification{
		Intent:     intent,
		Confidence: clamp01(resp.Confidence),
		Rationale:  resp.Reasoning,
		Strategy:   c.Name(),
	}, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
