// ABOUTME: LLM-backed slot extraction constrained to the intent's slot schema
// ABOUTME: Unknown keys and non-string values are discarded
package slots

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/llm"
	"github.com/harper/retail-nlp/internal/models"
)

var slotDescriptions = map[models.SlotName]string{
	models.SlotBranchID:     `branch identifier, e.g. "A", "B12", "north-3"`,
	models.SlotTimeRange:    `time period, e.g. "yesterday", "last week", "Q1 2024", "2024-01-15"`,
	models.SlotKPIType:      `metric: traffic, sales, revenue, conversion, dwell_time or basket_size`,
	models.SlotEventType:    `event kind: incident, maintenance, delivery or meeting`,
	models.SlotEmployeeName: `employee or staff member name`,
	models.SlotProductName:  `product or item name`,
}

// LLMFiller asks a language model for slot values
type LLMFiller struct {
	backend   llm.Backend
	maxTokens int
}

// NewLLMFiller creates an LLMFiller
func NewLLMFiller(backend llm.Backend, maxTokens int) *LLMFiller {
	return &LLMFiller{backend: backend, maxTokens: maxTokens}
}

// Name implements Filler
func (f *LLMFiller) Name() string { return config.StrategyLLM }

// Extract implements Filler
func (f *LLMFiller) Extract(ctx context.Context, text string, intent models.Intent) (models.SlotSet, error) {
	schema := models.SlotSchema(intent)
	if len(schema) == 0 {
		return models.SlotSet{}, nil
	}

	var system strings.Builder
	system.WriteString("You are an entity extractor for retail analytics queries.\nExtract these entities when present:\n")
	for _, name := range schema {
		fmt.Fprintf(&system, "- %s: %s\n", name, slotDescriptions[name])
	}
	system.WriteString("\nRespond with a JSON object containing only the entities found. Omit missing entities or use null. Do not guess.")

	raw, err := f.backend.Complete(ctx, llm.Request{
		System:      system.String(),
		Prompt:      fmt.Sprintf("Query: %s", normalizeQuery(text)),
		Temperature: 0,
		MaxTokens:   f.maxTokens,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	var values map[string]any
	if err := llm.ParseJSONObject(raw, &values); err != nil {
		return nil, err
	}

	set := models.SlotSet{}
	for key, value := range values {
		name := models.SlotName(key)
		s, ok := value.(string)
		if !ok || !models.InSchema(intent, name) {
			continue
		}
		if v := Normalize(name, s); v != "" {
			set[name] = v
		}
	}
	return set, nil
}

func normalizeQuery(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
