// ABOUTME: LLM-backed response generator grounded on retrieved passages
// ABOUTME: The prompt carries query, slots, endpoint and collection-tagged context
package generate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/llm"
	"github.com/harper/retail-nlp/internal/models"
)

const generatorSystemPrompt = `You are a helpful retail analytics assistant.
Generate natural, professional responses based on the user's query and the information provided.

Your responses should:
1. Acknowledge what data will be retrieved
2. Explain what the system will do
3. Set clear expectations
4. Use natural, conversational language
5. Be concise but informative

Do NOT make up data or numbers. Only use numbers that appear in the query, the extracted information or the context.
Only explain what will be retrieved.`

// LLMGenerator asks a language model to phrase the answer
type LLMGenerator struct {
	backend     llm.Backend
	temperature float64
	maxTokens   int
}

// NewLLMGenerator creates an LLMGenerator
func NewLLMGenerator(backend llm.Backend, temperature float64, maxTokens int) *LLMGenerator {
	return &LLMGenerator{backend: backend, temperature: temperature, maxTokens: maxTokens}
}

// Name implements Generator
func (g *LLMGenerator) Name() string { return config.StrategyLLM }

// Generate implements Generator
func (g *LLMGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	raw, err := g.backend.Complete(ctx, llm.Request{
		System:      generatorSystemPrompt,
		Prompt:      buildPrompt(req),
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return Response{}, err
	}

	return Response{
		Text:     strings.TrimSpace(raw),
		Sources:  models.Collections(req.Passages),
		Strategy: g.Name(),
	}, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	if len(req.Passages) > 0 {
		b.WriteString("Relevant context from knowledge base:\n")
		for _, p := range req.Passages {
			fmt.Fprintf(&b, "- [%s] %s\n", p.Collection, p.Text)
		}
		b.WriteString("\n")
	}

	names := make([]string, 0, len(req.Slots))
	for name, v := range req.Slots {
		if v != "" {
			names = append(names, string(name))
		}
	}
	sort.Strings(names)
	pairs := make([]string, len(names))
	for i, n := range names {
		pairs[i] = n + "=" + req.Slots[models.SlotName(n)]
	}

	fmt.Fprintf(&b, "User query: %s\n", req.Query)
	fmt.Fprintf(&b, "Detected intent: %s\n", req.Intent)
	fmt.Fprintf(&b, "Extracted information: %s\n", strings.Join(pairs, ", "))
	if !req.Route.NoOp {
		fmt.Fprintf(&b, "API endpoint to call: %s\n", req.Route.Endpoint)
	}
	b.WriteString("\nGenerate a helpful response:")
	return b.String()
}
