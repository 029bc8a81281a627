// ABOUTME: Deterministic per-intent response templates
// ABOUTME: Always produces text; the top passage, when present, is attached as context
package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/embedding"
	"github.com/harper/retail-nlp/internal/models"
)

// HelpText lists what the assistant can answer
const HelpText = "I can help with KPIs, branch status, tasks, events, or promotions."

// TemplateGenerator renders fixed templates from slots and the route
type TemplateGenerator struct{}

// NewTemplateGenerator creates a TemplateGenerator
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Name implements Generator
func (g *TemplateGenerator) Name() string { return config.StrategyTemplate }

// Generate implements Generator. It never fails.
func (g *TemplateGenerator) Generate(_ context.Context, req Request) (Response, error) {
	var b strings.Builder
	b.WriteString(body(req))

	sources := []string{}
	if len(req.Passages) > 0 && answersFromData(req.Intent) {
		top := req.Passages[0]
		b.WriteString("\n\nContext: ")
		b.WriteString(top.Text)
		if top.Collection != "" {
			sources = append(sources, top.Collection)
		}
	}
	if !req.Route.NoOp && req.Route.Endpoint != "" {
		b.WriteString("\n\nEndpoint: ")
		b.WriteString(req.Route.Endpoint)
	}

	return Response{Text: b.String(), Sources: sources, Strategy: g.Name()}, nil
}

func body(req Request) string {
	s := req.Slots
	switch req.Intent {
	case models.IntentKPIQuery:
		return fmt.Sprintf("I'll retrieve the %s KPI data for %s during %s.",
			slotOr(s, models.SlotKPIType, "general"),
			branchOr(s, "the specified branch"),
			slotOr(s, models.SlotTimeRange, "the requested period"))
	case models.IntentBranchStatus:
		return fmt.Sprintf("I'll check the current status of %s. This includes occupancy levels, staff on duty, and any operational alerts.",
			branchOr(s, "the specified branch"))
	case models.IntentTaskQuery:
		text := "I'll retrieve the task list"
		if name := s[models.SlotEmployeeName]; name != "" {
			text = "I'll retrieve tasks assigned to " + name
		}
		if s[models.SlotBranchID] != "" {
			text += " at " + branchOr(s, "")
		}
		return text + "."
	case models.IntentEventQuery:
		return fmt.Sprintf("I'll retrieve %s events from %s%s.",
			slotOr(s, models.SlotEventType, "all"),
			slotOr(s, models.SlotTimeRange, "recent days"),
			atBranch(s))
	case models.IntentPromotionQuery:
		if product := s[models.SlotProductName]; product != "" {
			return fmt.Sprintf("I'll check for promotions related to %s%s.", product, atBranch(s))
		}
		return fmt.Sprintf("I'll retrieve current promotions%s.", atBranch(s))
	case models.IntentChitchat:
		return chitchat(req.Query)
	case models.IntentOutOfScope:
		return "I'm specialized in retail analytics queries, so I can't help with that. " + HelpText
	default:
		return "I'm not sure I understand your request. " + HelpText
	}
}

func chitchat(query string) string {
	words := map[string]bool{}
	for _, w := range embedding.Tokenize(query) {
		words[w] = true
	}
	lower := strings.ToLower(query)

	switch {
	case words["hello"] || words["hi"] || words["hey"]:
		return "Hello! I'm here to help you with retail analytics queries. " + HelpText
	case strings.Contains(lower, "how are you") || strings.Contains(lower, "how's it going"):
		return "I'm functioning well, thank you! How can I assist you with your retail analytics needs today?"
	case words["thanks"] || words["thank"]:
		return "You're welcome! Let me know if you need anything else."
	case words["bye"] || words["goodbye"]:
		return "Goodbye! Feel free to return if you have more questions."
	default:
		return "I'm here to help with retail analytics. " + HelpText
	}
}

// answersFromData reports whether the intent is a retail data request
func answersFromData(intent models.Intent) bool {
	return intent.InDomain() && intent != models.IntentChitchat
}

// slotOr returns the slot value in readable form, or def when missing
func slotOr(s models.SlotSet, name models.SlotName, def string) string {
	if v := s[name]; v != "" {
		return strings.ReplaceAll(v, "_", " ")
	}
	return def
}

func branchOr(s models.SlotSet, def string) string {
	if v := s[models.SlotBranchID]; v != "" {
		return "branch " + v
	}
	return def
}

func atBranch(s models.SlotSet) string {
	if v := s[models.SlotBranchID]; v != "" {
		return " at branch " + v
	}
	return ""
}
