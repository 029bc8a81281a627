// ABOUTME: Intent enumeration and classification result
// ABOUTME: The closed set of things a retail analytics question can ask for
package models

import "strings"

// Intent is the closed-set classification of a query
type Intent string

const (
	IntentKPIQuery       Intent = "kpi_query"
	IntentBranchStatus   Intent = "branch_status"
	IntentTaskQuery      Intent = "task_query"
	IntentEventQuery     Intent = "event_query"
	IntentPromotionQuery Intent = "promotion_query"
	IntentChitchat       Intent = "chitchat"
	IntentOutOfScope     Intent = "out_of_scope"
	IntentUnknown        Intent = "unknown"
)

// AllIntents lists every intent in priority order
var AllIntents = []Intent{
	IntentKPIQuery,
	IntentBranchStatus,
	IntentTaskQuery,
	IntentEventQuery,
	IntentPromotionQuery,
	IntentChitchat,
	IntentOutOfScope,
	IntentUnknown,
}

// IsValid reports whether the intent belongs to the closed set
func (i Intent) IsValid() bool {
	return i.Priority() < len(AllIntents)
}

// Priority returns the tie-break rank of the intent; lower wins
func (i Intent) Priority() int {
	for idx, known := range AllIntents {
		if known == i {
			return idx
		}
	}
	return len(AllIntents)
}

// InDomain reports whether the intent is a supported retail analytics request
func (i Intent) InDomain() bool {
	return i != IntentOutOfScope && i != IntentUnknown && i.IsValid()
}

// ParseIntent normalizes s and returns the matching intent, or IntentUnknown
func ParseIntent(s string) (Intent, bool) {
	i := Intent(strings.ToLower(strings.TrimSpace(s)))
	if !i.IsValid() {
		return IntentUnknown, false
	}
	return i, true
}

// Classification is the output of an intent classifier
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale,omitempty"`
	Strategy   string  `json:"strategy,omitempty"`
}

// Unresolved is the classification used when no strategy produced a usable intent
func Unresolved(strategy string) Classification {
	return Classification{Intent: IntentUnknown, Confidence: 0, Strategy: strategy}
}
