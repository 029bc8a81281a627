// ABOUTME: Regex and keyword table slot extraction
// ABOUTME: Deterministic and offline; only slots legal for the intent are kept
package slots

import (
	"context"
	"regexp"
	"strings"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/models"
)

var (
	branchRe     = regexp.MustCompile(`(?i)\b(?:branch|store|location|outlet)\s+([A-Za-z0-9][A-Za-z0-9_-]*)`)
	employeeRe   = regexp.MustCompile(`\b(?:[Aa]ssigned to|for)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)\b`)
	branchMarkRe = regexp.MustCompile(`[0-9_-]`)
	productRe    = regexp.MustCompile(`(?i)\b(?:promotions?|discounts?|deals?|offers?)\s+(?:on|for)\s+([a-z0-9][a-z0-9 -]*?)\s*(?:\b(?:this|last|next|today|yesterday|at|in|for|during|from)\b|[?.!,;]|$)`)
)

var nameStopWords = map[string]bool{
	"Branch": true, "Store": true, "Location": true, "Outlet": true,
	"Today": true, "Yesterday": true, "This": true, "Last": true, "Next": true,
	"All": true, "The": true, "Me": true, "Us": true,
}

// RuleFiller extracts slots with regular expressions and keyword tables
type RuleFiller struct{}

// NewRuleFiller creates a RuleFiller
func NewRuleFiller() *RuleFiller {
	return &RuleFiller{}
}

// Name implements Filler
func (f *RuleFiller) Name() string { return config.StrategyRule }

// Extract implements Filler
func (f *RuleFiller) Extract(ctx context.Context, text string, intent models.Intent) (models.SlotSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set := models.SlotSet{}
	if v := matchPhrase(timePhrases, text); v != "" {
		set[models.SlotTimeRange] = NormalizeTimeRange(v)
	}
	if v := extractBranch(text); v != "" {
		set[models.SlotBranchID] = v
	}
	if v := matchPhrase(kpiPhrases, text); v != "" {
		set[models.SlotKPIType] = v
	}
	if v := matchPhrase(eventPhrases, text); v != "" {
		set[models.SlotEventType] = v
	}
	if v := extractEmployee(text); v != "" {
		set[models.SlotEmployeeName] = v
	}
	if m := productRe.FindStringSubmatch(text); m != nil {
		if v := NormalizeProductName(m[1]); v != "" {
			set[models.SlotProductName] = v
		}
	}

	return set.Filter(intent), nil
}

// extractBranch returns the first identifier-shaped token after a branch noun.
// A token qualifies when it carries a digit, dash or underscore ("b12",
// "north-3") or is written as an uppercase code of at most two letters ("A").
func extractBranch(text string) string {
	for _, m := range branchRe.FindAllStringSubmatch(text, -1) {
		if !looksLikeBranchID(m[1]) {
			continue
		}
		if v := NormalizeBranchID(m[1]); v != "" {
			return v
		}
	}
	return ""
}

func looksLikeBranchID(token string) bool {
	if branchMarkRe.MatchString(token) {
		return true
	}
	return len(token) <= 2 && token == strings.ToUpper(token)
}

func extractEmployee(text string) string {
	for _, m := range employeeRe.FindAllStringSubmatch(text, -1) {
		first, _, _ := strings.Cut(m[1], " ")
		if nameStopWords[first] {
			continue
		}
		return NormalizeEmployeeName(m[1])
	}
	return ""
}
