// ABOUTME: Keyword rule intent classifier
// ABOUTME: Scores each intent by distinct matched terms; needs no model
package intent

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/models"
)

type termSet struct {
	intent models.Intent
	terms  []*regexp.Regexp
}

func compileTerms(intent models.Intent, terms ...string) termSet {
	ts := termSet{intent: intent}
	for _, term := range terms {
		ts.terms = append(ts.terms, regexp.MustCompile(`(?i)\b`+term+`\b`))
	}
	return ts
}

// ruleTerms is ordered by intent priority
var ruleTerms = []termSet{
	compileTerms(models.IntentKPIQuery,
		`kpis?`, `metrics?`, `traffic`, `footfall`, `busy`, `busiest`, `busyness`, `sales`,
		`revenue`, `conversion`, `dwell`, `basket`, `occupancy`),
	compileTerms(models.IntentBranchStatus,
		`status`, `situation`, `crowd(?:ed|ing)?`, `congest(?:ed|ion)`,
		`(?:is|are)\s+(?:\w+\s+){0,3}open`, `closed`, `staff on duty`),
	compileTerms(models.IntentTaskQuery,
		`tasks?`, `assign(?:ed|ment|ments)?`, `to-?dos?`, `overdue`, `priority`),
	compileTerms(models.IntentEventQuery,
		`incidents?`, `maintenance`, `deliver(?:y|ies)`, `meetings?`, `events?`),
	compileTerms(models.IntentPromotionQuery,
		`promos?`, `promotions?`, `discounts?`, `offers?`, `deals?`),
	compileTerms(models.IntentChitchat,
		`hello`, `hi`, `hey`, `thanks`, `thank you`, `bye`, `goodbye`, `how are you`),
	compileTerms(models.IntentOutOfScope,
		`weather`, `news`, `sports?`, `entertainment`, `movies?`, `politics`, `recipes?`,
		`travel`, `medical`, `legal`),
}

// RuleClassifier matches curated term lists per intent
type RuleClassifier struct{}

// NewRuleClassifier creates a RuleClassifier
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Name implements Classifier
func (c *RuleClassifier) Name() string { return config.StrategyRule }

// Classify picks the intent with the most distinct matched terms. Ties go to
// the higher-priority intent. Confidence grows with the winner's share of all
// hits and with its absolute hit count.
func (c *RuleClassifier) Classify(ctx context.Context, text string, _ []string) (models.Classification, error) {
	if err := ctx.Err(); err != nil {
		return models.Classification{}, err
	}

	var (
		winner     models.Intent
		winnerHits int
		totalHits  int
	)
	for _, ts := range ruleTerms {
		hits := 0
		for _, re := range ts.terms {
			if re.MatchString(text) {
				hits++
			}
		}
		totalHits += hits
		if hits > winnerHits {
			winner, winnerHits = ts.intent, hits
		}
	}

	if winnerHits == 0 {
		return models.Unresolved(c.Name()), nil
	}

	share := float64(winnerHits) / float64(totalHits)
	saturation := 1 - math.Pow(0.5, float64(winnerHits))
	return models.Classification{
		Intent:     winner,
		Confidence: share * saturation,
		Rationale:  fmt.Sprintf("%d of %d matched terms", winnerHits, totalHits),
		Strategy:   c.Name(),
	}, nil
}

// normalizeText collapses whitespace for prompt construction
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
