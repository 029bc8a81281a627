// ABOUTME: Profanity detection, PII and numeric-claim patterns used by the guardrail checks
// ABOUTME: Tables are compiled once and shared read-only
package guardrail

import (
	"regexp"
	"strconv"
	"strings"

	goaway "github.com/TwiN/go-away"
)

// mildProfanity covers words the detector's dictionary leaves out
var mildProfanity = []string{"damn", "goddamn", "douche"}

// profanityFilter pairs the dictionary detector with a whole-word deny-list
type profanityFilter struct {
	detector *goaway.ProfanityDetector
	denyList *regexp.Regexp
}

func newProfanityFilter(extra []string) *profanityFilter {
	words := append(append([]string{}, mildProfanity...), extra...)
	return &profanityFilter{
		// Spaces are kept so words are never joined across boundaries ("logs export").
		detector: goaway.NewProfanityDetector().WithSanitizeSpaces(false),
		denyList: compileDenyList(words),
	}
}

// Match returns the first profane term in text
func (f *profanityFilter) Match(text string) (string, bool) {
	if w := f.detector.ExtractProfanity(text); w != "" {
		return w, true
	}
	if f.denyList != nil {
		if w := f.denyList.FindString(text); w != "" {
			return strings.ToLower(w), true
		}
	}
	return "", false
}

func compileDenyList(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(strings.ToLower(w))
		if w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

type piiPattern struct {
	kind  string
	re    *regexp.Regexp
	token string
}

// Order matters: cards must be matched before phones.
var piiPatterns = []piiPattern{
	{"email", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`), "[REDACTED_EMAIL]"},
	{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[REDACTED_SSN]"},
	{"credit_card", regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`), "[REDACTED_CREDIT_CARD]"},
	{"phone", regexp.MustCompile(`(?:\+\d{1,2}\s?)?\(?\b\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}\b`), "[REDACTED_PHONE]"},
}

// redactPII replaces every PII match and reports which kinds were found
func redactPII(text string) (string, []string) {
	var kinds []string
	for _, p := range piiPatterns {
		if p.re.MatchString(text) {
			text = p.re.ReplaceAllString(text, p.token)
			kinds = append(kinds, p.kind)
		}
	}
	return text, kinds
}

var (
	numberRe     = regexp.MustCompile(`(?:^|[^A-Za-z0-9_.])(\$?\d[\d,]*(?:\.\d+)?%?)`)
	listMarkerRe = regexp.MustCompile(`(?m)^[ \t]*\d{1,2}\.[ \t]+`)
)

// numericClaims returns the canonical form of every standalone number in
// text. Numbered-list markers at the start of a line are not claims.
func numericClaims(text string) []string {
	text = listMarkerRe.ReplaceAllString(text, "")
	var out []string
	for _, m := range numberRe.FindAllStringSubmatch(text, -1) {
		if n := canonicalNumber(m[1]); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func canonicalNumber(raw string) string {
	raw = strings.NewReplacer("$", "", ",", "", "%", "").Replace(raw)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
