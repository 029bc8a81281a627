// ABOUTME: Canonical slot value normalizers shared by all slot strategies
// ABOUTME: Keyword tables map free-text phrases onto canonical tokens
package slots

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/harper/retail-nlp/internal/models"
)

type phrase struct {
	pattern *regexp.Regexp
	value   string
}

func phrases(pairs ...string) []phrase {
	out := make([]phrase, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, phrase{pattern: regexp.MustCompile(`(?i)\b(?:` + pairs[i] + `)\b`), value: pairs[i+1]})
	}
	return out
}

// An empty value keeps the matched text literally.
var timePhrases = phrases(
	`yesterday`, "yesterday",
	`today|right now|now|currently`, "today",
	`last\s+week|past\s+week|last_week`, "last_week",
	`this\s+week|this_week`, "this_week",
	`last\s+month|past\s+month|last_month`, "last_month",
	`this\s+month|this_month`, "this_month",
	`last\s+quarter|past\s+quarter|last_quarter`, "last_quarter",
	`this\s+quarter|this_quarter`, "this_quarter",
	`Q[1-4]\s+\d{4}`, "",
	`\d{4}-\d{2}-\d{2}`, "",
	`\d{1,2}/\d{1,2}/\d{4}`, "",
)

var kpiPhrases = phrases(
	`traffic|footfall|foot\s+traffic`, "traffic",
	`sales`, "sales",
	`revenue`, "revenue",
	`conversion(?:\s+rate)?`, "conversion",
	`dwell(?:\s+|_)time|time\s+spent`, "dwell_time",
	`basket(?:\s+|_)size|average\s+basket`, "basket_size",
	`busy|busyness|busiest|occupancy`, "traffic",
)

var eventPhrases = phrases(
	`incidents?|accidents?|emergenc(?:y|ies)`, "incident",
	`maintenance|repairs?`, "maintenance",
	`deliver(?:y|ies)|shipments?`, "delivery",
	`meetings?|conferences?`, "meeting",
)

var (
	branchTokenRe  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
	branchPrefixRe = regexp.MustCompile(`(?i)^(?:branch|store|location|outlet)\s+`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

var branchStopWords = map[string]bool{
	"IS": true, "WAS": true, "ARE": true, "HAS": true, "HAD": true, "THE": true,
	"AND": true, "FOR": true, "ON": true, "IN": true, "AT": true, "OF": true,
	"TO": true, "NOW": true, "ANY": true, "ME": true, "BE": true,
}

// matchPhrase returns the canonical value of the leftmost phrase in text.
// Rows matching at the same offset are resolved in table order.
func matchPhrase(table []phrase, text string) string {
	best, start := "", -1
	for _, p := range table {
		loc := p.pattern.FindStringIndex(text)
		if loc == nil || (start >= 0 && loc[0] >= start) {
			continue
		}
		start = loc[0]
		best = p.value
		if best == "" {
			best = collapse(text[loc[0]:loc[1]])
		}
	}
	return best
}

func collapse(s string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// NormalizeTimeRange maps a time phrase onto a canonical token. Explicit
// dates and quarters stay literal; unrecognized phrases are kept trimmed.
func NormalizeTimeRange(v string) string {
	v = collapse(v)
	if v == "" {
		return ""
	}
	if canonical := matchPhrase(timePhrases, v); canonical != "" {
		if strings.HasPrefix(strings.ToUpper(canonical), "Q") {
			return strings.ToUpper(canonical[:1]) + canonical[1:]
		}
		return canonical
	}
	return strings.ToLower(v)
}

// NormalizeBranchID uppercases a branch identifier, rejecting anything that
// is not a single identifier token
func NormalizeBranchID(v string) string {
	v = branchPrefixRe.ReplaceAllString(collapse(v), "")
	if !branchTokenRe.MatchString(v) {
		return ""
	}
	v = strings.ToUpper(v)
	if branchStopWords[v] {
		return ""
	}
	return v
}

// NormalizeKPIType maps metric names onto canonical KPI tokens
func NormalizeKPIType(v string) string {
	return canonicalOrSnake(kpiPhrases, v)
}

// NormalizeEventType maps event names onto canonical event tokens
func NormalizeEventType(v string) string {
	return canonicalOrSnake(eventPhrases, v)
}

func canonicalOrSnake(table []phrase, v string) string {
	v = collapse(v)
	if v == "" {
		return ""
	}
	if canonical := matchPhrase(table, v); canonical != "" {
		return canonical
	}
	return strings.ReplaceAll(strings.ToLower(v), " ", "_")
}

// NormalizeEmployeeName title-cases each name part
func NormalizeEmployeeName(v string) string {
	parts := strings.Fields(v)
	for i, p := range parts {
		r := []rune(strings.ToLower(p))
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}

// NormalizeProductName lowercases and trims a product name
func NormalizeProductName(v string) string {
	return strings.ToLower(collapse(strings.Trim(v, " .,!?")))
}

var normalizers = map[models.SlotName]func(string) string{
	models.SlotTimeRange:    NormalizeTimeRange,
	models.SlotBranchID:     NormalizeBranchID,
	models.SlotKPIType:      NormalizeKPIType,
	models.SlotEventType:    NormalizeEventType,
	models.SlotEmployeeName: NormalizeEmployeeName,
	models.SlotProductName:  NormalizeProductName,
}

// Normalize applies the slot's normalizer to value
func Normalize(name models.SlotName, value string) string {
	if fn, ok := normalizers[name]; ok {
		return fn(value)
	}
	return collapse(value)
}
