// ABOUTME: Sequential guardrail engine applied at input, pre-generation and output
// ABOUTME: Blocks short-circuit; rewrites accumulate and processing continues
package guardrail

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/logging"
	"github.com/harper/retail-nlp/internal/metrics"
	"github.com/harper/retail-nlp/internal/models"
)

// RefusalText is the only response ever returned for a blocked request
const RefusalText = "I'm sorry, but I can't help with that request."

// Input is the text under inspection plus the context the checks need
type Input struct {
	Text       string
	Stage      models.GuardrailStage
	Intent     models.Intent
	Confidence float64
	// Evidence holds every string a generated answer may legitimately quote
	Evidence []string
	// SkipHallucination disables the hallucination check for a regenerated answer
	SkipHallucination bool
}

// Engine runs the enabled checks in a fixed order
type Engine struct {
	profanity           *profanityFilter
	enablePII           bool
	enableScope         bool
	blockOutOfScope     bool
	enableConfidence    bool
	threshold           float64
	enableHallucination bool
	logger              *log.Logger
}

// New builds an Engine from cfg
func New(cfg config.Config, logger *log.Logger) *Engine {
	e := &Engine{
		enablePII:           cfg.EnablePII,
		enableScope:         cfg.EnableScope,
		blockOutOfScope:     cfg.BlockOutOfScope,
		enableConfidence:    cfg.EnableConfidence,
		threshold:           cfg.GuardrailThreshold,
		enableHallucination: cfg.EnableHallucination,
		logger:              logging.Component(logger, "guardrail"),
	}
	if cfg.EnableProfanity {
		e.profanity = newProfanityFilter(cfg.ExtraProfanity)
	}
	return e
}

// Check runs the checks that apply to in.Stage
func (e *Engine) Check(in Input) models.GuardrailVerdict {
	v := e.check(in)
	reason := string(v.Reason)
	if reason == "" {
		reason = "none"
	}
	metrics.IncGuardrail(string(in.Stage), string(v.Kind), reason)
	if v.Kind != models.VerdictPass || len(v.Reasons) > 0 {
		e.logger.Info("guardrail verdict", "stage", in.Stage, "kind", v.Kind, "reasons", v.Reasons)
	}
	return v
}

func (e *Engine) check(in Input) models.GuardrailVerdict {
	v := models.GuardrailVerdict{Kind: models.VerdictPass, Stage: in.Stage, Text: in.Text}
	textual := in.Stage == models.StageInput || in.Stage == models.StageOutput

	if textual && e.profanity != nil {
		if word, ok := e.profanity.Match(v.Text); ok {
			e.logger.Debug("profanity detected", "stage", in.Stage, "term", word)
			return block(v, models.ReasonProfanity)
		}
	}

	if textual && e.enablePII {
		if redacted, kinds := redactPII(v.Text); len(kinds) > 0 {
			v.Text = redacted
			v = rewrite(v, models.ReasonPII)
			e.logger.Debug("pii redacted", "stage", in.Stage, "kinds", strings.Join(kinds, ","))
		}
	}

	if in.Stage == models.StageOutput && e.enableScope && !in.Intent.InDomain() {
		if e.blockOutOfScope {
			return block(v, models.ReasonOutOfScope)
		}
		v = note(v, models.ReasonOutOfScope)
	}

	if in.Stage == models.StagePreGeneration && e.enableConfidence && in.Confidence < e.threshold {
		return block(v, models.ReasonLowConfidence)
	}

	if in.Stage == models.StageOutput && e.enableHallucination && !in.SkipHallucination {
		if claim, ok := unsupportedClaim(v.Text, in.Evidence); ok {
			e.logger.Warn("unsupported numeric claim", "claim", claim)
			v = rewrite(v, models.ReasonHallucination)
		}
	}

	return v
}

func block(v models.GuardrailVerdict, reason models.GuardrailReason) models.GuardrailVerdict {
	v.Kind = models.VerdictBlocked
	v.Reason = reason
	v.Reasons = append(v.Reasons, reason)
	v.Text = RefusalText
	return v
}

func rewrite(v models.GuardrailVerdict, reason models.GuardrailReason) models.GuardrailVerdict {
	v.Kind = models.VerdictRewritten
	return note(v, reason)
}

func note(v models.GuardrailVerdict, reason models.GuardrailReason) models.GuardrailVerdict {
	if v.Reason == models.ReasonNone {
		v.Reason = reason
	}
	v.Reasons = append(v.Reasons, reason)
	return v
}

// unsupportedClaim returns the first number in text that no evidence string contains
func unsupportedClaim(text string, evidence []string) (string, bool) {
	claims := numericClaims(text)
	if len(claims) == 0 {
		return "", false
	}

	known := map[string]bool{}
	for _, ev := range evidence {
		for _, n := range numericClaims(ev) {
			known[n] = true
		}
	}
	for _, c := range claims {
		if !known[c] {
			return c, true
		}
	}
	return "", false
}
