// ABOUTME: Guardrail verdict types shared by the guardrail engine and pipeline
// ABOUTME: A verdict passes, blocks, or rewrites text and carries a reason code
package models

// VerdictKind is the outcome of a guardrail check
type VerdictKind string

const (
	VerdictPass      VerdictKind = "pass"
	VerdictBlocked   VerdictKind = "blocked"
	VerdictRewritten VerdictKind = "rewritten"
)

// GuardrailReason explains why a verdict was not a plain pass
type GuardrailReason string

const (
	ReasonNone          GuardrailReason = ""
	ReasonProfanity     GuardrailReason = "profanity"
	ReasonPII           GuardrailReason = "pii"
	ReasonOutOfScope    GuardrailReason = "out_of_scope"
	ReasonLowConfidence GuardrailReason = "low_confidence"
	ReasonHallucination GuardrailReason = "hallucination"
)

// GuardrailStage is the point in the pipeline where a check runs
type GuardrailStage string

const (
	StageInput         GuardrailStage = "input"
	StagePreGeneration GuardrailStage = "pre_generation"
	StageOutput        GuardrailStage = "output"
)

// GuardrailVerdict is the result of running the guardrail engine once
type GuardrailVerdict struct {
	Kind    VerdictKind       `json:"kind"`
	Reason  GuardrailReason   `json:"reason,omitempty"`
	Reasons []GuardrailReason `json:"reasons,omitempty"`
	Stage   GuardrailStage    `json:"stage"`
	// Text is the possibly rewritten text; equal to the input on pass
	Text string `json:"text"`
}

// Blocked reports whether the verdict stops the pipeline
func (v GuardrailVerdict) Blocked() bool {
	return v.Kind == VerdictBlocked
}

// Has reports whether reason was recorded on this verdict
func (v GuardrailVerdict) Has(reason GuardrailReason) bool {
	if v.Reason == reason {
		return true
	}
	for _, r := range v.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}
