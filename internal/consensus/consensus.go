// Package consensus assigns a confidence tier and human-review flag to a
// field by combining the primary and validator OCR readings with the field's
// validation rule. This package is the single source of truth for confidence
// assignment: no other code path may set the needs-human flag.
package consensus

import "github.com/jackzampolin/formscan/internal/textproc"

// Level is a coarse confidence tier surfaced to the review UI.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// SingleEngineThreshold is the minimum self-reported confidence a lone
// primary engine needs to avoid human review.
const SingleEngineThreshold = 0.9

// Score is the outcome of consensus scoring for one field.
type Score struct {
	Confidence float64
	Level      Level
	NeedsHuman bool
}

// Single scores a field read by the primary engine alone. The reading is
// trusted only when it passes the field's rule and the engine reported at
// least SingleEngineThreshold confidence; anything else is routed to review.
func Single(normalizedPrimary string, primaryConfidence float64, rule string) Score {
	valid := textproc.Validate(normalizedPrimary, rule)
	if valid && primaryConfidence >= SingleEngineThreshold {
		return Score{Confidence: primaryConfidence, Level: LevelHigh}
	}
	return Score{Confidence: primaryConfidence, Level: LevelLow, NeedsHuman: true}
}

// Dual scores a field read by two independent engines. Agreement between the
// normalized readings is treated as strong evidence of correctness regardless
// of either engine's self-reported confidence. Disagreement always forces
// review; rule validity only distinguishes "plausible but unverified" from
// "implausible".
func Dual(normalizedPrimary, normalizedSecondary, rule string) Score {
	if normalizedPrimary == normalizedSecondary {
		return Score{Confidence: 1.0, Level: LevelHigh}
	}
	if textproc.Validate(normalizedPrimary, rule) {
		return Score{Confidence: 0.5, Level: LevelMedium, NeedsHuman: true}
	}
	return Score{Confidence: 0.0, Level: LevelLow, NeedsHuman: true}
}
