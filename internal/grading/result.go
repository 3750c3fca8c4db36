package grading

import "math"

// Provider tags which backend produced a grade. The orchestrator never
// interprets feedback beyond auditing this tag.
type Provider string

const (
	ProviderMock   Provider = "mock"
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// FeedbackPayload is the one feedback shape persisted per answer,
// regardless of which scorer produced it.
type FeedbackPayload struct {
	Summary         string   `json:"summary"`
	Rationale       *string  `json:"rationale,omitempty"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	Confidence      *float64 `json:"confidence,omitempty"`
	Provider        Provider `json:"provider"`
	Fallback        bool     `json:"fallback,omitempty"`
	Strengths       []string `json:"strengths,omitempty"`
	Improvements    []string `json:"improvements,omitempty"`
}

type GradeResult struct {
	Score    float64         `json:"score"`
	MaxScore float64         `json:"max_score"`
	Feedback FeedbackPayload `json:"feedback"`
}

// clampScore forces score into [0, max] and reports whether it had to.
func clampScore(score, max float64) (float64, bool) {
	switch {
	case score < 0:
		return 0, true
	case score > max:
		return max, true
	}
	return score, false
}

// roundScore keeps persisted scores at two decimal places so repeated
// grading passes produce byte-identical values.
func roundScore(score float64) float64 {
	return math.Round(score*100) / 100
}

// feedbackMessage maps a correctness percentage to the graded summary
// text shown to students.
func feedbackMessage(correctness float64) string {
	switch {
	case correctness >= 90:
		return "Excellent answer! You demonstrated a thorough understanding."
	case correctness >= 75:
		return "Good answer. You covered the main points well."
	case correctness >= 60:
		return "Fair answer. Some key points are addressed but others are missing."
	case correctness >= 40:
		return "Needs improvement. Review the material and try to cover the expected points."
	default:
		return "Incorrect. The answer does not match what was expected."
	}
}

func floatPtr(v float64) *float64 { return &v }

func stringPtr(s string) *string { return &s }
