package grading

import (
	"context"
	"fmt"
	"strings"
)

// ExactMatchScorer grades multiple choice and true/false questions.
// Full or zero points, no partial credit, no external calls.
type ExactMatchScorer struct{}

func NewExactMatchScorer() *ExactMatchScorer {
	return &ExactMatchScorer{}
}

func (s *ExactMatchScorer) Score(_ context.Context, spec *ScoreSpec, answer *AnswerSubmission) (*GradeResult, error) {
	switch spec.Type {
	case MultipleChoice:
		return s.scoreMultipleChoice(spec, answer)
	case TrueFalse:
		return s.scoreTrueFalse(spec, answer)
	default:
		return nil, &SpecError{Type: spec.Type, Field: "question_type", Reason: "exact match scorer only handles choice questions"}
	}
}

func (s *ExactMatchScorer) scoreMultipleChoice(spec *ScoreSpec, answer *AnswerSubmission) (*GradeResult, error) {
	if spec.MultipleChoice == nil {
		return nil, &SpecError{Type: spec.Type, Field: "expected_answer", Reason: "missing expected answer"}
	}

	expected := normalizeChoice(spec.MultipleChoice.Answer)
	submitted := normalizeChoice(answer.Text())

	if submitted == expected {
		return &GradeResult{
			Score:    spec.MaxPoints,
			MaxScore: spec.MaxPoints,
			Feedback: FeedbackPayload{
				Summary:    "Correct!",
				Confidence: floatPtr(1),
				Provider:   ProviderMock,
			},
		}, nil
	}

	return &GradeResult{
		Score:    0,
		MaxScore: spec.MaxPoints,
		Feedback: FeedbackPayload{
			Summary:    fmt.Sprintf("Incorrect. The correct answer is %s.", spec.MultipleChoice.Answer),
			Confidence: floatPtr(1),
			Provider:   ProviderMock,
		},
	}, nil
}

func (s *ExactMatchScorer) scoreTrueFalse(spec *ScoreSpec, answer *AnswerSubmission) (*GradeResult, error) {
	if spec.TrueFalse == nil {
		return nil, &SpecError{Type: spec.Type, Field: "expected_answer", Reason: "missing expected answer"}
	}

	expected, ok := normalizeBool(spec.TrueFalse.Answer)
	if !ok {
		return nil, &SpecError{Type: spec.Type, Field: "answer", Reason: "expected answer is not a boolean value"}
	}

	submitted, ok := normalizeBool(answer.Text())
	if !ok {
		// Fail closed on anything that is not recognizably true or false.
		return &GradeResult{
			Score:    0,
			MaxScore: spec.MaxPoints,
			Feedback: FeedbackPayload{
				Summary:    "The submitted answer could not be read as true or false.",
				Confidence: floatPtr(0),
				Provider:   ProviderMock,
			},
		}, nil
	}

	if submitted == expected {
		return &GradeResult{
			Score:    spec.MaxPoints,
			MaxScore: spec.MaxPoints,
			Feedback: FeedbackPayload{
				Summary:    "Correct!",
				Confidence: floatPtr(1),
				Provider:   ProviderMock,
			},
		}, nil
	}

	return &GradeResult{
		Score:    0,
		MaxScore: spec.MaxPoints,
		Feedback: FeedbackPayload{
			Summary:    fmt.Sprintf("Incorrect. The correct answer is %s.", expected),
			Confidence: floatPtr(1),
			Provider:   ProviderMock,
		},
	}, nil
}

func normalizeChoice(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// normalizeBool maps common boolean spellings to the canonical "true" or
// "false" token. The second return is false when the input is neither.
func normalizeBool(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return "true", true
	case "false", "f", "no", "n", "0":
		return "false", true
	}
	return "", false
}
