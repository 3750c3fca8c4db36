package grading

import (
	"context"
	"fmt"
	"log/slog"
)

// Selector routes each answer to the scorer its question type and the
// configured mode call for, and applies the deterministic fallback when
// an LLM provider exhausts its retry budget.
type Selector struct {
	mode       Mode
	exact      *ExactMatchScorer
	similarity *SimilarityScorer
	llm        *LLMScorer
	workers    int
	logger     *slog.Logger
}

// Route picks the scorer for a question type. Choice questions always go
// to exact match; free-text questions go to the similarity scorer in
// mock mode and to the bound LLM otherwise.
func (s *Selector) Route(qt QuestionType) (Scorer, error) {
	switch qt {
	case MultipleChoice, TrueFalse:
		return s.exact, nil
	case ShortAnswer, Essay:
		if s.mode == ModeMock {
			return s.similarity, nil
		}
		return s.llm, nil
	default:
		return nil, &SpecError{Type: qt, Field: "question_type", Reason: "unknown question type"}
	}
}

// GradeAnswer scores one answer. A transient provider failure (after the
// scorer's own retry) is recovered here: the answer is re-routed to the
// similarity scorer for this pass only and the feedback records the
// fallback so instructors can regrade later.
func (s *Selector) GradeAnswer(ctx context.Context, spec *ScoreSpec, answer *AnswerSubmission) (*GradeResult, error) {
	scorer, err := s.Route(spec.Type)
	if err != nil {
		return nil, err
	}

	result, err := scorer.Score(ctx, spec, answer)
	if err == nil {
		return result, nil
	}
	if !IsTransientProviderError(err) {
		return nil, err
	}

	s.logger.Warn("falling back to deterministic grading",
		"question_id", answer.QuestionID,
		"question_type", spec.Type,
		"mode", s.mode,
		"error", err)

	result, fbErr := s.similarity.Score(ctx, spec, answer)
	if fbErr != nil {
		return nil, fmt.Errorf("fallback grading failed: %w", fbErr)
	}

	result.Feedback.Fallback = true
	note := "AI grading was unavailable after retries; a deterministic similarity score was applied"
	if result.Feedback.Rationale != nil {
		note = *result.Feedback.Rationale + "; " + note
	}
	result.Feedback.Rationale = stringPtr(note)
	return result, nil
}

func (s *Selector) Mode() Mode { return s.mode }

// Workers is the bound on concurrent scoring calls per submission, sized
// to the external provider's rate limit.
func (s *Selector) Workers() int { return s.workers }
