package grading

import "context"

// Scorer grades one answer against its question's spec. Implementations
// are stateless and safe for concurrent use across submissions.
type Scorer interface {
	Score(ctx context.Context, spec *ScoreSpec, answer *AnswerSubmission) (*GradeResult, error)
}
