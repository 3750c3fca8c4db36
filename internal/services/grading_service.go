package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/exam-grading-service/internal/cache"
	"github.com/SAP-F-2025/exam-grading-service/internal/events"
	"github.com/SAP-F-2025/exam-grading-service/internal/grading"
	"github.com/SAP-F-2025/exam-grading-service/internal/models"
	"github.com/SAP-F-2025/exam-grading-service/internal/repositories"
	"golang.org/x/sync/errgroup"
)

const specCacheTTL = 10 * time.Minute

// submissionLocks serializes grading passes per submission. Concurrent
// grading and regrading of the same submission would corrupt the
// wholesale-recomputed aggregate; different submissions share no state
// and proceed in parallel.
type submissionLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newSubmissionLocks() *submissionLocks {
	return &submissionLocks{locks: make(map[uint]*sync.Mutex)}
}

func (l *submissionLocks) get(id uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

type gradingService struct {
	repo      repositories.Repository
	selector  *grading.Selector
	publisher events.EventPublisher
	cache     cache.CacheService
	logger    *slog.Logger
	locks     *submissionLocks
}

func NewGradingService(
	repo repositories.Repository,
	selector *grading.Selector,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
	logger *slog.Logger,
) GradingService {
	return &gradingService{
		repo:      repo,
		selector:  selector,
		publisher: publisher,
		cache:     cacheService,
		logger:    logger,
		locks:     newSubmissionLocks(),
	}
}

// GradeSubmission grades every answer of a submitted submission and
// transitions it to graded. Runs synchronously: the submission is graded
// before the submit call returns.
func (s *gradingService) GradeSubmission(ctx context.Context, submissionID uint) (*SubmissionAggregate, error) {
	return s.grade(ctx, submissionID, nil, false)
}

// RegradeSubmission re-runs grading on all answers, or an explicit
// subset, of an already graded submission. The aggregate is always
// recomputed from the full current set of answer results; submitted_at
// is never touched.
func (s *gradingService) RegradeSubmission(ctx context.Context, submissionID uint, answerIDs []uint) (*SubmissionAggregate, error) {
	return s.grade(ctx, submissionID, answerIDs, true)
}

func (s *gradingService) grade(ctx context.Context, submissionID uint, answerIDs []uint, regrade bool) (*SubmissionAggregate, error) {
	lock := s.locks.get(submissionID)
	lock.Lock()
	defer lock.Unlock()

	operation := "grade"
	if regrade {
		operation = "regrade"
	}
	s.logger.Info("Starting grading pass",
		"submission_id", submissionID,
		"operation", operation,
		"mode", s.selector.Mode())

	submission, err := s.repo.Submission().GetByIDWithAnswers(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if err := s.checkGradable(submission, operation); err != nil {
		return nil, err
	}

	specs, err := s.questionSpecs(ctx, submission.ExamID)
	if err != nil {
		return nil, err
	}

	targets, err := selectTargets(submission.Answers, answerIDs)
	if err != nil {
		return nil, err
	}

	results, err := s.scoreAnswers(ctx, specs, targets)
	if err != nil {
		return nil, err
	}

	aggregate, err := s.persistResults(ctx, submission, targets, results)
	if err != nil {
		return nil, err
	}

	s.publishGraded(ctx, submission, aggregate, regrade)

	s.logger.Info("Grading pass finished",
		"submission_id", submissionID,
		"operation", operation,
		"total_score", aggregate.TotalScore,
		"max_score", aggregate.MaxScore,
		"fallback_graded", aggregate.FallbackGraded)

	return aggregate, nil
}

func (s *gradingService) checkGradable(submission *models.Submission, operation string) error {
	switch submission.Status {
	case models.SubmissionSubmitted:
		return nil
	case models.SubmissionGraded:
		// graded -> graded self-loop.
		return nil
	default:
		return NewPreconditionError(submission.ID, string(submission.Status), operation)
	}
}

// questionSpecs loads the exam's parsed score specs, through the cache
// when possible. Specs are immutable once an exam is published, which is
// the only state in which submissions exist.
func (s *gradingService) questionSpecs(ctx context.Context, examID uint) (map[uint]*grading.ScoreSpec, error) {
	cacheKey := fmt.Sprintf("exam:%d:specs", examID)

	specs := make(map[uint]*grading.ScoreSpec)
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &specs); err == nil && len(specs) > 0 {
			return specs, nil
		} else if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("spec cache read failed", "exam_id", examID, "error", err)
		}
	}

	questions, err := s.repo.Question().GetByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrExamHasNoQuestions
	}

	specs = make(map[uint]*grading.ScoreSpec, len(questions))
	for _, q := range questions {
		spec, err := q.ScoreSpec()
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", q.ID, err)
		}
		specs[q.ID] = spec
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, specs, specCacheTTL); err != nil {
			s.logger.Warn("spec cache write failed", "exam_id", examID, "error", err)
		}
	}
	return specs, nil
}

// selectTargets resolves which answers this pass re-scores: all of them,
// or the requested subset.
func selectTargets(answers []models.Answer, answerIDs []uint) ([]*models.Answer, error) {
	if len(answerIDs) == 0 {
		targets := make([]*models.Answer, len(answers))
		for i := range answers {
			targets[i] = &answers[i]
		}
		return targets, nil
	}

	byID := make(map[uint]*models.Answer, len(answers))
	for i := range answers {
		byID[answers[i].ID] = &answers[i]
	}

	targets := make([]*models.Answer, 0, len(answerIDs))
	for _, id := range answerIDs {
		answer, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: answer %d does not belong to the submission", ErrAnswerNotFound, id)
		}
		targets = append(targets, answer)
	}
	return targets, nil
}

// scoreAnswers dispatches the scoring calls concurrently, bounded by the
// configured worker count. Answers are independent; only the collection
// of results is shared, and each goroutine writes its own index.
func (s *gradingService) scoreAnswers(ctx context.Context, specs map[uint]*grading.ScoreSpec, targets []*models.Answer) ([]*grading.GradeResult, error) {
	results := make([]*grading.GradeResult, len(targets))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.selector.Workers())

	for i, answer := range targets {
		spec, ok := specs[answer.QuestionID]
		if !ok {
			return nil, fmt.Errorf("%w: question %d", ErrQuestionNotFound, answer.QuestionID)
		}

		g.Go(func() error {
			submission := &grading.AnswerSubmission{
				QuestionID: answer.QuestionID,
				RawText:    answer.AnswerText,
				RawData:    json.RawMessage(answer.AnswerData),
			}
			result, err := s.selector.GradeAnswer(groupCtx, spec, submission)
			if err != nil {
				return fmt.Errorf("answer %d: %w", answer.ID, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// persistResults writes the new answer grades and the wholesale
// recomputed aggregate in one transaction. Answers outside this pass
// keep their stored results and still count toward the totals.
func (s *gradingService) persistResults(ctx context.Context, submission *models.Submission, targets []*models.Answer, results []*grading.GradeResult) (*SubmissionAggregate, error) {
	gradedAt := time.Now()
	fallbackGraded := 0

	for i, result := range results {
		feedback, err := json.Marshal(result.Feedback)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal feedback: %w", err)
		}
		targets[i].Score = result.Score
		targets[i].MaxScore = result.MaxScore
		targets[i].Feedback = feedback
		if result.Feedback.Fallback {
			fallbackGraded++
		}
	}

	var totalScore, maxScore float64
	for i := range submission.Answers {
		totalScore += submission.Answers[i].Score
		maxScore += submission.Answers[i].MaxScore
	}

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		for _, answer := range targets {
			if err := tx.Answer().UpdateGrade(ctx, answer.ID, answer.Score, answer.MaxScore, answer.Feedback); err != nil {
				return fmt.Errorf("failed to store grade for answer %d: %w", answer.ID, err)
			}
		}
		if err := tx.Submission().UpdateAggregate(ctx, submission.ID, totalScore, maxScore, models.SubmissionGraded, gradedAt); err != nil {
			return fmt.Errorf("failed to store submission aggregate: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	submission.TotalScore = totalScore
	submission.MaxScore = maxScore
	submission.Status = models.SubmissionGraded
	submission.GradedAt = &gradedAt

	passingScore := 0
	if submission.Exam != nil {
		passingScore = submission.Exam.PassingScore
	}

	return &SubmissionAggregate{
		SubmissionID:   submission.ID,
		Status:         models.SubmissionGraded,
		TotalScore:     totalScore,
		MaxScore:       maxScore,
		Percentage:     submission.Percentage(),
		Passed:         submission.IsPassed(passingScore),
		GradedAt:       gradedAt,
		FallbackGraded: fallbackGraded,
	}, nil
}

func (s *gradingService) publishGraded(ctx context.Context, submission *models.Submission, aggregate *SubmissionAggregate, regrade bool) {
	if s.publisher == nil {
		return
	}

	examTitle := ""
	if submission.Exam != nil {
		examTitle = submission.Exam.Title
	}
	event := events.NewSubmissionGradedEvent(events.SubmissionGradedEvent{
		SubmissionID:   submission.ID,
		ExamID:         submission.ExamID,
		ExamTitle:      examTitle,
		UserID:         submission.UserID,
		GradedAt:       aggregate.GradedAt,
		TotalScore:     aggregate.TotalScore,
		MaxScore:       aggregate.MaxScore,
		Percentage:     aggregate.Percentage,
		Passed:         aggregate.Passed,
		Regrade:        regrade,
		FallbackGraded: aggregate.FallbackGraded,
	})
	if err := s.publisher.PublishGradingEvent(ctx, event); err != nil {
		// Event delivery is best effort; the grade is already stored.
		s.logger.Error("failed to publish graded event",
			"submission_id", submission.ID,
			"error", err)
	}
}
