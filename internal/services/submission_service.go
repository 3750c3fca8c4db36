package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-grading-service/internal/events"
	"github.com/SAP-F-2025/exam-grading-service/internal/models"
	"github.com/SAP-F-2025/exam-grading-service/internal/repositories"
	"github.com/SAP-F-2025/exam-grading-service/internal/validator"
)

type submissionService struct {
	repo      repositories.Repository
	grading   GradingService
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewSubmissionService(
	repo repositories.Repository,
	gradingService GradingService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	v *validator.Validator,
) SubmissionService {
	return &submissionService{
		repo:      repo,
		grading:   gradingService,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

// Start opens an attempt: one submission per (user, exam), created
// in_progress with a blank answer row for every question so that a
// partially answered exam is still submittable.
func (s *submissionService) Start(ctx context.Context, req *StartSubmissionRequest, userID string) (*models.Submission, error) {
	s.logger.Info("Starting submission", "exam_id", req.ExamID, "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	exam, err := s.repo.Exam().GetByID(ctx, req.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if !exam.IsPublished {
		return nil, ErrExamNotPublished
	}
	now := time.Now()
	if exam.EndTime != nil && now.After(*exam.EndTime) {
		return nil, ErrExamClosed
	}

	if existing, err := s.repo.Submission().GetByUserAndExam(ctx, userID, req.ExamID); err == nil && existing != nil {
		if existing.Status == models.SubmissionInProgress {
			s.logger.Info("Resuming existing submission", "submission_id", existing.ID)
			return existing, nil
		}
		return nil, ErrSubmissionExists
	} else if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing submission: %w", err)
	}

	questions, err := s.repo.Question().GetByExam(ctx, req.ExamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrExamHasNoQuestions
	}

	submission := &models.Submission{
		ExamID:    req.ExamID,
		UserID:    userID,
		Status:    models.SubmissionInProgress,
		StartedAt: now,
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Submission().Create(ctx, submission); err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}
		answers := make([]*models.Answer, len(questions))
		for i, q := range questions {
			answers[i] = &models.Answer{
				SubmissionID: submission.ID,
				QuestionID:   q.ID,
			}
		}
		if err := tx.Answer().CreateBatch(ctx, answers); err != nil {
			return fmt.Errorf("failed to create blank answers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		event := events.NewSubmissionStartedEvent(submission.ID, exam.ID, exam.Title, userID, submission.StartedAt)
		if err := s.publisher.PublishGradingEvent(ctx, event); err != nil {
			s.logger.Error("failed to publish started event", "submission_id", submission.ID, "error", err)
		}
	}

	return submission, nil
}

// SaveAnswer records or replaces the student's answer for one question
// while the submission is still in progress.
func (s *submissionService) SaveAnswer(ctx context.Context, submissionID uint, req *SaveAnswerRequest, userID string) (*models.Answer, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	submission, err := s.repo.Submission().GetByID(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if submission.UserID != userID {
		return nil, ErrSubmissionNotFound
	}
	if submission.Status != models.SubmissionInProgress {
		return nil, NewPreconditionError(submissionID, string(submission.Status), "answer")
	}

	answer, err := s.repo.Answer().GetBySubmissionAndQuestion(ctx, submissionID, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAnswerNotFound
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}

	answer.AnswerText = req.AnswerText
	answer.AnswerData = []byte(req.AnswerData)
	if err := s.repo.Answer().Update(ctx, answer); err != nil {
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}

	return answer, nil
}

// Submit finalizes the attempt and grades it synchronously; the caller
// gets the graded aggregate back from the same call.
func (s *submissionService) Submit(ctx context.Context, submissionID uint, userID string) (*SubmissionAggregate, error) {
	submission, err := s.repo.Submission().GetByID(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if submission.UserID != userID {
		return nil, ErrSubmissionNotFound
	}
	if submission.Status != models.SubmissionInProgress {
		return nil, NewPreconditionError(submissionID, string(submission.Status), "submit")
	}

	now := time.Now()
	submission.Status = models.SubmissionSubmitted
	submission.SubmittedAt = &now
	if err := s.repo.Submission().Update(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to submit submission: %w", err)
	}

	s.logger.Info("Submission submitted, grading synchronously",
		"submission_id", submissionID,
		"user_id", userID)

	return s.grading.GradeSubmission(ctx, submissionID)
}

func (s *submissionService) Get(ctx context.Context, submissionID uint) (*models.Submission, error) {
	submission, err := s.repo.Submission().GetByIDWithAnswers(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return submission, nil
}

func (s *submissionService) List(ctx context.Context, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	return s.repo.Submission().List(ctx, filters)
}

// Stats derives percentage and pass/fail from the stored aggregate; they
// are views, never stored.
func (s *submissionService) Stats(ctx context.Context, submissionID uint) (*SubmissionStats, error) {
	submission, err := s.repo.Submission().GetByIDWithAnswers(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	stats := &SubmissionStats{
		SubmissionID: submission.ID,
		ExamID:       submission.ExamID,
		Status:       submission.Status,
		TotalScore:   submission.TotalScore,
		MaxScore:     submission.MaxScore,
		Percentage:   submission.Percentage(),
		SubmittedAt:  submission.SubmittedAt,
		GradedAt:     submission.GradedAt,
	}
	if submission.Exam != nil {
		stats.ExamTitle = submission.Exam.Title
		stats.PassingScore = submission.Exam.PassingScore
		stats.Passed = submission.IsPassed(submission.Exam.PassingScore)
	}
	return stats, nil
}
