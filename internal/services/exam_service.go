package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-grading-service/internal/cache"
	"github.com/SAP-F-2025/exam-grading-service/internal/events"
	"github.com/SAP-F-2025/exam-grading-service/internal/grading"
	"github.com/SAP-F-2025/exam-grading-service/internal/models"
	"github.com/SAP-F-2025/exam-grading-service/internal/repositories"
	"github.com/SAP-F-2025/exam-grading-service/internal/validator"
)

type examService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	cache     cache.CacheService
	logger    *slog.Logger
	validator *validator.Validator
}

func NewExamService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
	logger *slog.Logger,
	v *validator.Validator,
) ExamService {
	return &examService{
		repo:      repo,
		publisher: publisher,
		cache:     cacheService,
		logger:    logger,
		validator: v,
	}
}

func (s *examService) Create(ctx context.Context, req *CreateExamRequest, createdBy string) (*models.Exam, error) {
	s.logger.Info("Creating exam", "title", req.Title, "created_by", createdBy)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	exam := &models.Exam{
		Title:        req.Title,
		Description:  req.Description,
		Duration:     req.Duration,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		PassingScore: req.PassingScore,
		CreatedBy:    createdBy,
	}
	if exam.PassingScore == 0 {
		exam.PassingScore = 60
	}

	if err := s.repo.Exam().Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}
	return exam, nil
}

func (s *examService) Update(ctx context.Context, id uint, req *UpdateExamRequest) (*models.Exam, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	exam, err := s.getExam(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam.IsPublished {
		return nil, ErrExamNotEditable
	}

	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = req.Description
	}
	if req.Duration != nil {
		exam.Duration = *req.Duration
	}
	if req.StartTime != nil {
		exam.StartTime = req.StartTime
	}
	if req.EndTime != nil {
		exam.EndTime = req.EndTime
	}
	if req.PassingScore != nil {
		exam.PassingScore = *req.PassingScore
	}

	if err := s.repo.Exam().Update(ctx, exam); err != nil {
		return nil, fmt.Errorf("failed to update exam: %w", err)
	}
	return exam, nil
}

func (s *examService) Delete(ctx context.Context, id uint) error {
	exam, err := s.getExam(ctx, id)
	if err != nil {
		return err
	}
	if exam.IsPublished {
		return ErrExamNotEditable
	}
	if err := s.repo.Exam().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete exam: %w", err)
	}
	s.invalidateSpecCache(ctx, id)
	return nil
}

func (s *examService) Get(ctx context.Context, id uint) (*models.Exam, error) {
	return s.getExam(ctx, id)
}

func (s *examService) GetWithQuestions(ctx context.Context, id uint) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	exam.QuestionsCount = len(exam.Questions)
	for _, q := range exam.Questions {
		exam.TotalPoints += q.Points
	}
	return exam, nil
}

func (s *examService) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	return s.repo.Exam().List(ctx, filters)
}

// Publish freezes the exam's questions: every question's grading data
// must parse into a valid score spec before students can see it. Score
// specs are immutable from here on.
func (s *examService) Publish(ctx context.Context, id uint) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if exam.IsPublished {
		return exam, nil
	}
	if len(exam.Questions) == 0 {
		return nil, ErrExamHasNoQuestions
	}

	for i := range exam.Questions {
		if _, err := exam.Questions[i].ScoreSpec(); err != nil {
			return nil, fmt.Errorf("question %d: %w", exam.Questions[i].ID, err)
		}
	}

	if err := s.repo.Exam().SetPublished(ctx, id, true); err != nil {
		return nil, fmt.Errorf("failed to publish exam: %w", err)
	}
	exam.IsPublished = true

	if s.publisher != nil {
		event := events.NewExamPublishedEvent(exam.ID, exam.Title, exam.Duration, exam.EndTime, exam.CreatedBy)
		if err := s.publisher.PublishGradingEvent(ctx, event); err != nil {
			s.logger.Error("failed to publish exam event", "exam_id", exam.ID, "error", err)
		}
	}

	s.logger.Info("Exam published", "exam_id", exam.ID, "questions", len(exam.Questions))
	return exam, nil
}

func (s *examService) Stats(ctx context.Context, id uint) (*repositories.ExamStats, error) {
	exam, err := s.getExam(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.repo.Exam().GetStats(ctx, id, exam.PassingScore)
}

// ===== QUESTION MANAGEMENT =====

func (s *examService) AddQuestion(ctx context.Context, examID uint, req *CreateQuestionRequest) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	exam, err := s.getExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if exam.IsPublished {
		return nil, ErrExamNotEditable
	}

	question := &models.Question{
		ExamID:         examID,
		Type:           grading.QuestionType(req.Type),
		Text:           req.Text,
		ExpectedAnswer: []byte(req.ExpectedAnswer),
		Options:        []byte(req.Options),
		Points:         req.Points,
		Order:          req.Order,
	}

	// Authoring-time check: a question that cannot produce a score spec
	// would make grading fail later.
	if _, err := question.ScoreSpec(); err != nil {
		return nil, err
	}

	if err := s.repo.Question().Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	s.invalidateSpecCache(ctx, examID)
	return question, nil
}

func (s *examService) UpdateQuestion(ctx context.Context, questionID uint, req *UpdateQuestionRequest) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	question, err := s.repo.Question().GetByID(ctx, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	exam, err := s.getExam(ctx, question.ExamID)
	if err != nil {
		return nil, err
	}
	if exam.IsPublished {
		return nil, ErrExamNotEditable
	}

	if req.Text != nil {
		question.Text = *req.Text
	}
	if len(req.ExpectedAnswer) > 0 {
		question.ExpectedAnswer = []byte(req.ExpectedAnswer)
	}
	if len(req.Options) > 0 {
		question.Options = []byte(req.Options)
	}
	if req.Points != nil {
		question.Points = *req.Points
	}
	if req.Order != nil {
		question.Order = *req.Order
	}

	if _, err := question.ScoreSpec(); err != nil {
		return nil, err
	}

	if err := s.repo.Question().Update(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	s.invalidateSpecCache(ctx, question.ExamID)
	return question, nil
}

func (s *examService) DeleteQuestion(ctx context.Context, questionID uint) error {
	question, err := s.repo.Question().GetByID(ctx, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	exam, err := s.getExam(ctx, question.ExamID)
	if err != nil {
		return err
	}
	if exam.IsPublished {
		return ErrExamNotEditable
	}

	if err := s.repo.Question().Delete(ctx, questionID); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	s.invalidateSpecCache(ctx, question.ExamID)
	return nil
}

func (s *examService) getExam(ctx context.Context, id uint) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return exam, nil
}

func (s *examService) invalidateSpecCache(ctx context.Context, examID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, fmt.Sprintf("exam:%d:*", examID)); err != nil {
		s.logger.Warn("failed to invalidate spec cache", "exam_id", examID, "error", err)
	}
}
