package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-grading-service/internal/models"
	"github.com/SAP-F-2025/exam-grading-service/internal/repositories"
	"gorm.io/gorm"
)

// fakeRepository is an in-memory Repository for service tests.
type fakeRepository struct {
	exams       map[uint]*models.Exam
	questions   map[uint]*models.Question
	submissions map[uint]*models.Submission
	answers     map[uint]*models.Answer
	nextID      uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		exams:       make(map[uint]*models.Exam),
		questions:   make(map[uint]*models.Question),
		submissions: make(map[uint]*models.Submission),
		answers:     make(map[uint]*models.Answer),
		nextID:      1,
	}
}

func (f *fakeRepository) id() uint {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeRepository) Exam() repositories.ExamRepository             { return &fakeExams{f} }
func (f *fakeRepository) Question() repositories.QuestionRepository     { return &fakeQuestions{f} }
func (f *fakeRepository) Submission() repositories.SubmissionRepository { return &fakeSubmissions{f} }
func (f *fakeRepository) Answer() repositories.AnswerRepository         { return &fakeAnswers{f} }
func (f *fakeRepository) User() repositories.UserRepository             { return &fakeUsers{} }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

// ===== EXAMS =====

type fakeExams struct{ r *fakeRepository }

func (f *fakeExams) Create(_ context.Context, exam *models.Exam) error {
	exam.ID = f.r.id()
	f.r.exams[exam.ID] = exam
	return nil
}

func (f *fakeExams) GetByID(_ context.Context, id uint) (*models.Exam, error) {
	exam, ok := f.r.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return exam, nil
}

func (f *fakeExams) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Exam, error) {
	exam, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	exam.Questions = nil
	for _, q := range f.r.questions {
		if q.ExamID == id {
			exam.Questions = append(exam.Questions, *q)
		}
	}
	return exam, nil
}

func (f *fakeExams) Update(_ context.Context, exam *models.Exam) error {
	f.r.exams[exam.ID] = exam
	return nil
}

func (f *fakeExams) Delete(_ context.Context, id uint) error {
	delete(f.r.exams, id)
	return nil
}

func (f *fakeExams) List(_ context.Context, _ repositories.ExamFilters) ([]*models.Exam, int64, error) {
	var out []*models.Exam
	for _, e := range f.r.exams {
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (f *fakeExams) SetPublished(_ context.Context, id uint, published bool) error {
	exam, ok := f.r.exams[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	exam.IsPublished = published
	return nil
}

func (f *fakeExams) GetStats(_ context.Context, _ uint, _ int) (*repositories.ExamStats, error) {
	return &repositories.ExamStats{}, nil
}

// ===== QUESTIONS =====

type fakeQuestions struct{ r *fakeRepository }

func (f *fakeQuestions) Create(_ context.Context, q *models.Question) error {
	q.ID = f.r.id()
	f.r.questions[q.ID] = q
	return nil
}

func (f *fakeQuestions) GetByID(_ context.Context, id uint) (*models.Question, error) {
	q, ok := f.r.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (f *fakeQuestions) GetByExam(_ context.Context, examID uint) ([]*models.Question, error) {
	var out []*models.Question
	for _, q := range f.r.questions {
		if q.ExamID == examID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestions) Update(_ context.Context, q *models.Question) error {
	f.r.questions[q.ID] = q
	return nil
}

func (f *fakeQuestions) Delete(_ context.Context, id uint) error {
	delete(f.r.questions, id)
	return nil
}

func (f *fakeQuestions) CountByExam(ctx context.Context, examID uint) (int64, error) {
	qs, _ := f.GetByExam(ctx, examID)
	return int64(len(qs)), nil
}

// ===== SUBMISSIONS =====

type fakeSubmissions struct{ r *fakeRepository }

func (f *fakeSubmissions) Create(_ context.Context, s *models.Submission) error {
	s.ID = f.r.id()
	f.r.submissions[s.ID] = s
	return nil
}

func (f *fakeSubmissions) GetByID(_ context.Context, id uint) (*models.Submission, error) {
	s, ok := f.r.submissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeSubmissions) GetByIDWithAnswers(ctx context.Context, id uint) (*models.Submission, error) {
	s, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Answers = nil
	for _, a := range f.r.answers {
		if a.SubmissionID == id {
			s.Answers = append(s.Answers, *a)
		}
	}
	if exam, ok := f.r.exams[s.ExamID]; ok {
		s.Exam = exam
	}
	return s, nil
}

func (f *fakeSubmissions) GetByUserAndExam(_ context.Context, userID string, examID uint) (*models.Submission, error) {
	for _, s := range f.r.submissions {
		if s.UserID == userID && s.ExamID == examID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubmissions) Update(_ context.Context, s *models.Submission) error {
	f.r.submissions[s.ID] = s
	return nil
}

func (f *fakeSubmissions) List(_ context.Context, _ repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	var out []*models.Submission
	for _, s := range f.r.submissions {
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (f *fakeSubmissions) UpdateStatus(_ context.Context, id uint, status models.SubmissionStatus) error {
	s, ok := f.r.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	return nil
}

func (f *fakeSubmissions) UpdateAggregate(_ context.Context, id uint, totalScore, maxScore float64, status models.SubmissionStatus, gradedAt time.Time) error {
	s, ok := f.r.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.TotalScore = totalScore
	s.MaxScore = maxScore
	s.Status = status
	s.GradedAt = &gradedAt
	return nil
}

// ===== ANSWERS =====

type fakeAnswers struct{ r *fakeRepository }

func (f *fakeAnswers) Create(_ context.Context, a *models.Answer) error {
	a.ID = f.r.id()
	f.r.answers[a.ID] = a
	return nil
}

func (f *fakeAnswers) CreateBatch(ctx context.Context, answers []*models.Answer) error {
	for _, a := range answers {
		if err := f.Create(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeAnswers) GetByID(_ context.Context, id uint) (*models.Answer, error) {
	a, ok := f.r.answers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (f *fakeAnswers) GetBySubmission(_ context.Context, submissionID uint) ([]*models.Answer, error) {
	var out []*models.Answer
	for _, a := range f.r.answers {
		if a.SubmissionID == submissionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAnswers) GetBySubmissionAndQuestion(_ context.Context, submissionID, questionID uint) (*models.Answer, error) {
	for _, a := range f.r.answers {
		if a.SubmissionID == submissionID && a.QuestionID == questionID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAnswers) Update(_ context.Context, a *models.Answer) error {
	f.r.answers[a.ID] = a
	return nil
}

func (f *fakeAnswers) UpdateGrade(_ context.Context, id uint, score, maxScore float64, feedback []byte) error {
	a, ok := f.r.answers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Score = score
	a.MaxScore = maxScore
	a.Feedback = feedback
	return nil
}

// ===== USERS =====

type fakeUsers struct{}

func (f *fakeUsers) GetByID(_ context.Context, _ string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) Upsert(_ context.Context, _ *models.User) error {
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
