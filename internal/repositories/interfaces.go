package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/exam-grading-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type ExamFilters struct {
	IsPublished *bool      `json:"is_published"`
	CreatedBy   *string    `json:"created_by"`
	DateFrom    *time.Time `json:"date_from"`
	DateTo      *time.Time `json:"date_to"`
	Limit       int        `json:"limit"`
	Offset      int        `json:"offset"`
	SortBy      string     `json:"sort_by"`    // "created_at", "title"
	SortOrder   string     `json:"sort_order"` // "asc", "desc"
}

type SubmissionFilters struct {
	Status    *models.SubmissionStatus `json:"status"`
	UserID    *string                  `json:"user_id"`
	ExamID    *uint                    `json:"exam_id"`
	DateFrom  *time.Time               `json:"date_from"`
	DateTo    *time.Time               `json:"date_to"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`
	SortOrder string                   `json:"sort_order"`
}

// ===== SHARED STATISTICS STRUCTS =====

type ExamStats struct {
	TotalSubmissions  int     `json:"total_submissions"`
	GradedSubmissions int     `json:"graded_submissions"`
	AverageScore      float64 `json:"average_score"`
	PassRate          float64 `json:"pass_rate"`
	QuestionCount     int     `json:"question_count"`
	TotalPoints       float64 `json:"total_points"`
}

// ===== REPOSITORY INTERFACES =====

type ExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id uint) (*models.Exam, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Exam, error)
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters ExamFilters) ([]*models.Exam, int64, error)
	SetPublished(ctx context.Context, id uint, published bool) error
	GetStats(ctx context.Context, id uint, passingScore int) (*ExamStats, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByExam(ctx context.Context, examID uint) ([]*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error
	CountByExam(ctx context.Context, examID uint) (int64, error)
}

type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	GetByIDWithAnswers(ctx context.Context, id uint) (*models.Submission, error)
	GetByUserAndExam(ctx context.Context, userID string, examID uint) (*models.Submission, error)
	Update(ctx context.Context, submission *models.Submission) error

	List(ctx context.Context, filters SubmissionFilters) ([]*models.Submission, int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.SubmissionStatus) error

	// UpdateAggregate writes a full recomputation of the submission's
	// totals together with its status transition.
	UpdateAggregate(ctx context.Context, id uint, totalScore, maxScore float64, status models.SubmissionStatus, gradedAt time.Time) error
}

type AnswerRepository interface {
	Create(ctx context.Context, answer *models.Answer) error
	CreateBatch(ctx context.Context, answers []*models.Answer) error
	GetByID(ctx context.Context, id uint) (*models.Answer, error)
	GetBySubmission(ctx context.Context, submissionID uint) ([]*models.Answer, error)
	GetBySubmissionAndQuestion(ctx context.Context, submissionID, questionID uint) (*models.Answer, error)
	Update(ctx context.Context, answer *models.Answer) error

	// UpdateGrade writes one answer's grading result.
	UpdateGrade(ctx context.Context, id uint, score, maxScore float64, feedback []byte) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}

// Repository aggregates the per-entity repositories and transaction
// support behind one dependency for the service layer.
type Repository interface {
	Exam() ExamRepository
	Question() QuestionRepository
	Submission() SubmissionRepository
	Answer() AnswerRepository
	User() UserRepository

	// WithTransaction runs fn against a Repository bound to one
	// database transaction, committing on nil and rolling back on error.
	WithTransaction(ctx context.Context, fn func(Repository) error) error
}

// IsNotFoundError reports whether err is the database's record-not-found.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
