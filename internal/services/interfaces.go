package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/SAP-F-2025/exam-grading-service/internal/models"
	"github.com/SAP-F-2025/exam-grading-service/internal/repositories"
)

// ===== REQUEST / RESPONSE TYPES =====

type CreateExamRequest struct {
	Title        string     `json:"title" validate:"required,min=1,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=2000"`
	Duration     int        `json:"duration" validate:"required,min=5,max=300"`
	StartTime    *time.Time `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	PassingScore int        `json:"passing_score" validate:"min=0,max=100"`
}

type UpdateExamRequest struct {
	Title        *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=2000"`
	Duration     *int       `json:"duration" validate:"omitempty,min=5,max=300"`
	StartTime    *time.Time `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	PassingScore *int       `json:"passing_score" validate:"omitempty,min=0,max=100"`
}

type CreateQuestionRequest struct {
	Type           string          `json:"question_type" validate:"required,question_type"`
	Text           string          `json:"question_text" validate:"required"`
	ExpectedAnswer json.RawMessage `json:"expected_answer" validate:"required"`
	Options        json.RawMessage `json:"options"`
	Points         float64         `json:"points" validate:"required,min=0"`
	Order          int             `json:"order" validate:"min=0"`
}

type UpdateQuestionRequest struct {
	Text           *string         `json:"question_text" validate:"omitempty,min=1"`
	ExpectedAnswer json.RawMessage `json:"expected_answer"`
	Options        json.RawMessage `json:"options"`
	Points         *float64        `json:"points" validate:"omitempty,min=0"`
	Order          *int            `json:"order" validate:"omitempty,min=0"`
}

type StartSubmissionRequest struct {
	ExamID uint `json:"exam_id" validate:"required"`
}

type SaveAnswerRequest struct {
	QuestionID uint            `json:"question_id" validate:"required"`
	AnswerText string          `json:"answer_text"`
	AnswerData json.RawMessage `json:"answer_data"`
}

type RegradeRequest struct {
	AnswerIDs []uint `json:"answer_ids"`
}

// SubmissionAggregate is the grading outcome for one submission,
// recomputed wholesale from all of its answers.
type SubmissionAggregate struct {
	SubmissionID   uint                    `json:"submission_id"`
	Status         models.SubmissionStatus `json:"status"`
	TotalScore     float64                 `json:"total_score"`
	MaxScore       float64                 `json:"max_score"`
	Percentage     float64                 `json:"percentage"`
	Passed         bool                    `json:"passed"`
	GradedAt       time.Time               `json:"graded_at"`
	FallbackGraded int                     `json:"fallback_graded"`
}

type SubmissionStats struct {
	SubmissionID uint                    `json:"submission_id"`
	ExamID       uint                    `json:"exam_id"`
	ExamTitle    string                  `json:"exam_title"`
	Status       models.SubmissionStatus `json:"status"`
	TotalScore   float64                 `json:"total_score"`
	MaxScore     float64                 `json:"max_score"`
	Percentage   float64                 `json:"percentage"`
	Passed       bool                    `json:"passed"`
	PassingScore int                     `json:"passing_score"`
	SubmittedAt  *time.Time              `json:"submitted_at"`
	GradedAt     *time.Time              `json:"graded_at"`
}

// ===== SERVICE INTERFACES =====

// GradingService is the grading orchestrator: the inbound contract the
// submission-management layer calls.
type GradingService interface {
	GradeSubmission(ctx context.Context, submissionID uint) (*SubmissionAggregate, error)
	RegradeSubmission(ctx context.Context, submissionID uint, answerIDs []uint) (*SubmissionAggregate, error)
}

type SubmissionService interface {
	Start(ctx context.Context, req *StartSubmissionRequest, userID string) (*models.Submission, error)
	SaveAnswer(ctx context.Context, submissionID uint, req *SaveAnswerRequest, userID string) (*models.Answer, error)
	Submit(ctx context.Context, submissionID uint, userID string) (*SubmissionAggregate, error)
	Get(ctx context.Context, submissionID uint) (*models.Submission, error)
	List(ctx context.Context, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error)
	Stats(ctx context.Context, submissionID uint) (*SubmissionStats, error)
}

type ExamService interface {
	Create(ctx context.Context, req *CreateExamRequest, createdBy string) (*models.Exam, error)
	Update(ctx context.Context, id uint, req *UpdateExamRequest) (*models.Exam, error)
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*models.Exam, error)
	GetWithQuestions(ctx context.Context, id uint) (*models.Exam, error)
	List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error)
	Publish(ctx context.Context, id uint) (*models.Exam, error)
	Stats(ctx context.Context, id uint) (*repositories.ExamStats, error)

	AddQuestion(ctx context.Context, examID uint, req *CreateQuestionRequest) (*models.Question, error)
	UpdateQuestion(ctx context.Context, questionID uint, req *UpdateQuestionRequest) (*models.Question, error)
	DeleteQuestion(ctx context.Context, questionID uint) error
}

type ExportService interface {
	ExportExamResults(ctx context.Context, examID uint) ([]byte, string, error)
}
