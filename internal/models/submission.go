package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubmissionStatus string

const (
	SubmissionInProgress SubmissionStatus = "in_progress"
	SubmissionSubmitted  SubmissionStatus = "submitted"
	SubmissionGraded     SubmissionStatus = "graded"
)

type Submission struct {
	ID     uint             `json:"id" gorm:"primaryKey"`
	ExamID uint             `json:"exam_id" gorm:"not null;index;uniqueIndex:idx_submission_user_exam"`
	UserID string           `json:"user_id" gorm:"not null;size:255;index;uniqueIndex:idx_submission_user_exam"`
	Status SubmissionStatus `json:"status" gorm:"default:in_progress;index"`

	// Aggregate totals, recomputed wholesale on every grading pass.
	TotalScore float64 `json:"total_score" gorm:"default:0"`
	MaxScore   float64 `json:"max_score" gorm:"default:0"`

	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	GradedAt    *time.Time `json:"graded_at"`

	Metadata datatypes.JSON `json:"metadata" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Exam    *Exam    `json:"exam,omitempty" gorm:"foreignKey:ExamID"`
	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:SubmissionID"`
}

func (Submission) TableName() string {
	return "submissions"
}

// Percentage is a derived view, never stored, so it cannot drift from
// the aggregate totals.
func (s *Submission) Percentage() float64 {
	if s.MaxScore <= 0 {
		return 0
	}
	return s.TotalScore / s.MaxScore * 100
}

func (s *Submission) IsPassed(passingScore int) bool {
	return s.Percentage() >= float64(passingScore)
}

type Answer struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	SubmissionID uint `json:"submission_id" gorm:"not null;index;uniqueIndex:idx_answer_submission_question"`
	QuestionID   uint `json:"question_id" gorm:"not null;index;uniqueIndex:idx_answer_submission_question"`

	// What the student provided; either free text or a structured
	// payload such as {"selected": "B"}.
	AnswerText string         `json:"answer_text" gorm:"type:text"`
	AnswerData datatypes.JSON `json:"answer_data" gorm:"type:jsonb"`

	// Grading output.
	Score    float64        `json:"score" gorm:"default:0"`
	MaxScore float64        `json:"max_score" gorm:"default:0"`
	Feedback datatypes.JSON `json:"feedback" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (Answer) TableName() string {
	return "answers"
}
