package models

import (
	"time"

	"github.com/SAP-F-2025/exam-grading-service/internal/grading"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Exam struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Title        string     `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description  *string    `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Duration     int        `json:"duration" gorm:"not null" validate:"required,min=5,max=300"` // minutes
	StartTime    *time.Time `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	IsPublished  bool       `json:"is_published" gorm:"default:false;index"`
	PassingScore int        `json:"passing_score" gorm:"default:60" validate:"min=0,max=100"` // percentage

	CreatedBy string         `json:"created_by" gorm:"not null;size:255;index"`
	Metadata  datatypes.JSON `json:"metadata" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:ExamID"`

	// Computed fields (not stored)
	QuestionsCount int     `json:"questions_count" gorm:"-"`
	TotalPoints    float64 `json:"total_points" gorm:"-"`
}

func (Exam) TableName() string {
	return "exams"
}

type Question struct {
	ID     uint                 `json:"id" gorm:"primaryKey"`
	ExamID uint                 `json:"exam_id" gorm:"not null;index"`
	Type   grading.QuestionType `json:"question_type" gorm:"column:question_type;not null;size:20" validate:"required,question_type"`
	Text   string               `json:"question_text" gorm:"column:question_text;type:text;not null" validate:"required"`

	// ExpectedAnswer holds the per-type grading payload; Options holds
	// the choice list for multiple choice questions. Both are stored
	// verbatim and parsed into a grading.ScoreSpec when needed.
	ExpectedAnswer datatypes.JSON `json:"expected_answer" gorm:"type:jsonb;not null"`
	Options        datatypes.JSON `json:"options,omitempty" gorm:"type:jsonb"`

	Points float64 `json:"points" gorm:"not null" validate:"required,min=0"`
	Order  int     `json:"order" gorm:"column:question_order;default:0;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exam *Exam `json:"-" gorm:"foreignKey:ExamID"`
}

func (Question) TableName() string {
	return "questions"
}

// ScoreSpec parses the question's stored grading data into the engine's
// read-only per-type shape.
func (q *Question) ScoreSpec() (*grading.ScoreSpec, error) {
	return grading.ParseScoreSpec(q.Type, q.Text, q.ExpectedAnswer, q.Options, q.Points)
}
