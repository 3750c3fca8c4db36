package postgres

import (
	"context"

	"github.com/SAP-F-2025/exam-grading-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db          *gorm.DB
	exams       repositories.ExamRepository
	questions   repositories.QuestionRepository
	submissions repositories.SubmissionRepository
	answers     repositories.AnswerRepository
	users       repositories.UserRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:          db,
		exams:       NewExamPostgreSQL(db),
		questions:   NewQuestionPostgreSQL(db),
		submissions: NewSubmissionPostgreSQL(db),
		answers:     NewAnswerPostgreSQL(db),
		users:       NewUserPostgreSQL(db),
	}
}

func (r *Repository) Exam() repositories.ExamRepository             { return r.exams }
func (r *Repository) Question() repositories.QuestionRepository     { return r.questions }
func (r *Repository) Submission() repositories.SubmissionRepository { return r.submissions }
func (r *Repository) Answer() repositories.AnswerRepository         { return r.answers }
func (r *Repository) User() repositories.UserRepository             { return r.users }

func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
