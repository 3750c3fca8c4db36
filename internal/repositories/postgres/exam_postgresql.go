package postgres

import (
	"context"

	"github.com/SAP-F-2025/exam-grading-service/internal/models"
	"github.com/SAP-F-2025/exam-grading-service/internal/repositories"
	"gorm.io/gorm"
)

type ExamPostgreSQL struct {
	db *gorm.DB
}

func NewExamPostgreSQL(db *gorm.DB) repositories.ExamRepository {
	return &ExamPostgreSQL{db: db}
}

func (e *ExamPostgreSQL) Create(ctx context.Context, exam *models.Exam) error {
	return e.db.WithContext(ctx).Create(exam).Error
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := e.db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := e.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_order ASC, id ASC")
		}).
		First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) Update(ctx context.Context, exam *models.Exam) error {
	return e.db.WithContext(ctx).Save(exam).Error
}

func (e *ExamPostgreSQL) Delete(ctx context.Context, id uint) error {
	return e.db.WithContext(ctx).Delete(&models.Exam{}, id).Error
}

func (e *ExamPostgreSQL) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	var exams []*models.Exam
	var total int64

	query := e.db.WithContext(ctx).Model(&models.Exam{})
	query = e.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder, map[string]bool{
		"created_at": true,
		"title":      true,
	})

	if err := query.Find(&exams).Error; err != nil {
		return nil, 0, err
	}
	return exams, total, nil
}

func (e *ExamPostgreSQL) SetPublished(ctx context.Context, id uint, published bool) error {
	return e.db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ?", id).
		Update("is_published", published).Error
}

func (e *ExamPostgreSQL) GetStats(ctx context.Context, id uint, passingScore int) (*repositories.ExamStats, error) {
	stats := &repositories.ExamStats{}

	var questionCount int64
	var totalPoints float64
	if err := e.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("exam_id = ?", id).
		Count(&questionCount).Error; err != nil {
		return nil, err
	}
	if err := e.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("exam_id = ?", id).
		Select("COALESCE(SUM(points), 0)").
		Scan(&totalPoints).Error; err != nil {
		return nil, err
	}
	stats.QuestionCount = int(questionCount)
	stats.TotalPoints = totalPoints

	var totalSubmissions int64
	if err := e.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("exam_id = ?", id).
		Count(&totalSubmissions).Error; err != nil {
		return nil, err
	}
	stats.TotalSubmissions = int(totalSubmissions)

	var graded []*models.Submission
	if err := e.db.WithContext(ctx).
		Where("exam_id = ? AND status = ?", id, models.SubmissionGraded).
		Find(&graded).Error; err != nil {
		return nil, err
	}
	stats.GradedSubmissions = len(graded)

	if len(graded) > 0 {
		var sum float64
		var passed int
		for _, s := range graded {
			sum += s.Percentage()
			if s.IsPassed(passingScore) {
				passed++
			}
		}
		stats.AverageScore = sum / float64(len(graded))
		stats.PassRate = float64(passed) / float64(len(graded)) * 100
	}

	return stats, nil
}

func (e *ExamPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ExamFilters) *gorm.DB {
	if filters.IsPublished != nil {
		query = query.Where("is_published = ?", *filters.IsPublished)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}
