package postgres

import (
	"context"

	"github.com/SAP-F-2025/exam-grading-service/internal/models"
	"github.com/SAP-F-2025/exam-grading-service/internal/repositories"
	"gorm.io/gorm"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a *AnswerPostgreSQL) Create(ctx context.Context, answer *models.Answer) error {
	return a.db.WithContext(ctx).Create(answer).Error
}

func (a *AnswerPostgreSQL) CreateBatch(ctx context.Context, answers []*models.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	return a.db.WithContext(ctx).Create(&answers).Error
}

func (a *AnswerPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Answer, error) {
	var answer models.Answer
	if err := a.db.WithContext(ctx).Preload("Question").First(&answer, id).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (a *AnswerPostgreSQL) GetBySubmission(ctx context.Context, submissionID uint) ([]*models.Answer, error) {
	var answers []*models.Answer
	if err := a.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Preload("Question").
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) GetBySubmissionAndQuestion(ctx context.Context, submissionID, questionID uint) (*models.Answer, error) {
	var answer models.Answer
	if err := a.db.WithContext(ctx).
		Where("submission_id = ? AND question_id = ?", submissionID, questionID).
		First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (a *AnswerPostgreSQL) Update(ctx context.Context, answer *models.Answer) error {
	return a.db.WithContext(ctx).Save(answer).Error
}

func (a *AnswerPostgreSQL) UpdateGrade(ctx context.Context, id uint, score, maxScore float64, feedback []byte) error {
	return a.db.WithContext(ctx).
		Model(&models.Answer{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"score":     score,
			"max_score": maxScore,
			"feedback":  feedback,
		}).Error
}
