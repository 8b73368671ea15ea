package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, attempt *models.Attempt) error {
	if err := a.db.WithContext(ctx).Omit(clause.Associations).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, id uuid.UUID) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := a.db.WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		return nil, lookupErr("get attempt", err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetOpen(ctx context.Context, userID, quizID uuid.UUID) (*models.Attempt, error) {
	var attempt models.Attempt
	err := a.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ? AND status = ?", userID, quizID, models.AttemptInProgress).
		Order("started_at DESC").
		First(&attempt).Error
	open, err := optional(&attempt, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get open attempt: %w", err)
	}
	return open, nil
}

func (a *AttemptPostgreSQL) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.Attempt, error) {
	var attempts []*models.Attempt
	query := a.db.WithContext(ctx).Where("user_id = ?", filters.UserID)
	if filters.QuizID != nil {
		query = query.Where("quiz_id = ?", *filters.QuizID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	if err := query.Order("started_at DESC").Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) Update(ctx context.Context, attempt *models.Attempt) error {
	if err := a.db.WithContext(ctx).Omit(clause.Associations).Save(attempt).Error; err != nil {
		return fmt.Errorf("failed to update attempt: %w", err)
	}
	return nil
}

func (a *AttemptPostgreSQL) DeleteByQuiz(ctx context.Context, quizID uuid.UUID) (int64, error) {
	result := a.db.WithContext(ctx).Where("quiz_id = ?", quizID).Delete(&models.Attempt{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete attempts: %w", result.Error)
	}
	return result.RowsAffected, nil
}
