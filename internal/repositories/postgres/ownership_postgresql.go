package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OwnershipPostgreSQL struct {
	db *gorm.DB
}

func NewOwnershipPostgreSQL(db *gorm.DB) repositories.OwnershipRepository {
	return &OwnershipPostgreSQL{db: db}
}

func (o *OwnershipPostgreSQL) Create(ctx context.Context, ownership *models.QuizOwnership) error {
	if err := o.db.WithContext(ctx).Create(ownership).Error; err != nil {
		return fmt.Errorf("failed to create ownership: %w", err)
	}
	return nil
}

func (o *OwnershipPostgreSQL) Get(ctx context.Context, quizID, userID uuid.UUID) (*models.QuizOwnership, error) {
	var ownership models.QuizOwnership
	err := o.db.WithContext(ctx).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		First(&ownership).Error
	found, err := optional(&ownership, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get ownership: %w", err)
	}
	return found, nil
}

func (o *OwnershipPostgreSQL) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]*models.QuizOwnership, error) {
	var ownerships []*models.QuizOwnership
	if err := o.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("created_at").
		Find(&ownerships).Error; err != nil {
		return nil, fmt.Errorf("failed to list ownerships: %w", err)
	}
	return ownerships, nil
}
