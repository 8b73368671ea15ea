package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EditSessionPostgreSQL struct {
	db *gorm.DB
}

func NewEditSessionPostgreSQL(db *gorm.DB) repositories.EditSessionRepository {
	return &EditSessionPostgreSQL{db: db}
}

func (e *EditSessionPostgreSQL) Create(ctx context.Context, session *models.EditSession) error {
	if err := e.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create edit session: %w", err)
	}
	return nil
}

func (e *EditSessionPostgreSQL) GetByID(ctx context.Context, id uuid.UUID) (*models.EditSession, error) {
	var session models.EditSession
	if err := e.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, lookupErr("get edit session", err)
	}
	return &session, nil
}

func (e *EditSessionPostgreSQL) GetActive(ctx context.Context, quizID uuid.UUID) (*models.EditSession, error) {
	var session models.EditSession
	err := e.db.WithContext(ctx).
		Where("quiz_id = ? AND status = ?", quizID, models.EditSessionActive).
		First(&session).Error
	active, err := optional(&session, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get active edit session: %w", err)
	}
	return active, nil
}

func (e *EditSessionPostgreSQL) Update(ctx context.Context, session *models.EditSession) error {
	if err := e.db.WithContext(ctx).Save(session).Error; err != nil {
		return fmt.Errorf("failed to update edit session: %w", err)
	}
	return nil
}

func (e *EditSessionPostgreSQL) Delete(ctx context.Context, id uuid.UUID) error {
	if err := e.db.WithContext(ctx).Delete(&models.EditSession{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete edit session: %w", err)
	}
	return nil
}
