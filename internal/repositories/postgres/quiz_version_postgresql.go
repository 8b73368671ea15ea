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

type QuizVersionPostgreSQL struct {
	db *gorm.DB
}

func NewQuizVersionPostgreSQL(db *gorm.DB) repositories.QuizVersionRepository {
	return &QuizVersionPostgreSQL{db: db}
}

func (v *QuizVersionPostgreSQL) Create(ctx context.Context, version *models.QuizVersion) error {
	if err := v.db.WithContext(ctx).Omit(clause.Associations).Create(version).Error; err != nil {
		return fmt.Errorf("failed to create quiz version: %w", err)
	}
	return nil
}

func (v *QuizVersionPostgreSQL) GetByID(ctx context.Context, id uuid.UUID) (*models.QuizVersion, error) {
	var version models.QuizVersion
	if err := v.db.WithContext(ctx).First(&version, "id = ?", id).Error; err != nil {
		return nil, lookupErr("get quiz version", err)
	}
	return &version, nil
}

func (v *QuizVersionPostgreSQL) GetCurrent(ctx context.Context, quizID uuid.UUID) (*models.QuizVersion, error) {
	var version models.QuizVersion
	err := v.db.WithContext(ctx).Where("quiz_id = ? AND is_current", quizID).First(&version).Error
	current, err := optional(&version, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get current version: %w", err)
	}
	return current, nil
}

func (v *QuizVersionPostgreSQL) CurrentIDs(ctx context.Context, quizIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	ids := make(map[uuid.UUID]uuid.UUID, len(quizIDs))
	if len(quizIDs) == 0 {
		return ids, nil
	}
	var versions []models.QuizVersion
	if err := v.db.WithContext(ctx).
		Select("id", "quiz_id").
		Where("quiz_id IN ? AND is_current", quizIDs).
		Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to get current versions: %w", err)
	}
	for _, version := range versions {
		ids[version.QuizID] = version.ID
	}
	return ids, nil
}

func (v *QuizVersionPostgreSQL) MaxVersionNumber(ctx context.Context, quizID uuid.UUID) (int, error) {
	var maxNumber int
	if err := v.db.WithContext(ctx).
		Model(&models.QuizVersion{}).
		Where("quiz_id = ?", quizID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&maxNumber).Error; err != nil {
		return 0, fmt.Errorf("failed to get max version number: %w", err)
	}
	return maxNumber, nil
}

func (v *QuizVersionPostgreSQL) ClearCurrent(ctx context.Context, quizID uuid.UUID) error {
	if err := v.db.WithContext(ctx).
		Model(&models.QuizVersion{}).
		Where("quiz_id = ? AND is_current", quizID).
		Update("is_current", false).Error; err != nil {
		return fmt.Errorf("failed to clear current version: %w", err)
	}
	return nil
}

func (v *QuizVersionPostgreSQL) Update(ctx context.Context, version *models.QuizVersion) error {
	if err := v.db.WithContext(ctx).Omit(clause.Associations).Save(version).Error; err != nil {
		return fmt.Errorf("failed to update quiz version: %w", err)
	}
	return nil
}

func (v *QuizVersionPostgreSQL) Delete(ctx context.Context, id uuid.UUID) error {
	if err := v.db.WithContext(ctx).Delete(&models.QuizVersion{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete quiz version: %w", err)
	}
	return nil
}
