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

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a *AnswerPostgreSQL) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("MultipleChoice.Selections").
		Preload("FreeText").
		Preload("Cloze.Items")
}

func (a *AnswerPostgreSQL) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]*models.Answer, error) {
	var answers []*models.Answer
	if err := a.withDetails(a.db.WithContext(ctx)).
		Where("attempt_id = ?", attemptID).
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) Get(ctx context.Context, attemptID, taskID uuid.UUID) (*models.Answer, error) {
	var answer models.Answer
	err := a.withDetails(a.db.WithContext(ctx)).
		Where("attempt_id = ? AND task_id = ?", attemptID, taskID).
		First(&answer).Error
	found, err := optional(&answer, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return found, nil
}

// upsertAnswer conflicts on (attempt_id, task_id) so a racing first save
// updates the existing row, and reads back its id for the extension rows.
func upsertAnswer(db *gorm.DB) *gorm.DB {
	return db.Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "task_id"}},
			UpdateAll: true,
		},
		clause.Returning{Columns: []clause.Column{{Name: "id"}}},
	).Omit(clause.Associations)
}

// Save upserts the base row, then rewrites the extension of the answer's type.
func (a *AnswerPostgreSQL) Save(ctx context.Context, answer *models.Answer) error {
	db := a.db.WithContext(ctx)
	models.AssignID(&answer.ID)
	if err := upsertAnswer(db).Create(answer).Error; err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}

	switch answer.Type {
	case models.TaskTypeMultipleChoice:
		if answer.MultipleChoice == nil {
			return nil
		}
		ext := &models.MultipleChoiceAnswer{AnswerID: answer.ID}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(ext).Error; err != nil {
			return fmt.Errorf("failed to save multiple choice answer: %w", err)
		}
		if err := db.Where("answer_id = ?", answer.ID).Delete(&models.AnswerSelection{}).Error; err != nil {
			return fmt.Errorf("failed to clear selections: %w", err)
		}
		selections := answer.MultipleChoice.Selections
		for i := range selections {
			selections[i].AnswerID = answer.ID
		}
		if len(selections) > 0 {
			if err := db.Create(&selections).Error; err != nil {
				return fmt.Errorf("failed to save selections: %w", err)
			}
		}

	case models.TaskTypeFreeText:
		if answer.FreeText == nil {
			return nil
		}
		answer.FreeText.AnswerID = answer.ID
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(answer.FreeText).Error; err != nil {
			return fmt.Errorf("failed to save free text answer: %w", err)
		}

	case models.TaskTypeCloze:
		if answer.Cloze == nil {
			return nil
		}
		ext := &models.ClozeAnswer{AnswerID: answer.ID}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(ext).Error; err != nil {
			return fmt.Errorf("failed to save cloze answer: %w", err)
		}
		if err := db.Where("answer_id = ?", answer.ID).Delete(&models.ClozeAnswerItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cloze items: %w", err)
		}
		items := answer.Cloze.Items
		for i := range items {
			items[i].AnswerID = answer.ID
		}
		if len(items) > 0 {
			if err := db.Create(&items).Error; err != nil {
				return fmt.Errorf("failed to save cloze items: %w", err)
			}
		}
	}
	return nil
}

func (a *AnswerPostgreSQL) SetPercentage(ctx context.Context, answerID uuid.UUID, percentage *float64) error {
	result := a.db.WithContext(ctx).
		Model(&models.Answer{}).
		Where("id = ?", answerID).
		Update("percentage_correct", percentage)
	if result.Error != nil {
		return fmt.Errorf("failed to set answer percentage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (a *AnswerPostgreSQL) SetClozeItemCorrect(ctx context.Context, answerID, blankID uuid.UUID, correct bool) error {
	if err := a.db.WithContext(ctx).
		Model(&models.ClozeAnswerItem{}).
		Where("answer_id = ? AND blank_id = ?", answerID, blankID).
		Update("is_correct", correct).Error; err != nil {
		return fmt.Errorf("failed to set cloze item correctness: %w", err)
	}
	return nil
}
