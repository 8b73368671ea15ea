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

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

func (q *QuizPostgreSQL) Create(ctx context.Context, quiz *models.Quiz) error {
	if err := q.db.WithContext(ctx).Omit(clause.Associations).Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).First(&quiz, "id = ?", id).Error; err != nil {
		return nil, lookupErr("get quiz", err)
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, quiz *models.Quiz) error {
	if err := q.db.WithContext(ctx).Omit(clause.Associations).Save(quiz).Error; err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}
	return nil
}

func (q *QuizPostgreSQL) UpdateStatus(ctx context.Context, id uuid.UUID, status models.QuizStatus) error {
	result := q.db.WithContext(ctx).Model(&models.Quiz{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update quiz status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Delete relies on the foreign key cascades created by the migration.
func (q *QuizPostgreSQL) Delete(ctx context.Context, id uuid.UUID) error {
	result := q.db.WithContext(ctx).Delete(&models.Quiz{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete quiz: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (q *QuizPostgreSQL) ListByUser(ctx context.Context, userID uuid.UUID, filters repositories.QuizFilters) ([]repositories.UserQuiz, error) {
	db := q.db.WithContext(ctx)

	var ownerships []models.QuizOwnership
	query := db.Where("user_id = ?", userID)
	if len(filters.Roles) > 0 {
		query = query.Where("role IN ?", filters.Roles)
	}
	if err := query.Find(&ownerships).Error; err != nil {
		return nil, fmt.Errorf("failed to list ownerships: %w", err)
	}
	if len(ownerships) == 0 {
		return []repositories.UserQuiz{}, nil
	}

	roles := make(map[uuid.UUID]models.OwnershipRole, len(ownerships))
	quizIDs := make([]uuid.UUID, 0, len(ownerships))
	for _, o := range ownerships {
		roles[o.QuizID] = o.Role
		quizIDs = append(quizIDs, o.QuizID)
	}

	var quizzes []*models.Quiz
	query = db.Where("id IN ?", quizIDs).Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	if err := query.Find(&quizzes).Error; err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	result := make([]repositories.UserQuiz, 0, len(quizzes))
	for _, quiz := range quizzes {
		result = append(result, repositories.UserQuiz{Quiz: quiz, Role: roles[quiz.ID]})
	}
	return result, nil
}
