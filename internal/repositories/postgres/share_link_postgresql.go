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

type ShareLinkPostgreSQL struct {
	db *gorm.DB
}

func NewShareLinkPostgreSQL(db *gorm.DB) repositories.ShareLinkRepository {
	return &ShareLinkPostgreSQL{db: db}
}

func (s *ShareLinkPostgreSQL) Create(ctx context.Context, link *models.ShareLink) error {
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("failed to create share link: %w", err)
	}
	return nil
}

func (s *ShareLinkPostgreSQL) GetByID(ctx context.Context, id uuid.UUID) (*models.ShareLink, error) {
	var link models.ShareLink
	if err := s.db.WithContext(ctx).First(&link, "id = ?", id).Error; err != nil {
		return nil, lookupErr("get share link", err)
	}
	return &link, nil
}

func (s *ShareLinkPostgreSQL) GetByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	var link models.ShareLink
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&link).Error; err != nil {
		return nil, lookupErr("get share link", err)
	}
	return &link, nil
}

func (s *ShareLinkPostgreSQL) GetByTokenForUpdate(ctx context.Context, token string) (*models.ShareLink, error) {
	var link models.ShareLink
	if err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token = ?", token).
		First(&link).Error; err != nil {
		return nil, lookupErr("lock share link", err)
	}
	return &link, nil
}

func (s *ShareLinkPostgreSQL) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]*models.ShareLink, error) {
	var links []*models.ShareLink
	if err := s.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("created_at DESC").
		Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to list share links: %w", err)
	}
	return links, nil
}

func (s *ShareLinkPostgreSQL) Update(ctx context.Context, link *models.ShareLink) error {
	if err := s.db.WithContext(ctx).Save(link).Error; err != nil {
		return fmt.Errorf("failed to update share link: %w", err)
	}
	return nil
}
