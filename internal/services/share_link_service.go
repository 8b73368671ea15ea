package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/google/uuid"
)

const shareTokenBytes = 32

type shareLinkService struct {
	repo        repositories.Repository
	validator   *validator.Validator
	frontendURL string
	now         func() time.Time
	logger      *slog.Logger
}

func NewShareLinkService(repo repositories.Repository, validator *validator.Validator, frontendURL string, logger *slog.Logger) ShareLinkService {
	return &shareLinkService{
		repo:        repo,
		validator:   validator,
		frontendURL: frontendURL,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger,
	}
}

func (s *shareLinkService) Create(ctx context.Context, quizID, userID uuid.UUID, req *CreateShareLinkRequest) (*ShareLinkResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := loadQuiz(ctx, s.repo, quizID); err != nil {
		return nil, err
	}
	if err := ensureRole(ctx, s.repo, quizID, userID, models.RoleEditor, "share"); err != nil {
		return nil, err
	}

	token, err := generateShareToken()
	if err != nil {
		return nil, err
	}
	link := &models.ShareLink{
		QuizID:    quizID,
		Token:     token,
		CreatedBy: userID,
		MaxUses:   req.MaxUses,
		IsActive:  true,
		CreatedAt: s.now(),
	}
	if req.Duration != nil {
		expiresAt := s.now().Add(time.Duration(*req.Duration) * time.Second)
		link.ExpiresAt = &expiresAt
	}
	if err := s.repo.ShareLink().Create(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to create share link: %w", err)
	}

	s.logger.Info("Share link created", "quiz_id", quizID, "share_link_id", link.ID, "user_id", userID)
	response := s.toResponse(link)
	return &response, nil
}

func (s *shareLinkService) List(ctx context.Context, quizID, userID uuid.UUID) ([]ShareLinkResponse, error) {
	if _, err := loadQuiz(ctx, s.repo, quizID); err != nil {
		return nil, err
	}
	if err := ensureRole(ctx, s.repo, quizID, userID, models.RoleEditor, "list share links"); err != nil {
		return nil, err
	}
	links, err := s.repo.ShareLink().ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list share links: %w", err)
	}
	result := make([]ShareLinkResponse, 0, len(links))
	for _, link := range links {
		result = append(result, s.toResponse(link))
	}
	return result, nil
}

func (s *shareLinkService) Revoke(ctx context.Context, quizID, linkID, userID uuid.UUID) error {
	link, err := s.repo.ShareLink().GetByID(ctx, linkID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrShareLinkNotFound
		}
		return fmt.Errorf("failed to get share link: %w", err)
	}
	if link.QuizID != quizID {
		return ErrShareLinkNotFound
	}
	if err := ensureRole(ctx, s.repo, quizID, userID, models.RoleEditor, "revoke share link"); err != nil {
		return err
	}
	link.IsActive = false
	if err := s.repo.ShareLink().Update(ctx, link); err != nil {
		return fmt.Errorf("failed to revoke share link: %w", err)
	}
	s.logger.Info("Share link revoked", "quiz_id", quizID, "share_link_id", linkID, "user_id", userID)
	return nil
}

// Validate reports whether a token can be redeemed without consuming a use.
func (s *shareLinkService) Validate(ctx context.Context, token string) (*ShareLinkInfo, error) {
	link, err := s.repo.ShareLink().GetByToken(ctx, token)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return &ShareLinkInfo{IsValid: false, Error: ErrShareLinkNotFound.Error()}, nil
		}
		return nil, fmt.Errorf("failed to get share link: %w", err)
	}
	if err := s.checkUsable(link); err != nil {
		return &ShareLinkInfo{IsValid: false, Error: err.Error()}, nil
	}

	quiz, err := loadQuiz(ctx, s.repo, link.QuizID)
	if err != nil {
		if errors.Is(err, ErrQuizNotFound) {
			return &ShareLinkInfo{IsValid: false, Error: err.Error()}, nil
		}
		return nil, err
	}
	return &ShareLinkInfo{
		IsValid:   true,
		QuizID:    &quiz.ID,
		QuizTitle: quiz.Title,
		QuizTopic: quiz.Topic,
	}, nil
}

// Redeem grants viewer access. The link row stays locked until commit so
// concurrent redemptions cannot both pass the usage check.
func (s *shareLinkService) Redeem(ctx context.Context, token string, userID uuid.UUID) (*RedeemResponse, error) {
	var response *RedeemResponse
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		link, err := tx.ShareLink().GetByTokenForUpdate(ctx, token)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrShareLinkNotFound
			}
			return fmt.Errorf("failed to get share link: %w", err)
		}
		if err := s.checkUsable(link); err != nil {
			return err
		}

		existing, err := tx.Ownership().Get(ctx, link.QuizID, userID)
		if err != nil {
			return fmt.Errorf("failed to get ownership: %w", err)
		}
		if existing != nil {
			return ErrAlreadyHasAccess
		}

		ownership := &models.QuizOwnership{QuizID: link.QuizID, UserID: userID, Role: models.RoleViewer}
		if err := tx.Ownership().Create(ctx, ownership); err != nil {
			return fmt.Errorf("failed to grant access: %w", err)
		}
		link.CurrentUses++
		if err := tx.ShareLink().Update(ctx, link); err != nil {
			return fmt.Errorf("failed to update share link: %w", err)
		}
		response = &RedeemResponse{QuizID: link.QuizID, Role: ownership.Role}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Share link redeemed", "quiz_id", response.QuizID, "user_id", userID)
	return response, nil
}

func (s *shareLinkService) checkUsable(link *models.ShareLink) error {
	switch {
	case !link.IsActive:
		return ErrShareLinkInactive
	case link.IsExpired(s.now()):
		return ErrShareLinkExpired
	case link.IsExhausted():
		return ErrShareLinkExhausted
	}
	return nil
}

func (s *shareLinkService) toResponse(link *models.ShareLink) ShareLinkResponse {
	return ShareLinkResponse{
		ShareLinkID: link.ID,
		QuizID:      link.QuizID,
		Token:       link.Token,
		URL:         s.frontendURL + "/share/" + link.Token,
		CreatedAt:   link.CreatedAt,
		ExpiresAt:   link.ExpiresAt,
		MaxUses:     link.MaxUses,
		CurrentUses: link.CurrentUses,
		IsActive:    link.IsActive,
	}
}

func generateShareToken() (string, error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
