package memory

import (
	"context"
	"errors"
	"sort"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/google/uuid"
)

type shareLinkRepo struct{ s *Store }

func (r shareLinkRepo) Create(ctx context.Context, link *models.ShareLink) error {
	return r.s.write(func(t tables) error {
		if _, ok := t.quizzes[link.QuizID]; !ok {
			return errors.New("share_links: quiz does not exist")
		}
		for _, l := range t.links {
			if l.Token == link.Token {
				return uniqueViolation("idx_share_links_token")
			}
		}
		models.AssignID(&link.ID)
		if link.CreatedAt.IsZero() {
			link.CreatedAt = r.s.now()
		}
		t.links[link.ID] = copyLink(link)
		return nil
	})
}

func (r shareLinkRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ShareLink, error) {
	var link *models.ShareLink
	err := r.s.read(func(t tables) error {
		l, ok := t.links[id]
		if !ok {
			return repositories.ErrNotFound
		}
		link = copyLink(l)
		return nil
	})
	return link, err
}

func (r shareLinkRepo) GetByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	var link *models.ShareLink
	err := r.s.read(func(t tables) error {
		for _, l := range t.links {
			if l.Token == token {
				link = copyLink(l)
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return link, err
}

// GetByTokenForUpdate needs no row lock here: transactions are serialized.
func (r shareLinkRepo) GetByTokenForUpdate(ctx context.Context, token string) (*models.ShareLink, error) {
	return r.GetByToken(ctx, token)
}

func (r shareLinkRepo) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]*models.ShareLink, error) {
	links := []*models.ShareLink{}
	err := r.s.read(func(t tables) error {
		for _, l := range t.links {
			if l.QuizID == quizID {
				links = append(links, copyLink(l))
			}
		}
		return nil
	})
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})
	return links, err
}

func (r shareLinkRepo) Update(ctx context.Context, link *models.ShareLink) error {
	return r.s.write(func(t tables) error {
		if _, ok := t.links[link.ID]; !ok {
			return repositories.ErrNotFound
		}
		t.links[link.ID] = copyLink(link)
		return nil
	})
}
