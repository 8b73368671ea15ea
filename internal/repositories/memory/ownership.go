package memory

import (
	"context"
	"errors"
	"sort"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/google/uuid"
)

type ownershipRepo struct{ s *Store }

func (r ownershipRepo) Create(ctx context.Context, ownership *models.QuizOwnership) error {
	return r.s.write(func(t tables) error {
		if _, ok := t.quizzes[ownership.QuizID]; !ok {
			return errors.New("quiz_ownerships: quiz does not exist")
		}
		for _, o := range t.ownerships {
			if o.QuizID == ownership.QuizID && o.UserID == ownership.UserID {
				return uniqueViolation("uq_ownership_quiz_user")
			}
		}
		models.AssignID(&ownership.ID)
		if ownership.CreatedAt.IsZero() {
			ownership.CreatedAt = r.s.now()
		}
		c := *ownership
		t.ownerships[ownership.ID] = &c
		return nil
	})
}

func (r ownershipRepo) Get(ctx context.Context, quizID, userID uuid.UUID) (*models.QuizOwnership, error) {
	var ownership *models.QuizOwnership
	err := r.s.read(func(t tables) error {
		for _, o := range t.ownerships {
			if o.QuizID == quizID && o.UserID == userID {
				c := *o
				ownership = &c
				break
			}
		}
		return nil
	})
	return ownership, err
}

func (r ownershipRepo) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]*models.QuizOwnership, error) {
	var ownerships []*models.QuizOwnership
	err := r.s.read(func(t tables) error {
		for _, o := range t.ownerships {
			if o.QuizID == quizID {
				c := *o
				ownerships = append(ownerships, &c)
			}
		}
		return nil
	})
	sort.SliceStable(ownerships, func(i, j int) bool {
		return ownerships[i].CreatedAt.Before(ownerships[j].CreatedAt)
	})
	return ownerships, err
}

var _ repositories.OwnershipRepository = ownershipRepo{}
