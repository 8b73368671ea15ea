package memory

import (
	"context"
	"sort"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/google/uuid"
)

type attemptRepo struct{ s *Store }

func (r attemptRepo) Create(ctx context.Context, attempt *models.Attempt) error {
	return r.s.write(func(t tables) error {
		models.AssignID(&attempt.ID)
		if _, exists := t.attempts[attempt.ID]; exists {
			return uniqueViolation("attempts_pkey")
		}
		if attempt.StartedAt.IsZero() {
			attempt.StartedAt = r.s.now()
		}
		t.attempts[attempt.ID] = copyAttempt(attempt)
		return nil
	})
}

func (r attemptRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Attempt, error) {
	var attempt *models.Attempt
	err := r.s.read(func(t tables) error {
		a, ok := t.attempts[id]
		if !ok {
			return repositories.ErrNotFound
		}
		attempt = copyAttempt(a)
		return nil
	})
	return attempt, err
}

func (r attemptRepo) GetOpen(ctx context.Context, userID, quizID uuid.UUID) (*models.Attempt, error) {
	var attempt *models.Attempt
	err := r.s.read(func(t tables) error {
		for _, a := range t.attempts {
			if a.UserID != userID || a.QuizID != quizID || a.Status != models.AttemptInProgress {
				continue
			}
			if attempt == nil || a.StartedAt.After(attempt.StartedAt) {
				attempt = copyAttempt(a)
			}
		}
		return nil
	})
	return attempt, err
}

func (r attemptRepo) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.Attempt, error) {
	attempts := []*models.Attempt{}
	err := r.s.read(func(t tables) error {
		for _, a := range t.attempts {
			if a.UserID != filters.UserID {
				continue
			}
			if filters.QuizID != nil && a.QuizID != *filters.QuizID {
				continue
			}
			if filters.Status != nil && a.Status != *filters.Status {
				continue
			}
			attempts = append(attempts, copyAttempt(a))
		}
		return nil
	})
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].StartedAt.After(attempts[j].StartedAt)
	})
	return paginate(attempts, filters.Limit, filters.Offset), err
}

func (r attemptRepo) Update(ctx context.Context, attempt *models.Attempt) error {
	return r.s.write(func(t tables) error {
		if _, ok := t.attempts[attempt.ID]; !ok {
			return repositories.ErrNotFound
		}
		t.attempts[attempt.ID] = copyAttempt(attempt)
		return nil
	})
}

func (r attemptRepo) DeleteByQuiz(ctx context.Context, quizID uuid.UUID) (int64, error) {
	var deleted int64
	err := r.s.write(func(t tables) error {
		for id, a := range t.attempts {
			if a.QuizID != quizID {
				continue
			}
			delete(t.attempts, id)
			deleted++
			for aid, answer := range t.answers {
				if answer.AttemptID == id {
					delete(t.answers, aid)
				}
			}
		}
		return nil
	})
	return deleted, err
}
