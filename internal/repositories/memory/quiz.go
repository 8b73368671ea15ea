package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/google/uuid"
)

type quizRepo struct{ s *Store }

func (r quizRepo) Create(ctx context.Context, quiz *models.Quiz) error {
	return r.s.write(func(t tables) error {
		models.AssignID(&quiz.ID)
		if _, exists := t.quizzes[quiz.ID]; exists {
			return uniqueViolation("quizzes_pkey")
		}
		now := r.s.now()
		if quiz.CreatedAt.IsZero() {
			quiz.CreatedAt = now
		}
		quiz.UpdatedAt = now
		t.quizzes[quiz.ID] = copyQuiz(quiz)
		return nil
	})
}

func (r quizRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	var quiz *models.Quiz
	err := r.s.read(func(t tables) error {
		q, ok := t.quizzes[id]
		if !ok {
			return repositories.ErrNotFound
		}
		quiz = copyQuiz(q)
		return nil
	})
	return quiz, err
}

func (r quizRepo) Update(ctx context.Context, quiz *models.Quiz) error {
	return r.s.write(func(t tables) error {
		if _, ok := t.quizzes[quiz.ID]; !ok {
			return repositories.ErrNotFound
		}
		quiz.UpdatedAt = r.s.now()
		t.quizzes[quiz.ID] = copyQuiz(quiz)
		return nil
	})
}

func (r quizRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.QuizStatus) error {
	return r.s.write(func(t tables) error {
		q, ok := t.quizzes[id]
		if !ok {
			return repositories.ErrNotFound
		}
		q.Status = status
		q.UpdatedAt = r.s.now()
		return nil
	})
}

func (r quizRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(func(t tables) error {
		if _, ok := t.quizzes[id]; !ok {
			return repositories.ErrNotFound
		}
		delete(t.quizzes, id)
		for vid, v := range t.versions {
			if v.QuizID == id {
				deleteVersion(t, vid)
			}
		}
		for sid, s := range t.sessions {
			if s.QuizID == id {
				delete(t.sessions, sid)
			}
		}
		for oid, o := range t.ownerships {
			if o.QuizID == id {
				delete(t.ownerships, oid)
			}
		}
		for lid, l := range t.links {
			if l.QuizID == id {
				delete(t.links, lid)
			}
		}
		return nil
	})
}

func (r quizRepo) ListByUser(ctx context.Context, userID uuid.UUID, filters repositories.QuizFilters) ([]repositories.UserQuiz, error) {
	result := []repositories.UserQuiz{}
	err := r.s.read(func(t tables) error {
		for _, o := range t.ownerships {
			if o.UserID != userID || !roleIn(o.Role, filters.Roles) {
				continue
			}
			q, ok := t.quizzes[o.QuizID]
			if !ok {
				return fmt.Errorf("ownership %s references missing quiz %s", o.ID, o.QuizID)
			}
			result = append(result, repositories.UserQuiz{Quiz: copyQuiz(q), Role: o.Role})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Quiz.CreatedAt.After(result[j].Quiz.CreatedAt)
	})
	return paginate(result, filters.Limit, filters.Offset), nil
}

func roleIn(role models.OwnershipRole, roles []models.OwnershipRole) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
