package memory

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/google/uuid"
)

type sessionRepo struct{ s *Store }

func checkSingleActive(t tables, session *models.EditSession) error {
	if session.Status != models.EditSessionActive {
		return nil
	}
	for id, other := range t.sessions {
		if id != session.ID && other.QuizID == session.QuizID && other.Status == models.EditSessionActive {
			return uniqueViolation("uq_edit_session_active")
		}
	}
	return nil
}

func (r sessionRepo) Create(ctx context.Context, session *models.EditSession) error {
	return r.s.write(func(t tables) error {
		if _, ok := t.quizzes[session.QuizID]; !ok {
			return errors.New("quiz_edit_sessions: quiz does not exist")
		}
		models.AssignID(&session.ID)
		if err := checkSingleActive(t, session); err != nil {
			return err
		}
		now := r.s.now()
		session.CreatedAt, session.UpdatedAt = now, now
		c := *session
		t.sessions[session.ID] = &c
		return nil
	})
}

func (r sessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.EditSession, error) {
	var session *models.EditSession
	err := r.s.read(func(t tables) error {
		s, ok := t.sessions[id]
		if !ok {
			return repositories.ErrNotFound
		}
		c := *s
		session = &c
		return nil
	})
	return session, err
}

func (r sessionRepo) GetActive(ctx context.Context, quizID uuid.UUID) (*models.EditSession, error) {
	var session *models.EditSession
	err := r.s.read(func(t tables) error {
		for _, s := range t.sessions {
			if s.QuizID == quizID && s.Status == models.EditSessionActive {
				c := *s
				session = &c
				break
			}
		}
		return nil
	})
	return session, err
}

func (r sessionRepo) Update(ctx context.Context, session *models.EditSession) error {
	return r.s.write(func(t tables) error {
		if _, ok := t.sessions[session.ID]; !ok {
			return repositories.ErrNotFound
		}
		if err := checkSingleActive(t, session); err != nil {
			return err
		}
		session.UpdatedAt = r.s.now()
		c := *session
		t.sessions[session.ID] = &c
		return nil
	})
}

func (r sessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(func(t tables) error {
		delete(t.sessions, id)
		return nil
	})
}
