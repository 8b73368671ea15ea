package memory

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/google/uuid"
)

type versionRepo struct{ s *Store }

func checkSingleCurrent(t tables, v *models.QuizVersion) error {
	if !v.IsCurrent {
		return nil
	}
	for id, other := range t.versions {
		if id != v.ID && other.QuizID == v.QuizID && other.IsCurrent {
			return uniqueViolation("uq_quiz_version_current")
		}
	}
	return nil
}

func deleteVersion(t tables, id uuid.UUID) {
	delete(t.versions, id)
	for tid, task := range t.tasks {
		if task.QuizVersionID == id {
			delete(t.tasks, tid)
		}
	}
}

func (r versionRepo) Create(ctx context.Context, version *models.QuizVersion) error {
	return r.s.write(func(t tables) error {
		if _, ok := t.quizzes[version.QuizID]; !ok {
			return errors.New("quiz_versions: quiz does not exist")
		}
		models.AssignID(&version.ID)
		if _, exists := t.versions[version.ID]; exists {
			return uniqueViolation("quiz_versions_pkey")
		}
		if err := checkSingleCurrent(t, version); err != nil {
			return err
		}
		if version.CreatedAt.IsZero() {
			version.CreatedAt = r.s.now()
		}
		t.versions[version.ID] = copyVersion(version)
		return nil
	})
}

func (r versionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.QuizVersion, error) {
	var version *models.QuizVersion
	err := r.s.read(func(t tables) error {
		v, ok := t.versions[id]
		if !ok {
			return repositories.ErrNotFound
		}
		version = copyVersion(v)
		return nil
	})
	return version, err
}

func (r versionRepo) GetCurrent(ctx context.Context, quizID uuid.UUID) (*models.QuizVersion, error) {
	var version *models.QuizVersion
	err := r.s.read(func(t tables) error {
		for _, v := range t.versions {
			if v.QuizID == quizID && v.IsCurrent {
				version = copyVersion(v)
				return nil
			}
		}
		return nil
	})
	return version, err
}

func (r versionRepo) CurrentIDs(ctx context.Context, quizIDs []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	wanted := make(map[uuid.UUID]bool, len(quizIDs))
	for _, id := range quizIDs {
		wanted[id] = true
	}
	ids := make(map[uuid.UUID]uuid.UUID, len(quizIDs))
	err := r.s.read(func(t tables) error {
		for _, v := range t.versions {
			if v.IsCurrent && wanted[v.QuizID] {
				ids[v.QuizID] = v.ID
			}
		}
		return nil
	})
	return ids, err
}

func (r versionRepo) MaxVersionNumber(ctx context.Context, quizID uuid.UUID) (int, error) {
	maxNumber := 0
	err := r.s.read(func(t tables) error {
		for _, v := range t.versions {
			if v.QuizID == quizID && v.VersionNumber != nil && *v.VersionNumber > maxNumber {
				maxNumber = *v.VersionNumber
			}
		}
		return nil
	})
	return maxNumber, err
}

func (r versionRepo) ClearCurrent(ctx context.Context, quizID uuid.UUID) error {
	return r.s.write(func(t tables) error {
		for _, v := range t.versions {
			if v.QuizID == quizID {
				v.IsCurrent = false
			}
		}
		return nil
	})
}

func (r versionRepo) Update(ctx context.Context, version *models.QuizVersion) error {
	return r.s.write(func(t tables) error {
		if _, ok := t.versions[version.ID]; !ok {
			return repositories.ErrNotFound
		}
		if err := checkSingleCurrent(t, version); err != nil {
			return err
		}
		t.versions[version.ID] = copyVersion(version)
		return nil
	})
}

func (r versionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(func(t tables) error {
		deleteVersion(t, id)
		return nil
	})
}
