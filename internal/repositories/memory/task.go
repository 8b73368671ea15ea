package memory

import (
	"context"
	"errors"
	"sort"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/google/uuid"
)

type taskRepo struct{ s *Store }

func checkTask(t tables, task *models.Task) error {
	if _, ok := t.versions[task.QuizVersionID]; !ok {
		return errors.New("tasks: quiz version does not exist")
	}
	for id, other := range t.tasks {
		if id != task.ID && other.QuizVersionID == task.QuizVersionID && other.OrderIndex == task.OrderIndex {
			return uniqueViolation("uq_task_version_order")
		}
	}
	return nil
}

func prepareTask(task *models.Task) {
	models.AssignID(&task.ID)
	if task.MultipleChoice != nil {
		task.MultipleChoice.TaskID = task.ID
		for i := range task.MultipleChoice.Options {
			models.AssignID(&task.MultipleChoice.Options[i].ID)
			task.MultipleChoice.Options[i].TaskID = task.ID
		}
	}
	if task.FreeText != nil {
		task.FreeText.TaskID = task.ID
	}
	if task.Cloze != nil {
		task.Cloze.TaskID = task.ID
		for i := range task.Cloze.Blanks {
			models.AssignID(&task.Cloze.Blanks[i].ID)
			task.Cloze.Blanks[i].TaskID = task.ID
		}
	}
}

func sortTaskChildren(task *models.Task) *models.Task {
	if task.MultipleChoice != nil {
		sort.SliceStable(task.MultipleChoice.Options, func(i, j int) bool {
			return task.MultipleChoice.Options[i].Position < task.MultipleChoice.Options[j].Position
		})
	}
	if task.Cloze != nil {
		sort.SliceStable(task.Cloze.Blanks, func(i, j int) bool {
			return task.Cloze.Blanks[i].Position < task.Cloze.Blanks[j].Position
		})
	}
	return task
}

func (r taskRepo) insert(t tables, task *models.Task) error {
	prepareTask(task)
	if _, exists := t.tasks[task.ID]; exists {
		return uniqueViolation("tasks_pkey")
	}
	if err := checkTask(t, task); err != nil {
		return err
	}
	now := r.s.now()
	task.CreatedAt, task.UpdatedAt = now, now
	t.tasks[task.ID] = copyTask(task)
	return nil
}

func (r taskRepo) Create(ctx context.Context, task *models.Task) error {
	return r.s.write(func(t tables) error {
		return r.insert(t, task)
	})
}

// CreateBatch inserts all tasks or none.
func (r taskRepo) CreateBatch(ctx context.Context, tasks []*models.Task) error {
	return r.s.write(func(t tables) error {
		inserted := make([]uuid.UUID, 0, len(tasks))
		for _, task := range tasks {
			if err := r.insert(t, task); err != nil {
				for _, id := range inserted {
					delete(t.tasks, id)
				}
				return err
			}
			inserted = append(inserted, task.ID)
		}
		return nil
	})
}

func (r taskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task *models.Task
	err := r.s.read(func(t tables) error {
		found, ok := t.tasks[id]
		if !ok {
			return repositories.ErrNotFound
		}
		task = sortTaskChildren(copyTask(found))
		return nil
	})
	return task, err
}

func (r taskRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Task, error) {
	tasks := []*models.Task{}
	err := r.s.read(func(t tables) error {
		seen := make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			if found, ok := t.tasks[id]; ok {
				tasks = append(tasks, sortTaskChildren(copyTask(found)))
			}
		}
		return nil
	})
	return tasks, err
}

func (r taskRepo) ListByVersion(ctx context.Context, versionID uuid.UUID) ([]*models.Task, error) {
	tasks := []*models.Task{}
	err := r.s.read(func(t tables) error {
		for _, task := range t.tasks {
			if task.QuizVersionID == versionID {
				tasks = append(tasks, sortTaskChildren(copyTask(task)))
			}
		}
		return nil
	})
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].OrderIndex < tasks[j].OrderIndex })
	return tasks, err
}

func (r taskRepo) Save(ctx context.Context, task *models.Task) error {
	return r.s.write(func(t tables) error {
		existing, ok := t.tasks[task.ID]
		if !ok {
			return repositories.ErrNotFound
		}
		prepareTask(task)
		if err := checkTask(t, task); err != nil {
			return err
		}
		task.CreatedAt = existing.CreatedAt
		task.UpdatedAt = r.s.now()
		t.tasks[task.ID] = copyTask(task)
		return nil
	})
}

func (r taskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(func(t tables) error {
		if _, ok := t.tasks[id]; !ok {
			return repositories.ErrNotFound
		}
		delete(t.tasks, id)
		return nil
	})
}

func (r taskRepo) MaxOrderIndex(ctx context.Context, versionID uuid.UUID) (int, error) {
	maxIndex := -1
	err := r.s.read(func(t tables) error {
		for _, task := range t.tasks {
			if task.QuizVersionID == versionID && task.OrderIndex > maxIndex {
				maxIndex = task.OrderIndex
			}
		}
		return nil
	})
	return maxIndex, err
}

func (r taskRepo) VersionSummaries(ctx context.Context, versionIDs []uuid.UUID) (map[uuid.UUID]repositories.VersionSummary, error) {
	wanted := make(map[uuid.UUID]bool, len(versionIDs))
	for _, id := range versionIDs {
		wanted[id] = true
	}
	summaries := make(map[uuid.UUID]repositories.VersionSummary, len(versionIDs))
	err := r.s.read(func(t tables) error {
		for _, task := range t.tasks {
			if !wanted[task.QuizVersionID] {
				continue
			}
			summary, ok := summaries[task.QuizVersionID]
			if !ok {
				summary = repositories.VersionSummary{ByType: map[models.TaskType]int{}}
			}
			summary.TaskCount++
			summary.ByType[task.Type]++
			summaries[task.QuizVersionID] = summary
		}
		return nil
	})
	return summaries, err
}
