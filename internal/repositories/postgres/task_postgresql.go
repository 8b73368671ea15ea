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

type TaskPostgreSQL struct {
	db *gorm.DB
}

func NewTaskPostgreSQL(db *gorm.DB) repositories.TaskRepository {
	return &TaskPostgreSQL{db: db}
}

func (t *TaskPostgreSQL) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("MultipleChoice.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("FreeText").
		Preload("Cloze.Blanks", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

// Create inserts the task and its extension rows in one statement tree.
func (t *TaskPostgreSQL) Create(ctx context.Context, task *models.Task) error {
	if err := t.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (t *TaskPostgreSQL) CreateBatch(ctx context.Context, tasks []*models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	if err := t.db.WithContext(ctx).Create(tasks).Error; err != nil {
		return fmt.Errorf("failed to create tasks: %w", err)
	}
	return nil
}

func (t *TaskPostgreSQL) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := t.withDetails(t.db.WithContext(ctx)).First(&task, "id = ?", id).Error; err != nil {
		return nil, lookupErr("get task", err)
	}
	return &task, nil
}

func (t *TaskPostgreSQL) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Task, error) {
	var tasks []*models.Task
	if len(ids) == 0 {
		return tasks, nil
	}
	if err := t.withDetails(t.db.WithContext(ctx)).
		Where("id IN ?", ids).
		Order("quiz_version_id, order_index ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	return tasks, nil
}

func (t *TaskPostgreSQL) ListByVersion(ctx context.Context, versionID uuid.UUID) ([]*models.Task, error) {
	var tasks []*models.Task
	if err := t.withDetails(t.db.WithContext(ctx)).
		Where("quiz_version_id = ?", versionID).
		Order("order_index ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Save updates the base row and syncs the extension: nested rows whose ids
// are no longer present are deleted and the rest are upserted.
func (t *TaskPostgreSQL) Save(ctx context.Context, task *models.Task) error {
	db := t.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(task).Error; err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	switch task.Type {
	case models.TaskTypeMultipleChoice:
		if task.MultipleChoice == nil {
			return nil
		}
		ext := &models.MultipleChoiceTask{TaskID: task.ID}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(ext).Error; err != nil {
			return fmt.Errorf("failed to save multiple choice task: %w", err)
		}
		options := task.MultipleChoice.Options
		keep := make([]uuid.UUID, 0, len(options))
		for i := range options {
			options[i].TaskID = task.ID
			models.AssignID(&options[i].ID)
			keep = append(keep, options[i].ID)
		}
		if err := deleteStale(db, &models.TaskOption{}, task.ID, keep); err != nil {
			return fmt.Errorf("failed to delete options: %w", err)
		}
		if len(options) > 0 {
			if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&options).Error; err != nil {
				return fmt.Errorf("failed to save options: %w", err)
			}
		}

	case models.TaskTypeFreeText:
		if task.FreeText == nil {
			return nil
		}
		task.FreeText.TaskID = task.ID
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(task.FreeText).Error; err != nil {
			return fmt.Errorf("failed to save free text task: %w", err)
		}

	case models.TaskTypeCloze:
		if task.Cloze == nil {
			return nil
		}
		task.Cloze.TaskID = task.ID
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Omit(clause.Associations).Create(task.Cloze).Error; err != nil {
			return fmt.Errorf("failed to save cloze task: %w", err)
		}
		blanks := task.Cloze.Blanks
		keep := make([]uuid.UUID, 0, len(blanks))
		for i := range blanks {
			blanks[i].TaskID = task.ID
			models.AssignID(&blanks[i].ID)
			keep = append(keep, blanks[i].ID)
		}
		if err := deleteStale(db, &models.ClozeBlank{}, task.ID, keep); err != nil {
			return fmt.Errorf("failed to delete blanks: %w", err)
		}
		if len(blanks) > 0 {
			if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&blanks).Error; err != nil {
				return fmt.Errorf("failed to save blanks: %w", err)
			}
		}
	}
	return nil
}

func deleteStale(db *gorm.DB, model interface{}, taskID uuid.UUID, keep []uuid.UUID) error {
	query := db.Where("task_id = ?", taskID)
	if len(keep) > 0 {
		query = query.Where("id NOT IN ?", keep)
	}
	return query.Delete(model).Error
}

func (t *TaskPostgreSQL) Delete(ctx context.Context, id uuid.UUID) error {
	result := t.db.WithContext(ctx).Delete(&models.Task{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (t *TaskPostgreSQL) MaxOrderIndex(ctx context.Context, versionID uuid.UUID) (int, error) {
	var maxIndex int
	if err := t.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("quiz_version_id = ?", versionID).
		Select("COALESCE(MAX(order_index), -1)").
		Scan(&maxIndex).Error; err != nil {
		return 0, fmt.Errorf("failed to get max order index: %w", err)
	}
	return maxIndex, nil
}

func (t *TaskPostgreSQL) VersionSummaries(ctx context.Context, versionIDs []uuid.UUID) (map[uuid.UUID]repositories.VersionSummary, error) {
	summaries := make(map[uuid.UUID]repositories.VersionSummary, len(versionIDs))
	if len(versionIDs) == 0 {
		return summaries, nil
	}

	var rows []struct {
		QuizVersionID uuid.UUID
		Type          models.TaskType
		Count         int
	}
	if err := t.db.WithContext(ctx).
		Model(&models.Task{}).
		Select("quiz_version_id, type, COUNT(*) AS count").
		Where("quiz_version_id IN ?", versionIDs).
		Group("quiz_version_id, type").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to summarize versions: %w", err)
	}

	for _, row := range rows {
		summary, ok := summaries[row.QuizVersionID]
		if !ok {
			summary = repositories.VersionSummary{ByType: map[models.TaskType]int{}}
		}
		summary.TaskCount += row.Count
		summary.ByType[row.Type] = row.Count
		summaries[row.QuizVersionID] = summary
	}
	return summaries, nil
}
