package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/google/uuid"
)

const quizTasksKeyPrefix = "quiz:tasks:"

// QuizViewCache caches the task views of published quiz versions, keyed by
// quiz and version. A published version's task set never changes, so a
// commit moves readers to a new key instead of racing a refill of the old
// one. Cache failures are logged and never surface to callers.
type QuizViewCache struct {
	cache  CacheService
	ttl    time.Duration
	logger *slog.Logger
}

func NewQuizViewCache(cache CacheService, ttl time.Duration, logger *slog.Logger) *QuizViewCache {
	return &QuizViewCache{cache: cache, ttl: ttl, logger: logger}
}

func quizTasksPattern(quizID uuid.UUID) string {
	return quizTasksKeyPrefix + quizID.String() + ":*"
}

func quizTasksKey(quizID, versionID uuid.UUID) string {
	return quizTasksKeyPrefix + quizID.String() + ":" + versionID.String()
}

func (c *QuizViewCache) GetTasks(ctx context.Context, quizID, versionID uuid.UUID) ([]models.TaskView, bool) {
	var views []models.TaskView
	err := c.cache.Get(ctx, quizTasksKey(quizID, versionID), &views)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("Failed to read task view cache", "quiz_id", quizID, "version_id", versionID, "error", err)
		}
		return nil, false
	}
	return views, true
}

func (c *QuizViewCache) SetTasks(ctx context.Context, quizID, versionID uuid.UUID, views []models.TaskView) {
	if err := c.cache.Set(ctx, quizTasksKey(quizID, versionID), views, c.ttl); err != nil {
		c.logger.Warn("Failed to write task view cache", "quiz_id", quizID, "version_id", versionID, "error", err)
	}
}

// Invalidate drops the cached views of every version of the quiz.
func (c *QuizViewCache) Invalidate(ctx context.Context, quizID uuid.UUID) {
	if err := c.cache.DeletePattern(ctx, quizTasksPattern(quizID)); err != nil {
		c.logger.Warn("Failed to invalidate task view cache", "quiz_id", quizID, "error", err)
	}
}
