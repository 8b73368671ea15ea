package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapCache keeps JSON encoded values like redis does.
type mapCache struct {
	values map[string][]byte
	err    error
}

func newMapCache() *mapCache {
	return &mapCache{values: make(map[string][]byte)}
}

func (m *mapCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = payload
	return nil
}

func (m *mapCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.err != nil {
		return m.err
	}
	payload, ok := m.values[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *mapCache) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func (m *mapCache) DeletePattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			delete(m.values, key)
		}
	}
	return nil
}

func newTestViewCache(backend CacheService) *QuizViewCache {
	return NewQuizViewCache(backend, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestQuizViewCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestViewCache(newMapCache())
	quizID, versionID := uuid.New(), uuid.New()

	_, ok := c.GetTasks(ctx, quizID, versionID)
	assert.False(t, ok)

	views := []models.TaskView{{TaskID: uuid.New(), QuizID: quizID, QuizVersionID: versionID, Type: models.TaskTypeFreeText, Prompt: "Why?"}}
	c.SetTasks(ctx, quizID, versionID, views)

	cached, ok := c.GetTasks(ctx, quizID, versionID)
	require.True(t, ok)
	assert.Equal(t, views, cached)

	_, ok = c.GetTasks(ctx, quizID, uuid.New())
	assert.False(t, ok, "entries are scoped to their version")
}

func TestQuizViewCacheInvalidateDropsEveryVersion(t *testing.T) {
	ctx := context.Background()
	backend := newMapCache()
	c := newTestViewCache(backend)
	quizID, otherQuiz := uuid.New(), uuid.New()
	v1, v2 := uuid.New(), uuid.New()

	c.SetTasks(ctx, quizID, v1, []models.TaskView{})
	c.SetTasks(ctx, quizID, v2, []models.TaskView{})
	c.SetTasks(ctx, otherQuiz, v1, []models.TaskView{})

	c.Invalidate(ctx, quizID)

	_, ok := c.GetTasks(ctx, quizID, v1)
	assert.False(t, ok)
	_, ok = c.GetTasks(ctx, quizID, v2)
	assert.False(t, ok)
	_, ok = c.GetTasks(ctx, otherQuiz, v1)
	assert.True(t, ok)
}

func TestQuizViewCacheSwallowsBackendErrors(t *testing.T) {
	ctx := context.Background()
	backend := newMapCache()
	backend.err = errors.New("connection refused")
	c := newTestViewCache(backend)

	c.SetTasks(ctx, uuid.New(), uuid.New(), nil)
	_, ok := c.GetTasks(ctx, uuid.New(), uuid.New())
	assert.False(t, ok)
	c.Invalidate(ctx, uuid.New())
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	c := NewNoopCache()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	var out string
	assert.ErrorIs(t, c.Get(ctx, "k", &out), ErrCacheMiss)
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.DeletePattern(ctx, "k*"))
}
