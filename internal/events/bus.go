package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/google/uuid"
)

// QuizDeleted is dispatched inside the unit of work that deletes the quiz.
type QuizDeleted struct {
	QuizID    uuid.UUID
	DeletedBy uuid.UUID
}

// QuizDeletedHandler receives the transaction-scoped repository so that its
// writes commit or roll back with the deletion.
type QuizDeletedHandler func(ctx context.Context, repo repositories.Repository, event QuizDeleted) error

// QuizDeletedBus dispatches quiz deletions synchronously to its subscribers,
// in subscription order. The first failing handler aborts the dispatch.
type QuizDeletedBus struct {
	mu       sync.RWMutex
	handlers []namedHandler
}

type namedHandler struct {
	name    string
	handler QuizDeletedHandler
}

func NewQuizDeletedBus() *QuizDeletedBus {
	return &QuizDeletedBus{}
}

func (b *QuizDeletedBus) Subscribe(name string, handler QuizDeletedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, namedHandler{name: name, handler: handler})
}

func (b *QuizDeletedBus) Publish(ctx context.Context, repo repositories.Repository, event QuizDeleted) error {
	b.mu.RLock()
	handlers := append([]namedHandler(nil), b.handlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h.handler(ctx, repo, event); err != nil {
			return fmt.Errorf("quiz deleted handler %s: %w", h.name, err)
		}
	}
	return nil
}
