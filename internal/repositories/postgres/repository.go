package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

// Repository is the gorm-backed implementation of repositories.Repository.
// Inside WithTransaction every accessor is bound to the transaction handle.
type Repository struct {
	db *gorm.DB

	quiz        repositories.QuizRepository
	quizVersion repositories.QuizVersionRepository
	editSession repositories.EditSessionRepository
	ownership   repositories.OwnershipRepository
	shareLink   repositories.ShareLinkRepository
	task        repositories.TaskRepository
	attempt     repositories.AttemptRepository
	answer      repositories.AnswerRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:          db,
		quiz:        NewQuizPostgreSQL(db),
		quizVersion: NewQuizVersionPostgreSQL(db),
		editSession: NewEditSessionPostgreSQL(db),
		ownership:   NewOwnershipPostgreSQL(db),
		shareLink:   NewShareLinkPostgreSQL(db),
		task:        NewTaskPostgreSQL(db),
		attempt:     NewAttemptPostgreSQL(db),
		answer:      NewAnswerPostgreSQL(db),
	}
}

func (r *Repository) Quiz() repositories.QuizRepository               { return r.quiz }
func (r *Repository) QuizVersion() repositories.QuizVersionRepository { return r.quizVersion }
func (r *Repository) EditSession() repositories.EditSessionRepository { return r.editSession }
func (r *Repository) Ownership() repositories.OwnershipRepository     { return r.ownership }
func (r *Repository) ShareLink() repositories.ShareLinkRepository     { return r.shareLink }
func (r *Repository) Task() repositories.TaskRepository               { return r.task }
func (r *Repository) Attempt() repositories.AttemptRepository         { return r.attempt }
func (r *Repository) Answer() repositories.AnswerRepository           { return r.answer }

func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	return sqlDB.Close()
}

// lookupErr maps a missing row to repositories.ErrNotFound and wraps the rest.
func lookupErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// optional turns a missing row into nil, nil.
func optional[T any](value *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}
