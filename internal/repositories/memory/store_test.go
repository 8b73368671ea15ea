package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQuiz(t *testing.T, repo repositories.Repository) (*models.Quiz, *models.QuizVersion) {
	t.Helper()
	ctx := context.Background()
	quiz := &models.Quiz{Title: "Capitals", State: models.QuizStatePrivate, Status: models.QuizStatusCompleted, CreatedBy: uuid.New()}
	require.NoError(t, repo.Quiz().Create(ctx, quiz))
	one := 1
	version := &models.QuizVersion{QuizID: quiz.ID, VersionNumber: &one, Status: models.VersionStatusPublished, IsCurrent: true, CreatedBy: quiz.CreatedBy}
	require.NoError(t, repo.QuizVersion().Create(ctx, version))
	return quiz, version
}

func TestTransactionRollsBackOnError(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	quiz, _ := seedQuiz(t, repo)

	boom := errors.New("boom")
	err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		quiz.Title = "Renamed"
		require.NoError(t, tx.Quiz().Update(ctx, quiz))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := repo.Quiz().GetByID(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, "Capitals", stored.Title)
}

func TestRollbackKeepsConcurrentWrites(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	quiz, _ := seedQuiz(t, repo)

	staged := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	boom := errors.New("boom")
	go func() {
		txDone <- repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			if err := tx.Quiz().UpdateStatus(ctx, quiz.ID, models.QuizStatusGenerating); err != nil {
				return err
			}
			close(staged)
			<-release
			return boom
		})
	}()
	<-staged

	stored, err := repo.Quiz().GetByID(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuizStatusCompleted, stored.Status, "uncommitted write is visible")

	writeDone := make(chan error, 1)
	go func() {
		writeDone <- repo.Quiz().UpdateStatus(ctx, quiz.ID, models.QuizStatusFailed)
	}()

	close(release)
	assert.ErrorIs(t, <-txDone, boom)
	require.NoError(t, <-writeDone)

	stored, err = repo.Quiz().GetByID(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuizStatusFailed, stored.Status)
}

func TestCommitKeepsLaterWrites(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	quiz, _ := seedQuiz(t, repo)

	require.NoError(t, repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		quiz.Title = "Renamed"
		return tx.Quiz().Update(ctx, quiz)
	}))
	require.NoError(t, repo.Quiz().UpdateStatus(ctx, quiz.ID, models.QuizStatusFailed))

	stored, err := repo.Quiz().GetByID(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)
	assert.Equal(t, models.QuizStatusFailed, stored.Status)
}

func TestNestedTransactionRunsInline(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	quiz, _ := seedQuiz(t, repo)

	err := repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return tx.WithTransaction(ctx, func(inner repositories.Repository) error {
			return inner.Quiz().UpdateStatus(ctx, quiz.ID, models.QuizStatusFailed)
		})
	})
	require.NoError(t, err)

	stored, err := repo.Quiz().GetByID(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuizStatusFailed, stored.Status)
}

func TestSingleCurrentVersionEnforced(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	quiz, _ := seedQuiz(t, repo)

	second := &models.QuizVersion{QuizID: quiz.ID, Status: models.VersionStatusPublished, IsCurrent: true, CreatedBy: quiz.CreatedBy}
	assert.Error(t, repo.QuizVersion().Create(ctx, second))

	second.IsCurrent = false
	require.NoError(t, repo.QuizVersion().Create(ctx, second))

	require.NoError(t, repo.QuizVersion().ClearCurrent(ctx, quiz.ID))
	second.IsCurrent = true
	require.NoError(t, repo.QuizVersion().Update(ctx, second))

	current, err := repo.QuizVersion().GetCurrent(ctx, quiz.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, second.ID, current.ID)
}

func TestSingleActiveSessionEnforced(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	quiz, version := seedQuiz(t, repo)

	first := &models.EditSession{QuizID: quiz.ID, DraftVersionID: version.ID, StartedBy: quiz.CreatedBy, Status: models.EditSessionActive}
	require.NoError(t, repo.EditSession().Create(ctx, first))

	second := &models.EditSession{QuizID: quiz.ID, DraftVersionID: version.ID, StartedBy: quiz.CreatedBy, Status: models.EditSessionActive}
	assert.Error(t, repo.EditSession().Create(ctx, second))
}

func TestTaskOrderIndexUniquePerVersion(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	quiz, version := seedQuiz(t, repo)

	first := &models.Task{QuizID: quiz.ID, QuizVersionID: version.ID, Type: models.TaskTypeFreeText, Prompt: "a", FreeText: &models.FreeTextTask{ReferenceAnswer: "x"}}
	require.NoError(t, repo.Task().Create(ctx, first))
	assert.Equal(t, first.ID, first.FreeText.TaskID)

	clash := &models.Task{QuizID: quiz.ID, QuizVersionID: version.ID, Type: models.TaskTypeFreeText, Prompt: "b"}
	assert.Error(t, repo.Task().Create(ctx, clash))

	maxIndex, err := repo.Task().MaxOrderIndex(ctx, version.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, maxIndex)

	empty, err := repo.Task().MaxOrderIndex(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, -1, empty)
}

func TestDeleteQuizCascades(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	quiz, version := seedQuiz(t, repo)

	task := &models.Task{QuizID: quiz.ID, QuizVersionID: version.ID, Type: models.TaskTypeFreeText, Prompt: "a"}
	require.NoError(t, repo.Task().Create(ctx, task))
	require.NoError(t, repo.Ownership().Create(ctx, &models.QuizOwnership{QuizID: quiz.ID, UserID: quiz.CreatedBy, Role: models.RoleOwner}))

	attempt := &models.Attempt{QuizID: quiz.ID, UserID: uuid.New(), Status: models.AttemptInProgress}
	require.NoError(t, repo.Attempt().Create(ctx, attempt))

	require.NoError(t, repo.Quiz().Delete(ctx, quiz.ID))

	_, err := repo.Task().GetByID(ctx, task.ID)
	assert.True(t, repositories.IsNotFoundError(err))
	_, err = repo.QuizVersion().GetByID(ctx, version.ID)
	assert.True(t, repositories.IsNotFoundError(err))
	ownership, err := repo.Ownership().Get(ctx, quiz.ID, quiz.CreatedBy)
	require.NoError(t, err)
	assert.Nil(t, ownership)

	// attempts are removed by the quiz-deleted subscriber, not by the cascade
	stillThere, err := repo.Attempt().GetByID(ctx, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, attempt.ID, stillThere.ID)
}

func TestReturnedRowsAreCopies(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	quiz, version := seedQuiz(t, repo)

	task := &models.Task{
		QuizID: quiz.ID, QuizVersionID: version.ID, Type: models.TaskTypeMultipleChoice, Prompt: "a",
		MultipleChoice: &models.MultipleChoiceTask{Options: []models.TaskOption{{Text: "x", IsCorrect: true}}},
	}
	require.NoError(t, repo.Task().Create(ctx, task))

	loaded, err := repo.Task().GetByID(ctx, task.ID)
	require.NoError(t, err)
	loaded.MultipleChoice.Options[0].Text = "mutated"

	again, err := repo.Task().GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", again.MultipleChoice.Options[0].Text)
}

func TestAnswerUniquePerAttemptAndTask(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	attempt := &models.Attempt{QuizID: uuid.New(), UserID: uuid.New(), Status: models.AttemptInProgress}
	require.NoError(t, repo.Attempt().Create(ctx, attempt))
	taskID := uuid.New()

	first := &models.Answer{AttemptID: attempt.ID, TaskID: taskID, Type: models.TaskTypeFreeText, FreeText: &models.FreeTextAnswer{TextResponse: "a"}}
	require.NoError(t, repo.Answer().Save(ctx, first))

	dup := &models.Answer{AttemptID: attempt.ID, TaskID: taskID, Type: models.TaskTypeFreeText}
	assert.Error(t, repo.Answer().Save(ctx, dup))

	full := 100.0
	require.NoError(t, repo.Answer().SetPercentage(ctx, first.ID, &full))
	stored, err := repo.Answer().Get(ctx, attempt.ID, taskID)
	require.NoError(t, err)
	require.NotNil(t, stored.PercentageCorrect)
	assert.Equal(t, 100.0, *stored.PercentageCorrect)
}
