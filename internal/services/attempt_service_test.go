package services

import (
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startAttempt(t *testing.T, f *fixture, quizID, userID uuid.UUID) *StartAttemptResult {
	t.Helper()
	result, err := f.attemptService().StartOrResume(f.ctx, userID, &StartAttemptRequest{QuizID: quizID})
	require.NoError(t, err)
	return result
}

func mcAnswer(optionIDs ...uuid.UUID) *models.AnswerPayload {
	return &models.AnswerPayload{
		Type: models.TaskTypeMultipleChoice,
		Data: models.AnswerData{SelectedOptionIDs: optionIDs},
	}
}

func freeTextAnswer(text string) *models.AnswerPayload {
	return &models.AnswerPayload{
		Type: models.TaskTypeFreeText,
		Data: models.AnswerData{TextResponse: &text},
	}
}

func TestStartOrResumeReturnsOpenAttempt(t *testing.T) {
	f := newFixture(t)
	owner, learner := uuid.New(), uuid.New()
	quiz, version, _ := f.seedQuiz(t, owner, mcInput("Q1"))
	f.grant(t, quiz.ID, learner, models.RoleViewer)

	first := startAttempt(t, f, quiz.ID, learner)
	assert.True(t, first.Created)
	assert.Equal(t, models.AttemptInProgress, first.Attempt.Status)
	require.NotNil(t, first.Attempt.QuizVersionID)
	assert.Equal(t, version.ID, *first.Attempt.QuizVersionID)
	assert.Empty(t, first.Attempt.Answers)

	second := startAttempt(t, f, quiz.ID, learner)
	assert.False(t, second.Created)
	assert.Equal(t, first.Attempt.AttemptID, second.Attempt.AttemptID)
}

func TestStartOrResumeChecksQuiz(t *testing.T) {
	f := newFixture(t)
	owner, stranger := uuid.New(), uuid.New()
	quiz, _, _ := f.seedQuiz(t, owner, mcInput("Q1"))
	svc := f.attemptService()

	_, err := svc.StartOrResume(f.ctx, stranger, &StartAttemptRequest{QuizID: quiz.ID})
	assert.True(t, IsAccessDenied(err))

	f.setState(t, quiz, models.QuizStatePublic)
	result, err := svc.StartOrResume(f.ctx, stranger, &StartAttemptRequest{QuizID: quiz.ID})
	require.NoError(t, err)
	assert.True(t, result.Created)

	_, err = svc.StartOrResume(f.ctx, owner, &StartAttemptRequest{QuizID: uuid.New()})
	assert.ErrorIs(t, err, ErrQuizNotFound)

	require.NoError(t, f.repo.Quiz().UpdateStatus(f.ctx, quiz.ID, models.QuizStatusGenerating))
	_, err = svc.StartOrResume(f.ctx, owner, &StartAttemptRequest{QuizID: quiz.ID})
	assert.ErrorIs(t, err, ErrQuizNotCompleted)
	assert.True(t, IsConflict(err))
}

func TestSaveAnswerReplacesSelection(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quiz, _, tasks := f.seedQuiz(t, owner, mcInput("Q1"))
	attempt := startAttempt(t, f, quiz.ID, owner).Attempt
	svc := f.attemptService()
	options := tasks[0].MultipleChoice.Options

	first, err := svc.SaveAnswer(f.ctx, owner, attempt.AttemptID, tasks[0].ID, mcAnswer(options[1].ID))
	require.NoError(t, err)
	second, err := svc.SaveAnswer(f.ctx, owner, attempt.AttemptID, tasks[0].ID, mcAnswer(options[0].ID, options[0].ID))
	require.NoError(t, err)
	assert.Equal(t, first.AnswerID, second.AnswerID)

	stored, err := svc.GetAttempt(f.ctx, owner, attempt.AttemptID)
	require.NoError(t, err)
	require.Len(t, stored.Answers, 1)
	assert.Equal(t, []uuid.UUID{options[0].ID}, stored.Answers[0].Data.SelectedOptionIDs)
}

func TestSaveAnswerRejectsForeignOrMismatchedTask(t *testing.T) {
	f := newFixture(t)
	owner, other := uuid.New(), uuid.New()
	quiz, _, tasks := f.seedQuiz(t, owner, mcInput("Q1"))
	_, _, otherTasks := f.seedQuiz(t, owner, mcInput("Elsewhere"))
	attempt := startAttempt(t, f, quiz.ID, owner).Attempt
	svc := f.attemptService()

	_, err := svc.SaveAnswer(f.ctx, owner, attempt.AttemptID, tasks[0].ID, freeTextAnswer("Paris"))
	var mismatch *TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)

	_, err = svc.SaveAnswer(f.ctx, owner, attempt.AttemptID, otherTasks[0].ID, mcAnswer())
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = svc.SaveAnswer(f.ctx, owner, attempt.AttemptID, uuid.New(), mcAnswer())
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = svc.SaveAnswer(f.ctx, other, attempt.AttemptID, tasks[0].ID, mcAnswer())
	assert.True(t, IsAccessDenied(err))

	_, err = svc.SaveAnswer(f.ctx, owner, uuid.New(), tasks[0].ID, mcAnswer())
	assert.ErrorIs(t, err, ErrAttemptNotFound)

	_, err = svc.SaveAnswer(f.ctx, owner, attempt.AttemptID, tasks[0].ID, &models.AnswerPayload{Type: "essay"})
	assert.True(t, IsValidation(err))
}

func TestAttemptStaysOnPinnedVersion(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quiz, version, tasks := f.seedQuiz(t, owner, mcInput("Q1"))
	attempt := startAttempt(t, f, quiz.ID, owner).Attempt

	draft := startDraft(t, f, quiz.ID, owner)
	_, err := f.editSessions().CommitEdit(f.ctx, quiz.ID, owner, draft.EditSessionID)
	require.NoError(t, err)
	svc := f.attemptService()

	views, err := svc.GetAttemptTasks(f.ctx, owner, attempt.AttemptID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, tasks[0].ID, views[0].TaskID)
	assert.Equal(t, version.ID, views[0].QuizVersionID)

	_, err = svc.SaveAnswer(f.ctx, owner, attempt.AttemptID, draft.Quiz.Tasks[0].TaskID, mcAnswer())
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = svc.SaveAnswer(f.ctx, owner, attempt.AttemptID, tasks[0].ID, mcAnswer(correctOptionID(t, tasks[0])))
	assert.NoError(t, err)
}

func TestSetFreeTextCorrectness(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quiz, _, tasks := f.seedQuiz(t, owner, freeTextInput("Why Paris?"), mcInput("Q2"))
	attempt := startAttempt(t, f, quiz.ID, owner).Attempt
	svc := f.attemptService()

	_, err := svc.SetFreeTextCorrectness(f.ctx, owner, attempt.AttemptID, tasks[0].ID, true)
	assert.ErrorIs(t, err, ErrAnswerNotFound)

	_, err = svc.SaveAnswer(f.ctx, owner, attempt.AttemptID, tasks[0].ID, freeTextAnswer("Trade routes"))
	require.NoError(t, err)
	view, err := svc.SetFreeTextCorrectness(f.ctx, owner, attempt.AttemptID, tasks[0].ID, true)
	require.NoError(t, err)
	require.NotNil(t, view.PercentageCorrect)
	assert.Equal(t, 100.0, *view.PercentageCorrect)
	assert.Equal(t, "Trade routes", *view.Data.TextResponse)

	view, err = svc.SetFreeTextCorrectness(f.ctx, owner, attempt.AttemptID, tasks[0].ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, *view.PercentageCorrect)

	_, err = svc.SaveAnswer(f.ctx, owner, attempt.AttemptID, tasks[1].ID, mcAnswer())
	require.NoError(t, err)
	_, err = svc.SetFreeTextCorrectness(f.ctx, owner, attempt.AttemptID, tasks[1].ID, true)
	assert.ErrorIs(t, err, ErrInvalidAnswerType)
}

func TestListAttemptsFiltersByQuiz(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quizA, _, _ := f.seedQuiz(t, owner, mcInput("Q1"))
	quizB, _, _ := f.seedQuiz(t, owner, mcInput("Q2"))
	startAttempt(t, f, quizA.ID, owner)
	startAttempt(t, f, quizB.ID, owner)
	svc := f.attemptService()

	all, err := svc.ListAttempts(f.ctx, owner, &ListAttemptsRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyA, err := svc.ListAttempts(f.ctx, owner, &ListAttemptsRequest{QuizID: &quizA.ID})
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, quizA.ID, onlyA[0].QuizID)

	none, err := svc.ListAttempts(f.ctx, uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
