package services

import (
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clozeAnswer(values map[uuid.UUID]string) *models.AnswerPayload {
	payload := &models.AnswerPayload{Type: models.TaskTypeCloze}
	for blankID, value := range values {
		payload.Data.ProvidedValues = append(payload.Data.ProvidedValues, models.ClozeValue{BlankID: blankID, Value: value})
	}
	return payload
}

func TestEvaluateCountsUnansweredTasksAsZero(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quiz, _, tasks := f.seedQuiz(t, owner, mcInput("Q1"), freeTextInput("Q2"))
	attempt := startAttempt(t, f, quiz.ID, owner).Attempt

	_, err := f.attemptService().SaveAnswer(f.ctx, owner, attempt.AttemptID, tasks[0].ID, mcAnswer(correctOptionID(t, tasks[0])))
	require.NoError(t, err)

	result, err := f.evaluationService().Evaluate(f.ctx, owner, attempt.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.TotalPercentage)
	require.Len(t, result.Tasks, 2)
	assert.Equal(t, 100.0, result.Tasks[0].Percentage)
	assert.True(t, result.Tasks[0].Answered)
	assert.Equal(t, 0.0, result.Tasks[1].Percentage)
	assert.False(t, result.Tasks[1].Answered)

	stored, err := f.repo.Attempt().GetByID(f.ctx, attempt.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptEvaluated, stored.Status)
	require.NotNil(t, stored.TotalPercentage)
	assert.Equal(t, 50.0, *stored.TotalPercentage)
	assert.NotNil(t, stored.EvaluatedAt)

	published := f.publisher.EventsOfType(events.EventAttemptEvaluated)
	assert.Len(t, published, 1)
}

func TestEvaluateMixedTaskTypes(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quiz, _, tasks := f.seedQuiz(t, owner, mcInput("Q1"), freeTextInput("Q2"), clozeInput("Q3"))
	attempt := startAttempt(t, f, quiz.ID, owner).Attempt
	attempts := f.attemptService()

	options := tasks[0].MultipleChoice.Options
	_, err := attempts.SaveAnswer(f.ctx, owner, attempt.AttemptID, tasks[0].ID, mcAnswer(options[0].ID, options[1].ID))
	require.NoError(t, err)
	_, err = attempts.SaveAnswer(f.ctx, owner, attempt.AttemptID, tasks[1].ID, freeTextAnswer("Rivers"))
	require.NoError(t, err)
	_, err = attempts.SetFreeTextCorrectness(f.ctx, owner, attempt.AttemptID, tasks[1].ID, true)
	require.NoError(t, err)
	blanks := tasks[2].Cloze.Blanks
	_, err = attempts.SaveAnswer(f.ctx, owner, attempt.AttemptID, tasks[2].ID, clozeAnswer(map[uuid.UUID]string{
		blanks[0].ID: "Lyon",
		blanks[1].ID: "Roma",
	}))
	require.NoError(t, err)

	result, err := f.evaluationService().Evaluate(f.ctx, owner, attempt.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Tasks[0].Percentage)
	assert.Equal(t, 100.0, result.Tasks[1].Percentage)
	assert.Equal(t, 50.0, result.Tasks[2].Percentage)
	assert.Equal(t, 50.0, result.TotalPercentage)

	answer, err := f.repo.Answer().Get(f.ctx, attempt.AttemptID, tasks[2].ID)
	require.NoError(t, err)
	require.NotNil(t, answer.Cloze)
	results := map[uuid.UUID]bool{}
	for _, item := range answer.Cloze.Items {
		require.NotNil(t, item.IsCorrect)
		results[item.BlankID] = *item.IsCorrect
	}
	assert.False(t, results[blanks[0].ID])
	assert.True(t, results[blanks[1].ID])
	require.NotNil(t, answer.PercentageCorrect)
	assert.Equal(t, 50.0, *answer.PercentageCorrect)
}

func TestEvaluateRoundsToTwoDecimals(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quiz, _, tasks := f.seedQuiz(t, owner, mcInput("Q1"), mcInput("Q2"), mcInput("Q3"))
	attempt := startAttempt(t, f, quiz.ID, owner).Attempt

	for _, task := range tasks[:2] {
		_, err := f.attemptService().SaveAnswer(f.ctx, owner, attempt.AttemptID, task.ID, mcAnswer(correctOptionID(t, task)))
		require.NoError(t, err)
	}

	result, err := f.evaluationService().Evaluate(f.ctx, owner, attempt.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, 66.67, result.TotalPercentage)
}

func clozeResults(t *testing.T, answer *models.Answer) map[uuid.UUID]bool {
	t.Helper()
	require.NotNil(t, answer.Cloze)
	results := map[uuid.UUID]bool{}
	for _, item := range answer.Cloze.Items {
		require.NotNil(t, item.IsCorrect)
		results[item.BlankID] = *item.IsCorrect
	}
	return results
}

func TestEvaluateLocksAttempt(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quiz, _, tasks := f.seedQuiz(t, owner, mcInput("Q1"), clozeInput("Q2"))
	attempt := startAttempt(t, f, quiz.ID, owner).Attempt
	attempts := f.attemptService()
	svc := f.evaluationService()

	_, err := attempts.SaveAnswer(f.ctx, owner, attempt.AttemptID, tasks[0].ID, mcAnswer(correctOptionID(t, tasks[0])))
	require.NoError(t, err)
	blanks := tasks[1].Cloze.Blanks
	_, err = attempts.SaveAnswer(f.ctx, owner, attempt.AttemptID, tasks[1].ID, clozeAnswer(map[uuid.UUID]string{
		blanks[0].ID: "Lyon",
		blanks[1].ID: "Roma",
	}))
	require.NoError(t, err)

	first, err := svc.Evaluate(f.ctx, owner, attempt.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, first.TotalPercentage)

	mcBefore, err := f.repo.Answer().Get(f.ctx, attempt.AttemptID, tasks[0].ID)
	require.NoError(t, err)
	clozeBefore, err := f.repo.Answer().Get(f.ctx, attempt.AttemptID, tasks[1].ID)
	require.NoError(t, err)

	_, err = svc.Evaluate(f.ctx, owner, attempt.AttemptID)
	assert.ErrorIs(t, err, ErrAttemptLocked)
	assert.True(t, IsConflict(err))

	stored, err := f.repo.Attempt().GetByID(f.ctx, attempt.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, first.EvaluatedAt, *stored.EvaluatedAt)
	assert.Equal(t, 75.0, *stored.TotalPercentage)

	mcAfter, err := f.repo.Answer().Get(f.ctx, attempt.AttemptID, tasks[0].ID)
	require.NoError(t, err)
	require.NotNil(t, mcAfter.PercentageCorrect)
	assert.Equal(t, *mcBefore.PercentageCorrect, *mcAfter.PercentageCorrect)
	assert.Equal(t, 100.0, *mcAfter.PercentageCorrect)

	clozeAfter, err := f.repo.Answer().Get(f.ctx, attempt.AttemptID, tasks[1].ID)
	require.NoError(t, err)
	require.NotNil(t, clozeAfter.PercentageCorrect)
	assert.Equal(t, *clozeBefore.PercentageCorrect, *clozeAfter.PercentageCorrect)
	assert.Equal(t, 50.0, *clozeAfter.PercentageCorrect)
	assert.Equal(t, clozeResults(t, clozeBefore), clozeResults(t, clozeAfter))
	assert.Equal(t, map[uuid.UUID]bool{blanks[0].ID: false, blanks[1].ID: true}, clozeResults(t, clozeAfter))

	_, err = attempts.SaveAnswer(f.ctx, owner, attempt.AttemptID, tasks[0].ID, mcAnswer(correctOptionID(t, tasks[0])))
	assert.ErrorIs(t, err, ErrAttemptLocked)

	next := startAttempt(t, f, quiz.ID, owner)
	assert.True(t, next.Created)
	assert.NotEqual(t, attempt.AttemptID, next.Attempt.AttemptID)
}

func TestEvaluateQuizWithoutTasks(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quiz, _, _ := f.seedQuiz(t, owner)
	attempt := startAttempt(t, f, quiz.ID, owner).Attempt

	result, err := f.evaluationService().Evaluate(f.ctx, owner, attempt.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.TotalPercentage)
	assert.Empty(t, result.Tasks)
}

func TestEvaluateRejectsOtherUser(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	quiz, _, _ := f.seedQuiz(t, owner, mcInput("Q1"))
	attempt := startAttempt(t, f, quiz.ID, owner).Attempt

	_, err := f.evaluationService().Evaluate(f.ctx, uuid.New(), attempt.AttemptID)
	assert.True(t, IsAccessDenied(err))
	_, err = f.evaluationService().Evaluate(f.ctx, owner, uuid.New())
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}
