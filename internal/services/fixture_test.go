package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/repositories/memory"
	"github.com/SAP-F-2025/quiz-service/internal/strategies"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx       context.Context
	repo      repositories.Repository
	tasks     *strategies.TaskRegistry
	answers   *strategies.AnswerRegistry
	validator *validator.Validator
	publisher *events.MockEventPublisher
	bus       *events.QuizDeletedBus
	viewCache *cache.QuizViewCache
	logger    *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.NewQuizDeletedBus()
	NewCleanupService(logger).Register(bus)
	return &fixture{
		ctx:       context.Background(),
		repo:      memory.NewRepository(),
		tasks:     strategies.DefaultTaskRegistry(),
		answers:   strategies.DefaultAnswerRegistry(),
		validator: validator.New(),
		publisher: events.NewMockEventPublisher(logger),
		bus:       bus,
		viewCache: cache.NewQuizViewCache(cache.NewNoopCache(), time.Minute, logger),
		logger:    logger,
	}
}

func (f *fixture) quizService(generator Generator, queue GenerationQueue) QuizService {
	return NewQuizService(QuizServiceDeps{
		Repo:      f.repo,
		Tasks:     f.tasks,
		Validator: f.validator,
		Generator: generator,
		Queue:     queue,
		Bus:       f.bus,
		Publisher: f.publisher,
		Cache:     f.viewCache,
		Logger:    f.logger,
	})
}

func (f *fixture) editSessions() EditSessionService {
	return NewEditSessionService(f.repo, f.tasks, f.publisher, f.viewCache, f.logger)
}

func (f *fixture) taskService() TaskService {
	return NewTaskService(f.repo, f.tasks, f.validator, f.logger)
}

func (f *fixture) attemptService() AttemptService {
	return NewAttemptService(f.repo, f.tasks, f.answers, f.validator, f.logger)
}

func (f *fixture) evaluationService() EvaluationService {
	return NewEvaluationService(f.repo, f.tasks, f.answers, f.publisher, f.logger)
}

// seedQuiz stores a completed private quiz owned by owner whose current
// version holds the given tasks in order.
func (f *fixture) seedQuiz(t *testing.T, owner uuid.UUID, inputs ...models.TaskInput) (*models.Quiz, *models.QuizVersion, []*models.Task) {
	t.Helper()
	topic := "Geography"
	quiz := &models.Quiz{
		Title:     "Capitals",
		Topic:     &topic,
		State:     models.QuizStatePrivate,
		Status:    models.QuizStatusCompleted,
		CreatedBy: owner,
	}
	require.NoError(t, f.repo.Quiz().Create(f.ctx, quiz))

	one := 1
	now := time.Now().UTC()
	version := &models.QuizVersion{
		QuizID:        quiz.ID,
		VersionNumber: &one,
		Status:        models.VersionStatusPublished,
		IsCurrent:     true,
		CreatedBy:     owner,
		CommittedAt:   &now,
	}
	require.NoError(t, f.repo.QuizVersion().Create(f.ctx, version))
	f.grant(t, quiz.ID, owner, models.RoleOwner)

	tasks := make([]*models.Task, 0, len(inputs))
	for i, input := range inputs {
		strategy, err := f.tasks.Get(input.Type)
		require.NoError(t, err)
		task, err := strategy.Build(quiz.ID, version.ID, input, i)
		require.NoError(t, err)
		tasks = append(tasks, task)
	}
	if len(tasks) > 0 {
		require.NoError(t, f.repo.Task().CreateBatch(f.ctx, tasks))
	}
	return quiz, version, tasks
}

func (f *fixture) grant(t *testing.T, quizID, userID uuid.UUID, role models.OwnershipRole) {
	t.Helper()
	require.NoError(t, f.repo.Ownership().Create(f.ctx, &models.QuizOwnership{QuizID: quizID, UserID: userID, Role: role}))
}

func (f *fixture) setState(t *testing.T, quiz *models.Quiz, state models.QuizState) {
	t.Helper()
	quiz.State = state
	require.NoError(t, f.repo.Quiz().Update(f.ctx, quiz))
}

func strPtr(s string) *string { return &s }

func mcInput(prompt string) models.TaskInput {
	return models.TaskInput{
		Type:   models.TaskTypeMultipleChoice,
		Prompt: prompt,
		Options: []models.OptionInput{
			{Text: "Paris", IsCorrect: true},
			{Text: "Lyon", Explanation: strPtr("Second city")},
		},
	}
}

func freeTextInput(prompt string) models.TaskInput {
	return models.TaskInput{
		Type:            models.TaskTypeFreeText,
		Prompt:          prompt,
		ReferenceAnswer: "Because of the river trade",
	}
}

func clozeInput(prompt string) models.TaskInput {
	return models.TaskInput{
		Type:         models.TaskTypeCloze,
		Prompt:       prompt,
		TemplateText: "The capital of France is {0} and of Italy is {1}.",
		Blanks: []models.BlankInput{
			{Position: 0, ExpectedValue: "Paris"},
			{Position: 1, ExpectedValue: "Rome|Roma"},
		},
	}
}

func correctOptionID(t *testing.T, task *models.Task) uuid.UUID {
	t.Helper()
	require.NotNil(t, task.MultipleChoice)
	for _, o := range task.MultipleChoice.Options {
		if o.IsCorrect {
			return o.ID
		}
	}
	t.Fatal("task has no correct option")
	return uuid.Nil
}

// ===== MOCKS =====

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, spec models.GenerationSpec) (*models.GeneratedQuiz, error) {
	args := m.Called(ctx, spec)
	if quiz, ok := args.Get(0).(*models.GeneratedQuiz); ok {
		return quiz, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Enqueue(ctx context.Context, job GenerationJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}
