package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/strategies"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// QuizServiceDeps groups the collaborators of the quiz service.
type QuizServiceDeps struct {
	Repo      repositories.Repository
	Tasks     *strategies.TaskRegistry
	Validator *validator.Validator
	Generator Generator
	Queue     GenerationQueue
	Bus       *events.QuizDeletedBus
	Publisher events.EventPublisher
	Cache     *cache.QuizViewCache
	Logger    *slog.Logger
}

type quizService struct {
	repo      repositories.Repository
	tasks     *strategies.TaskRegistry
	validator *validator.Validator
	generator Generator
	queue     GenerationQueue
	bus       *events.QuizDeletedBus
	publisher events.EventPublisher
	cache     *cache.QuizViewCache
	logger    *slog.Logger
	opLogger  *ServiceLogger
}

func NewQuizService(deps QuizServiceDeps) QuizService {
	return &quizService{
		repo:      deps.Repo,
		tasks:     deps.Tasks,
		validator: deps.Validator,
		generator: deps.Generator,
		queue:     deps.Queue,
		bus:       deps.Bus,
		publisher: deps.Publisher,
		cache:     deps.Cache,
		logger:    deps.Logger,
		opLogger:  NewServiceLogger(deps.Logger, LogConfig{Service: "quiz-service", Component: "quiz"}),
	}
}

// ===== LISTING =====

func (s *quizService) ListUserQuizzes(ctx context.Context, userID uuid.UUID, roles []models.OwnershipRole) ([]QuizSummary, error) {
	owned, err := s.repo.Quiz().ListByUser(ctx, userID, repositories.QuizFilters{Roles: roles})
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	if len(owned) == 0 {
		return []QuizSummary{}, nil
	}

	quizIDs := make([]uuid.UUID, 0, len(owned))
	for _, uq := range owned {
		quizIDs = append(quizIDs, uq.Quiz.ID)
	}
	current, err := s.repo.QuizVersion().CurrentIDs(ctx, quizIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get current versions: %w", err)
	}
	versionIDs := make([]uuid.UUID, 0, len(current))
	for _, versionID := range current {
		versionIDs = append(versionIDs, versionID)
	}
	summaries, err := s.repo.Task().VersionSummaries(ctx, versionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize versions: %w", err)
	}

	result := make([]QuizSummary, 0, len(owned))
	for _, uq := range owned {
		summary := summaries[current[uq.Quiz.ID]]
		types := make([]models.TaskType, 0, len(summary.ByType))
		for taskType := range summary.ByType {
			types = append(types, taskType)
		}
		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

		result = append(result, QuizSummary{
			QuizID:    uq.Quiz.ID,
			Title:     uq.Quiz.Title,
			Topic:     uq.Quiz.Topic,
			State:     uq.Quiz.State,
			Status:    uq.Quiz.Status,
			Role:      uq.Role,
			TaskCount: summary.TaskCount,
			TaskTypes: types,
			CreatedAt: uq.Quiz.CreatedAt,
		})
	}
	return result, nil
}

// ===== CREATION AND GENERATION =====

func (s *quizService) CreateQuiz(ctx context.Context, userID uuid.UUID, req *CreateQuizRequest) (*CreateQuizResponse, error) {
	s.logger.Info("Creating quiz", "user_id", userID, "task_types", req.TaskTypes)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Description) == "" && strings.TrimSpace(req.SourceText) == "" {
		return nil, ErrMissingSource
	}
	taskTypes, err := s.resolveTaskTypes(req.TaskTypes)
	if err != nil {
		return nil, err
	}

	spec := models.GenerationSpec{
		TaskTypes:   taskTypes,
		Description: strings.TrimSpace(req.Description),
		SourceText:  req.SourceText,
	}
	specJSON, err := json.Marshal(spec.Persisted())
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation spec: %w", err)
	}

	now := time.Now().UTC()
	versionNumber := 1
	quiz := &models.Quiz{
		Title:          models.QuizTitlePending,
		State:          models.QuizStatePrivate,
		Status:         models.QuizStatusPending,
		CreatedBy:      userID,
		GenerationSpec: datatypes.JSON(specJSON),
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Quiz().Create(ctx, quiz); err != nil {
			return fmt.Errorf("failed to create quiz: %w", err)
		}
		version := &models.QuizVersion{
			QuizID:        quiz.ID,
			VersionNumber: &versionNumber,
			Status:        models.VersionStatusPublished,
			IsCurrent:     true,
			CreatedBy:     userID,
			CommittedAt:   &now,
		}
		if err := tx.QuizVersion().Create(ctx, version); err != nil {
			return fmt.Errorf("failed to create initial version: %w", err)
		}
		ownership := &models.QuizOwnership{QuizID: quiz.ID, UserID: userID, Role: models.RoleOwner}
		if err := tx.Ownership().Create(ctx, ownership); err != nil {
			return fmt.Errorf("failed to create ownership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.EventQuizCreated, events.QuizCreatedEvent{
		QuizID:    quiz.ID,
		CreatedBy: userID,
		TaskTypes: taskTypeNames(taskTypes),
	})

	if err := s.queue.Enqueue(ctx, GenerationJob{QuizID: quiz.ID, Spec: spec}); err != nil {
		s.logger.Error("Failed to enqueue quiz generation", "quiz_id", quiz.ID, "error", err)
		s.markGenerationFailed(ctx, quiz.ID, err)
		return &CreateQuizResponse{QuizID: quiz.ID, Status: models.QuizStatusFailed}, nil
	}

	s.logger.Info("Quiz created, generation queued", "quiz_id", quiz.ID, "user_id", userID)
	return &CreateQuizResponse{QuizID: quiz.ID, Status: quiz.Status}, nil
}

func (s *quizService) resolveTaskTypes(requested []models.TaskType) ([]models.TaskType, error) {
	if len(requested) == 0 {
		return models.AllTaskTypes(), nil
	}
	seen := make(map[models.TaskType]bool, len(requested))
	resolved := make([]models.TaskType, 0, len(requested))
	for _, raw := range requested {
		taskType := strategies.NormalizeType(string(raw))
		if !s.tasks.Has(taskType) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTaskType, raw)
		}
		if !seen[taskType] {
			seen[taskType] = true
			resolved = append(resolved, taskType)
		}
	}
	return resolved, nil
}

func (s *quizService) GenerateQuizContent(ctx context.Context, quizID uuid.UUID, spec models.GenerationSpec) error {
	start := time.Now()

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		quiz, err := loadQuiz(ctx, tx, quizID)
		if err != nil {
			return err
		}
		if quiz.Status != models.QuizStatusPending {
			return ErrGenerationSkipped
		}
		return tx.Quiz().UpdateStatus(ctx, quizID, models.QuizStatusGenerating)
	})
	if err != nil {
		if errors.Is(err, ErrGenerationSkipped) || errors.Is(err, ErrQuizNotFound) {
			s.logger.Info("Skipping quiz generation", "quiz_id", quizID, "reason", err)
		}
		return err
	}

	generated, err := s.generator.Generate(ctx, spec)
	if err == nil {
		err = s.applyGenerated(ctx, quizID, generated)
	}
	if err != nil {
		s.logger.Error("Quiz generation failed", "quiz_id", quizID, "error", err)
		s.markGenerationFailed(ctx, quizID, err)
		return err
	}

	s.cache.Invalidate(ctx, quizID)
	publishEvent(ctx, s.publisher, s.logger, events.EventQuizGenerationCompleted, events.QuizGenerationCompletedEvent{
		QuizID:    quizID,
		Title:     generated.Title,
		TaskCount: len(generated.Tasks),
	})
	s.logger.Info("Quiz generation completed",
		"quiz_id", quizID,
		"task_count", len(generated.Tasks),
		"duration", time.Since(start))
	return nil
}

// applyGenerated writes the generated content in one unit of work so that a
// failing task leaves nothing behind.
func (s *quizService) applyGenerated(ctx context.Context, quizID uuid.UUID, generated *models.GeneratedQuiz) error {
	return s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		quiz, err := loadQuiz(ctx, tx, quizID)
		if err != nil {
			return err
		}
		version, err := currentVersion(ctx, tx, quizID)
		if err != nil {
			return err
		}

		tasks := make([]*models.Task, 0, len(generated.Tasks))
		for i, input := range generated.Tasks {
			input.Type = strategies.NormalizeType(string(input.Type))
			if errs := s.validator.Task().ValidateInput(input); len(errs) > 0 {
				return fmt.Errorf("generated task %d is invalid: %w", i, errs)
			}
			strategy, err := s.tasks.Get(input.Type)
			if err != nil {
				return err
			}
			task, err := strategy.Build(quizID, version.ID, input, i)
			if err != nil {
				return fmt.Errorf("failed to build generated task %d: %w", i, err)
			}
			tasks = append(tasks, task)
		}
		if err := tx.Task().CreateBatch(ctx, tasks); err != nil {
			return fmt.Errorf("failed to save generated tasks: %w", err)
		}

		if title := strings.TrimSpace(generated.Title); title != "" {
			quiz.Title = title
		}
		if topic := strings.TrimSpace(generated.Topic); topic != "" {
			quiz.Topic = &topic
		}
		quiz.Status = models.QuizStatusCompleted
		if err := tx.Quiz().Update(ctx, quiz); err != nil {
			return fmt.Errorf("failed to update quiz: %w", err)
		}
		return nil
	})
}

func (s *quizService) markGenerationFailed(ctx context.Context, quizID uuid.UUID, cause error) {
	ctx = context.WithoutCancel(ctx)
	if err := s.repo.Quiz().UpdateStatus(ctx, quizID, models.QuizStatusFailed); err != nil {
		s.logger.Error("Failed to mark quiz generation as failed", "quiz_id", quizID, "error", err)
		return
	}
	s.cache.Invalidate(ctx, quizID)
	publishEvent(ctx, s.publisher, s.logger, events.EventQuizGenerationFailed, events.QuizGenerationFailedEvent{
		QuizID: quizID,
		Reason: cause.Error(),
	})
}

// ===== READS =====

func (s *quizService) GetQuizDetail(ctx context.Context, quizID, userID uuid.UUID) (*QuizDetail, error) {
	quiz, err := loadQuiz(ctx, s.repo, quizID)
	if err != nil {
		return nil, err
	}
	if err := ensureReadAccess(ctx, s.repo, quiz, userID); err != nil {
		return nil, err
	}
	tasks, err := s.currentTasks(ctx, quiz)
	if err != nil {
		return nil, err
	}
	return quizDetail(quiz, tasks), nil
}

func (s *quizService) GetQuizAccess(ctx context.Context, quizID, userID uuid.UUID) (*QuizAccess, error) {
	quiz, err := loadQuiz(ctx, s.repo, quizID)
	if err != nil {
		return nil, err
	}
	if err := ensureReadAccess(ctx, s.repo, quiz, userID); err != nil {
		return nil, err
	}
	return &QuizAccess{QuizID: quiz.ID, Status: quiz.Status, State: quiz.State}, nil
}

func (s *quizService) GetTasks(ctx context.Context, quizID, userID uuid.UUID) ([]models.TaskView, error) {
	quiz, err := loadQuiz(ctx, s.repo, quizID)
	if err != nil {
		return nil, err
	}
	if err := ensureReadAccess(ctx, s.repo, quiz, userID); err != nil {
		return nil, err
	}
	return s.currentTasks(ctx, quiz)
}

func (s *quizService) GetVersionTasks(ctx context.Context, versionID, userID uuid.UUID) ([]models.TaskView, error) {
	version, err := s.repo.QuizVersion().GetByID(ctx, versionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	quiz, err := loadQuiz(ctx, s.repo, version.QuizID)
	if err != nil {
		return nil, err
	}
	// Drafts are only visible to editors.
	if version.Status == models.VersionStatusDraft {
		err = ensureRole(ctx, s.repo, quiz.ID, userID, models.RoleEditor, "read draft")
	} else {
		err = ensureReadAccess(ctx, s.repo, quiz, userID)
	}
	if err != nil {
		return nil, err
	}
	return versionTaskViews(ctx, s.repo, s.tasks, versionID)
}

func (s *quizService) GetTask(ctx context.Context, taskID, userID uuid.UUID) (*models.TaskView, error) {
	task, err := s.repo.Task().GetByID(ctx, taskID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	quiz, err := loadQuiz(ctx, s.repo, task.QuizID)
	if err != nil {
		return nil, err
	}
	if err := ensureReadAccess(ctx, s.repo, quiz, userID); err != nil {
		return nil, err
	}
	view, err := taskView(s.tasks, task)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// currentTasks caches only once the quiz status read before the task read is
// completed; generation writes into the current version until then.
func (s *quizService) currentTasks(ctx context.Context, quiz *models.Quiz) ([]models.TaskView, error) {
	version, err := currentVersion(ctx, s.repo, quiz.ID)
	if err != nil {
		return nil, err
	}
	if views, ok := s.cache.GetTasks(ctx, quiz.ID, version.ID); ok {
		return views, nil
	}
	views, err := versionTaskViews(ctx, s.repo, s.tasks, version.ID)
	if err != nil {
		return nil, err
	}
	if quiz.Status == models.QuizStatusCompleted {
		s.cache.SetTasks(ctx, quiz.ID, version.ID, views)
	}
	return views, nil
}

// ===== SETTINGS AND DELETION =====

func (s *quizService) UpdateQuizSettings(ctx context.Context, quizID, userID uuid.UUID, req *UpdateQuizSettingsRequest) (*QuizDetail, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var quiz *models.Quiz
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		quiz, err = loadQuiz(ctx, tx, quizID)
		if err != nil {
			return err
		}
		if err := ensureRole(ctx, tx, quizID, userID, models.RoleOwner, "update settings"); err != nil {
			return err
		}
		if req.State != nil {
			quiz.State = *req.State
		}
		if req.Title != nil {
			quiz.Title = strings.TrimSpace(*req.Title)
		}
		if err := tx.Quiz().Update(ctx, quiz); err != nil {
			return fmt.Errorf("failed to update quiz: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	tasks, err := s.currentTasks(ctx, quiz)
	if err != nil {
		return nil, err
	}
	return quizDetail(quiz, tasks), nil
}

func (s *quizService) DeleteQuiz(ctx context.Context, quizID, userID uuid.UUID) error {
	start := time.Now()
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := loadQuiz(ctx, tx, quizID); err != nil {
			return err
		}
		if err := ensureRole(ctx, tx, quizID, userID, models.RoleOwner, "delete"); err != nil {
			return err
		}
		if err := tx.Quiz().Delete(ctx, quizID); err != nil {
			return fmt.Errorf("failed to delete quiz: %w", err)
		}
		return s.bus.Publish(ctx, tx, events.QuizDeleted{QuizID: quizID, DeletedBy: userID})
	})
	s.opLogger.LogOperation(ctx, "delete_quiz", userID, quizID, "quiz", time.Since(start), err)
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, quizID)
	publishEvent(ctx, s.publisher, s.logger, events.EventQuizDeleted, events.QuizDeletedEvent{
		QuizID:    quizID,
		DeletedBy: userID,
	})
	return nil
}

func taskTypeNames(types []models.TaskType) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}
