package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/strategies"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"google.golang.org/genai"
)

const (
	DefaultModel      = "gemini-2.0-flash"
	defaultMaxRetries = 4

	sourceTemperature      = 0.2
	descriptionTemperature = 0.6
)

var (
	ErrEmptyResponse        = errors.New("empty response from model")
	ErrInvalidOutput        = errors.New("model returned invalid quiz content")
	ErrGeneratorUnavailable = errors.New("content generator is not configured")
)

// contentModel is the part of the genai client the generator needs.
type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiConfig struct {
	APIKey string
	Model  string
	// MaxRetries is the number of correction rounds after the first answer.
	MaxRetries int
}

// GeminiGenerator produces quiz content with a Gemini model. Answers that do
// not parse or fail task validation are sent back with a correction prompt.
type GeminiGenerator struct {
	models     contentModel
	model      string
	maxRetries int
	validator  *validator.Validator
	logger     *slog.Logger
}

func NewGeminiGenerator(ctx context.Context, config GeminiConfig, v *validator.Validator, logger *slog.Logger) (*GeminiGenerator, error) {
	if config.APIKey == "" {
		return nil, ErrGeneratorUnavailable
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiGenerator(client.Models, config, v, logger), nil
}

func newGeminiGenerator(m contentModel, config GeminiConfig, v *validator.Validator, logger *slog.Logger) *GeminiGenerator {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaultMaxRetries
	}
	return &GeminiGenerator{
		models:     m,
		model:      config.Model,
		maxRetries: config.MaxRetries,
		validator:  v,
		logger:     logger,
	}
}

func (g *GeminiGenerator) Generate(ctx context.Context, spec models.GenerationSpec) (*models.GeneratedQuiz, error) {
	count := g.TaskCount(ctx, spec.Description)
	system := SystemPrompt(spec, count)

	var contents []*genai.Content
	for _, msg := range UserMessages(spec) {
		contents = append(contents, genai.NewContentFromText(msg, genai.RoleUser))
	}

	temperature := float32(descriptionTemperature)
	if spec.SourceText != "" {
		temperature = sourceTemperature
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(temperature),
		ResponseMIMEType:  "application/json",
	}

	g.logger.Info("Quiz generation started",
		"model", g.model,
		"task_types", spec.TaskTypes,
		"task_count", count,
		"has_source", spec.SourceText != "")

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		raw, err := g.call(ctx, contents, config)
		if err != nil {
			return nil, err
		}

		quiz, err := g.parse(raw)
		if err == nil {
			return quiz, nil
		}
		lastErr = err
		if attempt == g.maxRetries {
			break
		}

		g.logger.Warn("Generated quiz rejected, asking for a correction",
			"retry", attempt+1,
			"max_retries", g.maxRetries,
			"error", err)
		contents = append(contents,
			genai.NewContentFromText(raw, genai.RoleModel),
			genai.NewContentFromText(CorrectionPrompt(err.Error(), spec.TaskTypes), genai.RoleUser))
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, lastErr)
}

// TaskCount asks the model how many tasks the description requests. Any
// failure falls back to DefaultTaskCount.
func (g *GeminiGenerator) TaskCount(ctx context.Context, description string) int {
	if strings.TrimSpace(description) == "" {
		return DefaultTaskCount
	}
	raw, err := g.call(ctx, []*genai.Content{genai.NewContentFromText(description, genai.RoleUser)}, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(taskCountPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		g.logger.Warn("Task count extraction failed", "error", err)
		return DefaultTaskCount
	}
	return ParseTaskCount(raw)
}

func (g *GeminiGenerator) call(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	result, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	raw := result.Text()
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyResponse
	}
	g.logger.Debug("Model response received", "length", len(raw))
	return raw, nil
}

func (g *GeminiGenerator) parse(raw string) (*models.GeneratedQuiz, error) {
	quiz, err := ParseGeneratedQuiz(raw)
	if err != nil {
		return nil, err
	}
	var problems []string
	for i, task := range quiz.Tasks {
		for _, e := range g.validator.Task().ValidateInput(task) {
			problems = append(problems, fmt.Sprintf("tasks[%d].%s: %s", i, e.Field, e.Message))
		}
	}
	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "\n"))
	}
	return quiz, nil
}

// ParseGeneratedQuiz decodes a model answer, tolerating markdown fences.
// Task types are normalised; a quiz without tasks is rejected.
func ParseGeneratedQuiz(raw string) (*models.GeneratedQuiz, error) {
	var quiz models.GeneratedQuiz
	if err := json.Unmarshal([]byte(stripFences(raw)), &quiz); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if len(quiz.Tasks) == 0 {
		return nil, errors.New("tasks: at least one task is required")
	}
	for i := range quiz.Tasks {
		quiz.Tasks[i].Type = strategies.NormalizeType(string(quiz.Tasks[i].Type))
	}
	return &quiz, nil
}

// ParseTaskCount reads {"num_questions": n}; anything else, or a
// non-positive n, yields DefaultTaskCount.
func ParseTaskCount(raw string) int {
	var payload struct {
		NumQuestions int `json:"num_questions"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &payload); err != nil || payload.NumQuestions <= 0 {
		return DefaultTaskCount
	}
	return payload.NumQuestions
}

func stripFences(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// UnavailableGenerator fails every request. It stands in when no provider
// is configured so that quizzes end up failed instead of stuck in pending.
type UnavailableGenerator struct{}

func (UnavailableGenerator) Generate(context.Context, models.GenerationSpec) (*models.GeneratedQuiz, error) {
	return nil, ErrGeneratorUnavailable
}
