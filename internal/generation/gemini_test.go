package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

const validQuizJSON = `{
  "title": "European Rivers",
  "topic": "Geography",
  "tasks": [
    {
      "type": "Multiple Choice",
      "prompt": "Which river flows through Vienna?",
      "topic_detail": "Danube",
      "options": [
        {"text": "Danube", "is_correct": true, "explanation": "Vienna lies on the Danube"},
        {"text": "Rhine", "is_correct": false}
      ]
    },
    {
      "type": "cloze",
      "prompt": "Complete the sentence:",
      "template_text": "The {{blank_1}} is the longest river in Europe.",
      "blanks": [{"position": 1, "expected_value": "Volga"}]
    }
  ]
}`

type call struct {
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type fakeModel struct {
	responses []string
	err       error
	calls     []call
}

func (f *fakeModel) GenerateContent(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, call{contents: append([]*genai.Content(nil), contents...), config: config})
	if f.err != nil {
		return nil, f.err
	}
	text := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(text, genai.RoleModel)}},
	}, nil
}

func newTestGenerator(m contentModel, maxRetries int) *GeminiGenerator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newGeminiGenerator(m, GeminiConfig{MaxRetries: maxRetries}, validator.New(), logger)
}

func sourceSpec() models.GenerationSpec {
	return models.GenerationSpec{
		TaskTypes:  []models.TaskType{models.TaskTypeMultipleChoice, models.TaskTypeCloze},
		SourceText: "The Danube flows through Vienna. The Volga is the longest river in Europe.",
		HasSource:  true,
	}
}

func TestParseGeneratedQuiz(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "plain json", raw: validQuizJSON},
		{name: "fenced json", raw: "```json\n" + validQuizJSON + "\n```"},
		{name: "bare fence", raw: "```\n" + validQuizJSON + "\n```"},
		{name: "not json", raw: "Here is your quiz!", wantErr: true},
		{name: "no tasks", raw: `{"title": "Empty", "topic": "None", "tasks": []}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz, err := ParseGeneratedQuiz(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "European Rivers", quiz.Title)
			require.Len(t, quiz.Tasks, 2)
			assert.Equal(t, models.TaskTypeMultipleChoice, quiz.Tasks[0].Type)
			assert.Equal(t, models.TaskTypeCloze, quiz.Tasks[1].Type)
		})
	}
}

func TestParseTaskCount(t *testing.T) {
	assert.Equal(t, 5, ParseTaskCount(`{"num_questions": 5}`))
	assert.Equal(t, 7, ParseTaskCount("```json\n{\"num_questions\": 7}\n```"))
	assert.Equal(t, DefaultTaskCount, ParseTaskCount(`{"num_questions": -1}`))
	assert.Equal(t, DefaultTaskCount, ParseTaskCount("five"))
}

func TestGeminiGenerator_Generate(t *testing.T) {
	model := &fakeModel{responses: []string{validQuizJSON}}
	gen := newTestGenerator(model, 2)

	quiz, err := gen.Generate(context.Background(), sourceSpec())
	require.NoError(t, err)
	assert.Equal(t, "Geography", quiz.Topic)
	assert.Len(t, quiz.Tasks, 2)

	// No description: no task count call.
	require.Len(t, model.calls, 1)
	config := model.calls[0].config
	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 0.2, *config.Temperature, 1e-6)
	assert.Contains(t, config.SystemInstruction.Parts[0].Text, "EXACTLY 10 tasks")
	assert.Contains(t, model.calls[0].contents[0].Parts[0].Text, "DOCUMENT_START")
}

func TestGeminiGenerator_RetriesWithCorrection(t *testing.T) {
	invalidMC := `{"title": "T", "topic": "X", "tasks": [{"type": "multiple_choice", "prompt": "Q?", "options": [{"text": "only", "is_correct": false}]}]}`
	model := &fakeModel{responses: []string{"not json", invalidMC, validQuizJSON}}
	gen := newTestGenerator(model, 4)

	quiz, err := gen.Generate(context.Background(), sourceSpec())
	require.NoError(t, err)
	assert.Equal(t, "European Rivers", quiz.Title)

	require.Len(t, model.calls, 3)
	last := model.calls[2].contents
	// document, topic, then (answer, correction) twice
	require.Len(t, last, 6)
	assert.Equal(t, string(genai.RoleModel), last[4].Role)
	assert.Equal(t, invalidMC, last[4].Parts[0].Text)
	assert.Contains(t, last[5].Parts[0].Text, "at least one option must be correct")
}

func TestGeminiGenerator_GivesUpAfterRetries(t *testing.T) {
	model := &fakeModel{responses: []string{"still not json"}}
	gen := newTestGenerator(model, 2)

	_, err := gen.Generate(context.Background(), sourceSpec())
	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.Len(t, model.calls, 3)
}

func TestGeminiGenerator_ProviderError(t *testing.T) {
	model := &fakeModel{err: errors.New("quota exceeded")}
	gen := newTestGenerator(model, 2)

	_, err := gen.Generate(context.Background(), sourceSpec())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidOutput)
	assert.Len(t, model.calls, 1)
}

func TestGeminiGenerator_UsesRequestedTaskCount(t *testing.T) {
	model := &fakeModel{responses: []string{`{"num_questions": 3}`, validQuizJSON}}
	gen := newTestGenerator(model, 1)

	spec := models.GenerationSpec{
		TaskTypes:   []models.TaskType{models.TaskTypeFreeText},
		Description: "Three questions about the Roman Empire",
	}
	_, err := gen.Generate(context.Background(), spec)
	require.NoError(t, err)

	require.Len(t, model.calls, 2)
	assert.InDelta(t, 0, *model.calls[0].config.Temperature, 1e-6)
	generation := model.calls[1].config
	assert.InDelta(t, 0.6, *generation.Temperature, 1e-6)
	assert.Contains(t, generation.SystemInstruction.Parts[0].Text, "EXACTLY 3 tasks")
	assert.Contains(t, generation.SystemInstruction.Parts[0].Text, "### FREE TEXT ###")
	assert.NotContains(t, generation.SystemInstruction.Parts[0].Text, "### CLOZE ###")
}

func TestUnavailableGenerator(t *testing.T) {
	_, err := UnavailableGenerator{}.Generate(context.Background(), sourceSpec())
	assert.ErrorIs(t, err, ErrGeneratorUnavailable)
}
