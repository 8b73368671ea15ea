package generation

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

const (
	DefaultTaskCount = 10
	defaultTopic     = "General knowledge"
)

var taskTypeRoles = map[models.TaskType]string{
	models.TaskTypeMultipleChoice: "exam questions with answer options",
	models.TaskTypeFreeText:       "open comprehension questions",
	models.TaskTypeCloze:          "cloze texts that test key terms",
}

var taskTypeHints = map[models.TaskType][2]string{
	models.TaskTypeMultipleChoice: {"facts and definitions with clear options", "multiple_choice"},
	models.TaskTypeFreeText:       {"explanations and relationships", "free_text"},
	models.TaskTypeCloze:          {"technical terms and terminology", "cloze"},
}

var taskTypeBlocks = map[models.TaskType]string{
	models.TaskTypeMultipleChoice: `### MULTIPLE CHOICE ###

Schema:
{
  "type": "multiple_choice",
  "prompt": "string - the question",
  "topic_detail": "string - subtopic of the question",
  "options": [
    {"text": "string", "is_correct": boolean, "explanation": "string"}
  ]
}

Example:
{
  "type": "multiple_choice",
  "prompt": "Which of the following are gases at room temperature?",
  "topic_detail": "Chemistry - states of matter",
  "options": [
    {"text": "Oxygen", "is_correct": true, "explanation": "Oxygen is a gas at room temperature"},
    {"text": "Iron", "is_correct": false, "explanation": "Iron is a solid metal at room temperature"},
    {"text": "Carbon dioxide", "is_correct": true, "explanation": "CO2 is a gas at room temperature"},
    {"text": "Mercury", "is_correct": false, "explanation": "Mercury is a liquid at room temperature"}
  ]
}

Rules for multiple choice:
- Use 3 to 5 options
- At least one option is correct
- Shuffle the positions of the correct options`,

	models.TaskTypeFreeText: `### FREE TEXT ###

Schema:
{
  "type": "free_text",
  "prompt": "string - the question",
  "topic_detail": "string - subtopic of the question",
  "reference_answer": "string - the model answer"
}

Example:
{
  "type": "free_text",
  "prompt": "What is photosynthesis and why does it matter for plants?",
  "topic_detail": "Biology - plant metabolism",
  "reference_answer": "Photosynthesis turns light, water and carbon dioxide into glucose and oxygen. It is the energy source of the plant and releases oxygen into the atmosphere."
}

Rules for free text:
- Questions are clear and unambiguous
- The reference answer is complete and easy to follow`,

	models.TaskTypeCloze: `### CLOZE ###

Schema:
{
  "type": "cloze",
  "prompt": "string - short instruction",
  "topic_detail": "string - subtopic of the question",
  "template_text": "string - text with {{blank_N}} placeholders",
  "blanks": [
    {"position": number, "expected_value": "string"}
  ]
}

Example:
{
  "type": "cloze",
  "prompt": "Complete the sentence about the solar system:",
  "topic_detail": "Astronomy",
  "template_text": "The Earth orbits the {{blank_1}} and needs about {{blank_2}} days for one orbit.",
  "blanks": [
    {"position": 1, "expected_value": "Sun"},
    {"position": 2, "expected_value": "365"}
  ]
}

Rules for cloze:
- Place blanks on meaningful key terms
- Keep the {{blank_N}} format exactly
- Every placeholder has exactly one entry in blanks`,
}

var compactSchemas = map[models.TaskType]string{
	models.TaskTypeMultipleChoice: `{"type": "multiple_choice", "prompt": "string", "topic_detail": "string", "options": [{"text": "string", "is_correct": boolean, "explanation": "string"}]}`,
	models.TaskTypeFreeText:       `{"type": "free_text", "prompt": "string", "topic_detail": "string", "reference_answer": "string"}`,
	models.TaskTypeCloze:          `{"type": "cloze", "prompt": "string", "topic_detail": "string", "template_text": "string with {{blank_N}} placeholders", "blanks": [{"position": number, "expected_value": "string"}]}`,
}

const outputFormat = `OUTPUT FORMAT: valid JSON only, no additional text.

{
  "title": "string - quiz title",
  "topic": "string - main topic",
  "tasks": [ ... ]
}`

const taskCountPrompt = `You extract the requested number of questions from a user prompt.
Answer only with a JSON object of the form {"num_questions": <number>}.
If no number is given, use -1.
Do not add words, further JSON or explanations.

Examples:
user prompt: "Create a quiz about castles with 5 questions"
output: {"num_questions": 5}
user prompt: "Create a quiz about the Roman Empire"
output: {"num_questions": -1}`

// PromptBuilder assembles the system instruction for a generation request.
type PromptBuilder struct {
	parts []string
}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

func (b *PromptBuilder) WithRole(types []models.TaskType) *PromptBuilder {
	if len(types) == 1 {
		b.parts = append(b.parts, fmt.Sprintf(
			"You are an experienced educator specialised in %s.\nYou write precise, unambiguous and factually correct tasks.",
			taskTypeRoles[types[0]]))
		return b
	}
	b.parts = append(b.parts,
		"You are an experienced educator who writes varied learning tasks.\nYou write precise, unambiguous and factually correct tasks.")
	return b
}

func (b *PromptBuilder) WithObjective(count int, hasSource, hasDescription bool) *PromptBuilder {
	objective := fmt.Sprintf("GOAL: Create EXACTLY %d tasks.\n", count)
	switch {
	case hasSource && hasDescription:
		objective += "SOURCE: the provided document has priority.\nFollow the user's request for the thematic focus.\nAdd general knowledge only where needed."
	case hasSource:
		objective += "Base ALL questions only on the document content.\nDo not add knowledge that is not in the document."
	default:
		objective += "Follow the user's request in the next message.\nUse your subject knowledge for relevant and correct questions."
	}
	b.parts = append(b.parts, objective)
	return b
}

func (b *PromptBuilder) WithProcess(count int, types []models.TaskType, hasSource bool) *PromptBuilder {
	var steps strings.Builder
	steps.WriteString("PROCESS:\n")
	if hasSource {
		steps.WriteString("1. Read the whole document\n")
		fmt.Fprintf(&steps, "2. Identify the %d most important testable facts\n", count)
	} else {
		steps.WriteString("1. Recall what you know about the topic\n")
		fmt.Fprintf(&steps, "2. Pick %d fundamental concepts\n", count)
	}
	fmt.Fprintf(&steps, "3. %s\n", assignmentStep(types))
	steps.WriteString("4. Check that the JSON is valid")
	b.parts = append(b.parts, steps.String())
	return b
}

func assignmentStep(types []models.TaskType) string {
	if len(types) == 1 {
		return fmt.Sprintf("Write one %s task per concept", types[0])
	}
	lines := []string{"Choose the best task type for each concept:"}
	names := make([]string, 0, len(types))
	for _, t := range types {
		hint := taskTypeHints[t]
		lines = append(lines, fmt.Sprintf("   - %s -> %s", hint[0], hint[1]))
		names = append(names, string(t))
	}
	lines = append(lines, "Distribute evenly across: "+strings.Join(names, ", "))
	return strings.Join(lines, "\n")
}

func (b *PromptBuilder) WithOutputFormat() *PromptBuilder {
	b.parts = append(b.parts, outputFormat)
	return b
}

func (b *PromptBuilder) WithTaskSchemas(types []models.TaskType) *PromptBuilder {
	for _, t := range types {
		if block, ok := taskTypeBlocks[t]; ok {
			b.parts = append(b.parts, block)
		}
	}
	return b
}

func (b *PromptBuilder) WithFinalConstraints(count int) *PromptBuilder {
	b.parts = append(b.parts, fmt.Sprintf(
		"RULES:\n- The quiz contains EXACTLY %d tasks\n- Output valid JSON only", count))
	return b
}

func (b *PromptBuilder) Build() string {
	return strings.Join(b.parts, "\n\n")
}

// SystemPrompt is the full instruction for one generation request.
func SystemPrompt(spec models.GenerationSpec, count int) string {
	hasSource := spec.SourceText != ""
	return NewPromptBuilder().
		WithRole(spec.TaskTypes).
		WithObjective(count, hasSource, strings.TrimSpace(spec.Description) != "").
		WithProcess(count, spec.TaskTypes, hasSource).
		WithOutputFormat().
		WithTaskSchemas(spec.TaskTypes).
		WithFinalConstraints(count).
		Build()
}

// UserMessages returns the document (if any) followed by the topic line.
func UserMessages(spec models.GenerationSpec) []string {
	topic := strings.TrimSpace(spec.Description)
	if topic == "" {
		topic = defaultTopic
	}
	var messages []string
	if spec.SourceText != "" {
		messages = append(messages, "Document: DOCUMENT_START\n"+spec.SourceText+"\nDOCUMENT_END")
	}
	return append(messages, "Topic/description: "+topic+"\n")
}

// CorrectionPrompt asks the model to fix its previous answer.
func CorrectionPrompt(problem string, types []models.TaskType) string {
	parts := []string{
		"Your previous JSON answer was invalid.\n\nERRORS:\n" + problem + "\n\nFix your answer. Expected format:",
		"\nQUIZ STRUCTURE:\n{\n  \"title\": \"string\",\n  \"topic\": \"string\",\n  \"tasks\": [...]\n}\n",
		"TASK TYPES:",
	}
	for _, t := range types {
		if schema, ok := compactSchemas[t]; ok {
			parts = append(parts, fmt.Sprintf("\n%s:\n%s", t, schema))
		}
	}
	parts = append(parts, "\nAnswer ONLY with the corrected JSON.")
	return strings.Join(parts, "\n")
}
