package models

// GenerationSpec is what the content generator is asked for. SourceText is
// the extracted text of an uploaded document; it travels with the job but is
// not persisted on the quiz.
type GenerationSpec struct {
	TaskTypes   []TaskType `json:"task_types"`
	Description string     `json:"description,omitempty"`
	SourceText  string     `json:"source_text,omitempty"`
	HasSource   bool       `json:"has_source"`
}

// Persisted returns the spec without the document text.
func (s GenerationSpec) Persisted() GenerationSpec {
	s.HasSource = s.HasSource || s.SourceText != ""
	s.SourceText = ""
	return s
}

// GeneratedQuiz is the generator output, applied to a quiz exactly once.
type GeneratedQuiz struct {
	Title string      `json:"title"`
	Topic string      `json:"topic"`
	Tasks []TaskInput `json:"tasks"`
}
