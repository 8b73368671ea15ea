package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/strategies"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/xuri/excelize/v2"
)

const (
	sheetTasks   = "Tasks"
	sheetOptions = "Options"
	sheetBlanks  = "Blanks"
)

var (
	taskHeaders   = []string{"order", "type", "prompt", "topic_detail", "reference_answer", "template_text"}
	optionHeaders = []string{"task_order", "text", "is_correct", "explanation"}
	blankHeaders  = []string{"task_order", "position", "expected_value"}
)

type transferService struct {
	repo      repositories.Repository
	tasks     *strategies.TaskRegistry
	validator *validator.Validator
	logger    *slog.Logger
}

func NewTransferService(repo repositories.Repository, tasks *strategies.TaskRegistry, validator *validator.Validator, logger *slog.Logger) TransferService {
	return &transferService{
		repo:      repo,
		tasks:     tasks,
		validator: validator,
		logger:    logger,
	}
}

// ===== EXPORT =====

// ExportQuiz writes the current version's tasks into a workbook with one
// sheet per entity. Options and blanks reference their task by order.
func (s *transferService) ExportQuiz(ctx context.Context, quizID, userID uuid.UUID) (*ExportFile, error) {
	quiz, err := loadQuiz(ctx, s.repo, quizID)
	if err != nil {
		return nil, err
	}
	if err := ensureReadAccess(ctx, s.repo, quiz, userID); err != nil {
		return nil, err
	}
	version, err := currentVersion(ctx, s.repo, quizID)
	if err != nil {
		return nil, err
	}
	views, err := versionTaskViews(ctx, s.repo, s.tasks, version.ID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetTasks); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	for _, sheet := range []string{sheetOptions, sheetBlanks} {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
		}
	}

	if err := writeRow(f, sheetTasks, 1, toCells(taskHeaders)); err != nil {
		return nil, err
	}
	if err := writeRow(f, sheetOptions, 1, toCells(optionHeaders)); err != nil {
		return nil, err
	}
	if err := writeRow(f, sheetBlanks, 1, toCells(blankHeaders)); err != nil {
		return nil, err
	}

	taskRow, optionRow, blankRow := 2, 2, 2
	for i, view := range views {
		order := i + 1
		row := []interface{}{order, string(view.Type), view.Prompt, view.TopicDetail, deref(view.ReferenceAnswer), deref(view.TemplateText)}
		if err := writeRow(f, sheetTasks, taskRow, row); err != nil {
			return nil, err
		}
		taskRow++

		for _, option := range view.Options {
			row := []interface{}{order, option.Text, option.IsCorrect, deref(option.Explanation)}
			if err := writeRow(f, sheetOptions, optionRow, row); err != nil {
				return nil, err
			}
			optionRow++
		}
		for _, blank := range view.Blanks {
			row := []interface{}{order, blank.Position, blank.ExpectedValue}
			if err := writeRow(f, sheetBlanks, blankRow, row); err != nil {
				return nil, err
			}
			blankRow++
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	name := slug.Make(quiz.Title)
	if name == "" {
		name = "quiz"
	}
	s.logger.Info("Quiz exported", "quiz_id", quizID, "user_id", userID, "task_count", len(views))
	return &ExportFile{FileName: name + ".xlsx", Content: buf.Bytes()}, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ===== IMPORT =====

// ImportTasks appends the workbook's tasks to the caller's draft. Every row
// is validated first; nothing is written unless all rows are valid.
func (s *transferService) ImportTasks(ctx context.Context, quizID, userID uuid.UUID, sessionID *uuid.UUID, workbook []byte) (*ImportResult, error) {
	if sessionID == nil || *sessionID == uuid.Nil {
		return nil, ErrEditSessionRequired
	}

	inputs, err := parseWorkbook(workbook)
	if err != nil {
		return nil, err
	}
	var errs ValidationErrors
	for i, input := range inputs {
		for _, fieldErr := range s.validator.Task().ValidateInput(input) {
			fieldErr.Field = fmt.Sprintf("%s[%d].%s", sheetTasks, i+2, fieldErr.Field)
			errs = append(errs, fieldErr)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	result := &ImportResult{}
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := loadQuiz(ctx, tx, quizID); err != nil {
			return err
		}
		session, err := requireActiveSession(ctx, tx, *sessionID, userID, &quizID)
		if err != nil {
			return err
		}
		if err := ensureRole(ctx, tx, quizID, userID, models.RoleEditor, "import tasks"); err != nil {
			return err
		}

		last, err := tx.Task().MaxOrderIndex(ctx, session.DraftVersionID)
		if err != nil {
			return fmt.Errorf("failed to get last task position: %w", err)
		}
		tasks := make([]*models.Task, 0, len(inputs))
		for i, input := range inputs {
			strategy, err := s.tasks.Get(input.Type)
			if err != nil {
				return err
			}
			task, err := strategy.Build(quizID, session.DraftVersionID, input, last+1+i)
			if err != nil {
				return fmt.Errorf("failed to build imported task %d: %w", i, err)
			}
			tasks = append(tasks, task)
		}
		if err := tx.Task().CreateBatch(ctx, tasks); err != nil {
			return fmt.Errorf("failed to save imported tasks: %w", err)
		}

		result.Imported = len(tasks)
		result.Tasks, err = taskViews(s.tasks, tasks)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Tasks imported", "quiz_id", quizID, "user_id", userID, "count", result.Imported)
	return result, nil
}

func parseWorkbook(workbook []byte) ([]models.TaskInput, error) {
	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	if err != nil {
		return nil, NewValidationError("file", "is not a readable Excel workbook", nil)
	}
	defer f.Close()

	taskRows, err := sheetRecords(f, sheetTasks, true)
	if err != nil {
		return nil, err
	}
	if len(taskRows) == 0 {
		return nil, NewValidationError("file", "Tasks sheet must have a header row and at least one task", nil)
	}
	optionRows, err := sheetRecords(f, sheetOptions, false)
	if err != nil {
		return nil, err
	}
	blankRows, err := sheetRecords(f, sheetBlanks, false)
	if err != nil {
		return nil, err
	}

	var errs ValidationErrors
	inputs := make([]models.TaskInput, 0, len(taskRows))
	byOrder := make(map[string]int, len(taskRows))

	for _, rec := range taskRows {
		order := rec.get("order")
		if order == "" {
			errs = append(errs, rec.fieldError("order", "is required"))
			continue
		}
		if _, dup := byOrder[order]; dup {
			errs = append(errs, rec.fieldError("order", "is duplicated"))
			continue
		}
		byOrder[order] = len(inputs)
		inputs = append(inputs, models.TaskInput{
			Type:            strategies.NormalizeType(rec.get("type")),
			Prompt:          rec.get("prompt"),
			TopicDetail:     rec.get("topic_detail"),
			ReferenceAnswer: rec.get("reference_answer"),
			TemplateText:    rec.get("template_text"),
		})
	}

	for _, rec := range optionRows {
		idx, ok := byOrder[rec.get("task_order")]
		if !ok {
			errs = append(errs, rec.fieldError("task_order", "does not match a task"))
			continue
		}
		isCorrect, err := parseFlag(rec.get("is_correct"))
		if err != nil {
			errs = append(errs, rec.fieldError("is_correct", "must be true or false"))
			continue
		}
		option := models.OptionInput{Text: rec.get("text"), IsCorrect: isCorrect}
		if explanation := rec.get("explanation"); explanation != "" {
			option.Explanation = &explanation
		}
		inputs[idx].Options = append(inputs[idx].Options, option)
	}

	for _, rec := range blankRows {
		idx, ok := byOrder[rec.get("task_order")]
		if !ok {
			errs = append(errs, rec.fieldError("task_order", "does not match a task"))
			continue
		}
		position, err := strconv.Atoi(rec.get("position"))
		if err != nil {
			errs = append(errs, rec.fieldError("position", "must be a number"))
			continue
		}
		inputs[idx].Blanks = append(inputs[idx].Blanks, models.BlankInput{
			Position:      position,
			ExpectedValue: rec.get("expected_value"),
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return inputs, nil
}

type record struct {
	sheet   string
	row     int
	values  []string
	columns map[string]int
}

func (r record) get(column string) string {
	idx, ok := r.columns[column]
	if !ok || idx >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[idx])
}

func (r record) fieldError(column, message string) ValidationError {
	return *NewValidationError(fmt.Sprintf("%s[%d].%s", r.sheet, r.row, column), message, r.get(column))
}

// sheetRecords reads a sheet with a header row. A missing optional sheet
// yields no records.
func sheetRecords(f *excelize.File, sheet string, required bool) ([]record, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		if required {
			return nil, NewValidationError("file", fmt.Sprintf("sheet %s is missing", sheet), nil)
		}
		return nil, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}
	records := make([]record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		records = append(records, record{sheet: sheet, row: i + 2, values: row, columns: columns})
	}
	return records, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseFlag(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "", "false", "0", "no":
		return false, nil
	case "true", "1", "yes":
		return true, nil
	}
	return false, fmt.Errorf("invalid flag %q", raw)
}
