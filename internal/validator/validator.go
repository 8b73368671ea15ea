package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines struct tag validation with the per-type task rules.
type Validator struct {
	structValidator *validator.Validate
	taskValidator   *TaskValidator
}

func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
		taskValidator:   NewTaskValidator(),
	}
}

// ValidateStruct validates struct tags only and returns ValidationErrors.
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Validate runs struct tags and, for task payloads, the task content rules.
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		return err
	}

	var errs ValidationErrors
	switch payload := s.(type) {
	case *models.TaskInput:
		errs = v.taskValidator.ValidateInput(*payload)
	case models.TaskInput:
		errs = v.taskValidator.ValidateInput(payload)
	case *models.TaskUpdate:
		errs = v.taskValidator.ValidateUpdate(*payload)
	case models.TaskUpdate:
		errs = v.taskValidator.ValidateUpdate(payload)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *Validator) Task() *TaskValidator {
	return v.taskValidator
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("task_type", validateTaskType)
	validate.RegisterValidation("ownership_role", validateOwnershipRole)
	validate.RegisterValidation("quiz_state", validateQuizState)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateTaskType(fl validator.FieldLevel) bool {
	return models.TaskType(fl.Field().String()).IsValid()
}

func validateOwnershipRole(fl validator.FieldLevel) bool {
	return models.OwnershipRole(fl.Field().String()).IsValid()
}

func validateQuizState(fl validator.FieldLevel) bool {
	switch models.QuizState(fl.Field().String()) {
	case models.QuizStatePrivate, models.QuizStateProtected, models.QuizStatePublic:
		return true
	}
	return false
}
