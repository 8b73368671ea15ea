package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/quiz-service/internal/errors"
	"github.com/SAP-F-2025/quiz-service/internal/strategies"
	"github.com/google/uuid"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")
	ErrGone             = errors.New("resource no longer available")

	// Quiz specific errors
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuizAccessDenied = errors.New("access denied to quiz")
	ErrQuizNotCompleted = errors.New("quiz content is not ready")
	ErrVersionNotFound  = errors.New("quiz version not found")
	ErrNoCurrentVersion = errors.New("quiz has no current version")

	// Edit session specific errors
	ErrEditSessionNotFound  = errors.New("edit session not found")
	ErrEditSessionRequired  = errors.New("edit session id is required")
	ErrEditSessionNotActive = errors.New("edit session is not active")
	ErrEditSessionNotOwned  = errors.New("edit session was started by another user")
	ErrTaskNotInSession     = errors.New("task does not belong to the edit session draft")

	// Task specific errors
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidTaskType = errors.New("invalid task type")

	// Attempt specific errors
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrAttemptAccessDenied = errors.New("access denied to attempt")
	ErrAttemptLocked       = errors.New("attempt is already evaluated")
	ErrAnswerNotFound      = errors.New("answer not found")
	ErrInvalidAnswerType   = errors.New("invalid answer type")

	// Share link specific errors
	ErrShareLinkNotFound  = errors.New("share link not found")
	ErrShareLinkExpired   = errors.New("share link has expired")
	ErrShareLinkExhausted = errors.New("share link has reached its usage limit")
	ErrShareLinkInactive  = errors.New("share link has been revoked")
	ErrAlreadyHasAccess   = errors.New("user already has access to this quiz")

	// Generation specific errors
	ErrGenerationSkipped = errors.New("quiz is not pending generation")
	ErrMissingSource     = errors.New("a description or source document is required")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// TypeMismatchError is raised when a declared task or answer type does not
// match its target.
type TypeMismatchError = strategies.TypeMismatchError

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

type PermissionError struct {
	UserID     uuid.UUID `json:"user_id"`
	ResourceID uuid.UUID `json:"resource_id"`
	Resource   string    `json:"resource"`
	Action     string    `json:"action"`
	Reason     string    `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(userID, resourceID uuid.UUID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrVersionNotFound) ||
		errors.Is(err, ErrNoCurrentVersion) ||
		errors.Is(err, ErrEditSessionNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrAnswerNotFound) ||
		errors.Is(err, ErrShareLinkNotFound)
}

// IsAccessDenied checks if error represents an insufficient role or a
// foreign resource.
func IsAccessDenied(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrQuizAccessDenied) ||
		errors.Is(err, ErrAttemptAccessDenied) ||
		errors.Is(err, ErrEditSessionNotOwned)
}

// IsUnauthorized checks if the caller could not be identified.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsConflict checks if the target is in a state that forbids the operation.
func IsConflict(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrEditSessionNotActive) ||
		errors.Is(err, ErrTaskNotInSession) ||
		errors.Is(err, ErrAttemptLocked) ||
		errors.Is(err, ErrQuizNotCompleted) ||
		errors.Is(err, ErrAlreadyHasAccess)
}

// IsInvalidInput checks if the request itself is malformed.
func IsInvalidInput(err error) bool {
	var tme *TypeMismatchError
	return errors.As(err, &tme) ||
		IsValidation(err) ||
		errors.Is(err, ErrInvalidTaskType) ||
		errors.Is(err, ErrInvalidAnswerType) ||
		errors.Is(err, ErrEditSessionRequired) ||
		errors.Is(err, ErrMissingSource)
}

// IsGone checks if a share link can no longer be redeemed.
func IsGone(err error) bool {
	return errors.Is(err, ErrGone) ||
		errors.Is(err, ErrShareLinkInactive) ||
		errors.Is(err, ErrShareLinkExpired) ||
		errors.Is(err, ErrShareLinkExhausted)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	var single *apperrors.ValidationError
	return errors.As(err, &ve) || errors.As(err, &single)
}

// IsBusinessRule checks if error is a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsStrategyNotFound reports a registry that lacks a declared type.
func IsStrategyNotFound(err error) bool {
	var snf *strategies.StrategyNotFoundError
	return errors.As(err, &snf)
}
