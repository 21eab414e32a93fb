package services

import (
	"errors"
	"fmt"

	apperrors "github.com/LuisSoma75/SomaEdu-sub000/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// Attempt lifecycle errors
	ErrAttemptNotFound       = errors.New("attempt not found")
	ErrAttemptFinished       = errors.New("attempt already finished")
	ErrStudentUnresolved     = errors.New("student identity could not be resolved")
	ErrNoInitialQuestion     = errors.New("no question available to start the attempt")
	ErrSessionClosed         = errors.New("evaluation session is closed")
	ErrQuestionNotCurrent    = errors.New("question is not the attempt's current item")
	ErrAnswerAlreadyRecorded = errors.New("answer already recorded for this question")
	ErrInvalidOption         = errors.New("option does not belong to the question")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
	Cause   error                  `json:"-"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

func (bre *BusinessRuleError) Unwrap() error {
	return bre.Cause
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// newRuleViolation builds a BusinessRuleError that still matches cause with errors.Is
func newRuleViolation(cause error, rule string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: cause.Error(),
		Context: context,
		Cause:   cause,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAttemptNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrAttemptFinished) ||
		errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, ErrAnswerAlreadyRecorded)
}

// IsClientError reports errors caused by the request itself rather than the server
func IsClientError(err error) bool {
	return IsValidation(err) ||
		errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrStudentUnresolved) ||
		errors.Is(err, ErrNoInitialQuestion) ||
		errors.Is(err, ErrQuestionNotCurrent) ||
		errors.Is(err, ErrInvalidOption)
}
