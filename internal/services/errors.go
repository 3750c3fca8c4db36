package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/exam-grading-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrConflict         = errors.New("resource conflict")

	// Exam specific errors
	ErrExamNotFound       = errors.New("exam not found")
	ErrExamNotPublished   = errors.New("exam is not published")
	ErrExamNotEditable    = errors.New("published exam cannot be edited")
	ErrExamClosed         = errors.New("exam window has closed")
	ErrExamHasNoQuestions = errors.New("exam has no questions")

	// Question specific errors
	ErrQuestionNotFound = errors.New("question not found")

	// Submission specific errors
	ErrSubmissionNotFound      = errors.New("submission not found")
	ErrSubmissionExists        = errors.New("user already has a submission for this exam")
	ErrSubmissionNotInProgress = errors.New("submission is not in progress")
	ErrSubmissionNotGradable   = errors.New("submission is not in a gradable state")
	ErrAnswerNotFound          = errors.New("answer not found")

	// User errors
	ErrUserNotFound = errors.New("user not found")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// PreconditionError reports an operation rejected because the submission
// is in the wrong lifecycle state. The submission is left unchanged.
type PreconditionError struct {
	SubmissionID uint   `json:"submission_id"`
	State        string `json:"state"`
	Operation    string `json:"operation"`
}

func (pe *PreconditionError) Error() string {
	return fmt.Sprintf("cannot %s submission %d in state %q", pe.Operation, pe.SubmissionID, pe.State)
}

func NewPreconditionError(submissionID uint, state, operation string) *PreconditionError {
	return &PreconditionError{
		SubmissionID: submissionID,
		State:        state,
		Operation:    operation,
	}
}

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExamNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrSubmissionNotFound) ||
		errors.Is(err, ErrAnswerNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsPrecondition checks if error represents a rejected lifecycle operation
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return true
	}
	return errors.Is(err, ErrSubmissionNotInProgress) ||
		errors.Is(err, ErrSubmissionNotGradable)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrSubmissionExists) ||
		errors.Is(err, ErrExamNotEditable)
}
