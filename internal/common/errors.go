package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Pipeline error taxonomy. Branch failures (link fetch, OCR, refinement)
// are isolated by callers; only ErrCounterStore may abort a record.
var (
	ErrNotFound              = errors.New("resource not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrExtractionFailed      = errors.New("no text recovery strategy succeeded")
	ErrOCRUnavailable        = errors.New("ocr engine unavailable")
	ErrCounterStore          = errors.New("tender counter store unreadable")
	ErrRefinementUnavailable = errors.New("llm refinement unavailable")
	ErrLinkFetchFailed       = errors.New("linked document fetch failed")
)

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
