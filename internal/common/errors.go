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

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrExtraction   = errors.New("page extraction failed")
	ErrUnsupported  = errors.New("unsupported source")
	ErrCancelled    = errors.New("processing cancelled")
)

// Error codes carried by AppError.
const (
	CodeConfig     = "CONFIG_ERROR"
	CodeInvalid    = "INVALID_ARGUMENT"
	CodeExtraction = "EXTRACTION_ERROR"
	CodeStorage    = "STORAGE_ERROR"
	CodeExport     = "EXPORT_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func InvalidArgumentError(message string) error {
	return NewAppError(CodeInvalid, message, ErrInvalidInput)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

// ExtractionError wraps a collaborator failure for one document.
func ExtractionError(docLabel string, cause error) error {
	return NewAppError(CodeExtraction, fmt.Sprintf("extract %q", docLabel), errors.Join(ErrExtraction, cause))
}
