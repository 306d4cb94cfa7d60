package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures surfaced to the UI layer
type ErrorCode string

const (
	CodeInvalidInput    ErrorCode = "INVALID_INPUT"
	CodeAuthFailed      ErrorCode = "AUTH_FAILED"
	CodeNetworkError    ErrorCode = "NETWORK_ERROR"
	CodeNotConnected    ErrorCode = "NOT_CONNECTED"
	CodeEmptyQuery      ErrorCode = "EMPTY_QUERY"
	CodeProcessingError ErrorCode = "PROCESSING_ERROR"
	CodeRefreshFailed   ErrorCode = "REFRESH_FAILED"
	CodeNoRefreshToken  ErrorCode = "NO_REFRESH_TOKEN"
)

// AppError is a typed failure with a machine code and a short
// human-readable message. Field is set for validation errors.
type AppError struct {
	Code    ErrorCode
	Field   string
	Message string
}

func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAppError creates an AppError with the given code and message
func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// NewValidationError creates an INVALID_INPUT error tagged with the
// offending field
func NewValidationError(field, message string) *AppError {
	return &AppError{Code: CodeInvalidInput, Field: field, Message: message}
}

// CodeOf extracts the error code from err, or PROCESSING_ERROR when err
// carries no AppError in its chain.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeProcessingError
}

// MessageOf extracts the human-readable message from err
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
