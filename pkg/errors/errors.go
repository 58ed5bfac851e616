package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrInternal

	// Prediction taxonomy: no fitted model, no eligible training rows,
	// request features incompatible with the active model, and
	// non-parseable request fields.
	ErrModelUnavailable
	ErrNoTrainingData
	ErrSchemaMismatch
	ErrMalformedInput
)

// StatusCode maps an error code to the HTTP status the middleware returns.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest, ErrMalformedInput:
		return http.StatusBadRequest
	case ErrModelUnavailable, ErrNoTrainingData:
		return http.StatusServiceUnavailable
	case ErrSchemaMismatch:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func NewModelUnavailable(err error) *AppError {
	return &AppError{
		Code:    ErrModelUnavailable,
		Message: "no fitted model available",
		Err:     err,
	}
}

func NewNoTrainingData() *AppError {
	return &AppError{
		Code:    ErrNoTrainingData,
		Message: "no eligible training data",
	}
}

func NewSchemaMismatch(err error) *AppError {
	return &AppError{
		Code:    ErrSchemaMismatch,
		Message: "request features do not match the fitted model",
		Err:     err,
	}
}

func NewMalformedInput(message string, err error) *AppError {
	return &AppError{
		Code:    ErrMalformedInput,
		Message: message,
		Err:     err,
	}
}

// IsCode reports whether err wraps an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
