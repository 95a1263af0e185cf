package common

import (
	"errors"
	"net/http"
)

// Error categories shared by every domain package. Domain sentinels wrap one
// of these so transport code can map them without knowing the domain.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrConsistency = errors.New("consistency violation")
	ErrPersistence = errors.New("persistence failure")
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// FromError converts err into an AppError using the shared categories.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return NewAppError("NOT_FOUND", err.Error(), http.StatusNotFound, err)
	case errors.Is(err, ErrValidation):
		return NewAppError("VALIDATION_ERROR", err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, ErrConsistency):
		return NewAppError("CONSISTENCY_ERROR", err.Error(), http.StatusConflict, err)
	case errors.Is(err, ErrPersistence):
		return NewAppError("PERSISTENCE_ERROR", "store unavailable, retry the request", http.StatusServiceUnavailable, err)
	default:
		return NewAppError("INTERNAL", "internal error", http.StatusInternalServerError, err)
	}
}

// WriteError renders err with the canonical error shape.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)
	if appErr == nil {
		JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusBadRequest
	}
	code := appErr.Code
	if code == "" {
		code = "BAD_REQUEST"
	}
	JSONError(w, status, code, appErr.Message, appErr.Details)
}
