package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	validator "github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// ErrMalformedBody is returned when a request body is not valid JSON.
var ErrMalformedBody = fmt.Errorf("malformed request body: %w", ErrValidation)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// FieldError describes one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// DecodeJSON reads a JSON body into dst and validates it. Failures are
// returned as validation AppErrors carrying per-field details.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return NewAppError("VALIDATION_ERROR", "request body is empty", http.StatusUnprocessableEntity, ErrMalformedBody)
		}
		return NewAppError("VALIDATION_ERROR", err.Error(), http.StatusUnprocessableEntity, fmt.Errorf("%w: %v", ErrMalformedBody, err))
	}
	return ValidateStruct(dst)
}

// ValidateStruct runs the shared validator against v.
func ValidateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{Field: fe.Namespace(), Rule: fe.Tag()})
	}
	appErr := NewAppError("VALIDATION_ERROR", "request validation failed", http.StatusUnprocessableEntity, fmt.Errorf("%w: %v", ErrValidation, err))
	appErr.Details = details
	return appErr
}
