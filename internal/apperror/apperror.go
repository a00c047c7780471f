// Package apperror defines the error taxonomy shared by the workflow and the HTTP layer.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Message string
	Details []map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// ConflictError reports input that is well formed but cannot be applied to the current state.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// PersistenceError wraps a failure to write state to disk.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist state: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func Conflict(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func Persistence(err error) error {
	return &PersistenceError{Err: err}
}

// StatusCode maps an error to the HTTP status it should be surfaced with.
func StatusCode(err error) int {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		conflictErr   *ConflictError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &conflictErr):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var tagMessages = map[string]string{
	"required": "is required",
	"isodate":  "must be a date in YYYY-MM-DD format",
	"email":    "must be a valid email address",
	"gt":       "must be a positive number",
}

// FromValidator converts validator errors into a ValidationError with one
// detail entry per failing field. Other errors are returned unchanged.
func FromValidator(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	details := make([]map[string]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		msg, ok := tagMessages[e.Tag()]
		if !ok {
			msg = "is invalid"
		}
		details = append(details, map[string]string{e.Field(): msg})
	}

	message := "invalid request"
	if len(validationErrs) > 0 {
		first := validationErrs[0]
		message = fmt.Sprintf("%s %s", first.Field(), details[0][first.Field()])
	}
	return &ValidationError{Message: message, Details: details}
}
