// Package server provides the HTTP REST API for the recruitment pipeline.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/query"
	"github.com/jonathan/talent-pipeline/internal/recruitment"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrBadRequest indicates a malformed path, query or body
type ErrBadRequest struct {
	Message string
}

func (e *ErrBadRequest) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for an error. Wrapped errors are
// matched by their innermost known type.
func HTTPStatus(err error) int {
	var (
		emailExists  *ErrEmailAlreadyExists
		badCreds     *ErrInvalidCredentials
		userNotFound *ErrUserNotFound
		badRequest   *ErrBadRequest
		queryErr     *query.Error

		notFound       *recruitment.ErrNotFound
		validation     *recruitment.ErrValidation
		invalidStage   *recruitment.ErrInvalidStage
		dupApplication *recruitment.ErrDuplicateApplication
		dupProfile     *recruitment.ErrDuplicateProfile
		dupAnswer      *recruitment.ErrDuplicateAnswer
		converted      *recruitment.ErrAlreadyConverted
		conflict       *recruitment.ErrConflict
		transition     *recruitment.ErrInvalidTransition
		forbidden      *recruitment.ErrForbidden
	)

	switch {
	case errors.As(err, &emailExists):
		return http.StatusConflict
	case errors.As(err, &badCreds):
		return http.StatusUnauthorized
	case errors.As(err, &userNotFound), errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &badRequest), errors.As(err, &queryErr), errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &invalidStage), errors.As(err, &transition):
		// ErrTerminalState unwraps to ErrInvalidTransition
		return http.StatusUnprocessableEntity
	case errors.As(err, &dupApplication), errors.As(err, &dupProfile), errors.As(err, &dupAnswer),
		errors.As(err, &converted), errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns a stable machine-readable code for an error response.
func ErrorCode(err error) string {
	var (
		terminal   *recruitment.ErrTerminalState
		transition *recruitment.ErrInvalidTransition
		conflict   *recruitment.ErrConflict
		converted  *recruitment.ErrAlreadyConverted
	)
	switch {
	case errors.As(err, &terminal):
		return "terminal_state"
	case errors.As(err, &transition):
		return "invalid_transition"
	case errors.As(err, &conflict):
		return "conflict"
	case errors.As(err, &converted):
		return "already_converted"
	}

	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		return "validation_failed"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "duplicate"
	case http.StatusUnprocessableEntity:
		return "invalid_stage"
	default:
		return "internal_error"
	}
}
