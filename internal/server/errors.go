// Package server provides the HTTP REST API for the resume builder.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/agent"
	"github.com/jonathan/resume-builder/internal/fetch"
	"github.com/jonathan/resume-builder/internal/jobs"
	"github.com/jonathan/resume-builder/internal/parsing"
	"github.com/jonathan/resume-builder/internal/pdftext"
	"github.com/jonathan/resume-builder/internal/profiles"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/session"
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

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the HTTP status code for an error from any layer the
// handlers call into.
func HTTPStatus(err error) int {
	var (
		emailErr    *ErrEmailAlreadyExists
		credErr     *ErrInvalidCredentials
		mismatchErr *ErrPasswordMismatch
		userErr     *ErrUserNotFound
		validErr    *ErrValidation
		profileErr  *profiles.InvalidProfileError
		renderErr   *rendering.RenderError
		transErr    *agent.TransportError
		parseErr    *parsing.ParseError
		fetchErr    *fetch.Error
		pdfErr      *pdftext.Error
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &emailErr):
		return http.StatusConflict
	case errors.As(err, &credErr), errors.As(err, &mismatchErr):
		return http.StatusUnauthorized
	case errors.As(err, &userErr), errors.Is(err, session.ErrNotFound),
		errors.Is(err, jobs.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &validErr), errors.As(err, &profileErr), errors.As(err, &renderErr),
		errors.Is(err, session.ErrUnknownTemplate):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrTurnInFlight), errors.Is(err, session.ErrInvalidState):
		return http.StatusConflict
	case errors.As(err, &pdfErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &transErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	case errors.As(err, &fetchErr):
		if fetchErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		if fetchErr.StatusCode == 0 && fetchErr.Cause == nil {
			// Rejected before any request was made (bad URL or username).
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
