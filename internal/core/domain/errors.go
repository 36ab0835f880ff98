package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForceLogout          = errors.New("session terminated by the server")
	ErrForbidden            = errors.New("access forbidden")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrNetwork              = errors.New("backend unreachable")
	ErrSelfDelete           = errors.New("cannot delete your own account")
	ErrConfirmationRequired = errors.New("delete confirmation required")
)

// ValidationError is raised locally, before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ErrNoChanges is returned when an edit produces an empty patch.
var ErrNoChanges = &ValidationError{Message: "no changes detected"}

// ForceLogoutError is returned when the backend invalidated the session.
// The caller must not retry with the same credentials.
type ForceLogoutError struct {
	Reason  string
	Message string
}

func (e *ForceLogoutError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrForceLogout.Error()
}

func (e *ForceLogoutError) Is(target error) bool {
	return target == ErrForceLogout || target == ErrUnauthorized
}

// APIError is a non-2xx backend response other than 401.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == 404
	case ErrConflict:
		return e.Status == 409
	}
	return false
}
