package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnknownRoom             = fmt.Errorf("unknown room")
	ErrConnectionLimitExceeded = fmt.Errorf("connection pending, message limit reached until accepted")
	ErrHubLocked               = fmt.Errorf("hub membership is permanent, other hubs are locked")
	ErrValidation              = fmt.Errorf("invalid payload")
	ErrUserNotFound            = fmt.Errorf("user not found")
	ErrUserAlreadyExists       = fmt.Errorf("user already exists")
	ErrInvalidToken            = fmt.Errorf("invalid or expired token")
	ErrNotIdentified           = fmt.Errorf("session not identified")
	ErrWorkerPanic             = fmt.Errorf("worker panic")
	ErrEmptyWordList           = fmt.Errorf("no censored words have been provided")
)

// MapToHTTPStatus converts a domain error into the status code exposed
// at the HTTP collaborator boundary.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrHubLocked):
		return http.StatusForbidden
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUserAlreadyExists), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrNotIdentified):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
