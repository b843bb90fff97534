package service

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotLoggedIn is returned by store calls made without a session.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrNotFound is returned when no task matches an id.
	ErrNotFound = errors.New("not found")

	// ErrSessionExpired is returned when a stored session can no longer be
	// refreshed. The session has been removed by then.
	ErrSessionExpired = errors.New("session expired")
)

// APIError is a failure response from a backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return e.Message
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	if errors.Is(err, ErrNotLoggedIn) || errors.Is(err, ErrSessionExpired) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
	}
	return false
}
