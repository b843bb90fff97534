// Package service defines the backend-agnostic gateways for sessions and tasks.
package service

import "time"

// Task is a row of the tasks collection as the store returns it.
// It deliberately has no completion field: completion is tracked by the
// interactive client only and is never written to a store.
type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Owner       string `json:"email,omitempty"`
}

// NewTask is the insert payload.
type NewTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Owner       string `json:"email"`
}

// TaskPatch is the update payload. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil
}

// Principal is the authenticated user returned by sign-in and sign-up.
type Principal struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// Session is the authenticated state of this client.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
	User         Principal `json:"user"`
}

// Email returns the session identity, or "" for a nil session.
func (s *Session) Email() string {
	if s == nil {
		return ""
	}
	return s.User.Email
}

// AuthEvent is the kind of a session change notification.
type AuthEvent string

const (
	// SignedIn is emitted when a session becomes available.
	SignedIn AuthEvent = "SIGNED_IN"

	// SignedOut is emitted when the session goes away.
	SignedOut AuthEvent = "SIGNED_OUT"
)
