// Package service defines the backend-agnostic gateways for sessions and tasks.
package service

import "context"

// SessionGateway is the authentication and session provider.
type SessionGateway interface {
	// CurrentSession returns the stored session, refreshing it if needed.
	// A nil session with a nil error means nobody is signed in.
	CurrentSession(ctx context.Context) (*Session, error)

	// SignIn authenticates with email and password and stores the session.
	SignIn(ctx context.Context, email, password string) (*Principal, error)

	// SignUp registers an account. It never stores a session: new accounts
	// must verify their email before the first sign-in.
	SignUp(ctx context.Context, email, password string) (*Principal, error)

	// SignOut ends the session. On error the stored session is kept.
	SignOut(ctx context.Context) error

	// OnSessionChange registers handler for SIGNED_IN / SIGNED_OUT events.
	OnSessionChange(handler func(event AuthEvent, sess *Session)) Subscription
}

// Subscription is a registered session change handler.
type Subscription interface {
	// Unsubscribe removes the handler. Calling it more than once is a no-op.
	Unsubscribe()
}

// TaskStore is the remote tasks collection.
// All Supabase / SQLite calls go through this interface; UI code never
// imports a backend package directly.
type TaskStore interface {
	// List returns every task visible to the current session, in store order.
	List(ctx context.Context) ([]Task, error)

	// Insert creates a task and returns the created rows.
	Insert(ctx context.Context, task NewTask) ([]Task, error)

	// Update patches the task with the given id and returns the updated rows.
	Update(ctx context.Context, id int64, patch TaskPatch) ([]Task, error)

	// Delete removes the task with the given id.
	Delete(ctx context.Context, id int64) error
}

// Service is a complete backend: both gateways against one project.
type Service interface {
	SessionGateway
	TaskStore
}
