// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"net/http"
	"sync"
	"time"

	"todoshell/internal/service"
)

// Operation names accepted by Calls.
const (
	OpCurrentSession = "CurrentSession"
	OpSignIn         = "SignIn"
	OpSignUp         = "SignUp"
	OpSignOut        = "SignOut"
	OpList           = "List"
	OpInsert         = "Insert"
	OpUpdate         = "Update"
	OpDelete         = "Delete"
)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu       sync.Mutex
	tasks    []service.Task
	nextID   int64
	users    map[string]string // email -> password
	session  *service.Session
	handlers map[int]func(service.AuthEvent, *service.Session)
	nextSub  int
	calls    map[string]int

	unsubscribes int

	// LastInsert and LastUpdate record the most recent payloads.
	LastInsert service.NewTask
	LastUpdate service.TaskPatch

	// Error injection for testing
	CurrentSessionErr error
	SignInErr         error
	SignUpErr         error
	SignOutErr        error
	ListErr           error
	InsertErr         error
	UpdateErr         error
	DeleteErr         error

	// Anomalous successes: the call succeeds but returns nothing.
	SignInNoUser bool
	SignUpNoUser bool
	InsertNoRows bool
	UpdateNoRows bool
}

// NewFakeService creates an empty FakeService with nobody signed in.
func NewFakeService() *FakeService {
	return &FakeService{
		nextID:   1,
		users:    make(map[string]string),
		handlers: make(map[int]func(service.AuthEvent, *service.Session)),
		calls:    make(map[string]int),
	}
}

// AddTask adds a task and returns it with its assigned id.
func (f *FakeService) AddTask(title, description, owner string) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{ID: f.nextID, Title: title, Description: description, Owner: owner}
	f.nextID++
	f.tasks = append(f.tasks, t)
	return t
}

// AddUser registers an account that SignIn accepts.
func (f *FakeService) AddUser(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[email] = password
}

// SetSession signs email in without notifying subscribers. An empty email
// signs out.
func (f *FakeService) SetSession(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = fakeSession(email)
}

// Emit delivers a session change to every subscriber, as another process
// signing in or out would.
func (f *FakeService) Emit(event service.AuthEvent, email string) {
	f.mu.Lock()
	f.session = fakeSession(email)
	sess := f.session
	handlers := f.handlerList()
	f.mu.Unlock()
	for _, h := range handlers {
		h(event, sess)
	}
}

// Tasks returns a copy of the stored tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.Task(nil), f.tasks...)
}

// Calls returns how many times op was invoked.
func (f *FakeService) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Subscribers returns the number of active session subscriptions.
func (f *FakeService) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

// Unsubscribes returns how many subscriptions were removed.
func (f *FakeService) Unsubscribes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribes
}

func fakeSession(email string) *service.Session {
	if email == "" {
		return nil
	}
	return &service.Session{
		AccessToken:  "access-" + email,
		RefreshToken: "refresh-" + email,
		Expiry:       time.Now().Add(time.Hour),
		User:         service.Principal{ID: "id-" + email, Email: email},
	}
}

func (f *FakeService) handlerList() []func(service.AuthEvent, *service.Session) {
	hs := make([]func(service.AuthEvent, *service.Session), 0, len(f.handlers))
	for _, h := range f.handlers {
		hs = append(hs, h)
	}
	return hs
}

func (f *FakeService) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

// CurrentSession implements service.Service.
func (f *FakeService) CurrentSession(ctx context.Context) (*service.Session, error) {
	f.record(OpCurrentSession)
	if f.CurrentSessionErr != nil {
		return nil, f.CurrentSessionErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return nil, nil
	}
	s := *f.session
	return &s, nil
}

// SignIn implements service.Service. Unknown accounts are accepted unless
// registered with a different password via AddUser.
func (f *FakeService) SignIn(ctx context.Context, email, password string) (*service.Principal, error) {
	f.record(OpSignIn)
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	if f.SignInNoUser {
		return nil, nil
	}
	f.mu.Lock()
	if pw, ok := f.users[email]; ok && pw != password {
		f.mu.Unlock()
		return nil, &service.APIError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}
	}
	changed := f.session.Email() != email
	f.session = fakeSession(email)
	sess := f.session
	handlers := f.handlerList()
	f.mu.Unlock()

	if changed {
		for _, h := range handlers {
			h(service.SignedIn, sess)
		}
	}
	p := sess.User
	return &p, nil
}

// SignUp implements service.Service. It never signs in.
func (f *FakeService) SignUp(ctx context.Context, email, password string) (*service.Principal, error) {
	f.record(OpSignUp)
	if f.SignUpErr != nil {
		return nil, f.SignUpErr
	}
	if f.SignUpNoUser {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[email] = password
	return &service.Principal{ID: "id-" + email, Email: email}, nil
}

// SignOut implements service.Service.
func (f *FakeService) SignOut(ctx context.Context) error {
	f.record(OpSignOut)
	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	f.mu.Lock()
	wasSignedIn := f.session != nil
	f.session = nil
	handlers := f.handlerList()
	f.mu.Unlock()

	if wasSignedIn {
		for _, h := range handlers {
			h(service.SignedOut, nil)
		}
	}
	return nil
}

// OnSessionChange implements service.Service.
func (f *FakeService) OnSessionChange(handler func(service.AuthEvent, *service.Session)) service.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.handlers[id] = handler
	return &fakeSubscription{f: f, id: id}
}

type fakeSubscription struct {
	once sync.Once
	f    *FakeService
	id   int
}

func (s *fakeSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.f.mu.Lock()
		defer s.f.mu.Unlock()
		delete(s.f.handlers, s.id)
		s.f.unsubscribes++
	})
}

// List implements service.Service.
func (f *FakeService) List(ctx context.Context) ([]service.Task, error) {
	f.record(OpList)
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Tasks(), nil
}

// Insert implements service.Service.
func (f *FakeService) Insert(ctx context.Context, task service.NewTask) ([]service.Task, error) {
	f.record(OpInsert)
	f.mu.Lock()
	f.LastInsert = task
	f.mu.Unlock()
	if f.InsertErr != nil {
		return nil, f.InsertErr
	}
	if f.InsertNoRows {
		return nil, nil
	}
	t := f.AddTask(task.Title, task.Description, task.Owner)
	return []service.Task{t}, nil
}

// Update implements service.Service.
func (f *FakeService) Update(ctx context.Context, id int64, patch service.TaskPatch) ([]service.Task, error) {
	f.record(OpUpdate)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastUpdate = patch
	if f.UpdateErr != nil {
		return nil, f.UpdateErr
	}
	if f.UpdateNoRows {
		return nil, nil
	}
	for i, t := range f.tasks {
		if t.ID != id {
			continue
		}
		if patch.Title != nil {
			f.tasks[i].Title = *patch.Title
		}
		if patch.Description != nil {
			f.tasks[i].Description = *patch.Description
		}
		return []service.Task{f.tasks[i]}, nil
	}
	return nil, nil
}

// Delete implements service.Service.
func (f *FakeService) Delete(ctx context.Context, id int64) error {
	f.record(OpDelete)
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return nil
}
