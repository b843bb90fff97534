package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"todoshell/internal/service"
)

// Messages addressed to the shell.
type (
	// sessionProbedMsg is the result of the boot-time session check.
	sessionProbedMsg struct {
		sess *service.Session
		err  error
	}

	// authEventMsg carries a session change notification into the loop.
	authEventMsg struct {
		event service.AuthEvent
		sess  *service.Session
	}

	// authenticatedMsg is sent by the login form after a successful sign-in.
	authenticatedMsg struct{}

	// loggedOutMsg is sent by the task list after a successful sign-out.
	loggedOutMsg struct{}

	// navigateMsg switches between the login and signup forms.
	navigateMsg struct{ to view }
)

// Gateway results. Each carries the mount id of the model that issued the
// call so that a remounted view ignores answers meant for its predecessor.
type (
	signInResultMsg struct {
		mount     int
		principal *service.Principal
		err       error
	}

	signUpResultMsg struct {
		mount     int
		principal *service.Principal
		err       error
	}

	identityMsg struct {
		mount int
		sess  *service.Session
		err   error
	}

	loadedMsg struct {
		mount int
		tasks []service.Task
		err   error
	}

	createdMsg struct {
		mount int
		tasks []service.Task
		err   error
	}

	savedMsg struct {
		mount       int
		id          int64
		title       string
		description string
		err         error
	}

	deletedMsg struct {
		mount int
		id    int64
		err   error
	}

	logoutResultMsg struct {
		mount int
		err   error
	}
)

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
