package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"todoshell/internal/service"
)

// sessionBridge forwards session change notifications into the event loop.
// The gateway may call the handler from any goroutine; the loop picks the
// events up through wait, which is re-armed after every delivery.
type sessionBridge struct {
	events chan authEventMsg
	done   chan struct{}
	sub    service.Subscription
	once   sync.Once
}

func newSessionBridge(gw service.SessionGateway) *sessionBridge {
	b := &sessionBridge{
		events: make(chan authEventMsg, 16),
		done:   make(chan struct{}),
	}
	b.sub = gw.OnSessionChange(func(event service.AuthEvent, sess *service.Session) {
		select {
		case b.events <- authEventMsg{event: event, sess: sess}:
		case <-b.done:
		}
	})
	return b
}

// wait returns a command that blocks until the next notification.
func (b *sessionBridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-b.events:
			return ev
		case <-b.done:
			return nil
		}
	}
}

// close unsubscribes. It is safe to call more than once.
func (b *sessionBridge) close() {
	b.once.Do(func() {
		b.sub.Unsubscribe()
		close(b.done)
	})
}
