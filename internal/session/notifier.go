package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"todoshell/internal/service"
)

// Handler receives session change events.
type Handler func(event service.AuthEvent, sess *service.Session)

// Notifier fans session changes out to subscribers.
//
// Backends call Observe after every change they make themselves. While at
// least one handler is subscribed, the session file is also polled so that a
// sign-in or sign-out done by another process is announced too. An event is
// only emitted when the signed-in identity actually changes.
type Notifier struct {
	store Store
	poll  time.Duration
	log   *zap.Logger

	mu        sync.Mutex
	handlers  map[int]Handler
	nextID    int
	lastEmail string
	lastFile  fileState
	stop      chan struct{}
}

// NewNotifier creates a notifier whose baseline is the currently stored session.
func NewNotifier(store Store, poll time.Duration, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	n := &Notifier{
		store:    store,
		poll:     poll,
		log:      log.Named("session"),
		handlers: make(map[int]Handler),
	}
	if sess, err := store.Load(); err == nil {
		n.lastEmail = sess.Email()
	}
	n.lastFile = store.state()
	return n
}

// Subscribe registers h. The file watcher runs while there are subscribers.
func (n *Notifier) Subscribe(h Handler) service.Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.handlers[id] = h
	if len(n.handlers) == 1 && n.poll > 0 {
		n.startLocked()
	}
	return &subscription{n: n, id: id}
}

// Observe records the session now in effect and notifies subscribers if the
// identity changed.
func (n *Notifier) Observe(sess *service.Session) {
	n.mu.Lock()
	n.lastFile = n.store.state()
	email := sess.Email()
	if email == n.lastEmail {
		n.mu.Unlock()
		return
	}
	n.lastEmail = email
	handlers := make([]Handler, 0, len(n.handlers))
	for _, h := range n.handlers {
		handlers = append(handlers, h)
	}
	n.mu.Unlock()

	event := service.SignedIn
	if sess == nil {
		event = service.SignedOut
	}
	n.log.Debug("session changed", zap.String("event", string(event)), zap.String("email", email))
	for _, h := range handlers {
		h(event, sess)
	}
}

// Close stops the watcher and drops every handler.
func (n *Notifier) Close() {
	n.mu.Lock()
	n.handlers = make(map[int]Handler)
	n.stopLocked()
	n.mu.Unlock()
}

func (n *Notifier) unsubscribe(id int) {
	n.mu.Lock()
	delete(n.handlers, id)
	if len(n.handlers) == 0 {
		n.stopLocked()
	}
	n.mu.Unlock()
}

func (n *Notifier) startLocked() {
	n.stop = make(chan struct{})
	go n.watch(n.stop)
}

// stopLocked signals the watcher to exit. It does not wait, so a handler
// running on the watcher goroutine may unsubscribe itself.
func (n *Notifier) stopLocked() {
	if n.stop != nil {
		close(n.stop)
		n.stop = nil
	}
}

func (n *Notifier) watch(stop <-chan struct{}) {
	ticker := time.NewTicker(n.poll)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			n.checkFile()
		}
	}
}

func (n *Notifier) checkFile() {
	n.mu.Lock()
	changed := n.store.state() != n.lastFile
	n.mu.Unlock()
	if !changed {
		return
	}
	sess, err := n.store.Load()
	if err != nil {
		n.log.Warn("unreadable session file", zap.Error(err))
		sess = nil
	}
	n.Observe(sess)
}

type subscription struct {
	once sync.Once
	n    *Notifier
	id   int
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.n.unsubscribe(s.id) })
}
