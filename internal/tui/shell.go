package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"todoshell/internal/service"
)

// view is the screen the shell presents.
type view int

const (
	viewLogin view = iota
	viewSignup
	viewAuthenticated
)

func (v view) String() string {
	switch v {
	case viewLogin:
		return "login"
	case viewSignup:
		return "signup"
	case viewAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

var quitKey = key.NewBinding(key.WithKeys("ctrl+c"))

// Shell is the root model. It owns the session subscription and decides
// which of the login, signup and task list views is mounted.
type Shell struct {
	ctx context.Context
	svc service.Service
	log *zap.Logger
	st  styles

	loading bool
	view    view
	mount   int

	login  loginModel
	signup signupModel
	tasks  taskListModel

	bridge  *sessionBridge
	spinner spinner.Model

	toast    *notice
	toastSeq int

	width  int
	height int
}

// NewShell subscribes to session changes right away. Call Close when the
// program is done with the shell.
func NewShell(ctx context.Context, svc service.Service, log *zap.Logger) *Shell {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &Shell{
		ctx:     ctx,
		svc:     svc,
		log:     log.Named("tui"),
		st:      newStyles(),
		loading: true,
		view:    viewLogin,
		bridge:  newSessionBridge(svc),
		spinner: sp,
	}
}

// Close drops the session subscription. It is safe to call more than once.
func (s *Shell) Close() {
	s.bridge.close()
}

func (s *Shell) Init() tea.Cmd {
	return tea.Batch(s.probe(), s.bridge.wait(), s.spinner.Tick)
}

func (s *Shell) probe() tea.Cmd {
	ctx, svc := s.ctx, s.svc
	return func() tea.Msg {
		sess, err := svc.CurrentSession(ctx)
		return sessionProbedMsg{sess: sess, err: err}
	}
}

// enter mounts a fresh model for v. Results still in flight for the
// previous model carry the old mount id and are dropped.
func (s *Shell) enter(v view) tea.Cmd {
	s.mount++
	s.view = v
	s.log.Debug("view", zap.Stringer("view", v), zap.Int("mount", s.mount))

	var cmd tea.Cmd
	switch v {
	case viewLogin:
		s.login = newLoginModel(s.ctx, s.svc, s.log, s.mount, s.st)
		cmd = s.login.Init()
	case viewSignup:
		s.signup = newSignupModel(s.ctx, s.svc, s.log, s.mount, s.st)
		cmd = s.signup.Init()
	case viewAuthenticated:
		s.tasks = newTaskListModel(s.ctx, s.svc, s.log, s.mount, s.st)
		if s.width > 0 {
			s.tasks, _ = s.tasks.Update(tea.WindowSizeMsg{Width: s.width, Height: s.height})
		}
		cmd = s.tasks.Init()
	}
	return cmd
}

// enterIfNot mounts v unless it is already shown.
func (s *Shell) enterIfNot(v view) tea.Cmd {
	if !s.loading && s.view == v {
		return nil
	}
	s.loading = false
	return s.enter(v)
}

func (s *Shell) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, quitKey) {
			return s, tea.Quit
		}

	case tea.WindowSizeMsg:
		s.width, s.height = msg.Width, msg.Height

	case spinner.TickMsg:
		if !s.loading {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case sessionProbedMsg:
		if !s.loading {
			return s, nil
		}
		if msg.err != nil {
			s.log.Warn("session probe failed", zap.Error(msg.err))
		}
		if msg.err == nil && msg.sess != nil {
			return s, s.enterIfNot(viewAuthenticated)
		}
		return s, s.enterIfNot(viewLogin)

	case authEventMsg:
		s.log.Debug("session event", zap.String("event", string(msg.event)), zap.String("email", msg.sess.Email()))
		var cmd tea.Cmd
		switch {
		case msg.event == service.SignedIn && msg.sess != nil:
			cmd = s.enterIfNot(viewAuthenticated)
		case msg.event == service.SignedOut:
			cmd = s.enterIfNot(viewLogin)
		}
		return s, tea.Batch(cmd, s.bridge.wait())

	case signInResultMsg:
		// A sign-in also raises SIGNED_IN, which may have switched views
		// before this result arrived. The form that asked still reports it.
		var cmd tea.Cmd
		s.login, cmd = s.login.Update(msg)
		return s, cmd

	case authenticatedMsg:
		return s, s.enterIfNot(viewAuthenticated)

	case loggedOutMsg:
		return s, s.enterIfNot(viewLogin)

	case navigateMsg:
		if s.loading || msg.to == viewAuthenticated {
			return s, nil
		}
		s.loading = false
		return s, s.enter(msg.to)

	case noticeMsg:
		s.toastSeq++
		n := msg.notice
		s.toast = &n
		return s, expireNotice(s.toastSeq, n.duration)

	case noticeExpiredMsg:
		if msg.seq == s.toastSeq {
			s.toast = nil
		}
		return s, nil
	}

	if s.loading {
		return s, nil
	}
	return s, s.route(msg)
}

// route hands msg to the mounted view.
func (s *Shell) route(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch s.view {
	case viewLogin:
		s.login, cmd = s.login.Update(msg)
	case viewSignup:
		s.signup, cmd = s.signup.Update(msg)
	case viewAuthenticated:
		s.tasks, cmd = s.tasks.Update(msg)
	}
	return cmd
}

func (s *Shell) View() string {
	var body string
	switch {
	case s.loading:
		body = s.spinner.View() + " " + s.st.muted.Render("Checking session...")
	case s.view == viewLogin:
		body = s.login.View()
	case s.view == viewSignup:
		body = s.signup.View()
	default:
		body = s.tasks.View()
	}
	if s.toast != nil {
		body = lipgloss.JoinVertical(lipgloss.Left, s.toast.render(s.st), "", body)
	}
	return s.st.app.Render(body)
}
