package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"todoshell/internal/service"
)

const (
	fieldEmail = iota
	fieldPassword
)

// credentialForm is the email and password pair shared by both forms.
type credentialForm struct {
	email    textinput.Model
	password textinput.Model
	focus    int
}

func newCredentialForm() credentialForm {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = ""
	email.CharLimit = 254
	email.Width = 40

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = ""
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.Width = 40

	f := credentialForm{email: email, password: password}
	f.focusField(fieldEmail)
	return f
}

func (f *credentialForm) focusField(i int) tea.Cmd {
	f.focus = i
	if i == fieldEmail {
		f.password.Blur()
		return f.email.Focus()
	}
	f.email.Blur()
	return f.password.Focus()
}

// cycle moves to the other field. With two fields forward and backward
// are the same move.
func (f *credentialForm) cycle() tea.Cmd {
	return f.focusField((f.focus + 1) % 2)
}

// firstEmpty returns the first required field without a value.
func (f credentialForm) firstEmpty() (int, bool) {
	if strings.TrimSpace(f.email.Value()) == "" {
		return fieldEmail, true
	}
	if f.password.Value() == "" {
		return fieldPassword, true
	}
	return 0, false
}

func (f credentialForm) values() (email, password string) {
	return strings.TrimSpace(f.email.Value()), f.password.Value()
}

func (f credentialForm) update(msg tea.Msg) (credentialForm, tea.Cmd) {
	var cmd tea.Cmd
	if f.focus == fieldEmail {
		f.email, cmd = f.email.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return f, cmd
}

func (f credentialForm) view(st styles) string {
	field := func(label string, in textinput.Model, focused bool) string {
		box := st.panel
		if focused {
			box = st.panelOn
		}
		return lipgloss.JoinVertical(lipgloss.Left, st.label.Render(label), box.Render(in.View()))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		field("Email", f.email, f.focus == fieldEmail),
		field("Password", f.password, f.focus == fieldPassword),
	)
}

// authForm holds what the login and signup models have in common.
type authForm struct {
	ctx        context.Context
	gw         service.SessionGateway
	log        *zap.Logger
	mount      int
	form       credentialForm
	submitting bool
	keys       formKeys
	help       help.Model
	st         styles
}

func newAuthForm(ctx context.Context, gw service.SessionGateway, log *zap.Logger, mount int, keys formKeys, st styles) authForm {
	return authForm{
		ctx:   ctx,
		gw:    gw,
		log:   log,
		mount: mount,
		form:  newCredentialForm(),
		keys:  keys,
		help:  help.New(),
		st:    st,
	}
}

// begin validates the form and marks it in flight. It reports false when
// nothing should be sent.
func (a *authForm) begin() bool {
	if a.submitting {
		return false
	}
	if i, empty := a.form.firstEmpty(); empty {
		a.form.focusField(i)
		return false
	}
	a.submitting = true
	return true
}

// handleKey covers field navigation and text entry.
func (a *authForm) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, a.keys.Next, a.keys.Prev) {
		return a.form.cycle()
	}
	var cmd tea.Cmd
	a.form, cmd = a.form.update(msg)
	return cmd
}

func (a authForm) view(heading, sub, submitLabel, busyLabel, link string) string {
	button := a.st.button.Render("[ " + submitLabel + " ]")
	if a.submitting {
		button = a.st.buttonOff.Render("[ " + busyLabel + " ]")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		a.st.title.Render(heading),
		a.st.subtitle.Render(sub),
		"",
		a.form.view(a.st),
		"",
		button,
		"",
		a.st.muted.Render(link),
		"",
		a.help.View(a.keys),
	)
}

// loginModel is the sign-in form.
type loginModel struct {
	authForm
}

func newLoginModel(ctx context.Context, gw service.SessionGateway, log *zap.Logger, mount int, st styles) loginModel {
	return loginModel{authForm: newAuthForm(ctx, gw, log, mount, newLoginKeys(), st)}
}

func (m loginModel) Init() tea.Cmd { return textinput.Blink }

// submit starts a sign-in unless one is in flight or a field is empty.
func (m *loginModel) submit() tea.Cmd {
	if !m.begin() {
		return nil
	}
	ctx, gw, mount := m.ctx, m.gw, m.mount
	email, password := m.form.values()
	return func() tea.Msg {
		p, err := gw.SignIn(ctx, email, password)
		return signInResultMsg{mount: mount, principal: p, err: err}
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case signInResultMsg:
		if msg.mount != m.mount {
			return m, nil
		}
		m.submitting = false
		switch {
		case msg.err != nil:
			m.log.Warn("sign in failed", zap.Error(msg.err))
			return m, notify(errorNotice("Login failed: " + msg.err.Error()))
		case msg.principal == nil:
			return m, notify(errorNotice("Login failed: No user data returned."))
		}
		return m, tea.Batch(
			notify(notice{kind: noticeSuccess, title: "Login successful!", body: "Welcome back!", duration: 3 * time.Second}),
			send(authenticatedMsg{}),
		)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Submit):
			return m, m.submit()
		case key.Matches(msg, m.keys.Switch):
			return m, send(navigateMsg{to: viewSignup})
		}
		return m, m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m loginModel) View() string {
	return m.view("Welcome back", "Log in to manage your todos", "Log in", "Logging in...",
		"Don't have an account? Press ctrl+n to sign up.")
}

// signupModel is the account registration form.
type signupModel struct {
	authForm
}

func newSignupModel(ctx context.Context, gw service.SessionGateway, log *zap.Logger, mount int, st styles) signupModel {
	return signupModel{authForm: newAuthForm(ctx, gw, log, mount, newSignupKeys(), st)}
}

func (m signupModel) Init() tea.Cmd { return textinput.Blink }

// submit starts a sign-up unless one is in flight or a field is empty.
func (m *signupModel) submit() tea.Cmd {
	if !m.begin() {
		return nil
	}
	ctx, gw, mount := m.ctx, m.gw, m.mount
	email, password := m.form.values()
	return func() tea.Msg {
		p, err := gw.SignUp(ctx, email, password)
		return signUpResultMsg{mount: mount, principal: p, err: err}
	}
}

func (m signupModel) Update(msg tea.Msg) (signupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case signUpResultMsg:
		if msg.mount != m.mount {
			return m, nil
		}
		m.submitting = false
		switch {
		case msg.err != nil:
			m.log.Warn("sign up failed", zap.Error(msg.err))
			return m, notify(errorNotice("Signup failed: " + msg.err.Error()))
		case msg.principal == nil:
			return m, notify(errorNotice("Signup failed: No user data returned."))
		}
		return m, notify(notice{
			kind:     noticeSuccess,
			title:    "Signup successful! Please verify your email.",
			body:     "A verification email has been sent to your inbox.",
			duration: 5 * time.Second,
		})

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Submit):
			return m, m.submit()
		case key.Matches(msg, m.keys.Switch):
			return m, send(navigateMsg{to: viewLogin})
		}
		return m, m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m signupModel) View() string {
	return m.view("Create an account", "Sign up to start tracking your todos", "Sign up", "Signing up...",
		"Already have an account? Press esc to log in.")
}
