package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultNoticeDuration = 4 * time.Second

type noticeKind int

const (
	noticeInfo noticeKind = iota
	noticeSuccess
	noticeError
)

// notice is a toast shown by the shell for a limited time.
type notice struct {
	kind     noticeKind
	title    string
	body     string
	duration time.Duration
}

type noticeMsg struct{ notice notice }

type noticeExpiredMsg struct{ seq int }

func notify(n notice) tea.Cmd {
	if n.duration <= 0 {
		n.duration = defaultNoticeDuration
	}
	return send(noticeMsg{notice: n})
}

func errorNotice(title string) notice {
	return notice{kind: noticeError, title: title, duration: defaultNoticeDuration}
}

func expireNotice(seq int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg { return noticeExpiredMsg{seq: seq} })
}

func (n notice) render(st styles) string {
	box := st.toastInfo
	switch n.kind {
	case noticeSuccess:
		box = st.toastSuccess
	case noticeError:
		box = st.toastError
	}
	text := st.label.Render(n.title)
	if n.body != "" {
		text = lipgloss.JoinVertical(lipgloss.Left, text, st.muted.Render(n.body))
	}
	return box.Render(text)
}
