package tui

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// press builds the key message a terminal would send for s.
func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "alt+enter":
		return tea.KeyMsg{Type: tea.KeyEnter, Alt: true}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// collect runs cmd on the calling goroutine and flattens batches. Use it only
// for commands that return at once: gateway calls and sends, never focus or
// tick commands.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// only returns the single message of type T produced by cmd.
func only[T tea.Msg](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	var found []T
	for _, msg := range collect(cmd) {
		if m, ok := msg.(T); ok {
			found = append(found, m)
		}
	}
	if len(found) != 1 {
		var zero T
		t.Fatalf("expected one %T, got %d", zero, len(found))
		return zero
	}
	return found[0]
}

// driver plays the bubbletea runtime for a model: every command runs on its
// own goroutine and its result is fed back through update. Spinner and
// cursor blink messages are dropped so that the loop goes quiet.
type driver struct {
	t      *testing.T
	update func(tea.Msg) tea.Cmd
	out    chan tea.Msg
	quit   bool
}

func newDriver(t *testing.T, update func(tea.Msg) tea.Cmd) *driver {
	return &driver{t: t, update: update, out: make(chan tea.Msg, 256)}
}

func (d *driver) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		d.out <- cmd()
	}()
}

// send delivers msg and settles.
func (d *driver) send(msg tea.Msg) {
	d.t.Helper()
	d.handle(msg)
	d.settle()
}

// start runs cmd and settles.
func (d *driver) start(cmd tea.Cmd) {
	d.t.Helper()
	d.run(cmd)
	d.settle()
}

// settle processes results until none arrives for a short while.
func (d *driver) settle() {
	d.t.Helper()
	for {
		select {
		case msg := <-d.out:
			d.handle(msg)
		case <-time.After(100 * time.Millisecond):
			return
		}
	}
}

func (d *driver) handle(msg tea.Msg) {
	switch msg := msg.(type) {
	case nil, spinner.TickMsg, cursor.BlinkMsg:
	case tea.BatchMsg:
		for _, c := range msg {
			d.run(c)
		}
	case tea.QuitMsg:
		d.quit = true
	default:
		d.run(d.update(msg))
	}
}
