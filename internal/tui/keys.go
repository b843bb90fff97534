package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// formKeys are the bindings of the login and signup forms.
type formKeys struct {
	Submit key.Binding
	Next   key.Binding
	Prev   key.Binding
	Switch key.Binding
	Quit   key.Binding
}

func newLoginKeys() formKeys {
	return formKeys{
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "log in")),
		Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
		Switch: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "create an account")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func newSignupKeys() formKeys {
	k := newLoginKeys()
	k.Submit.SetHelp("enter", "sign up")
	k.Switch = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to log in"))
	return k
}

func (k formKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Next, k.Switch, k.Quit}
}

func (k formKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Prev}}
}

// listKeys are the bindings of the task list.
type listKeys struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Reload  key.Binding
	Focus   key.Binding
	Back    key.Binding
	Commit  key.Binding
	Newline key.Binding
	Cancel  key.Binding
	Logout  key.Binding
	Quit    key.Binding
	ForceQ  key.Binding
}

func newListKeys() listKeys {
	return listKeys{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle done")),
		Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Focus:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch focus")),
		Back:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		Commit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Newline: key.NewBinding(key.WithKeys("alt+enter"), key.WithHelp("alt+enter", "newline")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel edit")),
		Logout:  key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "log out")),
		Quit:    key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQ:  key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// listHelp shows the bindings that apply to the focused area.
type listHelp struct {
	keys  listKeys
	focus focusArea
}

func (h listHelp) ShortHelp() []key.Binding {
	k := h.keys
	switch h.focus {
	case focusEdit:
		return []key.Binding{k.Commit, k.Newline, k.Cancel, k.Focus, k.Logout}
	case focusTitle, focusDescription:
		return []key.Binding{k.Commit, k.Newline, k.Focus, k.Logout, k.ForceQ}
	default:
		return []key.Binding{k.Up, k.Down, k.Toggle, k.Edit, k.Delete, k.Reload, k.Focus, k.Logout, k.Quit}
	}
}

func (h listHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}
