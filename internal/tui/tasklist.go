package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"todoshell/internal/config"
	"todoshell/internal/service"
)

const (
	msgFetchFailed  = "Failed to fetch todos. Please try again."
	msgFillBoth     = "Please fill in both title and description."
	msgAddFailed    = "Failed to add todo. Please try again."
	msgNoData       = "No data returned from server."
	msgUpdateFailed = "Failed to update todo. Please try again."
	msgDeleteFailed = "Failed to delete todo. Please try again."
	msgLogoutFailed = "Failed to logout. Please try again."
	msgNotLoggedIn  = "User not logged in. Please log in to manage todos."
)

type focusArea int

const (
	focusList focusArea = iota
	focusTitle
	focusDescription
	focusEdit
)

// todoItem is a task as the list shows it.
//
// completed exists only here. It is never sent to a store, never read from
// one and starts false on every load. Do not move it into service.Task.
type todoItem struct {
	service.Task
	completed bool
}

// editSlot holds the buffers of the one task being edited.
type editSlot struct {
	id          int64
	title       textinput.Model
	description textarea.Model
	field       int
}

func newEditSlot(item todoItem) *editSlot {
	title := textinput.New()
	title.Placeholder = "Edit title"
	title.Prompt = ""
	title.SetValue(item.Title)

	desc := newDescriptionArea("Edit description")
	desc.SetValue(item.Description)

	slot := &editSlot{id: item.ID, title: title, description: desc}
	slot.focusField(fieldTitle)
	return slot
}

const (
	fieldTitle = iota
	fieldDescription
)

func (e *editSlot) focusField(i int) tea.Cmd {
	e.field = i
	if i == fieldTitle {
		e.description.Blur()
		return e.title.Focus()
	}
	e.title.Blur()
	return e.description.Focus()
}

func (e *editSlot) values() (title, description string) {
	return strings.TrimSpace(e.title.Value()), strings.TrimSpace(e.description.Value())
}

// newDescriptionArea returns a textarea where enter is left to the caller
// and only alt+enter inserts a line break.
func newDescriptionArea(placeholder string) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.SetWidth(60)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	return ta
}

// taskListModel is the authenticated view: it mirrors the task collection
// and runs every task operation against the store.
//
// Each operation has its own in-flight state: creating, saving (the single
// edit slot), deleting (per id) and loggingOut. They never block each other.
type taskListModel struct {
	ctx   context.Context
	svc   service.Service
	log   *zap.Logger
	mount int

	loading  bool
	items    []todoItem
	cursor   int
	identity string
	err      string

	newTitle       textinput.Model
	newDescription textarea.Model
	focus          focusArea
	creating       bool

	edit     *editSlot
	saving   bool
	deleting map[int64]bool

	loggingOut bool

	keys  listKeys
	help  help.Model
	st    styles
	width int
}

func newTaskListModel(ctx context.Context, svc service.Service, log *zap.Logger, mount int, st styles) taskListModel {
	title := textinput.New()
	title.Placeholder = "Enter todo title..."
	title.Prompt = ""
	title.CharLimit = 200

	return taskListModel{
		ctx:            ctx,
		svc:            svc,
		log:            log,
		mount:          mount,
		loading:        true,
		newTitle:       title,
		newDescription: newDescriptionArea("Enter description..."),
		deleting:       make(map[int64]bool),
		keys:           newListKeys(),
		help:           help.New(),
		st:             st,
	}
}

// Init probes the session identity and loads the tasks concurrently.
func (m taskListModel) Init() tea.Cmd {
	return tea.Batch(m.probeCmd(), m.loadCmd())
}

func (m taskListModel) probeCmd() tea.Cmd {
	ctx, svc, mount := m.ctx, m.svc, m.mount
	return func() tea.Msg {
		sess, err := svc.CurrentSession(ctx)
		return identityMsg{mount: mount, sess: sess, err: err}
	}
}

func (m taskListModel) loadCmd() tea.Cmd {
	ctx, svc, mount := m.ctx, m.svc, m.mount
	return func() tea.Msg {
		tasks, err := svc.List(ctx)
		return loadedMsg{mount: mount, tasks: tasks, err: err}
	}
}

// reload fetches the whole collection again.
func (m *taskListModel) reload() tea.Cmd {
	m.loading = true
	m.err = ""
	return m.loadCmd()
}

// create inserts the task in the create form.
func (m *taskListModel) create() tea.Cmd {
	if m.creating {
		return nil
	}
	title := strings.TrimSpace(m.newTitle.Value())
	description := strings.TrimSpace(m.newDescription.Value())
	if title == "" || description == "" {
		m.err = msgFillBoth
		return nil
	}
	owner := m.identity
	if owner == "" {
		owner = config.FallbackOwner
	}

	m.creating = true
	m.err = ""
	ctx, svc, mount := m.ctx, m.svc, m.mount
	task := service.NewTask{Title: title, Description: description, Owner: owner}
	return func() tea.Msg {
		created, err := svc.Insert(ctx, task)
		return createdMsg{mount: mount, tasks: created, err: err}
	}
}

// toggle flips the local completion flag. It never reaches the store.
func (m *taskListModel) toggle(id int64) {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].completed = !m.items[i].completed
			return
		}
	}
}

// startEdit puts the task with id into the edit slot, dropping whatever
// the slot held before. Tasks being deleted cannot be edited.
func (m *taskListModel) startEdit(id int64) tea.Cmd {
	if m.deleting[id] {
		return nil
	}
	i := m.indexOf(id)
	if i < 0 {
		return nil
	}
	m.edit = newEditSlot(m.items[i])
	m.setFocus(focusEdit)
	return textinput.Blink
}

func (m *taskListModel) cancelEdit() {
	m.edit = nil
	if m.focus == focusEdit {
		m.setFocus(focusList)
	}
}

// saveEdit sends the edit slot to the store.
func (m *taskListModel) saveEdit() tea.Cmd {
	if m.edit == nil || m.saving {
		return nil
	}
	title, description := m.edit.values()
	if title == "" || description == "" {
		m.err = msgFillBoth
		return nil
	}

	m.saving = true
	m.err = ""
	ctx, svc, mount, id := m.ctx, m.svc, m.mount, m.edit.id
	return func() tea.Msg {
		_, err := svc.Update(ctx, id, service.TaskPatch{Title: &title, Description: &description})
		return savedMsg{mount: mount, id: id, title: title, description: description, err: err}
	}
}

// remove deletes the task with id.
func (m *taskListModel) remove(id int64) tea.Cmd {
	if m.deleting[id] {
		return nil
	}
	m.deleting[id] = true
	m.err = ""
	ctx, svc, mount := m.ctx, m.svc, m.mount
	return func() tea.Msg {
		return deletedMsg{mount: mount, id: id, err: svc.Delete(ctx, id)}
	}
}

// logout signs out. The shell is told once it succeeded.
func (m *taskListModel) logout() tea.Cmd {
	if m.loggingOut {
		return nil
	}
	m.loggingOut = true
	m.err = ""
	ctx, svc, mount := m.ctx, m.svc, m.mount
	return func() tea.Msg {
		return logoutResultMsg{mount: mount, err: svc.SignOut(ctx)}
	}
}

func (m taskListModel) indexOf(id int64) int {
	for i, it := range m.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (m taskListModel) selected() (todoItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return todoItem{}, false
	}
	return m.items[m.cursor], true
}

func (m *taskListModel) clampCursor() {
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *taskListModel) setFocus(f focusArea) tea.Cmd {
	m.focus = f
	m.newTitle.Blur()
	m.newDescription.Blur()
	switch f {
	case focusTitle:
		return m.newTitle.Focus()
	case focusDescription:
		return m.newDescription.Focus()
	}
	return nil
}

func (m taskListModel) Update(msg tea.Msg) (taskListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case identityMsg:
		if msg.mount != m.mount {
			return m, nil
		}
		if msg.err != nil || msg.sess == nil {
			if msg.err != nil {
				m.log.Warn("session lookup failed", zap.Error(msg.err))
			}
			m.identity = ""
			m.err = msgNotLoggedIn
			return m, nil
		}
		m.identity = msg.sess.Email()
		return m, nil

	case loadedMsg:
		if msg.mount != m.mount {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.log.Warn("fetching todos failed", zap.Error(msg.err))
			m.err = msgFetchFailed
			m.items = nil
			m.cursor = 0
			return m, nil
		}
		m.items = make([]todoItem, 0, len(msg.tasks))
		for _, t := range msg.tasks {
			m.items = append(m.items, todoItem{Task: t})
		}
		if m.edit != nil && m.indexOf(m.edit.id) < 0 {
			m.cancelEdit()
		}
		m.clampCursor()
		return m, nil

	case createdMsg:
		if msg.mount != m.mount {
			return m, nil
		}
		m.creating = false
		switch {
		case msg.err != nil:
			m.log.Warn("adding todo failed", zap.Error(msg.err))
			m.err = msgAddFailed
		case len(msg.tasks) == 0:
			m.err = msgNoData
		default:
			m.items = append(m.items, todoItem{Task: msg.tasks[0]})
			m.newTitle.Reset()
			m.newDescription.Reset()
		}
		return m, nil

	case savedMsg:
		if msg.mount != m.mount {
			return m, nil
		}
		m.saving = false
		if msg.err != nil {
			m.log.Warn("updating todo failed", zap.Int64("id", msg.id), zap.Error(msg.err))
			m.err = msgUpdateFailed
			return m, nil
		}
		if i := m.indexOf(msg.id); i >= 0 {
			m.items[i].Title = msg.title
			m.items[i].Description = msg.description
		}
		if m.edit != nil && m.edit.id == msg.id {
			m.cancelEdit()
		}
		return m, nil

	case deletedMsg:
		if msg.mount != m.mount {
			return m, nil
		}
		delete(m.deleting, msg.id)
		if msg.err != nil {
			m.log.Warn("deleting todo failed", zap.Int64("id", msg.id), zap.Error(msg.err))
			m.err = msgDeleteFailed
			return m, nil
		}
		if i := m.indexOf(msg.id); i >= 0 {
			m.items = append(m.items[:i:i], m.items[i+1:]...)
		}
		if m.edit != nil && m.edit.id == msg.id {
			m.cancelEdit()
		}
		m.clampCursor()
		return m, nil

	case logoutResultMsg:
		if msg.mount != m.mount {
			return m, nil
		}
		m.loggingOut = false
		if msg.err != nil {
			m.log.Warn("logout failed", zap.Error(msg.err))
			m.err = msgLogoutFailed
			return m, nil
		}
		m.identity = ""
		m.items = nil
		m.cancelEdit()
		m.cursor = 0
		return m, send(loggedOutMsg{})

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Logout) {
			return m, m.logout()
		}
		switch m.focus {
		case focusEdit:
			return m.updateEdit(msg)
		case focusTitle, focusDescription:
			return m.updateCreate(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m.updateInputs(msg)
}

func (m taskListModel) updateList(msg tea.KeyMsg) (taskListModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if it, ok := m.selected(); ok {
			m.toggle(it.ID)
		}
	case key.Matches(msg, m.keys.Edit):
		if it, ok := m.selected(); ok {
			return m, m.startEdit(it.ID)
		}
	case key.Matches(msg, m.keys.Delete):
		if it, ok := m.selected(); ok {
			return m, m.remove(it.ID)
		}
	case key.Matches(msg, m.keys.Reload):
		return m, m.reload()
	case key.Matches(msg, m.keys.Focus):
		return m, m.setFocus(focusTitle)
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m taskListModel) updateCreate(msg tea.KeyMsg) (taskListModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Commit):
		return m, m.create()
	case key.Matches(msg, m.keys.Cancel):
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusTitle {
			return m, m.setFocus(focusDescription)
		}
		return m, m.setFocus(focusList)
	case key.Matches(msg, m.keys.Back):
		if m.focus == focusDescription {
			return m, m.setFocus(focusTitle)
		}
		return m, m.setFocus(focusList)
	}
	return m.updateInputs(msg)
}

func (m taskListModel) updateEdit(msg tea.KeyMsg) (taskListModel, tea.Cmd) {
	if m.edit == nil {
		m.setFocus(focusList)
		return m.updateList(msg)
	}
	switch {
	case key.Matches(msg, m.keys.Commit):
		return m, m.saveEdit()
	case key.Matches(msg, m.keys.Cancel):
		m.cancelEdit()
		return m, nil
	case key.Matches(msg, m.keys.Focus, m.keys.Back):
		return m, m.edit.focusField((m.edit.field + 1) % 2)
	}
	return m.updateInputs(msg)
}

// updateInputs forwards msg to the focused text field.
func (m taskListModel) updateInputs(msg tea.Msg) (taskListModel, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusTitle:
		m.newTitle, cmd = m.newTitle.Update(msg)
	case focusDescription:
		m.newDescription, cmd = m.newDescription.Update(msg)
	case focusEdit:
		if m.edit == nil {
			return m, nil
		}
		if m.edit.field == fieldTitle {
			m.edit.title, cmd = m.edit.title.Update(msg)
		} else {
			m.edit.description, cmd = m.edit.description.Update(msg)
		}
	}
	return m, cmd
}
