package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m taskListModel) View() string {
	var b strings.Builder

	header := m.st.title.Render("Todos")
	if m.identity != "" {
		header += "  " + m.st.muted.Render("signed in as "+m.identity)
	}
	logout := m.st.button.Render("[ Log out ]")
	if m.loggingOut {
		logout = m.st.buttonOff.Render("[ Logging out... ]")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, header, "   ", logout))
	b.WriteString("\n\n")

	if m.err != "" {
		b.WriteString(m.st.errorLine.Render(m.err))
		b.WriteString("\n\n")
	}

	switch {
	case m.loading:
		b.WriteString(m.st.muted.Render("Loading todos..."))
	case len(m.items) == 0:
		b.WriteString(m.st.muted.Render("No todos yet. Press tab to add one."))
	default:
		for i, it := range m.items {
			b.WriteString(m.renderItem(i, it))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderCreate())
	b.WriteString("\n\n")
	b.WriteString(m.help.View(listHelp{keys: m.keys, focus: m.focus}))
	return b.String()
}

func (m taskListModel) renderItem(i int, it todoItem) string {
	if m.edit != nil && m.edit.id == it.ID {
		return m.renderEdit()
	}

	cursor := "  "
	if i == m.cursor && m.focus == focusList {
		cursor = m.st.selected.Render("> ")
	}
	box := "[ ]"
	if it.completed {
		box = "[x]"
	}

	width := 0
	if m.width > 0 {
		width = m.width - 12
	}
	title := truncate(it.Title, width)
	desc := truncate(it.Description, width)
	if it.completed {
		title = m.st.done.Render(title)
		desc = m.st.done.Render(desc)
	} else if i == m.cursor && m.focus == focusList {
		title = m.st.selected.Render(title)
	}

	line := fmt.Sprintf("%s%s %s", cursor, box, title)
	if m.deleting[it.ID] {
		line += " " + m.st.pending.Render("(deleting...)")
	}
	if desc != "" {
		line += "\n      " + m.st.muted.Render(desc)
	}
	return line
}

func (m taskListModel) renderEdit() string {
	e := m.edit
	titleBox, descBox := m.st.panel, m.st.panel
	if m.focus == focusEdit {
		if e.field == fieldTitle {
			titleBox = m.st.panelOn
		} else {
			descBox = m.st.panelOn
		}
	}
	status := m.st.muted.Render("enter to save, esc to cancel")
	if m.saving {
		status = m.st.pending.Render("Saving...")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.st.label.Render(fmt.Sprintf("Editing #%d", e.id)),
		titleBox.Render(e.title.View()),
		descBox.Render(e.description.View()),
		status,
	)
}

func (m taskListModel) renderCreate() string {
	titleBox, descBox := m.st.panel, m.st.panel
	switch m.focus {
	case focusTitle:
		titleBox = m.st.panelOn
	case focusDescription:
		descBox = m.st.panelOn
	}

	var button string
	switch {
	case m.creating:
		button = m.st.buttonOff.Render("[ Adding... ]")
	case strings.TrimSpace(m.newTitle.Value()) == "" || strings.TrimSpace(m.newDescription.Value()) == "":
		button = m.st.buttonOff.Render("[ Add todo ]")
	default:
		button = m.st.button.Render("[ Add todo ]")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.st.label.Render("New todo"),
		titleBox.Render(m.newTitle.View()),
		descBox.Render(m.newDescription.View()),
		button,
	)
}
