package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted   lipgloss.TerminalColor = ac("240", "243")
	colorAccent  lipgloss.TerminalColor = ac("27", "62")
	colorError   lipgloss.TerminalColor = ac("160", "203")
	colorSuccess lipgloss.TerminalColor = ac("28", "78")
	colorBorder  lipgloss.TerminalColor = ac("250", "240")
	colorDone    lipgloss.TerminalColor = ac("245", "241")
)

// styles groups every style the views use.
type styles struct {
	app       lipgloss.Style
	title     lipgloss.Style
	subtitle  lipgloss.Style
	muted     lipgloss.Style
	label     lipgloss.Style
	errorLine lipgloss.Style
	selected  lipgloss.Style
	done      lipgloss.Style
	pending   lipgloss.Style
	button    lipgloss.Style
	buttonOff lipgloss.Style
	panel     lipgloss.Style
	panelOn   lipgloss.Style

	toastSuccess lipgloss.Style
	toastError   lipgloss.Style
	toastInfo    lipgloss.Style
}

func newStyles() styles {
	toast := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1)

	return styles{
		app:       lipgloss.NewStyle().Padding(1, 2),
		title:     lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		subtitle:  lipgloss.NewStyle().Foreground(colorMuted),
		muted:     lipgloss.NewStyle().Foreground(colorMuted),
		label:     lipgloss.NewStyle().Bold(true),
		errorLine: lipgloss.NewStyle().Foreground(colorError),
		selected:  lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		done:      lipgloss.NewStyle().Strikethrough(true).Foreground(colorDone),
		pending:   lipgloss.NewStyle().Italic(true).Foreground(colorMuted),
		button:    lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		buttonOff: lipgloss.NewStyle().Foreground(colorMuted),
		panel:     panel,
		panelOn:   panel.BorderForeground(colorAccent),

		toastSuccess: toast.BorderForeground(colorSuccess),
		toastError:   toast.BorderForeground(colorError),
		toastInfo:    toast.BorderForeground(colorAccent),
	}
}

// setColor switches lipgloss between the detected profile and plain ASCII.
func setColor(enabled bool) {
	if enabled {
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

// truncate shortens s to width cells, keeping ANSI sequences intact.
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
