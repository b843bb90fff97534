// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"todoshell/internal/service"
)

// FormatTask formats a task and its description.
// Format: "{ID:>4}  {TITLE}\n" followed by each description line indented
// by six spaces, so it lines up under the title.
func FormatTask(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "%4d  %s\n", task.ID, normalizeTitle(task.Title))
	for _, line := range descriptionLines(task.Description) {
		fmt.Fprintf(w, "      %s\n", line)
	}
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

// descriptionLines splits a description into non-empty display lines.
func descriptionLines(desc string) []string {
	desc = strings.ReplaceAll(desc, "\r\n", "\n")
	var lines []string
	for _, line := range strings.Split(desc, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	return lines
}
