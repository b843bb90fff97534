// Package tui is the interactive shell: login and signup forms and the task
// list, switched by the session state.
package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"todoshell/internal/service"
)

// Options configure Run.
type Options struct {
	// NoColor renders without colours.
	NoColor bool

	// Input and Output default to the terminal.
	Input  io.Reader
	Output io.Writer

	// AltScreen runs the program in the alternate screen buffer.
	AltScreen bool
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, svc service.Service, log *zap.Logger, opts Options) error {
	setColor(!opts.NoColor)

	shell := NewShell(ctx, svc, log)
	defer shell.Close()

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	if _, err := tea.NewProgram(shell, progOpts...).Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
