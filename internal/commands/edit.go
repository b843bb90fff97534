package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todoshell/internal/config"
	"todoshell/internal/exitcode"
	"todoshell/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only the given fields change.
type EditCmd struct {
	title       *string
	description *string
}

// SetTitle and SetDescription set the new values (for testing).
func (c *EditCmd) SetTitle(s string)       { c.title = &s }
func (c *EditCmd) SetDescription(s string) { c.description = &s }

func (c *EditCmd) Name() string       { return "edit" }
func (c *EditCmd) Aliases() []string  { return nil }
func (c *EditCmd) Synopsis() string   { return "Change a task's title or description" }
func (c *EditCmd) Usage() string      { return "todoshell edit [--title <title>] [--desc <description>] <id>" }
func (c *EditCmd) NeedsBackend() bool { return true }
func (c *EditCmd) NeedsSession() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	// Flags are registered once per invocation on a shared command value.
	c.title, c.description = nil, nil
	fs.Func("title", "", func(s string) error {
		c.title = &s
		return nil
	})
	fs.Func("desc", "", func(s string) error {
		c.description = &s
		return nil
	})
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	var patch service.TaskPatch
	if c.title != nil {
		t := strings.TrimSpace(*c.title)
		if t == "" {
			fmt.Fprintln(errOut, "error: title must not be empty")
			return exitcode.UserError
		}
		patch.Title = &t
	}
	if c.description != nil {
		d := strings.TrimSpace(*c.description)
		if d == "" {
			fmt.Fprintln(errOut, "error: description must not be empty")
			return exitcode.UserError
		}
		patch.Description = &d
	}
	if patch.Empty() {
		fmt.Fprintln(errOut, "error: nothing to change (use --title or --desc)")
		return exitcode.UserError
	}

	updated, err := svc.Update(ctx, id, patch)
	if err != nil {
		return reportError(errOut, err)
	}
	if len(updated) == 0 {
		fmt.Fprintf(errOut, "error: task %v: %d\n", service.ErrNotFound, id)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
