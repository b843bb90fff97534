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

const msgFillBoth = "please fill in both title and description"

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
}

// SetDescription sets the description (for testing).
func (c *AddCmd) SetDescription(desc string) {
	c.description = desc
}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return nil }
func (c *AddCmd) Synopsis() string   { return "Create a task" }
func (c *AddCmd) Usage() string      { return "todoshell add --desc <description> <title...>" }
func (c *AddCmd) NeedsBackend() bool { return true }
func (c *AddCmd) NeedsSession() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "desc", "", "")
	fs.StringVar(&c.description, "d", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	description := strings.TrimSpace(c.description)
	if title == "" || description == "" {
		fmt.Fprintf(errOut, "error: %s\n", msgFillBoth)
		return exitcode.UserError
	}

	owner := config.FallbackOwner
	sess, err := svc.CurrentSession(ctx)
	if err != nil {
		return reportError(errOut, err)
	}
	if sess != nil {
		owner = sess.Email()
	}

	created, err := svc.Insert(ctx, service.NewTask{Title: title, Description: description, Owner: owner})
	if err != nil {
		return reportError(errOut, err)
	}
	if len(created) == 0 {
		fmt.Fprintln(errOut, "error: no data returned from server")
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok #%d\n", created[0].ID)
	}
	return exitcode.Success
}
