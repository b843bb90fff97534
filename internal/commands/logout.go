package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todoshell/internal/config"
	"todoshell/internal/exitcode"
	"todoshell/internal/service"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string       { return "logout" }
func (c *LogoutCmd) Aliases() []string  { return nil }
func (c *LogoutCmd) Synopsis() string   { return "End the session" }
func (c *LogoutCmd) Usage() string      { return "todoshell logout" }
func (c *LogoutCmd) NeedsBackend() bool { return true }
func (c *LogoutCmd) NeedsSession() bool { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	sess, err := svc.CurrentSession(ctx)
	if err != nil && !service.IsAuth(err) {
		return reportError(errOut, err)
	}
	if sess == nil {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if err := svc.SignOut(ctx); err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
