package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"go.uber.org/zap"

	"todoshell/internal/config"
	"todoshell/internal/exitcode"
	"todoshell/internal/service"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email string
	in    io.Reader
}

// SetInput sets where prompts read from (for testing).
func (c *LoginCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Log in with email and password" }
func (c *LoginCmd) Usage() string      { return "todoshell login [--email <email>]" }
func (c *LoginCmd) NeedsBackend() bool { return true }
func (c *LoginCmd) NeedsSession() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	sess, err := svc.CurrentSession(ctx)
	if err != nil && !service.IsAuth(err) {
		return reportError(errOut, err)
	}
	if sess != nil {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	email, password, err := newPrompter(c.in, errOut).credentials(c.email)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	principal, err := svc.SignIn(ctx, email, password)
	if err != nil {
		cfg.Log.Debug("sign in failed", zap.Error(err))
		fmt.Fprintf(errOut, "error: login failed: %v\n", err)
		return exitcode.AuthError
	}
	if principal == nil {
		fmt.Fprintln(errOut, "error: login failed: no user data returned")
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
