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
	Register(&SignupCmd{})
}

// SignupCmd implements the signup command. It never logs in: new accounts
// verify their email first.
type SignupCmd struct {
	email string
	in    io.Reader
}

// SetInput sets where prompts read from (for testing).
func (c *SignupCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *SignupCmd) Name() string       { return "signup" }
func (c *SignupCmd) Aliases() []string  { return nil }
func (c *SignupCmd) Synopsis() string   { return "Create an account" }
func (c *SignupCmd) Usage() string      { return "todoshell signup [--email <email>]" }
func (c *SignupCmd) NeedsBackend() bool { return true }
func (c *SignupCmd) NeedsSession() bool { return false }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
}

func (c *SignupCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	email, password, err := newPrompter(c.in, errOut).credentials(c.email)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	principal, err := svc.SignUp(ctx, email, password)
	if err != nil {
		fmt.Fprintf(errOut, "error: signup failed: %v\n", err)
		return exitcode.UserError
	}
	if principal == nil {
		fmt.Fprintln(errOut, "error: signup failed: no user data returned")
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "Signup successful! Please verify your email.")
		fmt.Fprintln(out, "A verification email has been sent to your inbox.")
	}
	return exitcode.Success
}
