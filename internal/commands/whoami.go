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
	Register(&WhoamiCmd{})
}

// WhoamiCmd prints the signed-in email.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string       { return "whoami" }
func (c *WhoamiCmd) Aliases() []string  { return nil }
func (c *WhoamiCmd) Synopsis() string   { return "Print the signed-in email" }
func (c *WhoamiCmd) Usage() string      { return "todoshell whoami" }
func (c *WhoamiCmd) NeedsBackend() bool { return true }
func (c *WhoamiCmd) NeedsSession() bool { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	sess, err := svc.CurrentSession(ctx)
	if err != nil {
		return reportError(errOut, err)
	}
	if sess == nil {
		fmt.Fprintln(errOut, "error: not logged in (run: todoshell login)")
		return exitcode.AuthError
	}
	fmt.Fprintln(out, sess.Email())
	return exitcode.Success
}
