package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todoshell/internal/config"
	"todoshell/internal/exitcode"
	"todoshell/internal/service"
	"todoshell/internal/tui"
)

func init() {
	Register(&UICmd{})
}

// UICmd launches the interactive shell.
type UICmd struct {
	inline bool
}

func (c *UICmd) Name() string       { return "ui" }
func (c *UICmd) Aliases() []string  { return nil }
func (c *UICmd) Synopsis() string   { return "Open the interactive shell" }
func (c *UICmd) Usage() string      { return "todoshell ui [--inline]" }
func (c *UICmd) NeedsBackend() bool { return true }
func (c *UICmd) NeedsSession() bool { return false }

func (c *UICmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.inline, "inline", false, "")
}

func (c *UICmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	opts := tui.Options{NoColor: cfg.NoColor, AltScreen: !c.inline}
	if err := tui.Run(ctx, svc, cfg.Log, opts); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
