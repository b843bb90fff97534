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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "todoshell help" }
func (c *HelpCmd) NeedsBackend() bool { return false }
func (c *HelpCmd) NeedsSession() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	writeHelp(out, DefaultRegistry)
	return exitcode.Success
}

func writeHelp(w io.Writer, r *Registry) {
	cmds := r.All()
	width := 0
	for _, c := range cmds {
		width = max(width, len(c.Name()))
	}

	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  todoshell [command] [common flags]")
	fmt.Fprintln(w, "  With no command the interactive shell opens.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range cmds {
		line := fmt.Sprintf("  %-*s  %s", width, c.Name(), c.Synopsis())
		if aliases := c.Aliases(); len(aliases) > 0 {
			line += " (alias: " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintln(w, line)
		fmt.Fprintf(w, "  %*s  %s\n", width, "", c.Usage())
	}
	fmt.Fprint(w, helpFooter)
}

const helpFooter = `
Task ids may be written as 12 or #12.

Common flags:
  --config <dir>      Override config directory
  --backend <kind>    supabase or local
  --quiet             Suppress informational output
  --debug             Write debug logs to debug.log in the config directory
  --no-color          Disable colours

Environment:
  SUPABASE_URL, SUPABASE_ANON_KEY, TODOSHELL_BACKEND, TODOSHELL_TABLE,
  TODOSHELL_HTTP_TIMEOUT, TODOSHELL_SESSION_POLL, TODOSHELL_LOCAL_AUTOCONFIRM,
  NO_COLOR
`
