package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"todoshell/internal/config"
	"todoshell/internal/exitcode"
	"todoshell/internal/service"
)

const showWrapWidth = 80

func init() {
	Register(&ShowCmd{})
}

// ShowCmd renders one task as markdown.
type ShowCmd struct{}

func (c *ShowCmd) Name() string       { return "show" }
func (c *ShowCmd) Aliases() []string  { return nil }
func (c *ShowCmd) Synopsis() string   { return "Show a task" }
func (c *ShowCmd) Usage() string      { return "todoshell show <id>" }
func (c *ShowCmd) NeedsBackend() bool { return true }
func (c *ShowCmd) NeedsSession() bool { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	task, err := findTask(ctx, svc, id)
	if err != nil {
		return reportError(errOut, err)
	}

	fmt.Fprintln(out, renderTask(task, markdownStyle(cfg.NoColor)))
	return exitcode.Success
}

// taskMarkdown is the markdown source of a task card.
func taskMarkdown(t service.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", strings.TrimSpace(t.Title))
	if d := strings.TrimSpace(t.Description); d != "" {
		b.WriteString(d)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "_#%d", t.ID)
	if t.Owner != "" {
		fmt.Fprintf(&b, " · %s", t.Owner)
	}
	b.WriteString("_\n")
	return b.String()
}

// renderTask renders t with a fixed glamour style. The markdown source is
// returned when rendering fails.
func renderTask(t service.Task, style string) string {
	md := taskMarkdown(t)
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(showWrapWidth),
	)
	if err != nil {
		return md
	}
	rendered, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(rendered, "\n")
}

func markdownStyle(noColor bool) string {
	if noColor {
		return styles.NoTTYStyle
	}
	if lipgloss.HasDarkBackground() {
		return styles.DarkStyle
	}
	return styles.LightStyle
}
