package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors used for output lines. Adaptive so they stay readable on light and
// dark terminals.
var (
	colorBlue   = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "2", Dark: "10"}
	colorYellow = lipgloss.AdaptiveColor{Light: "3", Dark: "11"}
	colorDim    = lipgloss.AdaptiveColor{Light: "8", Dark: "7"}
	colorRed    = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}
	colorOrange = lipgloss.AdaptiveColor{Light: "3", Dark: "3"}
)

// IO handles command output. Warnings are printed to stderr at both the
// start and the end of the output so they survive head/tail truncation.
type IO struct {
	out      io.Writer
	errOut   io.Writer
	renderer *lipgloss.Renderer
	warnings []string
	started  bool
}

// NewIO creates a new IO instance. Colors are only emitted when out is a
// terminal.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut, renderer: lipgloss.NewRenderer(out)}
}

// Warn adds a warning. Any warning makes Finish return exit code 1, but
// normal output is still printed.
func (o *IO) Warn(issue string, action string) {
	o.warnings = append(o.warnings, fmt.Sprintf("%s: %s", issue, action))
}

// Println writes to stdout. On first call, any collected warnings
// are printed to stderr first.
func (o *IO) Println(a ...any) {
	o.flushWarningsStart()
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout. On first call, any collected
// warnings are printed to stderr first.
func (o *IO) Printf(format string, a ...any) {
	o.flushWarningsStart()
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// Colorln writes one colored line to stdout.
func (o *IO) Colorln(color lipgloss.TerminalColor, a ...any) {
	o.flushWarningsStart()

	line := fmt.Sprint(a...)
	if len(a) > 1 {
		line = fmt.Sprintln(a...)
		line = line[:len(line)-1]
	}

	// Rendered per line; lipgloss pads multi-line blocks to a common width.
	style := o.renderer.NewStyle().Foreground(color)
	for l := range strings.SplitSeq(line, "\n") {
		_, _ = fmt.Fprintln(o.out, style.Render(l))
	}
}

// Colorf writes colored text to stdout without a trailing newline. Used for
// prompts.
func (o *IO) Colorf(color lipgloss.TerminalColor, format string, a ...any) {
	o.flushWarningsStart()
	_, _ = fmt.Fprint(o.out, o.renderer.NewStyle().Foreground(color).Render(fmt.Sprintf(format, a...)))
}

// ErrPrintln writes to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Out returns the stdout writer, for child processes.
func (o *IO) Out() io.Writer { return o.out }

// ErrOut returns the stderr writer, for child processes.
func (o *IO) ErrOut() io.Writer { return o.errOut }

// Finish prints warnings to stderr and returns exit code.
// Returns 1 if any warnings, 0 otherwise.
func (o *IO) Finish() int {
	// If no output happened but we have warnings, print them at "start" position
	o.flushWarningsStart()

	// Always print at end
	for _, w := range o.warnings {
		_, _ = fmt.Fprintln(o.errOut, "warning:", w)
	}

	if len(o.warnings) > 0 {
		return 1
	}

	return 0
}

func (o *IO) flushWarningsStart() {
	if !o.started && len(o.warnings) > 0 {
		for _, w := range o.warnings {
			_, _ = fmt.Fprintln(o.errOut, "warning:", w)
		}

		o.started = true
	}
}
