package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/vsts-cli/internal/names"
)

// Command defines a CLI command with unified help generation.
type Command struct {
	// Flags defines command-specific flags.
	// The FlagSet name is not used - command identity comes from Usage.
	Flags *flag.FlagSet

	// Usage is the freeform usage string shown after "vsts" in help.
	// Includes the command name and arguments/flags.
	// Examples: "workitems [id|type] [flags]", "builds logs -i <id> [-d]"
	Usage string

	// Short is a one-line description for the global help listing.
	Short string

	// Long is the full description shown in command help.
	// If empty, Short is used instead.
	Long string

	// Subcommands are dispatched on the first argument, after it passed
	// through the command name normalizer.
	Subcommands []*Command

	// Exec runs the command after flags are parsed.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name: the last word of Usage before any
// argument placeholder or flag.
func (c *Command) Name() string {
	name := ""

	for _, word := range strings.Fields(c.Usage) {
		if strings.HasPrefix(word, "-") || strings.HasPrefix(word, "[") || strings.HasPrefix(word, "<") {
			break
		}

		name = word
	}

	return name
}

// HelpLine returns the short help line for the main usage display.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-34s %s", c.Usage, c.Short)
}

// PrintHelp prints the full help output for "vsts <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: vsts", c.Usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if len(c.Subcommands) > 0 {
		o.Println()
		o.Println("Commands:")

		for _, sub := range c.Subcommands {
			o.Println(sub.HelpLine())
		}
	}

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}
}

// Run parses flags and executes the command. Returns exit code.
// Handles error printing internally for consistent output ordering.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	if len(args) > 0 {
		if sub := c.subcommand(args[0]); sub != nil {
			return sub.Run(ctx, o, args[1:])
		}
	}

	c.Flags.SetOutput(&strings.Builder{}) // discard pflag output

	err := c.Flags.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)

			return 0
		}

		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)

		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		if errors.Is(err, errShowHelp) {
			c.PrintHelp(o)

			return 1
		}

		o.ErrPrintln("error:", err)

		return 1
	}

	return 0
}

func (c *Command) subcommand(arg string) *Command {
	if len(c.Subcommands) == 0 || strings.HasPrefix(arg, "-") {
		return nil
	}

	want := names.NormalizeCommand(arg)

	for _, sub := range c.Subcommands {
		if sub.Name() == want {
			return sub
		}
	}

	return nil
}

// errShowHelp makes Run print the command help and exit 1 without an error
// line. Used when required flags are missing.
var errShowHelp = errors.New("show help")
