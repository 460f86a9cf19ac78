// Package cli implements the vsts command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/calvinalkan/vsts-cli/internal/config"
	"github.com/calvinalkan/vsts-cli/internal/gitrepo"
	"github.com/calvinalkan/vsts-cli/internal/names"
)

var (
	ErrFlagRequiresArg = errors.New("flag requires an argument")
	ErrUnknownFlag     = errors.New("unknown flag")
)

const (
	minArgs      = 2
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

// Run is the main entry point. Returns exit code.
func Run(stdin io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	if len(args) < minArgs || (len(args) == minArgs && strings.TrimSpace(args[1]) == "") {
		printUsage(out)

		return 0
	}

	// Parse global flags
	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut)

		return 1
	}

	if len(flags.remaining) == 0 || flags.remaining[0] == helpFlag || flags.remaining[0] == "-h" {
		printUsage(out)

		return 0
	}

	workDir, err := resolveWorkDir(flags.workDir)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	repo, repoErr := gitrepo.Discover(workDir)

	cfg, err := config.Load(config.LoadInput{
		WorkDir:    workDir,
		ProjectDir: repo.WorkTree,
		ConfigPath: flags.configPath,
		Env:        env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	s := &session{
		stdin:   stdin,
		env:     env,
		verbose: flags.verbose,
		now:     time.Now,
		cwd:     workDir,
		cfg:     cfg,
		repo:    repo,
		repoErr: repoErr,
	}

	name := names.NormalizeCommand(flags.remaining[0])

	var cmd *Command

	for _, c := range commands(s) {
		if c.Name() == name {
			cmd = c

			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error: unknown command:", flags.remaining[0])
		printUsage(errOut)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	o := NewIO(out, errOut)

	if code := cmd.Run(ctx, o, flags.remaining[1:]); code != 0 {
		return code
	}

	// Finish handles warnings and exit code
	return o.Finish()
}

func commands(s *session) []*Command {
	return []*Command{
		browseCmd(s),
		codeCmd(s),
		workItemsCmd(s),
		pullRequestsCmd(s),
		buildsCmd(s),
		printConfigCmd(s),
	}
}

func resolveWorkDir(dir string) (string, error) {
	if dir != "" && filepath.IsAbs(dir) {
		return filepath.Clean(dir), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot get working directory: %w", err)
	}

	return filepath.Join(cwd, dir), nil
}

type globalFlags struct {
	workDir    string
	configPath string
	verbose    bool
	remaining  []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	// -C/--cwd flag (work directory)
	if arg == "-C" || arg == "--cwd" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", ErrFlagRequiresArg, arg)
		}

		flags.workDir = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--cwd="); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	if after, ok := strings.CutPrefix(arg, "-C"); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	// -c/--config flag
	if arg == "-c" || arg == "--config" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", ErrFlagRequiresArg, arg)
		}

		flags.configPath = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--config="); ok {
		flags.configPath = after

		return consumedOne, nil
	}

	if arg == "--verbose" {
		flags.verbose = true

		return consumedOne, nil
	}

	// -h/--help flags
	if arg == "-h" || arg == "-?" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	// Unknown flag
	if strings.HasPrefix(arg, "-") && arg != "-" {
		return consumedNone, fmt.Errorf("%w: %s", ErrUnknownFlag, arg)
	}

	// Not a flag
	return consumedNone, nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(writer io.Writer) {
	style := lipgloss.NewRenderer(writer).NewStyle().Foreground(colorBlue)

	for line := range strings.SplitSeq(logo, "\n") {
		fprintln(writer, style.Render(line))
	}

	fprintln(writer, style.Render("Visual Studio Team Service Command Line Interface"))
	fprintln(writer, `
Usage: vsts [options] <command> [args]

Options:
  -C, --cwd <dir>    Run as if started in <dir>
  -c, --config       Use specified config file
      --verbose      Print every API request to stderr
  -h, --help         Show this help

Commands:`)

	for _, cmd := range commands(nil) {
		fprintln(writer, cmd.HelpLine())

		for _, sub := range cmd.Subcommands {
			fprintln(writer, sub.HelpLine())
		}
	}
}
