package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"golang.org/x/term"
)

var errPromptAborted = errors.New("prompt aborted")

// prompter asks the user questions.
type prompter interface {
	// Prompt prints question and reads one answer without the newline.
	Prompt(color lipgloss.TerminalColor, question string) (string, error)
	// Secret is Prompt without echoing the answer when possible.
	Secret(color lipgloss.TerminalColor, question string) (string, error)
}

// newPrompter returns a line editor when stdin is a terminal and a plain
// line reader otherwise (pipes and tests).
func newPrompter(stdin io.Reader, o *IO) prompter {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return terminalPrompter{}
	}

	if stdin == nil {
		stdin = strings.NewReader("")
	}

	return &readerPrompter{r: bufio.NewReader(stdin), o: o}
}

type readerPrompter struct {
	r *bufio.Reader
	o *IO
}

func (p *readerPrompter) Prompt(color lipgloss.TerminalColor, question string) (string, error) {
	p.o.Colorf(color, "%s", question)

	line, err := p.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read answer: %w", err)
		}

		if line == "" {
			p.o.Println()

			return "", errPromptAborted
		}
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func (p *readerPrompter) Secret(color lipgloss.TerminalColor, question string) (string, error) {
	return p.Prompt(color, question)
}

// terminalPrompter uses liner for line editing. A liner state is created per
// question so the terminal is back in its normal mode in between. liner
// redraws the prompt itself, so questions are not colored here.
type terminalPrompter struct{}

func (terminalPrompter) Prompt(_ lipgloss.TerminalColor, question string) (string, error) {
	return linerPrompt(question, false)
}

func (terminalPrompter) Secret(_ lipgloss.TerminalColor, question string) (string, error) {
	return linerPrompt(question, true)
}

func linerPrompt(question string, secret bool) (string, error) {
	state := liner.NewLiner()
	defer func() { _ = state.Close() }()

	state.SetCtrlCAborts(true)

	var (
		line string
		err  error
	)

	if secret {
		line, err = state.PasswordPrompt(question)
	} else {
		line, err = state.Prompt(question)
	}

	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return "", errPromptAborted
		}

		return "", fmt.Errorf("read answer: %w", err)
	}

	return line, nil
}

// confirm asks a yes/no question. Any answer other than y/yes or n/no
// yields def.
func confirm(p prompter, question string, def bool) (bool, error) {
	answer, err := p.Prompt(colorYellow, question)
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return def, nil
	}
}
