package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/calvinalkan/vsts-cli/internal/vsts"
)

const dateLayout = "2006/01/02"

const logo = `    _  _  ____  ____  ____     ___  __    __
   / )( \/ ___)(_  _)/ ___)   / __)(  )  (  )
   \ \/ /\___ \  )(  \___ \  ( (__ / (_/\ )(
    \__/ (____/ (__) (____/   \___)\____/(__)`

// pad fills s with spaces up to width display cells.
func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// columnWidth returns the widest display width of the values.
func columnWidth[T any](items []T, value func(T) string) int {
	width := 0

	for _, item := range items {
		width = max(width, runewidth.StringWidth(value(item)))
	}

	return width
}

func formatDate(t time.Time) string {
	return t.Local().Format(dateLayout)
}

// resultSymbol is the one-character marker of a build or timeline result.
func resultSymbol(result string) string {
	switch strings.ToLower(result) {
	case "succeeded":
		return "+"
	case "failed":
		return "x"
	case "canceled":
		return "!"
	default:
		return "~"
	}
}

// resultColor colors failed results red, unfinished ones dim and the rest
// green.
func resultColor(result string) lipgloss.TerminalColor {
	switch strings.ToLower(result) {
	case "failed":
		return colorRed
	case "", "none":
		return colorDim
	case "canceled", "partiallysucceeded":
		return colorYellow
	default:
		return colorGreen
	}
}

// timeReport describes when a build ran relative to now.
func timeReport(b vsts.Build, now time.Time) string {
	switch {
	case !b.FinishTime.IsZero():
		took := b.FinishTime.Sub(b.StartTime)
		if b.StartTime.IsZero() || took < 0 {
			return "finished " + ago(now.Sub(b.FinishTime))
		}

		return fmt.Sprintf("finished %s in %s", ago(now.Sub(b.FinishTime)), took.Round(time.Second))
	case !b.StartTime.IsZero():
		return "started " + ago(now.Sub(b.StartTime))
	case !b.QueueTime.IsZero():
		return "queued " + ago(now.Sub(b.QueueTime))
	default:
		return "not started"
	}
}

func ago(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
