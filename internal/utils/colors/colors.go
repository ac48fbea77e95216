// Package colors styles gift's own terminal output. Output of forwarded git
// commands is never touched.
package colors

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	FailureC   = color.New(color.FgRed)
	UserInputC = color.New(color.FgCyan)
	FaintC     = color.New(color.Faint)
)

var (
	Failure   = FailureC.Sprint
	UserInput = UserInputC.Sprint
	Faint     = FaintC.Sprint
)

// StderrIsTerminal reports whether stderr is attached to a terminal.
func StderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// SetupForStderr enables colors iff stderr is a terminal. fatih/color only
// checks stdout by default, but gift writes everything of its own to stderr.
func SetupForStderr() {
	color.NoColor = os.Getenv("NO_COLOR") != "" || !StderrIsTerminal()
}

// SetupBackgroundColorTypeFromEnv lets GIFT_HAS_LIGHT_BG override lipgloss'
// guess of the terminal background, which is not always right.
func SetupBackgroundColorTypeFromEnv() {
	switch strings.ToLower(os.Getenv("GIFT_HAS_LIGHT_BG")) {
	case "true", "1", "yes", "y", "on":
		lipgloss.SetHasDarkBackground(false)
	case "false", "0", "no", "n", "off":
		lipgloss.SetHasDarkBackground(true)
	}
}
