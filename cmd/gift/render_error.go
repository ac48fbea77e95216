package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aviator-co/gift/internal/config"
	"github.com/aviator-co/gift/internal/git"
	"github.com/aviator-co/gift/internal/subrepo"
	"github.com/aviator-co/gift/internal/utils/colors"
	"github.com/aviator-co/gift/internal/utils/errutils"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/kr/text"
)

// errExitSilently is an error type that indicates that program should exit
// without printing any additional information with the given exit code.
// This is meant for forwarded commands, which already printed their own
// output but still need to pass on git's exit code.
type errExitSilently struct {
	ExitCode int
}

func (e errExitSilently) Error() string {
	return "<exit silently>"
}

// exitPrecondition is the exit code of subrepo commands that could not start.
const exitPrecondition = 2

// handleError prints err (if it should be printed) and returns the exit
// code of the process.
func handleError(err error) int {
	if err == nil {
		return 0
	}
	if silent, ok := errutils.As[errExitSilently](err); ok {
		return silent.ExitCode
	}

	code := 1
	var msg string
	if perr, ok := errutils.As[*subrepo.PreconditionError](err); ok {
		code = exitPrecondition
		msg = perr.Msg + "\n" + renderHint(perr.Hint)
	} else {
		msg = colors.Failure("error: ") + err.Error() + "\n"
		if cmdErr, ok := errutils.As[*git.CommandError](err); ok && cmdErr.ExitCode > 0 {
			code = cmdErr.ExitCode
		}
	}
	_, _ = fmt.Fprint(os.Stderr, msg)

	// In debug mode, show more detailed information about the error
	// (including the stack trace).
	if config.Gift.Debug {
		_, _ = fmt.Fprintln(os.Stderr, text.Indent(fmt.Sprintf("%+v", err), "\t"))
	}
	return code
}

func renderHint(hint string) string {
	if hint == "" {
		return ""
	}
	if !colors.StderrIsTerminal() {
		return "hint: " + hint + "\n"
	}
	var style string
	if lipgloss.HasDarkBackground() {
		style = glamour.DarkStyle
	} else {
		style = glamour.LightStyle
	}
	out, err := glamour.Render("**hint:** `"+hint+"`", style)
	if err != nil {
		return "hint: " + hint + "\n"
	}
	return strings.TrimLeft(out, "\n")
}
