package git

import (
	"fmt"
	"strings"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/utils/errutils"
)

// ErrNotARepository is returned by Discover when the directory is neither a
// working tree nor a git dir.
const ErrNotARepository = errors.Sentinel("not a git repository")

// CommandError is returned when the underlying git process could not be run
// or exited with a non-zero status. ExitCode is -1 if the process never ran.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	verb := "<none>"
	if len(e.Args) > 0 {
		verb = e.Args[0]
	}
	if e.Err != nil {
		return fmt.Sprintf("git %s: %s", verb, e.Err)
	}
	if line := firstLine(e.Stderr); line != "" {
		return fmt.Sprintf("git %s: %s", verb, line)
	}
	return fmt.Sprintf("git %s: exit status %d", verb, e.ExitCode)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// StderrMatches reports whether err is a git failure whose stderr contains
// target.
func StderrMatches(err error, target string) bool {
	if cmdErr, ok := errutils.As[*CommandError](err); ok {
		return strings.Contains(cmdErr.Stderr, target)
	}
	return false
}
