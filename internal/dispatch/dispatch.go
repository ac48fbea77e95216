// Package dispatch decides, once, what a gift invocation does.
package dispatch

import (
	"github.com/aviator-co/gift/internal/gitopt"
)

// Command is one of the types in this package. The set is closed:
// callers switch over it exhaustively.
type Command interface {
	isCommand()
}

// InitSub, CommitSub, FetchSub, MergeSub, ResetSub and CloneSub are the
// built-in subrepo commands. Args are the command's own arguments with
// "--sub" removed.
type (
	InitSub   struct{ Args []string }
	CommitSub struct{ Args []string }
	FetchSub  struct{ Args []string }
	MergeSub  struct{ Args []string }
	ResetSub  struct{ Args []string }
	CloneSub  struct{ Args []string }
)

// Forwarded runs git with Args (the complete original arguments) and
// nothing else.
type Forwarded struct {
	Args []string
}

// Version forwards "--version" after printing gift's own version.
type Version struct {
	Args []string
}

// Help forwards the help request, then lists gift's own commands. It is
// also used when no command is given at all.
type Help struct {
	Args []string
}

// Debug prints what gift understood from the arguments.
type Debug struct{}

func (InitSub) isCommand()   {}
func (CommitSub) isCommand() {}
func (FetchSub) isCommand()  {}
func (MergeSub) isCommand()  {}
func (ResetSub) isCommand()  {}
func (CloneSub) isCommand()  {}
func (Forwarded) isCommand() {}
func (Version) isCommand()   {}
func (Help) isCommand()      {}
func (Debug) isCommand()     {}

// DebugCommand is the name of the command that prints gift's view of the
// invocation.
const DebugCommand = "gift-debug"

// Decide classifies args (without the program name). Arguments that do not
// parse as git global options are forwarded so git can report the problem.
func Decide(args []string) (Command, *gitopt.Parsed) {
	p, err := gitopt.Parse(args)
	if err != nil {
		return Forwarded{Args: args}, nil
	}
	inf := p.Informative
	switch {
	case p.Command == DebugCommand:
		return Debug{}, p
	case inf.Version && p.Command == "":
		return Version{Args: args}, p
	case inf.Help && p.Command == "":
		return Help{Args: args}, p
	case p.Command == "" && !inf.Any():
		return Help{Args: args}, p
	}
	if !gitopt.HasSub(p.Args) {
		return Forwarded{Args: args}, p
	}
	sub := gitopt.WithoutSub(p.Args)
	switch p.Command {
	case "init":
		return InitSub{Args: sub}, p
	case "commit":
		return CommitSub{Args: sub}, p
	case "fetch":
		return FetchSub{Args: sub}, p
	case "merge":
		return MergeSub{Args: sub}, p
	case "reset":
		return ResetSub{Args: sub}, p
	case "clone":
		return CloneSub{Args: sub}, p
	}
	return Forwarded{Args: args}, p
}

// IsSub reports whether cmd is one of the built-in subrepo commands.
func IsSub(cmd Command) bool {
	switch cmd.(type) {
	case InitSub, CommitSub, FetchSub, MergeSub, ResetSub, CloneSub:
		return true
	}
	return false
}
