package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/config"
	"github.com/aviator-co/gift/internal/dispatch"
	"github.com/aviator-co/gift/internal/utils/colors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootCmd holds the built-in subrepo commands. Everything else is handed to
// git before cobra ever sees it.
var rootCmd = &cobra.Command{
	Use:   "gift",
	Short: "git with subrepos",

	// Don't automatically print errors or usage information (we handle that ourselves).
	// Cobra still prints usage if you return cmd.Usage() from RunE.
	SilenceErrors: true,
	SilenceUsage:  true,

	// Don't show "completion" command in help menu
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(
		initCmd,
		commitCmd,
		fetchCmd,
		mergeCmd,
		resetCmd,
		cloneCmd,
	)
}

func main() {
	logrus.SetLevel(logrus.WarnLevel)
	colors.SetupForStderr()
	colors.SetupBackgroundColorTypeFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	os.Exit(handleError(err))
}

func run(ctx context.Context, args []string) error {
	cmd, parsed := dispatch.Decide(args)
	inv, err := newInvocation(ctx, parsed)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"gift_version": config.Version,
		"command":      fmt.Sprintf("%T", cmd),
		"builtin":      dispatch.IsSub(cmd),
	}).Debug("dispatching")

	switch c := cmd.(type) {
	case dispatch.Forwarded:
		return inv.forward(ctx, c.Args)
	case dispatch.Version:
		_, _ = fmt.Fprintln(os.Stdout, "gift version "+config.DisplayVersion())
		return inv.forward(ctx, c.Args)
	case dispatch.Help:
		err := inv.forward(ctx, c.Args)
		_, _ = fmt.Fprint(os.Stdout, extendedHelp)
		return err
	case dispatch.Debug:
		return inv.debug(ctx, os.Stdout)
	case dispatch.InitSub:
		return inv.execute(ctx, "init", c.Args)
	case dispatch.CommitSub:
		return inv.execute(ctx, "commit", c.Args)
	case dispatch.FetchSub:
		return inv.execute(ctx, "fetch", c.Args)
	case dispatch.MergeSub:
		return inv.execute(ctx, "merge", c.Args)
	case dispatch.ResetSub:
		return inv.execute(ctx, "reset", c.Args)
	case dispatch.CloneSub:
		return inv.execute(ctx, "clone", c.Args)
	}
	return errors.Errorf("unhandled command %T", cmd)
}

// execute runs one of the built-in commands through cobra.
func (inv *invocation) execute(ctx context.Context, verb string, args []string) error {
	if verb != "clone" {
		if err := inv.requireWorkTree(); err != nil {
			return err
		}
	}
	current = inv
	rootCmd.SetArgs(append([]string{verb}, args...))
	return rootCmd.ExecuteContext(ctx)
}

// current is the invocation the built-in commands run in.
var current *invocation

const extendedHelp = `
Gift extended command:

gift init --sub
    create, fetch and check out every subrepo
gift commit --sub [-m <msg>] [-e]
    record the HEAD of every subrepo in a new commit
gift fetch --sub
    fetch the upstream branch of every subrepo
gift merge --sub
    merge the fetched upstream branch into every subrepo
gift reset --sub [--force]
    reset every subrepo to the commit recorded in HEAD
gift clone --sub <url>@<branch> <dir>
    add a subrepo at <dir> and record it
`
