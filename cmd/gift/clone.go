package main

import (
	"context"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/git"
	"github.com/aviator-co/gift/internal/subrepo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cloneFlags struct {
	Message string
}

var cloneCmd = &cobra.Command{
	Use:   "clone --sub <url>[@<branch>] <dir>",
	Short: "add a subrepo at <dir> and record it",
	Long: `Add a subrepo tracking <branch> (default: master) of <url> at <dir>, check it
out and record it in a new parent commit. If the current directory is not
inside a git repository, a new one is created there first.

Relative URLs are relative to the root of the parent working tree.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := current.ensureParent(ctx); err != nil {
			return err
		}
		path, err := current.worktreeRelative(args[1])
		if err != nil {
			return err
		}
		e, err := current.engine()
		if err != nil {
			return err
		}
		_, err = e.Clone(ctx, subrepo.CloneOpts{
			Source:  args[0],
			Path:    path,
			Message: cloneFlags.Message,
		})
		return err
	},
}

func init() {
	cloneCmd.Flags().
		StringVarP(&cloneFlags.Message, "message", "m", "", "the commit message")
}

// ensureParent creates a repository in cwd if gift is not running inside
// one.
func (inv *invocation) ensureParent(ctx context.Context) error {
	if inv.loc == nil {
		logrus.WithField("dir", inv.cwd).Debug("creating parent repository")
		repo := git.OpenRepo(git.RepoOpts{Dir: inv.cwd, Command: inv.command, GlobalArgs: inv.parsed.Opts.ConfigArgs()})
		if err := repo.Init(ctx, git.InitOpts{}); err != nil {
			return errors.WrapIf(err, "failed to create the parent repository")
		}
		inv.discover(ctx)
	}
	return inv.requireWorkTree()
}

// worktreeRelative turns dir, given relative to cwd, into a slash-separated
// path relative to the parent working tree.
func (inv *invocation) worktreeRelative(dir string) (string, error) {
	abs := dir
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(inv.cwd, dir)
	}
	rel, err := filepath.Rel(inv.loc.WorkTree, abs)
	if err != nil {
		return "", errors.WrapIff(err, "failed to locate %s", dir)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", &subrepo.PreconditionError{Msg: dir + " is outside of the working tree " + inv.loc.WorkTree}
	}
	return rel, nil
}
