package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/git"
	"github.com/aviator-co/gift/internal/mapping"
	"github.com/aviator-co/gift/internal/utils/executils"
	"github.com/sirupsen/logrus"
)

// forward runs git with args exactly as given, attached to gift's own
// stdin, stdout and stderr. A non-zero exit is returned as errExitSilently
// carrying git's exit code.
func (inv *invocation) forward(ctx context.Context, args []string) error {
	env := inv.childEnv()
	before, watch := inv.parentHead(ctx)

	cmd := exec.Command(inv.command[0], append(inv.command[1:], args...)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), env...)
	log := logrus.WithField("env", env)
	log.Debugf("forwarding: git %s", executils.FormatCommandLine(args))

	code := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return errors.WrapIff(err, "failed to run %s", inv.command[0])
		}
		code = exitCode(exitErr)
	}

	if watch {
		after, _ := inv.parentHead(ctx)
		if after != before {
			logrus.WithFields(logrus.Fields{"before": before, "after": after}).Debug("parent HEAD changed")
			if err := inv.populateTrackingRefs(ctx); err != nil {
				logrus.WithError(err).Warn("failed to update subrepo tracking refs")
			}
		}
	}
	if code != 0 {
		return errExitSilently{ExitCode: code}
	}
	return nil
}

func exitCode(err *exec.ExitError) int {
	if ws, ok := err.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return err.ExitCode()
}

// childEnv returns GIT_DIR and GIT_WORK_TREE of the subrepo containing cwd,
// so that commands run inside a subrepo operate on it rather than on the
// parent. Nothing is returned if the location was given explicitly.
func (inv *invocation) childEnv() []string {
	if !inv.inParentWorkTree() {
		return nil
	}
	o := inv.parsed.Opts
	if o.GitDir != nil || o.WorkTree != nil || os.Getenv("GIT_DIR") != "" || os.Getenv("GIT_WORK_TREE") != "" {
		return nil
	}
	f, err := mapping.ReadFile(inv.mappingPath(), inv.layout.DefaultBranch)
	if err != nil {
		logrus.WithError(err).Debug("not looking for subrepos")
		return nil
	}
	r := &mapping.Resolver{Parent: inv.parent(), Layout: inv.layout, Mappings: f.Mappings}
	_, sb := r.Resolve(inv.cwd)
	if sb == nil {
		return nil
	}
	logrus.WithField("subrepo", sb.Path).Debug("running inside subrepo")
	return sb.Env
}

func (inv *invocation) inParentWorkTree() bool {
	return inv.loc != nil && !inv.loc.InsideGitDir && inv.loc.WorkTree != ""
}

func (inv *invocation) mappingPath() string {
	return filepath.Join(inv.loc.WorkTree, filepath.FromSlash(inv.layout.MappingFile))
}

// parentHead returns the parent's HEAD commit. The boolean is false if
// there is no parent working tree to watch.
func (inv *invocation) parentHead(ctx context.Context) (string, bool) {
	if !inv.inParentWorkTree() {
		return "", false
	}
	parent := git.OpenRepo(git.RepoOpts{
		Dir:      inv.loc.WorkTree,
		GitDir:   inv.loc.GitDir,
		WorkTree: inv.loc.WorkTree,
		Command:  inv.command,
	})
	head, _, err := parent.ResolveRev(ctx, "HEAD")
	if err != nil {
		logrus.WithError(err).Debug("failed to read parent HEAD")
		return "", false
	}
	return head, true
}

// populateTrackingRefs re-reads the mapping file (the command may have
// changed it) and points every tracking ref at the new HEAD's ledger.
func (inv *invocation) populateTrackingRefs(ctx context.Context) error {
	e, err := inv.engine()
	if err != nil {
		return err
	}
	if len(e.Mappings()) == 0 {
		return nil
	}
	return e.PopulateTrackingRefs(ctx)
}
