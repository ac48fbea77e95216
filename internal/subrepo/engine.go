// Package subrepo implements the operations that keep subrepos and their
// parent repository in sync.
package subrepo

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/git"
	"github.com/aviator-co/gift/internal/ledger"
	"github.com/aviator-co/gift/internal/mapping"
	"github.com/aviator-co/gift/internal/objstore"
	"github.com/aviator-co/gift/internal/utils/colors"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/sirupsen/logrus"
)

type Opts struct {
	Parent mapping.Parent
	Layout mapping.Layout
	// Command is the git executable (and leading arguments).
	Command []string
	// GlobalArgs are passed to every git invocation, in the parent and in
	// every child (e.g., "-c", "user.name=x").
	GlobalArgs []string
	// Progress receives status lines and git's fetch/merge output. Defaults
	// to os.Stderr.
	Progress io.Writer
}

// Engine runs subrepo operations against one parent repository. The
// mapping file is read once, when the engine is created.
type Engine struct {
	opts     Opts
	parent   *git.Repo
	store    objstore.Store
	resolver *mapping.Resolver
	mappings *mapping.File
	progress io.Writer
}

func New(opts Opts) (*Engine, error) {
	if opts.Parent.WorkTree == "" {
		return nil, errors.New("subrepo operations need a working tree")
	}
	if opts.Progress == nil {
		opts.Progress = os.Stderr
	}
	f, err := mapping.ReadFile(
		filepath.Join(opts.Parent.WorkTree, filepath.FromSlash(opts.Layout.MappingFile)),
		opts.Layout.DefaultBranch,
	)
	if err != nil {
		return nil, err
	}
	parent := git.OpenRepo(git.RepoOpts{
		Name:       "super",
		Dir:        opts.Parent.WorkTree,
		GitDir:     opts.Parent.GitDir,
		WorkTree:   opts.Parent.WorkTree,
		GlobalArgs: opts.GlobalArgs,
		Command:    opts.Command,
	})
	return &Engine{
		opts:     opts,
		parent:   parent,
		store:    objstore.NewGitStore(parent),
		resolver: &mapping.Resolver{Parent: opts.Parent, Layout: opts.Layout, Mappings: f.Mappings},
		mappings: f,
		progress: opts.Progress,
	}, nil
}

// Mappings returns the mappings declared in the mapping file.
func (e *Engine) Mappings() mapping.Mappings {
	return e.resolver.Mappings
}

func (e *Engine) Resolver() *mapping.Resolver {
	return e.resolver
}

// Parent returns the parent repository.
func (e *Engine) Parent() *git.Repo {
	return e.parent
}

// child opens the repository of a subrepo.
func (e *Engine) child(sb *mapping.Subrepo) *git.Repo {
	return git.OpenRepo(git.RepoOpts{
		Name:       sb.Path,
		Dir:        e.opts.Parent.WorkTree,
		GitDir:     sb.GitDir,
		WorkTree:   sb.WorkTree,
		GlobalArgs: e.opts.GlobalArgs,
		Command:    e.opts.Command,
	})
}

// bare opens the storage of a subrepo without its working tree, which may
// not exist yet.
func (e *Engine) bare(sb *mapping.Subrepo) *git.Repo {
	return git.OpenRepo(git.RepoOpts{
		Name:       sb.Path,
		Dir:        e.opts.Parent.WorkTree,
		GitDir:     sb.GitDir,
		GlobalArgs: e.opts.GlobalArgs,
		Command:    e.opts.Command,
	})
}

func (e *Engine) subrepos() ([]*mapping.Subrepo, error) {
	if len(e.resolver.Mappings) == 0 {
		return nil, preconditionf(
			"gift clone --sub <url> <path>",
			"No %s found in:%s", e.opts.Layout.MappingFile, e.opts.Parent.WorkTree,
		)
	}
	sbs := make([]*mapping.Subrepo, 0, len(e.resolver.Mappings))
	for _, m := range e.resolver.Mappings {
		sbs = append(sbs, e.resolver.Subrepo(m))
	}
	return sbs, nil
}

// status prints a "GIFT: <path>: <msg>" line.
func (e *Engine) status(sb *mapping.Subrepo, format string, args ...any) {
	_, _ = fmt.Fprint(e.progress,
		colors.Faint("GIFT: "), colors.UserInput(sb.Path), ": ", fmt.Sprintf(format, args...), "\n")
}

// hasStorage reports whether the child's git dir has been created.
func hasStorage(sb *mapping.Subrepo) (bool, error) {
	_, err := os.Stat(filepath.Join(sb.GitDir, "HEAD"))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.WrapIff(err, "failed to inspect %s", sb.GitDir)
}

// childHead returns the commit the child's HEAD points at, or "" if the
// child has no storage or HEAD is unborn.
func (e *Engine) childHead(ctx context.Context, sb *mapping.Subrepo) (string, error) {
	ok, err := hasStorage(sb)
	if err != nil || !ok {
		return "", err
	}
	head, _, err := e.bare(sb).ResolveRev(ctx, "HEAD")
	return head, err
}

// requireHeads returns the HEAD of every child, failing if any of them has
// not been checked out yet.
func (e *Engine) requireHeads(ctx context.Context, sbs []*mapping.Subrepo) (map[string]string, error) {
	heads := make(map[string]string, len(sbs))
	for _, sb := range sbs {
		head, err := e.childHead(ctx, sb)
		if err != nil {
			return nil, err
		}
		if head == "" {
			return nil, preconditionf("gift init --sub", "subrepo %s is not initialized", sb.Path)
		}
		heads[sb.Path] = head
	}
	return heads, nil
}

// parentHead returns the parent's HEAD commit, or the zero hash if the
// parent has no commits yet.
func (e *Engine) parentHead(ctx context.Context) (plumbing.Hash, error) {
	h, _, err := e.store.ResolveRef(ctx, "HEAD")
	return h, err
}

// committedLedger returns the ledger recorded in the parent's HEAD commit.
func (e *Engine) committedLedger(ctx context.Context) (ledger.Ledger, error) {
	head, err := e.parentHead(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.Load(ctx, e.store, head, e.opts.Layout.LedgerFile)
}

// setTrackingRef points the child's tracking ref at commit. Commits that
// are not present in the child yet are skipped.
func (e *Engine) setTrackingRef(ctx context.Context, sb *mapping.Subrepo, commit string) error {
	child := e.bare(sb)
	cur, ok, err := child.ResolveRev(ctx, sb.TrackingRef)
	if err != nil {
		return err
	}
	if ok && cur == commit {
		return nil
	}
	has, err := child.HasObject(ctx, commit)
	if err != nil {
		return err
	}
	if !has {
		logrus.WithFields(logrus.Fields{"subrepo": sb.Path, "commit": commit}).
			Warnf("subrepo %s does not have commit %s yet, not updating %s", sb.Path, git.ShortSha(commit), sb.TrackingRef)
		return nil
	}
	return child.UpdateRef(ctx, &git.UpdateRef{Ref: sb.TrackingRef, New: commit, Message: "gift: track parent"})
}
