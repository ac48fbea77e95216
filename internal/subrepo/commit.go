package subrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/git"
	"github.com/aviator-co/gift/internal/ledger"
	"github.com/aviator-co/gift/internal/mapping"
	"github.com/aviator-co/gift/internal/treegraft"
	"github.com/aviator-co/gift/internal/utils/colors"
	"github.com/dustin/go-humanize/english"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/sirupsen/logrus"
)

type CommitOpts struct {
	// Message overrides the generated commit message.
	Message string
	// Edit, if set, is given the message to edit before committing. An empty
	// result aborts the commit.
	Edit func(ctx context.Context, msg string) (string, error)
}

type CommitResult struct {
	// Commit is the new parent commit, or "" if nothing changed.
	Commit  string
	Changes []ledger.Change
	Ledger  ledger.Ledger
}

// Commit records the current HEAD of every subrepo in the parent: the child
// trees are grafted into the parent's tree and the ledger is updated, all in
// one new parent commit on top of the parent's HEAD. Staged changes of the
// parent are included. If every child HEAD is already recorded, nothing is
// committed.
func (e *Engine) Commit(ctx context.Context, opts CommitOpts) (*CommitResult, error) {
	sbs, err := e.subrepos()
	if err != nil {
		return nil, err
	}
	return e.commit(ctx, sbs, opts)
}

func (e *Engine) commit(ctx context.Context, sbs []*mapping.Subrepo, opts CommitOpts) (*CommitResult, error) {
	heads, err := e.requireHeads(ctx, sbs)
	if err != nil {
		return nil, err
	}
	oldHead, err := e.parentHead(ctx)
	if err != nil {
		return nil, err
	}
	led, err := ledger.Load(ctx, e.store, oldHead, e.opts.Layout.LedgerFile)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(sbs))
	byPath := make(map[string]*mapping.Subrepo, len(sbs))
	for _, sb := range sbs {
		paths = append(paths, sb.Path)
		byPath[sb.Path] = sb
	}
	changes := led.Diff(paths, heads)
	if len(changes) == 0 {
		_, _ = fmt.Fprint(e.progress, colors.Faint("GIFT: "), "all subrepos are already recorded\n")
		if err := e.trackLedger(ctx, sbs, led); err != nil {
			return nil, err
		}
		return &CommitResult{Ledger: led}, nil
	}

	// Nothing below touches the ledger file, the index or HEAD until the new
	// commit exists.
	indexTree, err := e.parent.WriteIndexTree(ctx)
	if err != nil {
		return nil, errors.WrapIf(err, "failed to write the index")
	}
	tree := plumbing.NewHash(indexTree)
	for _, c := range changes {
		sb := byPath[c.Path]
		childTree, err := e.pinChild(ctx, sb, c.New)
		if err != nil {
			return nil, err
		}
		tree, err = treegraft.Graft(ctx, e.store, tree, sb.Path, childTree)
		if err != nil {
			return nil, errors.WrapIff(err, "failed to graft subrepo %s", sb.Path)
		}
		led = led.Upsert(c.Path, c.New)
	}

	data, err := led.Serialize()
	if err != nil {
		return nil, err
	}
	blob, err := e.store.WriteBlob(ctx, data)
	if err != nil {
		return nil, err
	}
	tree, err = treegraft.PutBlob(ctx, e.store, tree, e.opts.Layout.LedgerFile, blob)
	if err != nil {
		return nil, err
	}

	msg := opts.Message
	if msg == "" {
		msg = e.commitMessage(ctx, changes, byPath)
	}
	if opts.Edit != nil {
		if msg, err = opts.Edit(ctx, msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg) == "" {
			return nil, errors.New("aborting commit due to empty commit message")
		}
	}
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	var parents []plumbing.Hash
	old := git.Missing
	if !oldHead.IsZero() {
		parents = append(parents, oldHead)
		old = oldHead.String()
	}
	commit, err := e.store.CreateCommit(ctx, tree, parents, msg)
	if err != nil {
		return nil, err
	}
	if err := e.parent.UpdateRef(ctx, &git.UpdateRef{
		Ref:     "HEAD",
		New:     commit.String(),
		Old:     old,
		Message: "gift: commit --sub",
	}); err != nil {
		return nil, err
	}

	// HEAD has moved; bring the index and the working copy of the ledger up
	// to date with it.
	if err := e.parent.Reset(ctx, git.ResetOpts{Mode: git.ResetMixed}); err != nil {
		return nil, err
	}
	ledgerPath := filepath.Join(e.opts.Parent.WorkTree, filepath.FromSlash(e.opts.Layout.LedgerFile))
	if err := os.WriteFile(ledgerPath, data, 0644); err != nil {
		return nil, errors.WrapIff(err, "failed to write %s", ledgerPath)
	}
	if err := e.trackLedger(ctx, sbs, led); err != nil {
		return nil, err
	}

	_, _ = fmt.Fprint(e.progress,
		colors.Faint("GIFT: "), "recorded ", english.Plural(len(changes), "subrepo", ""),
		" in ", colors.UserInput(git.ShortSha(commit.String())), "\n")
	return &CommitResult{Commit: commit.String(), Changes: changes, Ledger: led}, nil
}

// pinChild copies the child commit into the parent's object store, under the
// subrepo's pin ref, and returns its tree.
func (e *Engine) pinChild(ctx context.Context, sb *mapping.Subrepo, commit string) (plumbing.Hash, error) {
	if err := e.parent.Fetch(ctx, git.FetchOpts{
		Remote:   sb.GitDir,
		Refspecs: []string{"+HEAD:" + sb.RefHead},
		NoTags:   true,
		Quiet:    true,
	}); err != nil {
		return plumbing.ZeroHash, errors.WrapIff(err, "failed to copy subrepo %s into the parent", sb.Path)
	}
	pinned, ok, err := e.parent.ResolveRev(ctx, sb.RefHead)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if !ok || pinned != commit {
		return plumbing.ZeroHash, errors.Errorf("subrepo %s moved while it was being recorded", sb.Path)
	}
	c, err := e.store.ReadCommit(ctx, plumbing.NewHash(commit))
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return c.Tree, nil
}

// trackLedger points the tracking ref of every subrepo with a ledger entry
// at that entry.
func (e *Engine) trackLedger(ctx context.Context, sbs []*mapping.Subrepo, led ledger.Ledger) error {
	for _, sb := range sbs {
		commit, ok := led.Lookup(sb.Path)
		if !ok {
			continue
		}
		if err := e.setTrackingRef(ctx, sb, commit); err != nil {
			return err
		}
	}
	return nil
}

// maxLoggedCommits bounds how many child commits are listed per subrepo in a
// generated commit message.
const maxLoggedCommits = 10

func (e *Engine) commitMessage(ctx context.Context, changes []ledger.Change, byPath map[string]*mapping.Subrepo) string {
	var sb strings.Builder
	sb.WriteString("gift: sync subrepos\n\n")
	for _, c := range changes {
		old := "(new)"
		if c.Old != "" {
			old = git.ShortSha(c.Old)
		}
		_, _ = fmt.Fprintf(&sb, "%s: %s -> %s\n", c.Path, old, git.ShortSha(c.New))
		for _, ci := range e.newCommits(ctx, byPath[c.Path], c) {
			_, _ = fmt.Fprintf(&sb, "  %s %s\n", ci.ShortHash, ci.Subject)
		}
	}
	return sb.String()
}

// newCommits lists the child commits a change brings in. Nothing is listed
// for new subrepos or if the old commit is gone.
func (e *Engine) newCommits(ctx context.Context, sb *mapping.Subrepo, c ledger.Change) []*git.CommitInfo {
	if c.Old == "" || sb == nil {
		return nil
	}
	repo := e.bare(sb)
	if has, err := repo.HasObject(ctx, c.Old); err != nil || !has {
		return nil
	}
	commits, err := repo.Log(ctx, git.LogOpts{
		RevisionRange: []string{c.Old + ".." + c.New},
		MaxCount:      maxLoggedCommits,
	})
	if err != nil {
		logrus.WithError(err).WithField("subrepo", sb.Path).Debug("failed to list subrepo commits")
		return nil
	}
	return commits
}
