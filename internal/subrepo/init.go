package subrepo

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/git"
	"github.com/aviator-co/gift/internal/ledger"
	"github.com/aviator-co/gift/internal/mapping"
)

// Init makes every subrepo usable: it creates the child storage, adds the
// upstream remote, fetches the upstream branch and checks it out into an
// empty working tree. Running it again changes nothing.
func (e *Engine) Init(ctx context.Context) error {
	sbs, err := e.subrepos()
	if err != nil {
		return err
	}
	led, err := e.committedLedger(ctx)
	if err != nil {
		return err
	}
	for _, sb := range sbs {
		if err := e.initOne(ctx, sb, led); err != nil {
			return errors.WrapIff(err, "failed to init subrepo %s", sb.Path)
		}
	}
	return nil
}

func (e *Engine) initOne(ctx context.Context, sb *mapping.Subrepo, led ledger.Ledger) error {
	if err := e.initStorage(ctx, sb); err != nil {
		return err
	}
	bare := e.bare(sb)

	hasRemote, err := bare.HasRemote(ctx, sb.Remote)
	if err != nil {
		return err
	}
	if !hasRemote {
		e.status(sb, "add remote: %s %s", sb.Remote, sb.URL)
		if err := bare.AddRemote(ctx, sb.Remote, sb.URL); err != nil {
			return err
		}
	} else if url, err := bare.RemoteURL(ctx, sb.Remote); err != nil {
		return err
	} else if url != sb.URL {
		// The mapping file is authoritative.
		e.status(sb, "set remote url: %s %s", sb.Remote, sb.URL)
		if err := bare.SetRemoteURL(ctx, sb.Remote, sb.URL); err != nil {
			return err
		}
	}

	upstreamRef := "refs/remotes/" + sb.Remote + "/" + sb.Branch
	upstream, hasUpstream, err := bare.ResolveRev(ctx, upstreamRef)
	if err != nil {
		return err
	}
	recorded, hasRecord := led.Lookup(sb.Path)
	needFetch := !hasUpstream
	if hasRecord && !needFetch {
		has, err := bare.HasObject(ctx, recorded)
		if err != nil {
			return err
		}
		needFetch = !has
	}
	if needFetch {
		if err := e.fetchOne(ctx, sb); err != nil {
			return err
		}
		upstream, hasUpstream, err = bare.ResolveRev(ctx, upstreamRef)
		if err != nil {
			return err
		}
		if !hasUpstream {
			return errors.Errorf("branch %s not found in %s", sb.Branch, sb.URL)
		}
	}

	target := upstream
	if hasRecord {
		target = recorded
	}
	if err := e.initWorkTree(ctx, sb, target); err != nil {
		return err
	}
	return e.setTrackingRef(ctx, sb, target)
}

// initStorage creates the child's git dir unless it exists.
func (e *Engine) initStorage(ctx context.Context, sb *mapping.Subrepo) error {
	ok, err := hasStorage(sb)
	if err != nil || ok {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(sb.GitDir), 0755); err != nil {
		return errors.WrapIff(err, "failed to create %s", filepath.Dir(sb.GitDir))
	}
	// The storage lives away from its working tree, so it is created bare and
	// then told it has a working tree (supplied through GIT_WORK_TREE).
	initializer := git.OpenRepo(git.RepoOpts{Name: sb.Path, Dir: e.opts.Parent.WorkTree, Command: e.opts.Command})
	if err := initializer.Init(ctx, git.InitOpts{Path: sb.GitDir, Bare: true}); err != nil {
		return err
	}
	return e.bare(sb).SetConfig(ctx, "core.bare", "false")
}

// initWorkTree populates the working tree the first time. A working tree is
// only checked out if the child has no commit checked out yet and the
// directory is empty; files that are already there are adopted as they are.
func (e *Engine) initWorkTree(ctx context.Context, sb *mapping.Subrepo, target string) error {
	head, err := e.childHead(ctx, sb)
	if err != nil || head != "" {
		return err
	}
	empty, err := isEmptyDir(sb.WorkTree)
	if err != nil {
		return err
	}
	upstream := sb.Remote + "/" + sb.Branch
	exists, err := e.bare(sb).BranchExists(ctx, sb.Branch)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(sb.WorkTree, 0755); err != nil {
		return errors.WrapIff(err, "failed to create %s", sb.WorkTree)
	}
	child := e.child(sb)

	if empty {
		if exists {
			return child.CheckoutBranch(ctx, &git.CheckoutBranch{Name: sb.Branch})
		}
		if err := child.CheckoutBranch(ctx, &git.CheckoutBranch{
			Name:       sb.Branch,
			NewBranch:  true,
			NewHeadRef: target,
		}); err != nil {
			return err
		}
		return child.SetUpstream(ctx, sb.Branch, upstream)
	}

	// Files are present (e.g., they were checked out as part of the parent):
	// point the branch at target and make the index match it, leaving the
	// files alone.
	if err := child.SetSymbolicRef(ctx, "HEAD", "refs/heads/"+sb.Branch); err != nil {
		return err
	}
	if !exists {
		if err := child.UpdateRef(ctx, &git.UpdateRef{
			Ref:     "refs/heads/" + sb.Branch,
			New:     target,
			Old:     git.Missing,
			Message: "gift: init",
		}); err != nil {
			return err
		}
		if err := child.SetUpstream(ctx, sb.Branch, upstream); err != nil {
			return err
		}
	}
	return child.Reset(ctx, git.ResetOpts{Mode: git.ResetMixed})
}

func isEmptyDir(dir string) (bool, error) {
	f, err := os.Open(dir)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, errors.WrapIff(err, "failed to open %s", dir)
	}
	defer f.Close()
	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, errors.WrapIff(err, "failed to read %s", dir)
	}
	return false, nil
}
