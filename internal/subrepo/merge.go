package subrepo

import (
	"context"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/git"
	"github.com/aviator-co/gift/internal/mapping"
)

// Merge merges the fetched upstream branch into the current branch of every
// subrepo. Conflicts are left for the user to resolve in the subrepo and
// abort the operation. The ledger is not updated; run Commit to record the
// merged heads.
func (e *Engine) Merge(ctx context.Context) error {
	sbs, err := e.subrepos()
	if err != nil {
		return err
	}
	if _, err := e.requireHeads(ctx, sbs); err != nil {
		return err
	}
	for _, sb := range sbs {
		if err := e.mergeOne(ctx, sb); err != nil {
			return errors.WrapIff(err, "failed to merge %s/%s into subrepo %s", sb.Remote, sb.Branch, sb.Path)
		}
	}
	return nil
}

func (e *Engine) mergeOne(ctx context.Context, sb *mapping.Subrepo) error {
	upstream := "refs/remotes/" + sb.Remote + "/" + sb.Branch
	child := e.child(sb)
	merged, err := child.IsAncestor(ctx, upstream, "HEAD")
	if err != nil {
		return err
	}
	if merged {
		e.status(sb, "already up to date with %s/%s", sb.Remote, sb.Branch)
		return nil
	}
	e.status(sb, "merge %s/%s", sb.Remote, sb.Branch)
	return child.Merge(ctx, git.MergeOpts{Commit: upstream, Output: e.progress})
}
