package subrepo

import (
	"context"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/git"
	"github.com/aviator-co/gift/internal/mapping"
)

// Fetch fetches the upstream branch of every subrepo. The ledger, tracking
// refs and working trees are left untouched.
func (e *Engine) Fetch(ctx context.Context) error {
	sbs, err := e.subrepos()
	if err != nil {
		return err
	}
	for _, sb := range sbs {
		ok, err := hasStorage(sb)
		if err != nil {
			return err
		}
		if !ok {
			return preconditionf("gift init --sub", "subrepo %s is not initialized", sb.Path)
		}
	}
	for _, sb := range sbs {
		if err := e.fetchOne(ctx, sb); err != nil {
			return errors.WrapIff(err, "failed to fetch subrepo %s", sb.Path)
		}
	}
	return nil
}

func (e *Engine) fetchOne(ctx context.Context, sb *mapping.Subrepo) error {
	e.status(sb, "fetch %s %s", sb.Remote, sb.URL)
	err := e.bare(sb).Fetch(ctx, git.FetchOpts{
		Remote:   sb.Remote,
		Refspecs: []string{sb.Branch},
		Progress: e.progress,
	})
	if git.StderrMatches(err, "couldn't find remote ref") {
		return errors.WrapIff(err, "branch %s not found in %s", sb.Branch, sb.URL)
	}
	return err
}
