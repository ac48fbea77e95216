package subrepo

import (
	"context"
	"strings"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/git"
	"github.com/aviator-co/gift/internal/mapping"
	"github.com/dustin/go-humanize/english"
)

type ResetOpts struct {
	// Force discards uncommitted changes in subrepos. Without it, Reset
	// refuses to run if any subrepo has them.
	Force bool
}

// Reset moves every recorded subrepo (its HEAD, working tree and tracking ref)
// back to the commit the parent's HEAD records for it. Subrepos without a
// ledger entry are left alone.
func (e *Engine) Reset(ctx context.Context, opts ResetOpts) error {
	sbs, err := e.subrepos()
	if err != nil {
		return err
	}
	led, err := e.committedLedger(ctx)
	if err != nil {
		return err
	}

	var recorded []*mapping.Subrepo
	for _, sb := range sbs {
		if _, ok := led.Lookup(sb.Path); ok {
			recorded = append(recorded, sb)
		}
	}
	if _, err := e.requireHeads(ctx, recorded); err != nil {
		return err
	}
	if !opts.Force {
		var dirty []string
		for _, sb := range recorded {
			st, err := e.child(sb).Status(ctx)
			if err != nil {
				return err
			}
			if !st.IsCleanIgnoringUntracked() {
				dirty = append(dirty, sb.Path)
			}
		}
		if len(dirty) > 0 {
			return preconditionf(
				"gift reset --sub --force",
				"subrepo has uncommitted changes: %s", strings.Join(dirty, ", "),
			)
		}
	}

	for _, sb := range recorded {
		commit, _ := led.Lookup(sb.Path)
		if err := e.resetOne(ctx, sb, commit); err != nil {
			return errors.WrapIff(err, "failed to reset subrepo %s", sb.Path)
		}
	}
	return nil
}

func (e *Engine) resetOne(ctx context.Context, sb *mapping.Subrepo, commit string) error {
	has, err := e.bare(sb).HasObject(ctx, commit)
	if err != nil {
		return err
	}
	if !has {
		if err := e.fetchOne(ctx, sb); err != nil {
			return err
		}
	}
	head, err := e.childHead(ctx, sb)
	if err != nil {
		return err
	}
	dropped, err := e.bare(sb).RevList(ctx, git.RevListOpts{Specifiers: []string{head, "^" + commit}})
	if err != nil {
		return err
	}
	if len(dropped) > 0 {
		e.status(sb, "reset to %s, dropping %s", git.ShortSha(commit), english.Plural(len(dropped), "commit", ""))
	} else {
		e.status(sb, "reset to %s", git.ShortSha(commit))
	}
	if err := e.child(sb).Reset(ctx, git.ResetOpts{Mode: git.ResetHard, Commit: commit}); err != nil {
		return err
	}
	return e.setTrackingRef(ctx, sb, commit)
}
