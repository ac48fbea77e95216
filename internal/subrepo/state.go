package subrepo

import (
	"context"

	"github.com/aviator-co/gift/internal/git"
	"github.com/aviator-co/gift/internal/ledger"
	"github.com/aviator-co/gift/internal/mapping"
)

type StateKind string

const (
	// Unconfigured: the path is not governed by any mapping.
	Unconfigured StateKind = "Unconfigured"
	// Uninitialized: the child storage does not exist.
	Uninitialized StateKind = "Uninitialized"
	// Initialized: the child is usable but the parent has never recorded it.
	Initialized StateKind = "Initialized"
	// Synced: the child HEAD and tracking ref equal the recorded commit.
	Synced StateKind = "Synced"
	// Diverged: the child HEAD or tracking ref differs from the recorded
	// commit.
	Diverged StateKind = "Diverged"
)

type State struct {
	Path     string    `yaml:"path"`
	Kind     StateKind `yaml:"state"`
	Head     string    `yaml:"head,omitempty"`
	Recorded string    `yaml:"recorded,omitempty"`
	Tracking string    `yaml:"tracking,omitempty"`
	// Ahead is the number of child commits on top of the recorded one.
	Ahead int `yaml:"ahead,omitempty"`
}

// States observes every mapping, in declaration order.
func (e *Engine) States(ctx context.Context) ([]State, error) {
	led, err := e.committedLedger(ctx)
	if err != nil {
		return nil, err
	}
	states := make([]State, 0, len(e.resolver.Mappings))
	for _, m := range e.resolver.Mappings {
		st, err := e.state(ctx, e.resolver.Subrepo(m), led)
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	return states, nil
}

// StateOf observes the mapping that governs absPath.
func (e *Engine) StateOf(ctx context.Context, absPath string) (State, error) {
	_, sb := e.resolver.Resolve(absPath)
	if sb == nil {
		return State{Kind: Unconfigured}, nil
	}
	led, err := e.committedLedger(ctx)
	if err != nil {
		return State{}, err
	}
	return e.state(ctx, sb, led)
}

func (e *Engine) state(ctx context.Context, sb *mapping.Subrepo, led ledger.Ledger) (State, error) {
	st := State{Path: sb.Path, Kind: Uninitialized}
	ok, err := hasStorage(sb)
	if err != nil || !ok {
		return st, err
	}
	bare := e.bare(sb)
	if st.Head, _, err = bare.ResolveRev(ctx, "HEAD"); err != nil {
		return st, err
	}
	if st.Tracking, _, err = bare.ResolveRev(ctx, sb.TrackingRef); err != nil {
		return st, err
	}
	st.Recorded, ok = led.Lookup(sb.Path)
	switch {
	case !ok:
		st.Kind = Initialized
	case st.Head == st.Recorded && st.Tracking == st.Recorded:
		st.Kind = Synced
	default:
		st.Kind = Diverged
	}
	if st.Kind == Diverged && st.Head != "" {
		if st.Ahead, err = e.ahead(ctx, bare, st.Recorded, st.Head); err != nil {
			return st, err
		}
	}
	return st, nil
}

func (e *Engine) ahead(ctx context.Context, repo *git.Repo, base, head string) (int, error) {
	has, err := repo.HasObject(ctx, base)
	if err != nil || !has {
		return 0, err
	}
	return repo.CountRevs(ctx, head, "^"+base)
}

// PopulateTrackingRefs points the tracking ref of every subrepo at the
// commit recorded in the parent's current HEAD. It is meant to be run
// after the parent's HEAD changed. Subrepos that are not initialized or have
// no entry are skipped.
func (e *Engine) PopulateTrackingRefs(ctx context.Context) error {
	led, err := e.committedLedger(ctx)
	if err != nil {
		return err
	}
	for _, m := range e.resolver.Mappings {
		sb := e.resolver.Subrepo(m)
		commit, ok := led.Lookup(sb.Path)
		if !ok {
			continue
		}
		exists, err := hasStorage(sb)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		if err := e.setTrackingRef(ctx, sb, commit); err != nil {
			return err
		}
	}
	return nil
}
