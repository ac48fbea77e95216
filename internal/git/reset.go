package git

import (
	"context"
)

type ResetMode string

const (
	ResetSoft  ResetMode = "--soft"
	ResetMixed ResetMode = "--mixed"
	ResetHard  ResetMode = "--hard"
)

type ResetOpts struct {
	Mode ResetMode
	// Commit to reset to. If empty, HEAD is used.
	Commit string
	// Paths limits a mixed reset to the given paths (Mode is ignored).
	Paths []string
}

func (r *Repo) Reset(ctx context.Context, opts ResetOpts) error {
	args := []string{"reset", "--quiet"}
	if len(opts.Paths) == 0 && opts.Mode != "" {
		args = append(args, string(opts.Mode))
	}
	if opts.Commit != "" {
		args = append(args, opts.Commit)
	}
	if len(opts.Paths) > 0 {
		args = append(args, "--")
		args = append(args, opts.Paths...)
	}
	_, err := r.Run(ctx, &RunOpts{Args: args, ExitError: true})
	return err
}
