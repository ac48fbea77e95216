package git

import (
	"context"
	"io"
)

type MergeOpts struct {
	// Commit to merge into the current branch.
	Commit string
	// Output, if set, receives git's stdout and stderr.
	Output io.Writer
}

// Merge merges the given commit into the current branch using git's own
// merge machinery. A conflict is reported as a *CommandError; gift never
// resolves conflicts itself.
func (r *Repo) Merge(ctx context.Context, opts MergeOpts) error {
	_, err := r.Run(ctx, &RunOpts{
		Args:      []string{"merge", "--no-edit", opts.Commit},
		Stdout:    opts.Output,
		Stderr:    opts.Output,
		ExitError: true,
	})
	return err
}
