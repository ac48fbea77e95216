package git

import (
	"context"
)

type InitOpts struct {
	// Path to initialize. If empty, the repository's Dir is initialized.
	Path string
	Bare bool
}

// Init creates a new repository. Re-initializing an existing repository is
// harmless (git only fills in missing pieces).
func (r *Repo) Init(ctx context.Context, opts InitOpts) error {
	args := []string{"init", "--quiet"}
	if opts.Bare {
		args = append(args, "--bare")
	}
	if opts.Path != "" {
		args = append(args, opts.Path)
	}
	_, err := r.Run(ctx, &RunOpts{Args: args, ExitError: true})
	return err
}
