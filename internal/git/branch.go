package git

import (
	"context"
)

// BranchExists reports whether refs/heads/<name> exists.
func (r *Repo) BranchExists(ctx context.Context, name string) (bool, error) {
	_, ok, err := r.ResolveRev(ctx, "refs/heads/"+name)
	return ok, err
}

// SetUpstream makes upstream (e.g., "origin/master") the upstream of the
// branch (equivalent to `git branch --set-upstream-to`).
func (r *Repo) SetUpstream(ctx context.Context, branch, upstream string) error {
	_, err := r.Run(ctx, &RunOpts{
		Args:      []string{"branch", "--quiet", "--set-upstream-to=" + upstream, branch},
		ExitError: true,
	})
	return err
}
