package git

import (
	"context"
)

// WriteIndexTree writes the current index as a tree object and returns its
// hash (`git write-tree`).
func (r *Repo) WriteIndexTree(ctx context.Context) (string, error) {
	return r.Git(ctx, "write-tree")
}

type AddOpts struct {
	Paths []string
	// All stages removals as well (the "-A" flag).
	All bool
}

func (r *Repo) Add(ctx context.Context, opts AddOpts) error {
	args := []string{"add"}
	if opts.All {
		args = append(args, "-A")
	}
	args = append(args, "--")
	args = append(args, opts.Paths...)
	_, err := r.Git(ctx, args...)
	return err
}

// RemoveFromIndex unstages paths without touching the working tree. Paths
// that are not in the index are ignored.
func (r *Repo) RemoveFromIndex(ctx context.Context, paths ...string) error {
	args := []string{"rm", "--cached", "--quiet", "--ignore-unmatch", "--"}
	args = append(args, paths...)
	_, err := r.Git(ctx, args...)
	return err
}
