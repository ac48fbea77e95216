package git

import (
	"context"
	"io"
)

type FetchOpts struct {
	// Remote is a remote name or a URL/path.
	Remote   string
	Refspecs []string
	NoTags   bool
	Quiet    bool
	// Progress, if set, receives git's progress output (stderr).
	Progress io.Writer
}

// Fetch runs `git fetch`. Failures are returned as *CommandError with git's
// own exit code.
func (r *Repo) Fetch(ctx context.Context, opts FetchOpts) error {
	args := []string{"fetch"}
	if opts.Quiet {
		args = append(args, "--quiet")
	}
	if opts.NoTags {
		args = append(args, "--no-tags")
	}
	args = append(args, opts.Remote)
	args = append(args, opts.Refspecs...)
	_, err := r.Run(ctx, &RunOpts{Args: args, Stderr: opts.Progress, ExitError: true})
	return err
}
