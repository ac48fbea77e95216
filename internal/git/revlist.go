package git

import (
	"context"
	"strconv"
	"strings"

	"emperror.dev/errors"
)

type RevListOpts struct {
	// Commits to start from. A leading caret (^) excludes the commits
	// reachable from it, so {"new", "^old"} lists what new has on top of old.
	Specifiers []string
	// List the oldest commit first.
	Reverse bool
}

// RevList lists the commits selected by opts, newest first unless
// opts.Reverse is set.
func (r *Repo) RevList(ctx context.Context, opts RevListOpts) ([]string, error) {
	args := []string{"rev-list"}
	if opts.Reverse {
		args = append(args, "--reverse")
	}
	out, err := r.Run(ctx, &RunOpts{
		Args:      append(append(args, opts.Specifiers...), "--"),
		ExitError: true,
	})
	if err != nil {
		return nil, err
	}
	return out.Lines(), nil
}

// CountRevs returns the number of commits the specifiers select (see
// RevListOpts.Specifiers).
func (r *Repo) CountRevs(ctx context.Context, specifiers ...string) (int, error) {
	args := append([]string{"rev-list", "--count"}, specifiers...)
	out, err := r.Git(ctx, append(args, "--")...)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, errors.Wrapf(err, "unexpected rev-list output %q", out)
	}
	return n, nil
}
