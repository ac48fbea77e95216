package git

import (
	"context"
)

type CheckoutBranch struct {
	// The name of the branch to checkout.
	Name string
	// Specifies the "-b" flag to git.
	// The checkout will fail if the branch already exists.
	NewBranch bool
	// Specifies the ref that new branch will have HEAD at
	// Requires the "-b" flag to be specified
	NewHeadRef string
	// Sets up tracking of NewHeadRef (the "--track" flag).
	Track bool
}

// CheckoutBranch performs a checkout of the given branch.
func (r *Repo) CheckoutBranch(ctx context.Context, opts *CheckoutBranch) error {
	args := []string{"checkout", "--quiet"}
	if opts.NewBranch {
		args = append(args, "-b", opts.Name)
		if opts.Track {
			args = append(args, "--track")
		}
		if opts.NewHeadRef != "" {
			args = append(args, opts.NewHeadRef)
		}
	} else {
		args = append(args, opts.Name)
	}
	_, err := r.Run(ctx, &RunOpts{Args: args, ExitError: true})
	return err
}
