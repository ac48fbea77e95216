package git

import "context"

// IsAncestor reports whether ancestor is reachable from descendant. A
// commit is its own ancestor.
func (r *Repo) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	args := []string{"merge-base", "--is-ancestor", ancestor, descendant}
	out, err := r.Run(ctx, &RunOpts{Args: args})
	if err != nil {
		return false, err
	}
	if out.ExitCode != 0 && out.ExitCode != 1 {
		return false, &CommandError{Args: args, ExitCode: out.ExitCode, Stderr: string(out.Stderr)}
	}
	return out.ExitCode == 0, nil
}
