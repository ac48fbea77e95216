package git

import (
	"context"
	"strings"
)

// ResolveRev resolves a revision (ref name, hash, or any rev-parse
// expression) to an object ID. The boolean is false if the revision does not
// exist; that is not an error.
func (r *Repo) ResolveRev(ctx context.Context, rev string) (string, bool, error) {
	args := []string{"rev-parse", "--verify", "--quiet", rev}
	out, err := r.Run(ctx, &RunOpts{Args: args})
	if err != nil {
		return "", false, err
	}
	if out.ExitCode != 0 {
		// --verify --quiet exits 1 without output for unknown revisions, but
		// anything written to stderr means git itself failed.
		if out.ExitCode == 1 && len(strings.TrimSpace(string(out.Stderr))) == 0 {
			return "", false, nil
		}
		return "", false, &CommandError{Args: args, ExitCode: out.ExitCode, Stderr: string(out.Stderr)}
	}
	return strings.TrimSpace(string(out.Stdout)), true, nil
}

// HasObject reports whether the object exists in the object store.
func (r *Repo) HasObject(ctx context.Context, oid string) (bool, error) {
	out, err := r.Run(ctx, &RunOpts{Args: []string{"cat-file", "-e", oid}})
	if err != nil {
		return false, err
	}
	return out.ExitCode == 0, nil
}
