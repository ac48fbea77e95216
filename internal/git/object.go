package git

import (
	"bytes"
	"context"
	"io"
)

type HashObject struct {
	// Type of the object (blob, tree, commit). Defaults to blob.
	Type string
	// Path is hashed instead of Stdin if set. No filters are applied, so the
	// object contains the file's bytes exactly.
	Path  string
	Stdin io.Reader
}

// HashObject writes an object into the object store and returns its ID.
func (r *Repo) HashObject(ctx context.Context, opts *HashObject) (string, error) {
	args := []string{"hash-object", "-w"}
	if opts.Type != "" {
		args = append(args, "-t", opts.Type)
	}
	if opts.Path != "" {
		args = append(args, "--no-filters", "--", opts.Path)
	} else {
		args = append(args, "--stdin")
	}
	out, err := r.Run(ctx, &RunOpts{Args: args, Stdin: opts.Stdin, ExitError: true})
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(out.Stdout)), nil
}

type CommitTree struct {
	Tree    string
	Parents []string
	Message string
}

// CommitTree creates a commit object (`git commit-tree`). Author and
// committer identity come from git's usual config and environment.
func (r *Repo) CommitTree(ctx context.Context, opts *CommitTree) (string, error) {
	args := []string{"commit-tree", opts.Tree}
	for _, p := range opts.Parents {
		args = append(args, "-p", p)
	}
	out, err := r.Run(ctx, &RunOpts{
		Args:      args,
		Stdin:     bytes.NewBufferString(opts.Message),
		ExitError: true,
	})
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(out.Stdout)), nil
}
