package git

import (
	"context"
	"slices"
	"strings"

	"emperror.dev/errors"
)

// Remotes lists the names of the configured remotes.
func (r *Repo) Remotes(ctx context.Context) ([]string, error) {
	out, err := r.Git(ctx, "remote")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// HasRemote reports whether a remote with the given name is configured.
func (r *Repo) HasRemote(ctx context.Context, name string) (bool, error) {
	remotes, err := r.Remotes(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(remotes, name), nil
}

func (r *Repo) AddRemote(ctx context.Context, name, url string) error {
	_, err := r.Git(ctx, "remote", "add", name, url)
	return errors.WrapIff(err, "failed to add remote %q", name)
}

// RemoteURL returns the configured URL of the remote.
func (r *Repo) RemoteURL(ctx context.Context, name string) (string, error) {
	return r.Git(ctx, "remote", "get-url", name)
}

func (r *Repo) SetRemoteURL(ctx context.Context, name, url string) error {
	_, err := r.Git(ctx, "remote", "set-url", name, url)
	return errors.WrapIff(err, "failed to set the url of remote %q", name)
}
