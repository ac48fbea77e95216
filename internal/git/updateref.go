package git

import (
	"context"

	"emperror.dev/errors"
)

type UpdateRef struct {
	// The name of the ref (e.g., refs/heads/my-branch).
	Ref string
	// The Git object ID to set the ref to.
	New string
	// Only update the ref if the current value (before the update) is equal to
	// this object ID. Use Missing to only create the ref if it didn't
	// already exists (e.g., to avoid overwriting a branch).
	Old string
	// Message is recorded in the reflog.
	Message string
}

// UpdateRef updates the specified ref within the Git repository.
func (r *Repo) UpdateRef(ctx context.Context, update *UpdateRef) error {
	args := []string{"update-ref"}
	if update.Message != "" {
		args = append(args, "-m", update.Message)
	}
	args = append(args, update.Ref, update.New)
	if update.Old != "" {
		args = append(args, update.Old)
	}
	_, err := r.Git(ctx, args...)
	return errors.WrapIff(err, "failed to write ref %q (%s)", update.Ref, ShortSha(update.New))
}

// DeleteRef removes the ref. Deleting a ref that does not exist succeeds.
func (r *Repo) DeleteRef(ctx context.Context, ref string) error {
	_, err := r.Git(ctx, "update-ref", "-d", ref)
	return errors.WrapIff(err, "failed to delete ref %q", ref)
}
