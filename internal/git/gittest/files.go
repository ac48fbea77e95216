package gittest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aviator-co/gift/internal/git"
	"github.com/stretchr/testify/require"
)

func CreateFile(
	t *testing.T,
	repo *git.Repo,
	filename string,
	body []byte,
) string {
	fp := filepath.Join(repo.Dir(), filepath.FromSlash(filename))
	require.NoError(t, os.MkdirAll(filepath.Dir(fp), 0755))
	err := os.WriteFile(fp, body, 0644)
	require.NoError(t, err, "failed to write file: %s", filename)
	return fp
}

func AddFile(
	t *testing.T,
	repo *git.Repo,
	fp string,
) {
	_, err := repo.Git(t.Context(), "add", fp)
	require.NoError(t, err, "failed to add file: %s", fp)
}

// Commit stages everything and commits it.
func Commit(t *testing.T, repo *git.Repo, msg string) string {
	_, err := repo.Git(t.Context(), "add", "-A")
	require.NoError(t, err, "failed to stage changes")
	_, err = repo.Git(t.Context(), "commit", "--quiet", "--allow-empty", "-m", msg)
	require.NoError(t, err, "failed to commit")
	return Head(t, repo)
}

func CommitFile(t *testing.T, repo *git.Repo, filename string, body []byte) string {
	CreateFile(t, repo, filename, body)
	return Commit(t, repo, fmt.Sprintf("write file %s", filename))
}

// Head returns the commit HEAD points at.
func Head(t *testing.T, repo *git.Repo) string {
	oid, err := repo.Git(t.Context(), "rev-parse", "HEAD")
	require.NoError(t, err, "failed to resolve HEAD")
	return oid
}

// Rev resolves rev, failing the test if it does not exist.
func Rev(t *testing.T, repo *git.Repo, rev string) string {
	oid, ok, err := repo.ResolveRev(t.Context(), rev)
	require.NoError(t, err)
	require.True(t, ok, "revision %s does not exist", rev)
	return oid
}

func ReadFile(t *testing.T, repo *git.Repo, filename string) string {
	data, err := os.ReadFile(filepath.Join(repo.Dir(), filepath.FromSlash(filename)))
	require.NoError(t, err)
	return string(data)
}
