package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/aviator-co/gift/internal/git"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func init() {
	logrus.SetLevel(logrus.DebugLevel)
}

// Isolate makes git invocations in this test independent of the user's
// configuration and gives commits a fixed identity.
func Isolate(t *testing.T) {
	home := t.TempDir()
	settings := map[string]string{
		"HOME":                home,
		"XDG_CONFIG_HOME":     filepath.Join(home, ".config"),
		"GIT_CONFIG_NOSYSTEM": "1",
		"GIT_AUTHOR_NAME":     "gift-test",
		"GIT_AUTHOR_EMAIL":    "gift-test@nonexistant",
		"GIT_COMMITTER_NAME":  "gift-test",
		"GIT_COMMITTER_EMAIL": "gift-test@nonexistant",
		"GIT_TERMINAL_PROMPT": "0",
	}
	for k, v := range settings {
		t.Setenv(k, v)
	}
}

// TempDir returns a temporary directory for the test. If
// GIFT_TEST_PRESERVE_TEMP_REPO is set, the directory is not removed.
func TempDir(t *testing.T) string {
	if os.Getenv("GIFT_TEST_PRESERVE_TEMP_REPO") != "" {
		dir, err := os.MkdirTemp("", "gift")
		require.NoError(t, err)
		logrus.Infof("created test dir: %s", dir)
		return dir
	}
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func initRepo(t *testing.T, dir string) {
	require.NoError(t, os.MkdirAll(dir, 0755))
	cmd := exec.Command("git", "init", "--quiet", "--initial-branch=master")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to initialize git repository: %s", out)
}

// NewTempRepo initializes an empty parent repository at <root>/super, where
// root is a fresh temporary directory.
func NewTempRepo(t *testing.T) *git.Repo {
	Isolate(t)
	dir := filepath.Join(TempDir(t), "super")
	initRepo(t, dir)
	return git.OpenRepo(git.RepoOpts{Dir: dir})
}

// NewUpstream creates a repository next to parent (at <parent>/../<name>)
// with one commit on master containing files. It can be referenced from
// parent as "../<name>".
func NewUpstream(t *testing.T, parent *git.Repo, name string, files map[string]string) *git.Repo {
	dir := filepath.Join(filepath.Dir(parent.Dir()), name)
	initRepo(t, dir)
	repo := git.OpenRepo(git.RepoOpts{Name: name, Dir: dir})
	for name, body := range files {
		CreateFile(t, repo, name, []byte(body))
	}
	Commit(t, repo, "initial commit")
	return repo
}
