package e2e_tests

import (
	"strings"
	"testing"

	"github.com/aviator-co/gift/internal/git/gittest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	Chdir(t, repo.Dir())

	out := RequireGift(t, "--version")
	lines := strings.Split(strings.TrimSpace(out.Stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "gift version 0.1.0", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "git version "), lines[1])
}

func TestHelp(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	Chdir(t, repo.Dir())

	out := RequireGift(t, "--help")
	assert.Contains(t, out.Stdout, "Gift extended command:")
	assert.Contains(t, strings.Split(out.Stdout, "\n"), "gift clone --sub <url>@<branch> <dir>")
}

func TestNoCommand(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	Chdir(t, repo.Dir())

	out := Gift(t)
	assert.Equal(t, 1, out.ExitCode, "git's exit code is kept")
	assert.Contains(t, out.Stdout, "usage: git")
	assert.Contains(t, out.Stdout, "Gift extended command:")
	assert.Empty(t, out.Stderr)
}

func TestUnknownCommand(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	Chdir(t, repo.Dir())

	out := Gift(t, "abc")
	assert.Equal(t, 1, out.ExitCode)
	assert.Empty(t, out.Stdout)
	assert.Contains(t, out.Stderr, "git: 'abc' is not a git command.")
}

func TestForwardExitCode(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	Chdir(t, repo.Dir())

	out := Gift(t, "rev-parse", "--verify", "no-such-ref")
	assert.Equal(t, 128, out.ExitCode)
	assert.Contains(t, out.Stderr, "fatal: Needed a single revision")
}

func TestGiftDebugPaging(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	Chdir(t, repo.Dir())

	for _, tt := range []struct {
		args []string
		want string
	}{
		{nil, "paging: null"},
		{[]string{"-p"}, "paging: true"},
		{[]string{"--paginate"}, "paging: true"},
		{[]string{"--no-pager"}, "paging: false"},
	} {
		out := RequireGift(t, append(tt.args, "gift-debug")...)
		assert.Contains(t, out.Stdout, tt.want, "%v", tt.args)
	}

	out := RequireGift(t, "--exec-path=/foo/", "gift-debug")
	assert.True(t, strings.HasPrefix(out.Stdout, "gift-debug\n"))
	assert.Contains(t, out.Stdout, "  exec_path: /foo/\n")
	assert.Contains(t, out.Stdout, "evaluated cwd: "+repo.Dir()+"\n")
	assert.Contains(t, out.Stdout, "evaluated working_dir: "+repo.Dir()+"\n")
}

func TestSubInGitDir(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	gitDir := repo.Dir() + "/.git"
	Chdir(t, gitDir)

	RequireGift(t, "rev-parse", "--git-dir")

	out := Gift(t, "commit", "--sub")
	assert.Equal(t, 2, out.ExitCode)
	assert.Empty(t, out.Stdout)
	assert.Equal(t, "--sub can not be used in git-dir:"+gitDir+"\n", out.Stderr)

	out = Gift(t, "status")
	assert.Equal(t, 128, out.ExitCode)
	assert.Contains(t, out.Stderr, "fatal: this operation must be run in a work tree")
}
