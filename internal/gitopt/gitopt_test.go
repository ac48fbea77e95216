package gitopt_test

import (
	"testing"

	"github.com/aviator-co/gift/internal/gitopt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	p, err := gitopt.Parse([]string{"-C", "a", "-C", "b", "-c", "user.name=x", "--git-dir=g", "log", "-n1", "-p"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, p.Opts.StartPath)
	assert.Equal(t, []string{"user.name=x"}, p.Opts.ConfKV)
	require.NotNil(t, p.Opts.GitDir)
	assert.Equal(t, "g", *p.Opts.GitDir)
	assert.Nil(t, p.Opts.Paging, "-p after the command belongs to the command")
	assert.Equal(t, "log", p.Command)
	assert.Equal(t, []string{"-n1", "-p"}, p.Args)
	assert.Equal(t, []string{"-C", "a", "-C", "b", "-c", "user.name=x", "--git-dir=g"}, p.Global)
}

func TestParseNoCommand(t *testing.T) {
	p, err := gitopt.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "", p.Command)
	assert.Empty(t, p.Global)
	assert.False(t, p.Informative.Any())
}

func TestParseSeparateValues(t *testing.T) {
	p, err := gitopt.Parse([]string{"--git-dir", "/g", "--work-tree", "/w", "--namespace", "ns", "status"})
	require.NoError(t, err)
	assert.Equal(t, "/g", *p.Opts.GitDir)
	assert.Equal(t, "/w", *p.Opts.WorkTree)
	assert.Equal(t, "ns", *p.Opts.Namespace)
	assert.Equal(t, "status", p.Command)
}

func TestParsePaging(t *testing.T) {
	for _, tt := range []struct {
		args []string
		want *bool
	}{
		{nil, nil},
		{[]string{"-p"}, ptr(true)},
		{[]string{"--paginate"}, ptr(true)},
		{[]string{"-P"}, ptr(false)},
		{[]string{"--no-pager"}, ptr(false)},
		{[]string{"-p", "--no-pager"}, ptr(false)},
		{[]string{"-P", "-p"}, ptr(true)},
	} {
		p, err := gitopt.Parse(append(tt.args, "gift-debug"))
		require.NoError(t, err, "%v", tt.args)
		assert.Equal(t, tt.want, p.Opts.Paging, "%v", tt.args)
		assert.Equal(t, "gift-debug", p.Command)
	}
}

func TestParseExecPath(t *testing.T) {
	p, err := gitopt.Parse([]string{"--exec-path"})
	require.NoError(t, err)
	assert.True(t, p.Informative.ExecPath)
	assert.Nil(t, p.Opts.ExecPath)
	assert.Equal(t, "", p.Command)

	p, err = gitopt.Parse([]string{"--exec-path=/foo/", "-p", "gift-debug"})
	require.NoError(t, err)
	assert.False(t, p.Informative.ExecPath)
	require.NotNil(t, p.Opts.ExecPath)
	assert.Equal(t, "/foo/", *p.Opts.ExecPath)
	assert.Equal(t, ptr(true), p.Opts.Paging)
	assert.Equal(t, "gift-debug", p.Command)

	p, err = gitopt.Parse([]string{"--exec-path", "log"})
	require.NoError(t, err)
	assert.True(t, p.Informative.ExecPath, "a bare --exec-path never takes the next argument")
	assert.Equal(t, "log", p.Command)
}

func TestParseInformative(t *testing.T) {
	for _, args := range [][]string{{"--version"}, {"--help"}, {"-h"}, {"--man-path"}, {"--html-path"}, {"--info-path"}, {"--list-cmds=main"}} {
		p, err := gitopt.Parse(args)
		require.NoError(t, err, "%v", args)
		assert.True(t, p.Informative.Any(), "%v", args)
	}
}

func TestParseUnknownOption(t *testing.T) {
	_, err := gitopt.Parse([]string{"--no-such-option", "log"})
	assert.Error(t, err)

	_, err = gitopt.Parse([]string{"-C"})
	assert.Error(t, err, "-C without a path")
}

func TestConfigAndLocationArgs(t *testing.T) {
	p, err := gitopt.Parse([]string{
		"-C", "sub", "-c", "user.name=fooUser", "--config-env=user.email=EMAIL",
		"--work-tree=w", "--git-dir=g", "-p", "commit", "--sub",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"-c", "user.name=fooUser", "--config-env=user.email=EMAIL"}, p.Opts.ConfigArgs())
	assert.Equal(t, []string{"--git-dir=g", "--work-tree=w"}, p.Opts.LocationArgs())
	assert.Equal(t, "/base/sub", p.Opts.StartDir("/base"))
}

func TestStartDir(t *testing.T) {
	p, err := gitopt.Parse([]string{"-C", "a", "-C", "", "-C", "../b", "-C", "c", "status"})
	require.NoError(t, err)
	assert.Equal(t, "/x/b/c", p.Opts.StartDir("/x"))

	p, err = gitopt.Parse([]string{"-C", "a", "-C", "/abs", "status"})
	require.NoError(t, err)
	assert.Equal(t, "/abs", p.Opts.StartDir("/x"))
}

func TestHasSub(t *testing.T) {
	assert.True(t, gitopt.HasSub([]string{"--sub"}))
	assert.True(t, gitopt.HasSub([]string{"-m", "x", "--sub"}))
	assert.False(t, gitopt.HasSub([]string{"--", "--sub"}))
	assert.False(t, gitopt.HasSub(nil))

	assert.Equal(t, []string{"-m", "x", "--", "--sub"}, gitopt.WithoutSub([]string{"--sub", "-m", "x", "--", "--sub"}))
}

func ptr[T any](v T) *T {
	return &v
}
