package subrepo_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aviator-co/gift/internal/git"
	"github.com/aviator-co/gift/internal/git/gittest"
	"github.com/aviator-co/gift/internal/mapping"
	"github.com/aviator-co/gift/internal/subrepo"
	"github.com/aviator-co/gift/internal/utils/errutils"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	super    *git.Repo
	bar      *git.Repo
	wow      *git.Repo
	progress bytes.Buffer
}

// newFixture creates a parent with two mapped (but not yet initialized)
// subrepos, foo/bar and foo/wow, and their upstreams.
func newFixture(t *testing.T) *fixture {
	super := gittest.NewTempRepo(t)
	f := &fixture{
		super: super,
		bar:   gittest.NewUpstream(t, super, "bargit", map[string]string{"bar": "bar\n"}),
		wow:   gittest.NewUpstream(t, super, "wowgit", map[string]string{"wow": "wow\n"}),
	}
	gittest.CreateFile(t, super, "imsuperman", []byte("super\n"))
	gittest.CreateFile(t, super, ".gift", []byte("dirs:\n  foo/bar: ../bargit@master\n  foo/wow: ../wowgit\n"))
	gittest.Commit(t, super, "add super")
	return f
}

func (f *fixture) engine(t *testing.T) *subrepo.Engine {
	return newEngine(t, f.super, &f.progress)
}

func newEngine(t *testing.T, repo *git.Repo, progress *bytes.Buffer) *subrepo.Engine {
	loc, err := git.Discover(t.Context(), git.DiscoverOpts{Dir: repo.Dir()})
	require.NoError(t, err)
	e, err := subrepo.New(subrepo.Opts{
		Parent:   mapping.Parent{GitDir: loc.GitDir, WorkTree: loc.WorkTree},
		Layout:   mapping.DefaultLayout(),
		Progress: progress,
	})
	require.NoError(t, err)
	return e
}

// child opens the subrepo at p, as if working from inside its working tree.
func child(t *testing.T, e *subrepo.Engine, p string) *git.Repo {
	m, ok := e.Mappings().Find(p)
	require.True(t, ok, "no mapping for %s", p)
	sb := e.Resolver().Subrepo(m)
	return git.OpenRepo(git.RepoOpts{Name: p, Dir: sb.WorkTree, GitDir: sb.GitDir, WorkTree: sb.WorkTree})
}

func lsFiles(t *testing.T, repo *git.Repo) []string {
	out, err := repo.Git(t.Context(), "ls-files")
	require.NoError(t, err)
	return strings.Split(out, "\n")
}

func TestInit(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	barHead := gittest.Head(t, f.bar)
	wowHead := gittest.Head(t, f.wow)

	for i := 0; i < 2; i++ {
		require.NoError(t, e.Init(t.Context()), "init #%d", i+1)

		assert.Equal(t, "bar\n", gittest.ReadFile(t, f.super, "foo/bar/bar"))
		assert.Equal(t, "wow\n", gittest.ReadFile(t, f.super, "foo/wow/wow"))

		bar := child(t, e, "foo/bar")
		branch, err := bar.CurrentBranchName(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "master", branch)
		assert.Equal(t, barHead, gittest.Head(t, bar), "no new child commits")
		assert.Equal(t, barHead, gittest.Rev(t, bar, "refs/remotes/super/head"))
		assert.Equal(t, wowHead, gittest.Rev(t, child(t, e, "foo/wow"), "refs/remotes/super/head"))

		assert.Equal(t, []string{".gift", "imsuperman"}, lsFiles(t, f.super), "the parent index is untouched")
	}

	progress := f.progress.String()
	assert.Equal(t, 1, strings.Count(progress, "GIFT: foo/bar: add remote: origin ../bargit"), progress)
	assert.Equal(t, 1, strings.Count(progress, "GIFT: foo/bar: fetch origin ../bargit"), progress)
}

func TestInitUpdatesRemoteURL(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine(t).Init(t.Context()))

	gittest.CreateFile(t, f.super, ".gift", []byte("dirs:\n  foo/bar: ../bargit/@master\n  foo/wow: ../wowgit\n"))
	var progress bytes.Buffer
	e := newEngine(t, f.super, &progress)
	require.NoError(t, e.Init(t.Context()))
	assert.Contains(t, progress.String(), "GIFT: foo/bar: set remote url: origin ../bargit/\n")
	assert.NotContains(t, progress.String(), "foo/wow: set remote url")

	url, err := child(t, e, "foo/bar").RemoteURL(t.Context(), "origin")
	require.NoError(t, err)
	assert.Equal(t, "../bargit/", url)
}

func TestInitDoesNotCheckoutTwice(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	require.NoError(t, e.Init(t.Context()))

	require.NoError(t, os.Remove(filepath.Join(f.super.Dir(), "foo", "bar", "bar")))
	require.NoError(t, e.Init(t.Context()))
	assert.NoFileExists(t, filepath.Join(f.super.Dir(), "foo", "bar", "bar"))
}

func TestInitWithPartialStorage(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	m, _ := e.Mappings().Find("foo/bar")
	sb := e.Resolver().Subrepo(m)

	// Storage and remote exist already, as if a previous init was interrupted.
	_, err := f.super.Git(t.Context(), "init", "--quiet", "--bare", sb.GitDir)
	require.NoError(t, err)
	bare := git.OpenRepo(git.RepoOpts{Dir: f.super.Dir(), GitDir: sb.GitDir})
	require.NoError(t, bare.AddRemote(t.Context(), "origin", "../bargit"))

	require.NoError(t, e.Init(t.Context()))
	assert.Equal(t, "bar\n", gittest.ReadFile(t, f.super, "foo/bar/bar"))
	assert.NotContains(t, f.progress.String(), "GIFT: foo/bar: add remote")
}

func TestCommit(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	require.NoError(t, e.Init(t.Context()))
	barHead := gittest.Head(t, f.bar)
	wowHead := gittest.Head(t, f.wow)
	before := gittest.Head(t, f.super)

	res, err := e.Commit(t.Context(), subrepo.CommitOpts{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Commit)
	assert.Equal(t, res.Commit, gittest.Head(t, f.super))
	assert.Equal(t, before, gittest.Rev(t, f.super, "HEAD~"))

	assert.Equal(t,
		"- - foo/bar\n  - "+barHead+"\n- - foo/wow\n  - "+wowHead+"\n",
		gittest.ReadFile(t, f.super, ".gift-refs"))
	assert.Equal(t,
		[]string{".gift", ".gift-refs", "foo/bar/bar", "foo/wow/wow", "imsuperman"},
		lsFiles(t, f.super))
	assert.Equal(t, gittest.Rev(t, f.bar, "HEAD^{tree}"), gittest.Rev(t, f.super, "HEAD:foo/bar"))

	st, err := f.super.Status(t.Context())
	require.NoError(t, err)
	assert.True(t, st.IsClean(), "%+v", st)

	msg, err := f.super.Git(t.Context(), "log", "-1", "--format=%B")
	require.NoError(t, err)
	assert.Contains(t, msg, "gift: sync subrepos")
	assert.Contains(t, msg, "foo/bar: (new) -> "+git.ShortSha(barHead))

	// Nothing changed: no new commit.
	again, err := e.Commit(t.Context(), subrepo.CommitOpts{})
	require.NoError(t, err)
	assert.Empty(t, again.Commit)
	assert.Equal(t, res.Commit, gittest.Head(t, f.super))
}

func TestCommitRecordsChildCommits(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	require.NoError(t, e.Init(t.Context()))
	_, err := e.Commit(t.Context(), subrepo.CommitOpts{})
	require.NoError(t, err)
	wowHead := gittest.Head(t, f.wow)

	bar := child(t, e, "foo/bar")
	gittest.CreateFile(t, f.super, "foo/bar/newbar", []byte("newbar"))
	_, err = bar.Git(t.Context(), "add", "newbar")
	require.NoError(t, err)
	_, err = bar.Git(t.Context(), "commit", "--quiet", "-m", "add newbar")
	require.NoError(t, err)
	newHead := gittest.Head(t, bar)

	res, err := e.Commit(t.Context(), subrepo.CommitOpts{Message: "record newbar"})
	require.NoError(t, err)
	require.Len(t, res.Changes, 1)
	assert.Equal(t, "foo/bar", res.Changes[0].Path)
	assert.Equal(t, newHead, res.Changes[0].New)

	assert.Equal(t,
		"- - foo/bar\n  - "+newHead+"\n- - foo/wow\n  - "+wowHead+"\n",
		gittest.ReadFile(t, f.super, ".gift-refs"), "entries keep their position")
	assert.Equal(t, newHead, gittest.Rev(t, bar, "refs/remotes/super/head"))
	assert.Equal(t, newHead, gittest.Rev(t, f.super, "refs/gift/sub/foo/bar"))

	msg, err := f.super.Git(t.Context(), "log", "-1", "--format=%s")
	require.NoError(t, err)
	assert.Equal(t, "record newbar", msg)
}

func TestCommitIncludesStagedChanges(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	require.NoError(t, e.Init(t.Context()))
	gittest.CreateFile(t, f.super, "staged", []byte("s"))
	gittest.AddFile(t, f.super, "staged")
	gittest.CreateFile(t, f.super, "unstaged", []byte("u"))

	_, err := e.Commit(t.Context(), subrepo.CommitOpts{})
	require.NoError(t, err)
	files := lsFiles(t, f.super)
	assert.Contains(t, files, "staged")
	assert.NotContains(t, files, "unstaged")
	assert.FileExists(t, filepath.Join(f.super.Dir(), "unstaged"))
}

func TestCommitEdit(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	require.NoError(t, e.Init(t.Context()))
	before := gittest.Head(t, f.super)

	_, err := e.Commit(t.Context(), subrepo.CommitOpts{
		Edit: func(context.Context, string) (string, error) { return "\n", nil },
	})
	require.Error(t, err)
	assert.Equal(t, before, gittest.Head(t, f.super), "an empty message aborts")

	var offered string
	_, err = e.Commit(t.Context(), subrepo.CommitOpts{
		Edit: func(_ context.Context, msg string) (string, error) {
			offered = msg
			return "vendor bar and wow", nil
		},
	})
	require.NoError(t, err)
	assert.Contains(t, offered, "gift: sync subrepos")
	msg, err := f.super.Git(t.Context(), "log", "-1", "--format=%B")
	require.NoError(t, err)
	assert.Equal(t, "vendor bar and wow", msg)
}

func TestCommitUninitialized(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	before := gittest.Head(t, f.super)
	_, err := e.Commit(t.Context(), subrepo.CommitOpts{})
	require.Error(t, err)
	assert.True(t, subrepo.IsPrecondition(err), "%v", err)
	assert.Equal(t, before, gittest.Head(t, f.super))
}

func TestNoMappings(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	e := newEngine(t, repo, &bytes.Buffer{})
	for name, op := range map[string]func() error{
		"init":   func() error { return e.Init(t.Context()) },
		"fetch":  func() error { return e.Fetch(t.Context()) },
		"merge":  func() error { return e.Merge(t.Context()) },
		"reset":  func() error { return e.Reset(t.Context(), subrepo.ResetOpts{}) },
		"commit": func() error { _, err := e.Commit(t.Context(), subrepo.CommitOpts{}); return err },
	} {
		err := op()
		perr, ok := errutils.As[*subrepo.PreconditionError](err)
		require.True(t, ok, "%s: %v", name, err)
		assert.Equal(t, "No .gift found in:"+repo.Dir(), perr.Msg, name)
		assert.Equal(t, "gift clone --sub <url> <path>", perr.Hint, name)
	}
}

func TestFetchAndMerge(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	require.NoError(t, e.Init(t.Context()))
	_, err := e.Commit(t.Context(), subrepo.CommitOpts{})
	require.NoError(t, err)
	recorded := gittest.Head(t, f.bar)
	ledgerBefore := gittest.ReadFile(t, f.super, ".gift-refs")

	upstreamHead := gittest.CommitFile(t, f.bar, "for_fetch", []byte("for_fetch"))
	bar := child(t, e, "foo/bar")

	require.NoError(t, e.Fetch(t.Context()))
	assert.Equal(t, upstreamHead, gittest.Rev(t, bar, "origin/master"))
	assert.Equal(t, recorded, gittest.Head(t, bar), "fetch leaves HEAD alone")
	assert.NoFileExists(t, filepath.Join(f.super.Dir(), "foo", "bar", "for_fetch"))

	require.NoError(t, e.Merge(t.Context()))
	assert.Equal(t, upstreamHead, gittest.Head(t, bar))
	assert.FileExists(t, filepath.Join(f.super.Dir(), "foo", "bar", "for_fetch"))
	assert.Equal(t, recorded, gittest.Rev(t, bar, "refs/remotes/super/head"), "merge does not record")
	assert.Equal(t, ledgerBefore, gittest.ReadFile(t, f.super, ".gift-refs"))

	f.progress.Reset()
	require.NoError(t, e.Merge(t.Context()))
	assert.Equal(t, upstreamHead, gittest.Head(t, bar))
	assert.Contains(t, f.progress.String(), "GIFT: foo/bar: already up to date with origin/master\n")

	res, err := e.Commit(t.Context(), subrepo.CommitOpts{})
	require.NoError(t, err)
	msg, err := f.super.Git(t.Context(), "log", "-1", "--format=%B", res.Commit)
	require.NoError(t, err)
	assert.Contains(t, msg, "foo/bar: "+git.ShortSha(recorded)+" -> "+git.ShortSha(upstreamHead))
	assert.Contains(t, msg, "  "+git.ShortSha(upstreamHead)+" ")
}

func TestMergeConflict(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	require.NoError(t, e.Init(t.Context()))

	gittest.CommitFile(t, f.bar, "bar", []byte("upstream\n"))
	bar := child(t, e, "foo/bar")
	gittest.CreateFile(t, f.super, "foo/bar/bar", []byte("local\n"))
	_, err := bar.Git(t.Context(), "commit", "--quiet", "-am", "local change")
	require.NoError(t, err)

	require.NoError(t, e.Fetch(t.Context()))
	err = e.Merge(t.Context())
	require.Error(t, err)
	cmdErr, ok := errutils.As[*git.CommandError](err)
	require.True(t, ok, "%v", err)
	assert.Equal(t, 1, cmdErr.ExitCode)
}

func TestResetRollback(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	require.NoError(t, e.Init(t.Context()))
	_, err := e.Commit(t.Context(), subrepo.CommitOpts{})
	require.NoError(t, err)
	bar := child(t, e, "foo/bar")
	h0 := gittest.Head(t, bar)

	h1 := gittest.CommitFile(t, f.bar, "for_fetch", []byte("for_fetch"))
	require.NoError(t, e.Fetch(t.Context()))
	_, err = bar.Git(t.Context(), "merge", "--quiet", "origin/master")
	require.NoError(t, err)
	require.Equal(t, h1, gittest.Head(t, bar))

	f.progress.Reset()
	require.NoError(t, e.Reset(t.Context(), subrepo.ResetOpts{}))
	assert.Equal(t, h0, gittest.Head(t, bar))
	assert.Equal(t, h0, gittest.Rev(t, bar, "refs/remotes/super/head"))
	assert.NoFileExists(t, filepath.Join(f.super.Dir(), "foo", "bar", "for_fetch"))
	assert.Contains(t, f.progress.String(), "GIFT: foo/bar: reset to "+git.ShortSha(h0)+", dropping 1 commit\n")
	assert.Contains(t, f.progress.String(), "GIFT: foo/wow: reset to ")
}

func TestResetRefusesDirtySubrepo(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	require.NoError(t, e.Init(t.Context()))
	_, err := e.Commit(t.Context(), subrepo.CommitOpts{})
	require.NoError(t, err)

	gittest.CreateFile(t, f.super, "foo/bar/bar", []byte("edited\n"))
	err = e.Reset(t.Context(), subrepo.ResetOpts{})
	require.Error(t, err)
	assert.True(t, subrepo.IsPrecondition(err), "%v", err)
	assert.Contains(t, err.Error(), "foo/bar")
	assert.Equal(t, "edited\n", gittest.ReadFile(t, f.super, "foo/bar/bar"))

	require.NoError(t, e.Reset(t.Context(), subrepo.ResetOpts{Force: true}))
	assert.Equal(t, "bar\n", gittest.ReadFile(t, f.super, "foo/bar/bar"))
}

func TestParentHeadChangeRepopulatesTrackingRef(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	require.NoError(t, e.Init(t.Context()))
	_, err := e.Commit(t.Context(), subrepo.CommitOpts{})
	require.NoError(t, err)
	bar := child(t, e, "foo/bar")
	h0 := gittest.Rev(t, bar, "refs/remotes/super/head")

	gittest.CreateFile(t, f.super, "foo/bar/newbar", []byte("newbar"))
	_, err = bar.Git(t.Context(), "add", "newbar")
	require.NoError(t, err)
	_, err = bar.Git(t.Context(), "commit", "--quiet", "-m", "add newbar")
	require.NoError(t, err)
	_, err = e.Commit(t.Context(), subrepo.CommitOpts{})
	require.NoError(t, err)
	h1 := gittest.Rev(t, bar, "refs/remotes/super/head")
	require.NotEqual(t, h0, h1)

	_, err = f.super.Git(t.Context(), "reset", "--quiet", "HEAD~")
	require.NoError(t, err)
	require.NoError(t, e.PopulateTrackingRefs(t.Context()))
	assert.Equal(t, h0, gittest.Rev(t, bar, "refs/remotes/super/head"))
	assert.Equal(t, h1, gittest.Head(t, bar), "the child itself is not touched")
}

func TestInitRestoresTrackingRef(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	require.NoError(t, e.Init(t.Context()))
	_, err := e.Commit(t.Context(), subrepo.CommitOpts{})
	require.NoError(t, err)
	bar := child(t, e, "foo/bar")
	recorded := gittest.Rev(t, bar, "refs/remotes/super/head")

	gittest.CommitFile(t, f.super, "foo/bar/newbar", []byte("newbar"))
	require.NoError(t, bar.DeleteRef(t.Context(), "refs/remotes/super/head"))

	require.NoError(t, e.Init(t.Context()))
	assert.Equal(t, recorded, gittest.Rev(t, bar, "refs/remotes/super/head"))
}

func TestClone(t *testing.T) {
	super := gittest.NewTempRepo(t)
	bar := gittest.NewUpstream(t, super, "bargit", map[string]string{"bar": "bar\n"})
	var progress bytes.Buffer
	e := newEngine(t, super, &progress)

	res, err := e.Clone(t.Context(), subrepo.CloneOpts{Source: "../bargit@master", Path: "path/to/bar"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Commit)

	out := progress.String()
	assert.Contains(t, out, "GIFT: path/to/bar: add remote: origin ../bargit")
	assert.Contains(t, out, "GIFT: path/to/bar: fetch origin ../bargit")
	assert.Contains(t, out, "From ../bargit")

	assert.Equal(t, []string{".gift", ".gift-refs", "path/to/bar/bar"}, lsFiles(t, super))
	assert.Equal(t, "dirs:\n  path/to/bar: ../bargit@master\n", gittest.ReadFile(t, super, ".gift"))
	assert.Equal(t, "- - path/to/bar\n  - "+gittest.Head(t, bar)+"\n", gittest.ReadFile(t, super, ".gift-refs"))
	assert.Equal(t, "bar\n", gittest.ReadFile(t, super, "path/to/bar/bar"))

	states, err := e.States(t.Context())
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, subrepo.Synced, states[0].Kind)
}

func TestCloneFailureRestoresMappingFile(t *testing.T) {
	super := gittest.NewTempRepo(t)
	gittest.CreateFile(t, super, ".gift", []byte("dirs:\n"))
	gittest.Commit(t, super, "empty mapping")
	e := newEngine(t, super, &bytes.Buffer{})

	_, err := e.Clone(t.Context(), subrepo.CloneOpts{Source: "../nope@master", Path: "nope"})
	require.Error(t, err)
	assert.Equal(t, "dirs:\n", gittest.ReadFile(t, super, ".gift"))
	st, err := super.Status(t.Context())
	require.NoError(t, err)
	assert.Empty(t, st.StagedTrackedFiles)
}

func TestCloneRejectsExistingPath(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	for _, p := range []string{"foo/bar", "foo/bar/inner", "foo"} {
		_, err := e.Clone(t.Context(), subrepo.CloneOpts{Source: "../bargit", Path: p})
		assert.True(t, subrepo.IsPrecondition(err), "%s: %v", p, err)
	}
}

func TestNestedMappingsAreRejected(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine(t).Init(t.Context()))
	before := gittest.Head(t, f.super)

	e := f.engine(t)
	_, err := e.Clone(t.Context(), subrepo.CloneOpts{Source: "../bargit", Path: "foo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foo contains subrepo foo/bar")
	_, err = e.Clone(t.Context(), subrepo.CloneOpts{Source: "../bargit", Path: "foo/bar/baz"})
	require.Error(t, err)
	assert.True(t, subrepo.IsPrecondition(err), "%v", err)
	assert.Contains(t, err.Error(), "foo/bar/baz is inside subrepo foo/bar")
	assert.Equal(t, before, gittest.Head(t, f.super))
	assert.Equal(t, "dirs:\n  foo/bar: ../bargit@master\n  foo/wow: ../wowgit\n", gittest.ReadFile(t, f.super, ".gift"))

	gittest.CreateFile(t, f.super, ".gift", []byte("dirs:\n  foo: ../bargit\n  foo/bar: ../bargit\n"))
	loc, err := git.Discover(t.Context(), git.DiscoverOpts{Dir: f.super.Dir()})
	require.NoError(t, err)
	_, err = subrepo.New(subrepo.Opts{
		Parent: mapping.Parent{GitDir: loc.GitDir, WorkTree: loc.WorkTree},
		Layout: mapping.DefaultLayout(),
	})
	var perr *mapping.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Msg, "overlaps")
}

func TestResetSkipsUnrecordedUninitialized(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	require.NoError(t, e.Init(t.Context()))
	_, err := e.Commit(t.Context(), subrepo.CommitOpts{})
	require.NoError(t, err)
	bar := child(t, e, "foo/bar")
	recorded := gittest.Head(t, bar)
	gittest.CreateFile(t, f.super, "foo/bar/local", []byte("local"))
	_, err = bar.Git(t.Context(), "add", "local")
	require.NoError(t, err)
	_, err = bar.Git(t.Context(), "commit", "--quiet", "-m", "local")
	require.NoError(t, err)

	gittest.CreateFile(t, f.super, ".gift",
		[]byte("dirs:\n  foo/bar: ../bargit@master\n  foo/wow: ../wowgit\n  later: ../latergit\n"))
	e = f.engine(t)
	require.NoError(t, e.Reset(t.Context(), subrepo.ResetOpts{}))
	assert.Equal(t, recorded, gittest.Head(t, bar))
}

func TestTrackingRefWarnsAboutMissingCommit(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	require.NoError(t, e.Init(t.Context()))
	bar := child(t, e, "foo/bar")
	tracking := gittest.Rev(t, bar, "refs/remotes/super/head")

	// Record a commit the child has never seen.
	unknown := gittest.Head(t, f.super)
	gittest.CreateFile(t, f.super, ".gift-refs", []byte("- - foo/bar\n  - "+unknown+"\n"))
	_, err := f.super.Git(t.Context(), "add", ".gift-refs")
	require.NoError(t, err)
	_, err = f.super.Git(t.Context(), "commit", "--quiet", "-m", "record unknown")
	require.NoError(t, err)

	hook := logtest.NewGlobal()
	defer hook.Reset()
	require.NoError(t, e.PopulateTrackingRefs(t.Context()))
	assert.Equal(t, tracking, gittest.Rev(t, bar, "refs/remotes/super/head"))

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Data["subrepo"] == "foo/bar" {
			warned = true
			assert.Equal(t, unknown, entry.Data["commit"])
		}
	}
	assert.True(t, warned, "missing commit is reported")
}

func TestInitAdoptsCheckedOutFiles(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)
	require.NoError(t, e.Init(t.Context()))
	_, err := e.Commit(t.Context(), subrepo.CommitOpts{})
	require.NoError(t, err)
	recorded := gittest.Head(t, f.bar)
	// Move the upstream so that the recorded commit is not its head.
	gittest.CommitFile(t, f.bar, "later", []byte("later"))

	// A fresh clone of the parent has the subrepo files but no child storage.
	dir := filepath.Join(filepath.Dir(f.super.Dir()), "clone")
	_, err = f.super.Git(t.Context(), "clone", "--quiet", f.super.Dir(), dir)
	require.NoError(t, err)
	clone := git.OpenRepo(git.RepoOpts{Dir: dir})
	var progress bytes.Buffer
	ce := newEngine(t, clone, &progress)

	states, err := ce.States(t.Context())
	require.NoError(t, err)
	assert.Equal(t, subrepo.Uninitialized, states[0].Kind)

	require.NoError(t, ce.Init(t.Context()))
	bar := child(t, ce, "foo/bar")
	assert.Equal(t, recorded, gittest.Head(t, bar), "the branch points at the recorded commit")
	assert.NoFileExists(t, filepath.Join(dir, "foo", "bar", "later"))
	st, err := bar.Status(t.Context())
	require.NoError(t, err)
	assert.True(t, st.IsClean(), "%+v", st)

	states, err = ce.States(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []subrepo.StateKind{subrepo.Synced, subrepo.Synced}, []subrepo.StateKind{states[0].Kind, states[1].Kind})
}

func TestStates(t *testing.T) {
	f := newFixture(t)
	e := f.engine(t)

	st, err := e.StateOf(t.Context(), filepath.Join(f.super.Dir(), "imsuperman"))
	require.NoError(t, err)
	assert.Equal(t, subrepo.Unconfigured, st.Kind)

	st, err = e.StateOf(t.Context(), filepath.Join(f.super.Dir(), "foo", "bar"))
	require.NoError(t, err)
	assert.Equal(t, subrepo.Uninitialized, st.Kind)

	require.NoError(t, e.Init(t.Context()))
	st, err = e.StateOf(t.Context(), filepath.Join(f.super.Dir(), "foo", "bar", "bar"))
	require.NoError(t, err)
	assert.Equal(t, subrepo.Initialized, st.Kind)

	_, err = e.Commit(t.Context(), subrepo.CommitOpts{})
	require.NoError(t, err)
	st, err = e.StateOf(t.Context(), filepath.Join(f.super.Dir(), "foo", "bar"))
	require.NoError(t, err)
	assert.Equal(t, subrepo.Synced, st.Kind)

	gittest.CreateFile(t, f.super, "foo/bar/newbar", []byte("newbar"))
	bar := child(t, e, "foo/bar")
	_, err = bar.Git(t.Context(), "add", "newbar")
	require.NoError(t, err)
	_, err = bar.Git(t.Context(), "commit", "--quiet", "-m", "add newbar")
	require.NoError(t, err)
	st, err = e.StateOf(t.Context(), filepath.Join(f.super.Dir(), "foo", "bar"))
	require.NoError(t, err)
	assert.Equal(t, subrepo.Diverged, st.Kind)
	assert.Equal(t, 1, st.Ahead)
}
