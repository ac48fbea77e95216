package git

import (
	"context"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
)

type DiscoverOpts struct {
	// Dir is where discovery starts.
	Dir string
	// GlobalArgs are git options that influence discovery (-C, --git-dir,
	// --work-tree, -c, ...). They are passed to git unchanged.
	GlobalArgs []string
	Command    []string
}

// Location describes where a repository lives on disk.
type Location struct {
	// GitDir is the absolute path of the repository storage.
	GitDir string
	// WorkTree is the absolute path of the working tree root. It is empty
	// when discovery started inside GitDir or in a bare repository.
	WorkTree string
	// InsideGitDir is true if discovery started inside the storage directory
	// rather than a working tree.
	InsideGitDir bool
}

// Discover locates the repository containing opts.Dir. It returns
// ErrNotARepository if there is none.
func Discover(ctx context.Context, opts DiscoverOpts) (*Location, error) {
	probe := OpenRepo(RepoOpts{Dir: opts.Dir, GlobalArgs: opts.GlobalArgs, Command: opts.Command})
	out, err := probe.Run(ctx, &RunOpts{
		Args: []string{"rev-parse", "--is-inside-git-dir", "--is-inside-work-tree", "--absolute-git-dir"},
	})
	if err != nil {
		return nil, err
	}
	if out.ExitCode != 0 {
		if strings.Contains(string(out.Stderr), "not a git repository") {
			return nil, ErrNotARepository
		}
		return nil, &CommandError{Args: []string{"rev-parse"}, ExitCode: out.ExitCode, Stderr: string(out.Stderr)}
	}
	lines := out.Lines()
	if len(lines) != 3 {
		return nil, errors.Errorf("unexpected rev-parse output: %q", out.Stdout)
	}
	loc := &Location{
		InsideGitDir: lines[0] == "true",
		GitDir:       filepath.Clean(lines[2]),
	}
	if lines[1] != "true" {
		return loc, nil
	}
	top, err := probe.Git(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, err
	}
	loc.WorkTree = filepath.Clean(top)
	return loc, nil
}
