package mapping

import (
	"path/filepath"
	"strings"
)

// Parent locates the parent repository on disk.
type Parent struct {
	// GitDir is the absolute path of the parent's storage directory.
	GitDir string
	// WorkTree is the absolute path of the parent's working tree root.
	WorkTree string
}

// Subrepo is a mapping resolved against a concrete parent. It is derived and
// never persisted.
type Subrepo struct {
	Mapping
	// GitDir is the absolute path of the child's storage.
	GitDir string
	// RelGitDir is GitDir relative to the parent's git dir.
	RelGitDir string
	// WorkTree is the absolute path of the child's working tree.
	WorkTree string
	// RefHead is the parent-side ref pinning the last grafted child commit.
	RefHead string
	// TrackingRef is the child-side ref caching the parent's ledger entry.
	TrackingRef string
	// Remote is the child's upstream remote name.
	Remote string
	// Env addresses the child's storage and working tree independent of the
	// process' working directory. BareEnv addresses the storage only.
	Env     []string
	BareEnv []string
}

// Resolver resolves filesystem paths and mappings to Subrepos.
type Resolver struct {
	Parent   Parent
	Layout   Layout
	Mappings Mappings
}

// Subrepo resolves a single mapping.
func (r *Resolver) Subrepo(m Mapping) *Subrepo {
	rel := r.Layout.ChildGitDir(m.Path)
	gitDir := filepath.Join(r.Parent.GitDir, filepath.FromSlash(rel))
	workTree := filepath.Join(r.Parent.WorkTree, filepath.FromSlash(m.Path))
	return &Subrepo{
		Mapping:     m,
		GitDir:      gitDir,
		RelGitDir:   rel,
		WorkTree:    workTree,
		RefHead:     r.Layout.RefHead(m.Path),
		TrackingRef: r.Layout.TrackingRef,
		Remote:      r.Layout.Remote,
		Env:         []string{"GIT_DIR=" + gitDir, "GIT_WORK_TREE=" + workTree},
		BareEnv:     []string{"GIT_DIR=" + gitDir},
	}
}

// Resolve finds the mapping that governs absPath: the mapping with the
// longest path that is absPath itself or one of its ancestors, relative to
// the parent working tree. It returns the mapping path and the resolved
// subrepo, or ("", nil) if absPath is not inside any subrepo. That is
// the common case and not an error.
func (r *Resolver) Resolve(absPath string) (string, *Subrepo) {
	if r.Parent.WorkTree == "" {
		return "", nil
	}
	rel, err := filepath.Rel(r.Parent.WorkTree, absPath)
	if err != nil {
		return "", nil
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", nil
	}
	m, ok := r.Mappings.Longest(rel)
	if !ok {
		return "", nil
	}
	return m.Path, r.Subrepo(m)
}
