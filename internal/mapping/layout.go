package mapping

import (
	"path"
	"path/filepath"
)

// Layout fixes the names gift uses inside parent and child repositories.
// It is built once from configuration and passed explicitly to every
// component that needs it.
type Layout struct {
	// Namespace is gift's directory inside the parent's git dir and the first
	// component of its refs (refs/<namespace>/sub/<path>).
	Namespace string
	// Remote is the name of the upstream remote inside each child.
	Remote string
	// DefaultBranch is used when a mapping value has no "@branch" suffix.
	DefaultBranch string
	// MappingFile and LedgerFile are slash-separated paths relative to the
	// parent working tree root.
	MappingFile string
	LedgerFile  string
	// TrackingRef is the ref inside each child that caches the commit the
	// parent's ledger records for it.
	TrackingRef string
}

func DefaultLayout() Layout {
	return Layout{
		Namespace:     "gift",
		Remote:        "origin",
		DefaultBranch: "master",
		MappingFile:   ".gift",
		LedgerFile:    ".gift-refs",
		TrackingRef:   "refs/remotes/super/head",
	}
}

// ChildGitDir returns the child's storage location relative to the parent's
// git dir. Child object stores live inside the parent's storage rather than
// in the visible working tree so the parent never sees a nested .git.
func (l Layout) ChildGitDir(mappingPath string) string {
	return path.Join(l.Namespace, "subdir", mappingPath)
}

// RefHead returns the ref inside the PARENT that pins the child commit last
// grafted into the parent's tree.
func (l Layout) RefHead(mappingPath string) string {
	return path.Join("refs", l.Namespace, "sub", mappingPath)
}

// ConfigDir returns gift's per-repository config directory.
func (l Layout) ConfigDir(parentGitDir string) string {
	return filepath.Join(parentGitDir, l.Namespace)
}
