package git

import (
	"context"
	"strings"
)

// GitStatus is the state of a working tree, as reported by
// `git status --porcelain=v2 --branch`.
type GitStatus struct {
	// OID is the commit HEAD points at, or "" before the first commit.
	OID string
	// CurrentBranch is the short name of the checked out branch, or "" if
	// HEAD is detached.
	CurrentBranch string

	UnstagedTrackedFiles []string
	StagedTrackedFiles   []string
	UnmergedFiles        []string
	UntrackedFiles       []string
}

// IsCleanIgnoringUntracked reports whether the index and the tracked files
// match HEAD.
func (st GitStatus) IsCleanIgnoringUntracked() bool {
	return len(st.UnstagedTrackedFiles) == 0 && len(st.StagedTrackedFiles) == 0 &&
		len(st.UnmergedFiles) == 0
}

func (st GitStatus) IsClean() bool {
	return st.IsCleanIgnoringUntracked() && len(st.UntrackedFiles) == 0
}

func (r *Repo) Status(ctx context.Context) (GitStatus, error) {
	body, err := r.Git(ctx, "status", "--porcelain=v2", "--branch", "--untracked-files")
	if err != nil {
		return GitStatus{}, err
	}
	var st GitStatus
	for _, line := range strings.Split(body, "\n") {
		st.parseLine(line)
	}
	return st, nil
}

// Number of space separated fields (the last being the path) of the
// porcelain v2 entry kinds.
const (
	ordinaryFields = 9
	renamedFields  = 10
	unmergedFields = 11
)

func (st *GitStatus) parseLine(line string) {
	kind, rest, ok := strings.Cut(line, " ")
	if !ok {
		return
	}
	switch kind {
	case "#":
		key, value, _ := strings.Cut(rest, " ")
		switch key {
		case "branch.oid":
			if value == "(initial)" {
				value = ""
			}
			st.OID = value
		case "branch.head":
			if value == "(detached)" {
				value = ""
			}
			st.CurrentBranch = value
		}
	case "1", "2":
		n := ordinaryFields
		if kind == "2" {
			n = renamedFields
		}
		fields := strings.SplitN(line, " ", n)
		if len(fields) != n {
			return
		}
		// Renames end in "<path>\t<original path>".
		path, _, _ := strings.Cut(fields[n-1], "\t")
		xy := fields[1]
		if xy[0] != '.' {
			st.StagedTrackedFiles = append(st.StagedTrackedFiles, path)
		}
		if xy[1] != '.' {
			st.UnstagedTrackedFiles = append(st.UnstagedTrackedFiles, path)
		}
	case "u":
		fields := strings.SplitN(line, " ", unmergedFields)
		if len(fields) == unmergedFields {
			st.UnmergedFiles = append(st.UnmergedFiles, fields[unmergedFields-1])
		}
	case "?":
		st.UntrackedFiles = append(st.UntrackedFiles, rest)
	}
}
