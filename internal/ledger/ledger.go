// Package ledger reads and writes the list of (subrepo path, commit) pairs
// that the parent repository records for its subrepos.
package ledger

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/objstore"
	"github.com/aviator-co/gift/internal/treegraft"
	"github.com/go-git/go-git/v5/plumbing"
	"gopkg.in/yaml.v3"
)

// Entry records the child commit last synced into the parent for Path.
type Entry struct {
	Path   string
	Commit string
}

type ParseError struct {
	File string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

var hashPattern = regexp.MustCompile(`^([0-9a-f]{40}|[0-9a-f]{64})$`)

// Ledger is ordered by first sync. The order is part of the file format.
type Ledger []Entry

// Parse parses a ledger file. Empty input is an empty ledger. name is only
// used in errors.
func Parse(name string, data []byte) (Ledger, error) {
	var pairs [][]string
	if err := yaml.Unmarshal(data, &pairs); err != nil {
		return nil, &ParseError{File: name, Msg: err.Error()}
	}
	l := make(Ledger, 0, len(pairs))
	seen := map[string]bool{}
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, &ParseError{File: name, Msg: fmt.Sprintf("entry %d: expected [path, commit]", i+1)}
		}
		if pair[0] == "" {
			return nil, &ParseError{File: name, Msg: fmt.Sprintf("entry %d: empty path", i+1)}
		}
		if !hashPattern.MatchString(pair[1]) {
			return nil, &ParseError{File: name, Msg: fmt.Sprintf("entry %d: invalid commit %q", i+1, pair[1])}
		}
		if seen[pair[0]] {
			return nil, &ParseError{File: name, Msg: fmt.Sprintf("duplicate entry for %q", pair[0])}
		}
		seen[pair[0]] = true
		l = append(l, Entry{Path: pair[0], Commit: pair[1]})
	}
	return l, nil
}

// Serialize produces the on-disk form:
//
//	- - <path>
//	  - <commit>
//
// An empty ledger serializes to "[]\n".
func (l Ledger) Serialize() ([]byte, error) {
	pairs := make([][]string, 0, len(l))
	for _, e := range l {
		pairs = append(pairs, []string{e.Path, e.Commit})
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(pairs); err != nil {
		return nil, errors.Wrap(err, "failed to encode ledger")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to encode ledger")
	}
	return buf.Bytes(), nil
}

// Lookup returns the commit recorded for path.
func (l Ledger) Lookup(path string) (string, bool) {
	for _, e := range l {
		if e.Path == path {
			return e.Commit, true
		}
	}
	return "", false
}

// Upsert returns a ledger with path recorded at commit. An existing entry
// keeps its position; a new one is appended. l is not modified.
func (l Ledger) Upsert(path, commit string) Ledger {
	out := make(Ledger, len(l), len(l)+1)
	copy(out, l)
	for i := range out {
		if out[i].Path == path {
			out[i].Commit = commit
			return out
		}
	}
	return append(out, Entry{Path: path, Commit: commit})
}

// Change is a difference between the ledger and a child's current HEAD.
// Old is empty if the ledger has no entry for Path.
type Change struct {
	Path string
	Old  string
	New  string
}

// Diff compares the ledger with the given child heads and returns, in the
// order of paths, every path whose head differs from its entry. Paths
// without a head (value "") are skipped.
func (l Ledger) Diff(paths []string, heads map[string]string) []Change {
	var changes []Change
	for _, p := range paths {
		head := heads[p]
		if head == "" {
			continue
		}
		old, _ := l.Lookup(p)
		if old != head {
			changes = append(changes, Change{Path: p, Old: old, New: head})
		}
	}
	return changes
}

// ReadFile reads the ledger from the working tree. A missing file is an empty
// ledger.
func ReadFile(path string) (Ledger, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapIff(err, "failed to read %s", path)
	}
	return Parse(path, data)
}

// Load reads the ledger stored at path inside the tree of commit. A zero
// commit (unborn parent) or a missing file is an empty ledger.
func Load(ctx context.Context, store objstore.Store, commit plumbing.Hash, path string) (Ledger, error) {
	if commit.IsZero() {
		return nil, nil
	}
	c, err := store.ReadCommit(ctx, commit)
	if err != nil {
		return nil, err
	}
	e, ok, err := treegraft.Lookup(ctx, store, c.Tree, path)
	if err != nil || !ok || e.IsTree() {
		return nil, err
	}
	data, err := store.ReadBlob(ctx, e.Hash)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}
