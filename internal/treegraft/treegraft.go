// Package treegraft composes tree objects: it replaces the entry at an
// arbitrary path of a root tree and returns the new root, writing only the
// trees along that path.
package treegraft

import (
	"context"
	"strings"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/objstore"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// SplitPath splits a slash-separated tree path into its segments.
func SplitPath(p string) ([]string, error) {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil, errors.New("empty tree path")
	}
	segs := strings.Split(p, "/")
	for _, seg := range segs {
		if seg == "" || seg == "." || seg == ".." {
			return nil, errors.Errorf("invalid tree path %q", p)
		}
	}
	return segs, nil
}

// Graft returns a new root tree in which the entry at path is a subtree with
// hash replacement. Intermediate trees are created as needed. A non-tree
// entry found along the path (or at it) is discarded and replaced by a tree.
// Every other entry is preserved.
//
// A zero root means the empty tree.
func Graft(ctx context.Context, store objstore.Store, root plumbing.Hash, path string, replacement plumbing.Hash) (plumbing.Hash, error) {
	return Put(ctx, store, root, path, objstore.TreeEntry{Mode: filemode.Dir, Hash: replacement})
}

// PutBlob is like Graft but places a regular file at path.
func PutBlob(ctx context.Context, store objstore.Store, root plumbing.Hash, path string, blob plumbing.Hash) (plumbing.Hash, error) {
	return Put(ctx, store, root, path, objstore.TreeEntry{Mode: filemode.Regular, Hash: blob})
}

// Put sets the entry at path. The name of entry is ignored; the last path
// segment is used instead.
func Put(ctx context.Context, store objstore.Store, root plumbing.Hash, path string, entry objstore.TreeEntry) (plumbing.Hash, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if entry.Hash.IsZero() {
		return plumbing.ZeroHash, errors.Errorf("no object to put at %q", path)
	}
	return put(ctx, store, root, segs, entry)
}

func put(ctx context.Context, store objstore.Store, root plumbing.Hash, segs []string, entry objstore.TreeEntry) (plumbing.Hash, error) {
	entries, err := readTree(ctx, store, root)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	head := segs[0]
	i := indexOf(entries, head)

	if len(segs) > 1 {
		// A missing head or a blob in the way is rebuilt from the empty tree.
		var sub plumbing.Hash
		if i >= 0 && entries[i].IsTree() {
			sub = entries[i].Hash
		}
		subHash, err := put(ctx, store, sub, segs[1:], entry)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entry = objstore.TreeEntry{Mode: filemode.Dir, Hash: subHash}
	}
	entry.Name = head

	if i >= 0 {
		entries[i] = entry
	} else {
		entries = append(entries, entry)
	}
	h, err := store.WriteTree(ctx, entries)
	if err != nil {
		return plumbing.ZeroHash, errors.WrapIff(err, "failed to write tree for %q", head)
	}
	return h, nil
}

// Lookup returns the entry at path inside root. The boolean is false if
// any segment is missing or a segment other than the last is not a tree.
func Lookup(ctx context.Context, store objstore.Store, root plumbing.Hash, path string) (objstore.TreeEntry, bool, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return objstore.TreeEntry{}, false, err
	}
	cur := root
	for n, seg := range segs {
		entries, err := readTree(ctx, store, cur)
		if err != nil {
			return objstore.TreeEntry{}, false, err
		}
		i := indexOf(entries, seg)
		if i < 0 {
			return objstore.TreeEntry{}, false, nil
		}
		if n == len(segs)-1 {
			return entries[i], true, nil
		}
		if !entries[i].IsTree() {
			return objstore.TreeEntry{}, false, nil
		}
		cur = entries[i].Hash
	}
	panic("unreachable")
}

func readTree(ctx context.Context, store objstore.Store, h plumbing.Hash) ([]objstore.TreeEntry, error) {
	if h.IsZero() || h == objstore.EmptyTree {
		return nil, nil
	}
	entries, err := store.ReadTree(ctx, h)
	if err != nil {
		return nil, errors.WrapIff(err, "failed to read tree %s", h)
	}
	return entries, nil
}

func indexOf(entries []objstore.TreeEntry, name string) int {
	for i, e := range entries {
		if e.Name == name {
			return i
		}
	}
	return -1
}
