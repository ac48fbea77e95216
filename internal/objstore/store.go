// Package objstore provides typed access to a content-addressable object
// store: blobs, trees, commits and refs.
package objstore

import (
	"context"
	"io"
	"sort"
	"strings"

	"emperror.dev/errors"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotFound is returned when a requested object does not exist.
const ErrNotFound = errors.Sentinel("object not found")

// EmptyTree is the hash of the tree with no entries.
var EmptyTree = plumbing.NewHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904")

// TreeEntry is one entry of a single tree level.
type TreeEntry struct {
	Name string
	Mode filemode.FileMode
	Hash plumbing.Hash
}

// IsTree reports whether the entry points to a subtree.
func (e TreeEntry) IsTree() bool {
	return e.Mode == filemode.Dir
}

type Commit struct {
	Hash    plumbing.Hash
	Tree    plumbing.Hash
	Parents []plumbing.Hash
	Message string
}

// Store is the set of object operations the rest of gift needs. All
// implementations must produce identical hashes for identical content.
type Store interface {
	// ResolveRef resolves a ref name or revision. The boolean is false if it
	// does not exist.
	ResolveRef(ctx context.Context, name string) (plumbing.Hash, bool, error)
	// ReadTree lists one level of a tree, in the store's canonical order.
	ReadTree(ctx context.Context, hash plumbing.Hash) ([]TreeEntry, error)
	WriteTree(ctx context.Context, entries []TreeEntry) (plumbing.Hash, error)
	ReadBlob(ctx context.Context, hash plumbing.Hash) ([]byte, error)
	WriteBlob(ctx context.Context, data []byte) (plumbing.Hash, error)
	// WriteBlobFromFile stores the exact bytes of the file at path.
	WriteBlobFromFile(ctx context.Context, path string) (plumbing.Hash, error)
	ReadCommit(ctx context.Context, hash plumbing.Hash) (*Commit, error)
	CreateCommit(ctx context.Context, tree plumbing.Hash, parents []plumbing.Hash, message string) (plumbing.Hash, error)
}

// SortEntries sorts entries the way git orders tree objects: bytewise by
// name, where a subtree's name compares as if it ended with "/".
func SortEntries(entries []TreeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return sortKey(entries[i]) < sortKey(entries[j])
	})
}

func sortKey(e TreeEntry) string {
	if e.IsTree() {
		return e.Name + "/"
	}
	return e.Name
}

// ValidateEntries checks that entries can form a single tree level.
func ValidateEntries(entries []TreeEntry) error {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Name == "" || e.Name == "." || e.Name == ".." || strings.ContainsAny(e.Name, "/\x00") {
			return errors.Errorf("invalid tree entry name %q", e.Name)
		}
		if seen[e.Name] {
			return errors.Errorf("duplicate tree entry %q", e.Name)
		}
		seen[e.Name] = true
		if e.Hash.IsZero() {
			return errors.Errorf("tree entry %q has no hash", e.Name)
		}
	}
	return nil
}

// encodeTree returns the canonical encoding of entries. The input slice is
// not modified.
func encodeTree(entries []TreeEntry) (*plumbing.MemoryObject, error) {
	if err := ValidateEntries(entries); err != nil {
		return nil, err
	}
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	SortEntries(sorted)
	tree := &object.Tree{Entries: make([]object.TreeEntry, 0, len(sorted))}
	for _, e := range sorted {
		tree.Entries = append(tree.Entries, object.TreeEntry{Name: e.Name, Mode: e.Mode, Hash: e.Hash})
	}
	obj := &plumbing.MemoryObject{}
	if err := tree.Encode(obj); err != nil {
		return nil, errors.Wrap(err, "failed to encode tree")
	}
	return obj, nil
}

func decodeTree(obj plumbing.EncodedObject) ([]TreeEntry, error) {
	var tree object.Tree
	if err := tree.Decode(obj); err != nil {
		return nil, errors.WrapIff(err, "failed to decode tree %s", obj.Hash())
	}
	entries := make([]TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		entries = append(entries, TreeEntry{Name: e.Name, Mode: e.Mode, Hash: e.Hash})
	}
	return entries, nil
}

func decodeCommit(obj plumbing.EncodedObject) (*Commit, error) {
	var c object.Commit
	if err := c.Decode(obj); err != nil {
		return nil, errors.WrapIff(err, "failed to decode commit %s", obj.Hash())
	}
	return &Commit{
		Hash:    obj.Hash(),
		Tree:    c.TreeHash,
		Parents: c.ParentHashes,
		Message: c.Message,
	}, nil
}

func memoryObject(t plumbing.ObjectType, data []byte) (*plumbing.MemoryObject, error) {
	obj := &plumbing.MemoryObject{}
	obj.SetType(t)
	if _, err := obj.Write(data); err != nil {
		return nil, errors.Wrap(err, "failed to buffer object")
	}
	return obj, nil
}

func objectBytes(obj plumbing.EncodedObject) ([]byte, error) {
	r, err := obj.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	buf := make([]byte, obj.Size())
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, "failed to read object")
	}
	return buf, nil
}
