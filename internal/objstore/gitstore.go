package objstore

import (
	"bytes"
	"context"

	"emperror.dev/errors"
	"github.com/aviator-co/gift/internal/git"
	"github.com/go-git/go-git/v5/plumbing"
)

// GitStore is a Store backed by a repository on disk. Every operation is
// delegated to the git executable through repo.
type GitStore struct {
	repo *git.Repo
}

var _ Store = (*GitStore)(nil)

func NewGitStore(repo *git.Repo) *GitStore {
	return &GitStore{repo: repo}
}

func (s *GitStore) ResolveRef(ctx context.Context, name string) (plumbing.Hash, bool, error) {
	// rev-parse accepts any well-formed hash; ^{object} requires it to exist.
	oid, ok, err := s.repo.ResolveRev(ctx, name+"^{object}")
	if err != nil || !ok {
		return plumbing.ZeroHash, false, err
	}
	return plumbing.NewHash(oid), true, nil
}

func (s *GitStore) readObject(ctx context.Context, hash plumbing.Hash, t plumbing.ObjectType) (*plumbing.MemoryObject, error) {
	items, err := s.repo.GetRefs(ctx, &git.GetRefs{Revisions: []string{hash.String()}})
	if err != nil {
		return nil, err
	}
	item := items[0]
	if item.Missing() {
		return nil, errors.WithDetails(ErrNotFound, "hash", hash.String())
	}
	if item.Type != t.String() {
		return nil, errors.Errorf("object %s is a %s, not a %s", hash, item.Type, t)
	}
	return memoryObject(t, item.Contents)
}

func (s *GitStore) ReadTree(ctx context.Context, hash plumbing.Hash) ([]TreeEntry, error) {
	obj, err := s.readObject(ctx, hash, plumbing.TreeObject)
	if err != nil {
		return nil, err
	}
	return decodeTree(obj)
}

func (s *GitStore) WriteTree(ctx context.Context, entries []TreeEntry) (plumbing.Hash, error) {
	obj, err := encodeTree(entries)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	data, err := objectBytes(obj)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	oid, err := s.repo.HashObject(ctx, &git.HashObject{Type: git.TypeTree, Stdin: bytes.NewReader(data)})
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return plumbing.NewHash(oid), nil
}

func (s *GitStore) ReadBlob(ctx context.Context, hash plumbing.Hash) ([]byte, error) {
	obj, err := s.readObject(ctx, hash, plumbing.BlobObject)
	if err != nil {
		return nil, err
	}
	return objectBytes(obj)
}

func (s *GitStore) WriteBlob(ctx context.Context, data []byte) (plumbing.Hash, error) {
	oid, err := s.repo.HashObject(ctx, &git.HashObject{Type: git.TypeBlob, Stdin: bytes.NewReader(data)})
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return plumbing.NewHash(oid), nil
}

func (s *GitStore) WriteBlobFromFile(ctx context.Context, path string) (plumbing.Hash, error) {
	oid, err := s.repo.HashObject(ctx, &git.HashObject{Path: path})
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return plumbing.NewHash(oid), nil
}

func (s *GitStore) ReadCommit(ctx context.Context, hash plumbing.Hash) (*Commit, error) {
	obj, err := s.readObject(ctx, hash, plumbing.CommitObject)
	if err != nil {
		return nil, err
	}
	return decodeCommit(obj)
}

func (s *GitStore) CreateCommit(ctx context.Context, tree plumbing.Hash, parents []plumbing.Hash, message string) (plumbing.Hash, error) {
	opts := &git.CommitTree{Tree: tree.String(), Message: message}
	for _, p := range parents {
		opts.Parents = append(opts.Parents, p.String())
	}
	oid, err := s.repo.CommitTree(ctx, opts)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return plumbing.NewHash(oid), nil
}
