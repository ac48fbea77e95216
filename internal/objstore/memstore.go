package objstore

import (
	"context"
	"os"
	"time"

	"emperror.dev/errors"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/memory"
)

// MemStore is an in-memory Store. Refs are only created through SetRef.
type MemStore struct {
	storage *memory.Storage
	// Signature is used as author and committer of created commits.
	Signature object.Signature
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		storage: memory.NewStorage(),
		Signature: object.Signature{
			Name:  "gift",
			Email: "gift@localhost",
			When:  time.Unix(0, 0).UTC(),
		},
	}
}

// SetRef points name at hash, creating the ref if necessary.
func (s *MemStore) SetRef(name string, hash plumbing.Hash) error {
	return s.storage.SetReference(plumbing.NewHashReference(plumbing.ReferenceName(name), hash))
}

func (s *MemStore) ResolveRef(_ context.Context, name string) (plumbing.Hash, bool, error) {
	ref, err := storer.ResolveReference(s.storage, plumbing.ReferenceName(name))
	if err == nil {
		return ref.Hash(), true, nil
	}
	if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, false, err
	}
	if !plumbing.IsHash(name) {
		return plumbing.ZeroHash, false, nil
	}
	hash := plumbing.NewHash(name)
	if err := s.storage.HasEncodedObject(hash); err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return plumbing.ZeroHash, false, nil
		}
		return plumbing.ZeroHash, false, err
	}
	return hash, true, nil
}

func (s *MemStore) readObject(hash plumbing.Hash, t plumbing.ObjectType) (plumbing.EncodedObject, error) {
	obj, err := s.storage.EncodedObject(t, hash)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, errors.WithDetails(ErrNotFound, "hash", hash.String())
	}
	return obj, err
}

func (s *MemStore) write(t plumbing.ObjectType, data []byte) (plumbing.Hash, error) {
	obj, err := memoryObject(t, data)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return s.storage.SetEncodedObject(obj)
}

func (s *MemStore) ReadTree(_ context.Context, hash plumbing.Hash) ([]TreeEntry, error) {
	obj, err := s.readObject(hash, plumbing.TreeObject)
	if err != nil {
		return nil, err
	}
	return decodeTree(obj)
}

func (s *MemStore) WriteTree(_ context.Context, entries []TreeEntry) (plumbing.Hash, error) {
	obj, err := encodeTree(entries)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return s.storage.SetEncodedObject(obj)
}

func (s *MemStore) ReadBlob(_ context.Context, hash plumbing.Hash) ([]byte, error) {
	obj, err := s.readObject(hash, plumbing.BlobObject)
	if err != nil {
		return nil, err
	}
	return objectBytes(obj)
}

func (s *MemStore) WriteBlob(_ context.Context, data []byte) (plumbing.Hash, error) {
	return s.write(plumbing.BlobObject, data)
}

func (s *MemStore) WriteBlobFromFile(_ context.Context, path string) (plumbing.Hash, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return plumbing.ZeroHash, errors.WrapIff(err, "failed to read %s", path)
	}
	return s.write(plumbing.BlobObject, data)
}

func (s *MemStore) ReadCommit(_ context.Context, hash plumbing.Hash) (*Commit, error) {
	obj, err := s.readObject(hash, plumbing.CommitObject)
	if err != nil {
		return nil, err
	}
	return decodeCommit(obj)
}

func (s *MemStore) CreateCommit(_ context.Context, tree plumbing.Hash, parents []plumbing.Hash, message string) (plumbing.Hash, error) {
	if err := s.storage.HasEncodedObject(tree); err != nil {
		return plumbing.ZeroHash, errors.WrapIff(err, "tree %s", tree)
	}
	c := &object.Commit{
		Author:       s.Signature,
		Committer:    s.Signature,
		Message:      message,
		TreeHash:     tree,
		ParentHashes: parents,
	}
	obj := s.storage.NewEncodedObject()
	if err := c.Encode(obj); err != nil {
		return plumbing.ZeroHash, errors.Wrap(err, "failed to encode commit")
	}
	return s.storage.SetEncodedObject(obj)
}
