package metadata

import (
	"context"
	"slices"
	"sync"

	apperrors "github.com/chainballot/chainballot/internal/apperrors"
	hashutil "github.com/chainballot/chainballot/internal/hashutil"
)

// MemoryStore is a content-addressed in-process store used in tests and
// in dev runs without an IPFS daemon.
type MemoryStore struct {
	mutex sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (store *MemoryStore) Put(ctx context.Context, data []byte) (string, error) {
	contentHash := hashutil.HexHashBytes(data)

	store.mutex.Lock()
	defer store.mutex.Unlock()

	store.blobs[contentHash] = slices.Clone(data)
	return contentHash, nil
}

func (store *MemoryStore) Get(ctx context.Context, contentHash string) ([]byte, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	data, ok := store.blobs[contentHash]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindNotFound, "no metadata for hash %s", contentHash)
	}

	return slices.Clone(data), nil
}
