package metadata

import "context"

// Store keeps immutable JSON blobs keyed by content hash. Content is
// written once at election creation and never updated.
type Store interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, contentHash string) ([]byte, error)
}
