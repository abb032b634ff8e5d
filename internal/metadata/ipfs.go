package metadata

import (
	"bytes"
	"context"
	"io"

	shell "github.com/ipfs/go-ipfs-api"
	"golang.org/x/xerrors"
)

// IpfsStore pins election metadata on an IPFS node. The returned CID is
// the content hash recorded on the election row.
type IpfsStore struct {
	shell *shell.Shell
}

func NewIpfsStore(apiUrl string) *IpfsStore {
	return &IpfsStore{shell: shell.NewShell(apiUrl)}
}

func (store *IpfsStore) Put(ctx context.Context, data []byte) (string, error) {
	contentHash, err := store.shell.Add(bytes.NewReader(data), shell.Pin(true))
	if err != nil {
		return "", xerrors.Errorf("failed to add metadata to ipfs: %w", err)
	}

	return contentHash, nil
}

func (store *IpfsStore) Get(ctx context.Context, contentHash string) ([]byte, error) {
	reader, err := store.shell.Cat(contentHash)
	if err != nil {
		return nil, xerrors.Errorf("failed to read metadata %s from ipfs: %w", contentHash, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, xerrors.Errorf("failed to read metadata %s from ipfs: %w", contentHash, err)
	}

	return data, nil
}
