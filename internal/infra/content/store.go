// Package content implements the binary content boundary. References are
// derived from the content hash, so storing the same bytes twice yields the
// same reference and no duplicate file.
package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"
)

type BlobStore struct {
	root string
}

func NewBlobStore(root string) (*BlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &BlobStore{root: root}, nil
}

// StoreContent writes the bytes under their xxh3 digest and returns a blob
// reference. The gallery stores the reference verbatim and never interprets
// it.
func (s *BlobStore) StoreContent(ctx context.Context, data []byte) (string, error) {
	digest := fmt.Sprintf("%016x", xxh3.Hash(data))
	path := filepath.Join(s.root, digest)

	if _, err := os.Stat(path); err == nil {
		return "blob:" + digest, nil
	}

	tmp, err := os.CreateTemp(s.root, "incoming-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return "blob:" + digest, nil
}

// Open returns the stored bytes for a blob reference.
func (s *BlobStore) Open(ref string) ([]byte, error) {
	digest, ok := parseRef(ref)
	if !ok {
		return nil, fmt.Errorf("invalid blob reference %q", ref)
	}
	return os.ReadFile(filepath.Join(s.root, digest))
}

func parseRef(ref string) (string, bool) {
	const prefix = "blob:"
	if len(ref) <= len(prefix) || ref[:len(prefix)] != prefix {
		return "", false
	}
	digest := ref[len(prefix):]
	for i := 0; i < len(digest); i++ {
		c := digest[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", false
		}
	}
	return digest, true
}
