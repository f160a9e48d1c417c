package assetstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmarkin/storefront/internal/core/domain"
	"github.com/dmarkin/storefront/internal/core/port"
)

var _ port.BlobStore = (*FSStore)(nil)

// FSStore keeps blobs as plain files under a root directory.
// Keys are generated names, never caller-supplied paths.
type FSStore struct {
	root string
}

func NewFSStore(root string) (FSStore, error) {
	const op = "FSStore"

	if err := os.MkdirAll(root, 0o755); err != nil {
		return FSStore{}, fmt.Errorf("%s: %w", op, err)
	}
	return FSStore{root}, nil
}

func (s FSStore) Put(ctx context.Context, key string, src io.Reader) error {
	const op = "FSStore.Put"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	f, err := os.Create(s.path(key))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s FSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	const op = "FSStore.Get"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	f, err := os.Open(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

func (s FSStore) Delete(ctx context.Context, key string) error {
	const op = "FSStore.Delete"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := os.Remove(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s FSStore) path(key string) string {
	// Strip any directory components a hostile key could smuggle in.
	return filepath.Join(s.root, filepath.Base(key))
}
