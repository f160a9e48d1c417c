package assetstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"time"

	"github.com/colinmarc/hdfs/v2"
	"github.com/dmarkin/storefront/internal/core/domain"
	"github.com/dmarkin/storefront/internal/core/port"
	"github.com/dmarkin/storefront/pkg/retry"
)

var _ port.BlobStore = (*HDFSStore)(nil)

type hdfsClient interface {
	Create(name string) (*hdfs.FileWriter, error)
	Open(name string) (*hdfs.FileReader, error)
	Remove(name string) error
}

// HDFSStore keeps blobs in HDFS under a root directory.
type HDFSStore struct {
	client hdfsClient
	root   string
}

func NewHDFSStore(addr, root string) (HDFSStore, error) {
	const op = "HDFSStore"

	client, err := hdfs.New(addr)
	if err != nil {
		return HDFSStore{}, fmt.Errorf("%s: %w", op, err)
	}
	return HDFSStore{client, root}, nil
}

func (s HDFSStore) Put(ctx context.Context, key string, src io.Reader) error {
	const op = "HDFSStore.Put"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	w, err := s.client.Create(s.path(key))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.closeWriter(ctx, w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s HDFSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	const op = "HDFSStore.Get"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r, err := s.client.Open(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

func (s HDFSStore) Delete(ctx context.Context, key string) error {
	const op = "HDFSStore.Delete"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.client.Remove(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// closeWriter retries while the name node reports the last block
// as still replicating.
func (s HDFSStore) closeWriter(ctx context.Context, w io.WriteCloser) error {
	retryCfg := retry.RetryConfig{
		MaxAttempts: 5,
		Backoff:     retry.LineareBackoff(50 * time.Millisecond),
		ShouldRetry: func(err error) bool {
			return errors.Is(err, hdfs.ErrReplicating)
		},
	}

	return retry.Do(ctx, retryCfg, w.Close)
}

func (s HDFSStore) path(key string) string {
	return path.Join(s.root, path.Base(key))
}
