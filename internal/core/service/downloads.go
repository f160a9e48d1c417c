package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmarkin/storefront/internal/core/domain"
	"github.com/dmarkin/storefront/internal/core/port"
)

var _ port.AssetOpener = (*DownloadService)(nil)

// DownloadService checks a presented download verification and opens
// the purchased file. A token is usable strictly before its expiry.
type DownloadService struct {
	verifications port.VerificationProvider
	products      port.ProductsStorage
	blobs         port.BlobStore
	now           func() time.Time
}

func NewDownloads(
	verifications port.VerificationProvider,
	products port.ProductsStorage,
	blobs port.BlobStore,
) DownloadService {
	return DownloadService{verifications, products, blobs, time.Now}
}

func (s DownloadService) OpenAsset(
	ctx context.Context, verificationID string,
) (domain.Product, io.ReadCloser, error) {
	const op = "DownloadService.OpenAsset"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	dv, err := s.verifications.VerificationByID(ctx, verificationID)
	if err != nil {
		return domain.Product{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !dv.Usable(s.now()) {
		return domain.Product{}, nil, fmt.Errorf(
			"%s: %w", op, domain.ErrVerificationExpired,
		)
	}

	p, err := s.products.ProductByID(ctx, dv.ProductID)
	if err != nil {
		return domain.Product{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	rc, err := s.blobs.Get(ctx, p.FileKey)
	if err != nil {
		return domain.Product{}, nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, rc, nil
}
