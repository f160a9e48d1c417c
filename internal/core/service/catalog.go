package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmarkin/storefront/internal/core/domain"
	"github.com/dmarkin/storefront/internal/core/port"
	"github.com/google/uuid"
)

var _ port.CatalogManager = (*CatalogService)(nil)

// CatalogService implements the admin catalog operations and the
// public purchase-page read. Uploaded blobs go to the asset store
// under generated keys; product rows only hold the keys.
type CatalogService struct {
	products port.ProductsStorage
	blobs    port.BlobStore
}

func NewCatalog(
	products port.ProductsStorage, blobs port.BlobStore,
) CatalogService {
	return CatalogService{products, blobs}
}

func (s CatalogService) AddProduct(
	ctx context.Context, draft domain.ProductDraft, file, image port.FileUpload,
) (domain.Product, error) {
	const op = "CatalogService.AddProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	fileKey, err := s.storeBlob(ctx, file)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	imageKey, err := s.storeBlob(ctx, image)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	draft.FileKey = fileKey
	draft.ImageKey = imageKey

	p, err := s.products.CreateProduct(ctx, draft)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s CatalogService) EditProduct(
	ctx context.Context, id string,
	patch domain.ProductPatch, file, image *port.FileUpload,
) (domain.Product, error) {
	const op = "CatalogService.EditProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	prev, err := s.products.ProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if file != nil {
		key, err := s.replaceBlob(ctx, prev.FileKey, *file)
		if err != nil {
			return domain.Product{}, fmt.Errorf("%s: %w", op, err)
		}
		patch.FileKey = key
	}

	if image != nil {
		key, err := s.replaceBlob(ctx, prev.ImageKey, *image)
		if err != nil {
			return domain.Product{}, fmt.Errorf("%s: %w", op, err)
		}
		patch.ImageKey = key
	}

	p, err := s.products.UpdateProduct(ctx, id, patch)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s CatalogService) SetAvailability(
	ctx context.Context, id string, available bool,
) error {
	const op = "CatalogService.SetAvailability"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.products.SetAvailability(ctx, id, available); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s CatalogService) RemoveProduct(ctx context.Context, id string) error {
	const op = "CatalogService.RemoveProduct"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.products.DeleteProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// The row is gone either way, orphaned blobs are only logged.
	for _, key := range []string{p.FileKey, p.ImageKey} {
		if err := s.blobs.Delete(ctx, key); err != nil {
			log.Error("failed to delete blob", "key", key, "err", err)
		}
	}
	return nil
}

func (s CatalogService) ProductForPurchase(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "CatalogService.ProductForPurchase"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.products.ProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	if !p.Available {
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return p, nil
}

func (s CatalogService) storeBlob(
	ctx context.Context, upload port.FileUpload,
) (string, error) {
	key := uuid.NewString() + "-" + upload.Name
	if err := s.blobs.Put(ctx, key, upload.Body); err != nil {
		return "", err
	}
	return key, nil
}

func (s CatalogService) replaceBlob(
	ctx context.Context, prevKey string, upload port.FileUpload,
) (string, error) {
	if err := s.blobs.Delete(ctx, prevKey); err != nil {
		return "", err
	}
	return s.storeBlob(ctx, upload)
}
