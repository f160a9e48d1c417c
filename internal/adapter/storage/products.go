package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmarkin/storefront/internal/core/domain"
	"github.com/dmarkin/storefront/internal/core/port"
	"github.com/google/uuid"
)

var _ port.ProductsStorage = (*ProductsRepository)(nil)

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

const productColumns = `
	id, name, description, price_cents,
	file_key, image_key, available, created_at`

func (r ProductsRepository) CreateProduct(
	ctx context.Context, draft domain.ProductDraft,
) (domain.Product, error) {
	const op = "ProductsRepository.CreateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO products (
			id, name, description, price_cents, file_key, image_key, available
		)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING` + productColumns + `;`

	row := r.sqldb.QueryRowContext(ctx, query,
		uuid.NewString(), draft.Name, draft.Description,
		draft.PriceCents, draft.FileKey, draft.ImageKey,
	)
	return r.scanProduct(row, op)
}

func (r ProductsRepository) ProductByID(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "ProductsRepository.ProductByID"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT` + productColumns + ` FROM products WHERE id = $1;`

	row := r.sqldb.QueryRowContext(ctx, query, id)
	return r.scanProduct(row, op)
}

func (r ProductsRepository) UpdateProduct(
	ctx context.Context, id string, patch domain.ProductPatch,
) (domain.Product, error) {
	const op = "ProductsRepository.UpdateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	// COALESCE(NULLIF(...)) keeps the stored key when the patch omits one.
	query := `
		UPDATE products SET
			name = $2,
			description = $3,
			price_cents = $4,
			file_key = COALESCE(NULLIF($5, ''), file_key),
			image_key = COALESCE(NULLIF($6, ''), image_key)
		WHERE id = $1
		RETURNING` + productColumns + `;`

	row := r.sqldb.QueryRowContext(ctx, query,
		id, patch.Name, patch.Description, patch.PriceCents,
		patch.FileKey, patch.ImageKey,
	)
	return r.scanProduct(row, op)
}

func (r ProductsRepository) SetAvailability(
	ctx context.Context, id string, available bool,
) error {
	const op = "ProductsRepository.SetAvailability"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE products SET available = $2 WHERE id = $1;`

	res, err := r.sqldb.ExecContext(ctx, query, id, available)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func (r ProductsRepository) DeleteProduct(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "ProductsRepository.DeleteProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `DELETE FROM products WHERE id = $1 RETURNING` + productColumns + `;`

	row := r.sqldb.QueryRowContext(ctx, query, id)
	return r.scanProduct(row, op)
}

func (r ProductsRepository) scanProduct(
	row *sql.Row, op string,
) (domain.Product, error) {
	var v domain.Product
	err := row.Scan(
		&v.ID, &v.Name, &v.Description, &v.PriceCents,
		&v.FileKey, &v.ImageKey, &v.Available, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}
