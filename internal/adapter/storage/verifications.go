package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmarkin/storefront/internal/core/domain"
	"github.com/dmarkin/storefront/internal/core/port"
	"github.com/google/uuid"
)

var _ port.VerificationIssuer = (*VerificationsRepository)(nil)
var _ port.VerificationProvider = (*VerificationsRepository)(nil)

// VerificationsRepository issues download verifications with a fixed
// validity window. Tokens are never mutated, only read until expiry;
// several usable tokens per product may coexist.
type VerificationsRepository struct {
	sqldb    sqldb
	validity time.Duration
}

func NewVerificationsRepository(
	sqldb sqldb, validity time.Duration,
) VerificationsRepository {
	return VerificationsRepository{sqldb, validity}
}

func (r VerificationsRepository) IssueVerification(
	ctx context.Context, productID string,
) (domain.DownloadVerification, error) {
	const op = "VerificationsRepository.IssueVerification"

	if err := ctx.Err(); err != nil {
		return domain.DownloadVerification{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO download_verifications (id, product_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, product_id, expires_at;`

	expiresAt := time.Now().Add(r.validity)
	row := r.sqldb.QueryRowContext(
		ctx, query, uuid.NewString(), productID, expiresAt,
	)

	var v domain.DownloadVerification
	err := row.Scan(&v.ID, &v.ProductID, &v.ExpiresAt)
	if err != nil {
		return domain.DownloadVerification{}, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (r VerificationsRepository) VerificationByID(
	ctx context.Context, id string,
) (domain.DownloadVerification, error) {
	const op = "VerificationsRepository.VerificationByID"

	if err := ctx.Err(); err != nil {
		return domain.DownloadVerification{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT id, product_id, expires_at
		FROM download_verifications
		WHERE id = $1;`

	var v domain.DownloadVerification
	err := r.sqldb.QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.ProductID, &v.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DownloadVerification{}, fmt.Errorf(
				"%s: %w", op, domain.ErrNotFound,
			)
		}
		return domain.DownloadVerification{}, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}
