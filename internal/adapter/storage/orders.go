package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmarkin/storefront/internal/core/domain"
	"github.com/dmarkin/storefront/internal/core/port"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ port.OrdersStorage = (*OrdersRepository)(nil)

// OrdersRepository appends orders for charges. The provider event id,
// the customer upsert and the order insert share one transaction, so a
// redelivered event leaves no duplicate customer, order or token behind.
type OrdersRepository struct {
	sqldb sqldb
}

func NewOrdersRepository(sqldb sqldb) OrdersRepository {
	return OrdersRepository{sqldb}
}

func (r OrdersRepository) AppendOrder(
	ctx context.Context, c domain.Charge,
) (order domain.Order, appendErr error) {
	const op = "OrdersRepository.AppendOrder"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := r.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}

	defer func() {
		if appendErr == nil {
			if err := tx.Commit(); err != nil {
				appendErr = fmt.Errorf("%s: failed to commit: %w", op, err)
			}
			return
		}

		if err := tx.Rollback(); err != nil {
			log.Error("failed to rollback tx", "err", err)
		}
	}()

	if err := r.markEventHandled(ctx, tx, c.EventID); err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	customerID, err := r.upsertCustomer(ctx, tx, c.Email)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	err = r.insertOrder(ctx, tx, customerID, c)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	order, err = r.newestOrder(ctx, tx, customerID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

func (r OrdersRepository) markEventHandled(
	ctx context.Context, tx *sql.Tx, eventID string,
) error {
	query := `INSERT INTO webhook_events (event_id) VALUES ($1);`

	_, err := tx.ExecContext(ctx, query, eventID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrEventHandled
		}
		return err
	}
	return nil
}

func (r OrdersRepository) upsertCustomer(
	ctx context.Context, tx *sql.Tx, email string,
) (string, error) {
	// The no-op DO UPDATE makes RETURNING yield the id on both paths.
	query := `
		INSERT INTO customers (id, email)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id;`

	var id string
	err := tx.QueryRowContext(ctx, query, uuid.NewString(), email).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r OrdersRepository) insertOrder(
	ctx context.Context, tx *sql.Tx, customerID string, c domain.Charge,
) error {
	query := `
		INSERT INTO orders (id, customer_id, product_id, price_cents)
		VALUES ($1, $2, $3, $4);`

	_, err := tx.ExecContext(ctx, query,
		uuid.NewString(), customerID, c.ProductID, c.AmountCents,
	)
	return err
}

func (r OrdersRepository) newestOrder(
	ctx context.Context, tx *sql.Tx, customerID string,
) (domain.Order, error) {
	query := `
		SELECT id, customer_id, product_id, price_cents, created_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT 1;`

	var v domain.Order
	err := tx.QueryRowContext(ctx, query, customerID).Scan(
		&v.ID, &v.CustomerID, &v.ProductID, &v.PriceCents, &v.CreatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	return v, nil
}
