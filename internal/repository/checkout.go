package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmarulanda/shoestore/internal/domain/checkout"
	"github.com/dmarulanda/shoestore/internal/domain/order"
	"github.com/dmarulanda/shoestore/internal/domain/stock"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, user_id, status, subtotal, shipping_cost, total, shipping_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	insertOrderItemSQL = `INSERT INTO order_items (id, order_id, product_id, size, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)`
)

var _ checkout.Committer = (*CheckoutStore)(nil)

// CheckoutStore implements checkout.Committer: the order row, its items, and
// every conditional stock decrement commit or roll back as one transaction.
type CheckoutStore struct {
	pool *pgxpool.Pool
}

// NewCheckoutStore returns a CheckoutStore that uses the given pool.
func NewCheckoutStore(pool *pgxpool.Pool) *CheckoutStore {
	return &CheckoutStore{pool: pool}
}

// Commit persists the order with its items and decrements stock for every
// line. A line whose conditional decrement matches no row aborts the whole
// transaction with stock.InsufficientError carrying the level observed at
// failure time, so a lost race never leaves an order behind.
func (s *CheckoutStore) Commit(ctx context.Context, o *order.Order, items []order.Item) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin checkout tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, insertOrderSQL,
		o.ID, o.UserID, o.Status, o.Subtotal, o.ShippingCost, o.Total, o.ShippingAddress,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting order %q: %w", o.ID, err)
	}

	for _, it := range items {
		_, err := tx.Exec(ctx, insertOrderItemSQL,
			it.ID, it.OrderID, it.ProductID, it.Size, it.Quantity, it.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("inserting order item %s/%s: %w", it.ProductID, it.Size, err)
		}

		tag, err := tx.Exec(ctx, reserveAndDecrementSQL, it.ProductID, it.Size, it.Quantity)
		if err != nil {
			return fmt.Errorf("decrementing stock %s/%s: %w", it.ProductID, it.Size, err)
		}
		if tag.RowsAffected() == 0 {
			available, err := s.readAvailable(ctx, tx, it.ProductID, it.Size)
			if err != nil {
				return err
			}
			// Returning without commit rolls back the order and any
			// decrements already applied for earlier lines.
			return &stock.InsufficientError{
				ProductID: it.ProductID,
				Size:      it.Size,
				Available: available,
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit checkout tx: %w", err)
	}
	return nil
}

func (s *CheckoutStore) readAvailable(ctx context.Context, tx pgx.Tx, productID, size string) (int, error) {
	var quantity int
	err := tx.QueryRow(ctx, availableStockSQL, productID, size).Scan(&quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading stock %s/%s: %w", productID, size, err)
	}
	return quantity, nil
}
