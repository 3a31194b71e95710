package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmarulanda/shoestore/internal/domain/stock"
)

const (
	availableStockSQL = `SELECT quantity FROM inventory WHERE product_id = $1 AND size = $2`

	// The decrement and the stock check are one statement: two checkouts
	// racing on the same (product_id, size) key serialize here, and the
	// loser matches zero rows instead of driving quantity negative.
	reserveAndDecrementSQL = `UPDATE inventory
		SET quantity = quantity - $3, updated_at = now()
		WHERE product_id = $1 AND size = $2 AND quantity >= $3`
)

var _ stock.Ledger = (*StockLedger)(nil)

// StockLedger implements stock.Ledger backed by PostgreSQL.
type StockLedger struct {
	pool *pgxpool.Pool
}

// NewStockLedger returns a StockLedger that uses the given pool.
func NewStockLedger(pool *pgxpool.Pool) *StockLedger {
	return &StockLedger{pool: pool}
}

// Available returns the current stock level for a (product, size) key.
// Missing rows read as zero.
func (l *StockLedger) Available(ctx context.Context, productID, size string) (int, error) {
	var quantity int
	err := l.pool.QueryRow(ctx, availableStockSQL, productID, size).Scan(&quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading stock %s/%s: %w", productID, size, err)
	}
	return quantity, nil
}

// ReserveAndDecrement applies the conditional decrement. When the update
// matches no row the decrement was refused; the stock level at failure time
// is re-read for the caller.
func (l *StockLedger) ReserveAndDecrement(ctx context.Context, productID, size string, quantity int) (stock.Result, error) {
	tag, err := l.pool.Exec(ctx, reserveAndDecrementSQL, productID, size, quantity)
	if err != nil {
		return stock.Result{}, fmt.Errorf("decrementing stock %s/%s: %w", productID, size, err)
	}
	if tag.RowsAffected() == 0 {
		available, err := l.Available(ctx, productID, size)
		if err != nil {
			return stock.Result{}, err
		}
		return stock.Result{Available: available}, nil
	}
	return stock.Result{Committed: true}, nil
}
