// Package stock defines the inventory ledger: the single source of truth for
// whether a quantity can be sold right now, and the single mutator of
// inventory during a sale.
package stock

import (
	"context"
	"fmt"
)

// Result reports the outcome of a reserve-and-decrement attempt.
type Result struct {
	// Committed is true when the decrement was applied.
	Committed bool
	// Available holds the stock level observed when the decrement was
	// refused. Meaningless when Committed is true.
	Available int
}

// Ledger exposes inventory reads and the atomic conditional decrement.
//
// ReserveAndDecrement must be implemented as a single conditional update
// ("decrement by N where quantity >= N") so that concurrent checkouts racing
// on the same (productID, size) key serialize at this one operation and stock
// can never go negative. Checking availability and decrementing as two
// separate steps is not a substitute: Available is advisory only.
type Ledger interface {
	Available(ctx context.Context, productID, size string) (int, error)
	ReserveAndDecrement(ctx context.Context, productID, size string, quantity int) (Result, error)
}

// InsufficientError reports a stock key that could not cover the requested
// quantity, either at the advisory pre-check or at the authoritative
// decrement.
type InsufficientError struct {
	ProductID string
	Size      string
	Available int
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient stock for %s size %s: %d available", e.ProductID, e.Size, e.Available)
}
