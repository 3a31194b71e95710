// Package checkout drives a cart snapshot through validation, atomic
// order-and-stock commitment, payment dispatch, and cart clearing, with
// explicit semantics for every failure branch.
package checkout

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/dmarulanda/shoestore/internal/domain/order"
)

// State is the in-flight position of one checkout attempt. States are
// transient: they exist for observability and are never persisted.
type State string

const (
	StateStarted        State = "STARTED"
	StateValidated      State = "VALIDATED"
	StateStockCommitted State = "STOCK_COMMITTED"
	StateOrderCreated   State = "ORDER_CREATED"
	StatePaid           State = "PAID"
	StateCompleted      State = "COMPLETED"

	StateAbortedEmptyCart          State = "ABORTED_EMPTY_CART"
	StateAbortedUnsupportedPayment State = "ABORTED_UNSUPPORTED_PAYMENT"
	StateAbortedInsufficientStock  State = "ABORTED_INSUFFICIENT_STOCK"
	StateAbortedPaymentRejected    State = "ABORTED_PAYMENT_REJECTED"
)

// ErrEmptyCart aborts a checkout whose cart snapshot has no line items.
// Terminal, no side effects.
var ErrEmptyCart = errors.New("cart is empty")

// PaymentRejectedError reports a non-success payment outcome. The order row
// and the committed stock persist for audit; the cart is not cleared.
type PaymentRejectedError struct {
	OrderID string
	Status  string
}

func (e *PaymentRejectedError) Error() string {
	return fmt.Sprintf("payment rejected for order %s: %s", e.OrderID, e.Status)
}

// Request is the outward checkout contract: an authenticated user converts
// their cart into a paid order.
type Request struct {
	UserID          string
	ShippingAddress *string
	PaymentMethod   string
}

// Committer atomically persists an order with its items and applies the
// conditional stock decrement for every line, all in one durable
// transaction. When any line loses the decrement race the whole write rolls
// back and Commit returns stock.InsufficientError carrying the stock level
// at failure time; no order row survives.
type Committer interface {
	Commit(ctx context.Context, o *order.Order, items []order.Item) error
}
