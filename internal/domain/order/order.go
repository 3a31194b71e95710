// Package order holds the durable order aggregate and its status lifecycle.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/dmarulanda/shoestore/internal/domain/payment"
)

// ErrNotFound is returned when an order id does not exist, or exists but is
// not visible to the requesting user.
var ErrNotFound = errors.New("order not found")

// Order is created exactly once per successful checkout. Monetary fields are
// computed from the cart snapshot at creation time and never recomputed,
// even when catalog prices change later. Total is always Subtotal plus
// ShippingCost.
type Order struct {
	ID              string
	UserID          string
	Status          Status
	Subtotal        decimal.Decimal
	ShippingCost    decimal.Decimal
	Total           decimal.Decimal
	ShippingAddress *string
	Items           []Item
	Payment         *payment.Payment
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Item is one order line. Immutable once written; created in the same
// transaction as its order.
type Item struct {
	ID        string
	OrderID   string
	ProductID string
	Size      string
	Quantity  int
	UnitPrice decimal.Decimal
	CreatedAt time.Time
}

// Repository defines order persistence and the administrative status
// transition. Order rows are only ever mutated through UpdateStatus.
type Repository interface {
	// FindByID loads an order with its items and payment outcome.
	FindByID(ctx context.Context, id string) (*Order, error)
	// FindByUser lists a user's orders, newest first.
	FindByUser(ctx context.Context, userID string, limit int) ([]Order, error)
	// List pages through all orders, newest first.
	List(ctx context.Context, limit, offset int) ([]Order, error)
	// UpdateStatus moves an order to the given status. The status must
	// already be validated via ParseStatus.
	UpdateStatus(ctx context.Context, id string, status Status) (*Order, error)
}
