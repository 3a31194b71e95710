// Package cart holds the shopping cart collaborator contract. The checkout
// core only reads snapshots and requests a clear; item mutation happens
// before checkout through the same repository.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrItemNotFound is returned when a cart item id does not exist or does not
// belong to the requesting user.
var ErrItemNotFound = errors.New("cart item not found")

// LineItem is one product+size entry in a cart. UnitPrice is the catalog
// price captured when the item entered the cart and is immutable afterwards.
type LineItem struct {
	ID        string
	ProductID string
	Size      string
	Quantity  int
	UnitPrice decimal.Decimal
	CreatedAt time.Time
}

// Snapshot is the ordered cart contents for one user at one point in time.
type Snapshot struct {
	UserID string
	Items  []LineItem
}

// Subtotal sums unit price times quantity over all line items.
func (s Snapshot) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range s.Items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// Empty reports whether the snapshot has no line items.
func (s Snapshot) Empty() bool {
	return len(s.Items) == 0
}

// Repository defines cart persistence. Clear is idempotent: clearing an
// already-empty (or missing) cart is a no-op, not an error.
type Repository interface {
	Snapshot(ctx context.Context, userID string) (Snapshot, error)
	Clear(ctx context.Context, userID string) error

	AddItem(ctx context.Context, userID, productID, size string, quantity int, unitPrice decimal.Decimal) (*LineItem, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*LineItem, error)
	RemoveItem(ctx context.Context, userID, itemID string) error
}
