// Package catalog holds the product-and-variant store: the read side used by
// cart and checkout, and the admin write side.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist or is
// inactive where an active product is required.
var ErrNotFound = errors.New("product not found")

// Categories recognized by the catalog. Unknown categories fall back to
// "casual" on create, matching the storefront taxonomy.
var Categories = []string{"casual", "deportivo", "formal"}

// Product is a catalog item. Inventory holds one record per size variant.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Currency    string
	Category    string
	ImageURL    *string
	Active      bool
	Inventory   []InventoryRecord
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InventoryRecord is the stock row for one (product, size) key. Quantity is
// decremented exclusively through the stock ledger during checkout.
type InventoryRecord struct {
	ProductID string
	Size      string
	Quantity  int
	UpdatedAt time.Time
}

// NormalizeCategory lowercases the category and falls back to "casual" when
// it is not one of the recognized values.
func NormalizeCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	for _, known := range Categories {
		if c == known {
			return c
		}
	}
	return "casual"
}

// Repository defines catalog persistence. List returns active products that
// have at least one size in stock; category filters when non-empty.
type Repository interface {
	List(ctx context.Context, category string) ([]Product, error)
	GetByID(ctx context.Context, id string, includeInactive bool) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, id string, patch Patch, inventory []InventoryRecord) (*Product, error)
	Deactivate(ctx context.Context, id string) (*Product, error)
}
