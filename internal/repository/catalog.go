package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmarulanda/shoestore/internal/domain/catalog"
)

const (
	listProductsSQL = `SELECT p.id, p.name, p.description, p.price, p.category, p.image_url, p.active, p.created_at, p.updated_at
		FROM products p
		WHERE p.active = true
		  AND EXISTS (SELECT 1 FROM inventory i WHERE i.product_id = p.id AND i.quantity > 0)`

	getProductSQL = `SELECT id, name, description, price, category, image_url, active, created_at, updated_at
		FROM products WHERE id = $1`

	listInventorySQL = `SELECT product_id, size, quantity, updated_at
		FROM inventory WHERE product_id = $1 ORDER BY size`

	insertProductSQL = `INSERT INTO products (id, name, description, price, category, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING active, created_at, updated_at`

	upsertInventorySQL = `INSERT INTO inventory (product_id, size, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, size) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`

	deleteInventorySQL = `DELETE FROM inventory WHERE product_id = $1`

	deactivateProductSQL = `UPDATE products SET active = false, updated_at = now() WHERE id = $1
		RETURNING id, name, description, price, category, image_url, active, created_at, updated_at`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// List returns active products with at least one size in stock, newest
// first, optionally filtered by category.
func (r *CatalogRepository) List(ctx context.Context, category string) ([]catalog.Product, error) {
	query := listProductsSQL
	args := []any{}
	if category != "" {
		query += ` AND p.category = $1`
		args = append(args, catalog.NormalizeCategory(category))
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a product with its inventory records. Inactive products
// are only visible when includeInactive is set (admin view).
func (r *CatalogRepository) GetByID(ctx context.Context, id string, includeInactive bool) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	if !p.Active && !includeInactive {
		return nil, catalog.ErrNotFound
	}

	if err := r.loadInventory(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persists a product and its inventory rows.
func (r *CatalogRepository) Create(ctx context.Context, p *catalog.Product) error {
	p.Category = catalog.NormalizeCategory(p.Category)

	err := r.pool.QueryRow(ctx, insertProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.ImageURL,
	).Scan(&p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}

	for _, inv := range p.Inventory {
		if _, err := r.pool.Exec(ctx, upsertInventorySQL, p.ID, strings.TrimSpace(inv.Size), max(0, inv.Quantity)); err != nil {
			return fmt.Errorf("creating inventory %s/%s: %w", p.ID, inv.Size, err)
		}
	}
	return r.loadInventory(ctx, p)
}

// Update applies a partial update: only fields present in the patch touch
// the row, and a present-null ImageURL clears the column. A non-nil
// inventory slice replaces all size rows.
func (r *CatalogRepository) Update(ctx context.Context, id string, patch catalog.Patch, inventory []catalog.InventoryRecord) (*catalog.Product, error) {
	sets := []string{}
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if v, ok := patch.Name.Get(); ok {
		add("name", v)
	}
	if v, ok := patch.Description.Get(); ok {
		add("description", v)
	}
	if v, ok := patch.Price.Get(); ok {
		add("price", v)
	}
	if v, ok := patch.Category.Get(); ok {
		add("category", catalog.NormalizeCategory(v))
	}
	if patch.ImageURL.Set {
		if patch.ImageURL.Null {
			add("image_url", nil)
		} else {
			add("image_url", patch.ImageURL.Value)
		}
	}
	if v, ok := patch.Active.Get(); ok {
		add("active", v)
	}

	if len(sets) > 0 {
		query := fmt.Sprintf("UPDATE products SET %s, updated_at = now() WHERE id = $1", strings.Join(sets, ", "))
		tag, err := r.pool.Exec(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("updating product %q: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return nil, catalog.ErrNotFound
		}
	}

	if inventory != nil {
		if _, err := r.pool.Exec(ctx, deleteInventorySQL, id); err != nil {
			return nil, fmt.Errorf("replacing inventory for product %q: %w", id, err)
		}
		for _, inv := range inventory {
			if _, err := r.pool.Exec(ctx, upsertInventorySQL, id, strings.TrimSpace(inv.Size), max(0, inv.Quantity)); err != nil {
				return nil, fmt.Errorf("replacing inventory %s/%s: %w", id, inv.Size, err)
			}
		}
	}

	return r.GetByID(ctx, id, true)
}

// Deactivate performs the logical delete: active=false, rows kept.
func (r *CatalogRepository) Deactivate(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, deactivateProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("deactivating product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("deactivating product %q: %w", id, err)
	}
	return &p, nil
}

func (r *CatalogRepository) loadInventory(ctx context.Context, p *catalog.Product) error {
	rows, err := r.pool.Query(ctx, listInventorySQL, p.ID)
	if err != nil {
		return fmt.Errorf("listing inventory for product %q: %w", p.ID, err)
	}
	p.Inventory, err = pgx.CollectRows(rows, scanInventory)
	if err != nil {
		return fmt.Errorf("listing inventory for product %q: %w", p.ID, err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Category,
		&p.ImageURL, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	p.Currency = "COP"
	return p, err
}

func scanInventory(row pgx.CollectableRow) (catalog.InventoryRecord, error) {
	var inv catalog.InventoryRecord
	err := row.Scan(&inv.ProductID, &inv.Size, &inv.Quantity, &inv.UpdatedAt)
	return inv, err
}
