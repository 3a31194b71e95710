package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dmarulanda/shoestore/internal/domain/cart"
)

const (
	findCartSQL = `SELECT id FROM carts WHERE user_id = $1`

	createCartSQL = `INSERT INTO carts (id, user_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`

	listCartItemsSQL = `SELECT id, product_id, size, quantity, unit_price, created_at
		FROM cart_items WHERE cart_id = $1 ORDER BY created_at`

	clearCartSQL = `DELETE FROM cart_items WHERE cart_id = $1`

	// Adding an existing (product, size) line bumps its quantity; the unit
	// price captured on first add is kept.
	upsertCartItemSQL = `INSERT INTO cart_items (id, cart_id, product_id, size, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (cart_id, product_id, size)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING id, product_id, size, quantity, unit_price, created_at`

	updateCartItemSQL = `UPDATE cart_items ci SET quantity = $3, updated_at = now()
		FROM carts c
		WHERE ci.id = $2 AND ci.cart_id = c.id AND c.user_id = $1
		RETURNING ci.id, ci.product_id, ci.size, ci.quantity, ci.unit_price, ci.created_at`

	removeCartItemSQL = `DELETE FROM cart_items ci
		USING carts c
		WHERE ci.id = $2 AND ci.cart_id = c.id AND c.user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Snapshot returns the user's cart contents in insertion order. A user
// without a cart row gets an empty snapshot.
func (r *CartRepository) Snapshot(ctx context.Context, userID string) (cart.Snapshot, error) {
	snap := cart.Snapshot{UserID: userID}

	cartID, err := r.findCartID(ctx, userID)
	if err != nil {
		return snap, err
	}
	if cartID == "" {
		return snap, nil
	}

	rows, err := r.pool.Query(ctx, listCartItemsSQL, cartID)
	if err != nil {
		return snap, fmt.Errorf("listing cart items for user %q: %w", userID, err)
	}
	snap.Items, err = pgx.CollectRows(rows, scanCartItem)
	if err != nil {
		return snap, fmt.Errorf("listing cart items for user %q: %w", userID, err)
	}
	return snap, nil
}

// Clear removes every item from the user's cart. Clearing a missing or
// already-empty cart is a no-op.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	cartID, err := r.findCartID(ctx, userID)
	if err != nil {
		return err
	}
	if cartID == "" {
		return nil
	}
	if _, err := r.pool.Exec(ctx, clearCartSQL, cartID); err != nil {
		return fmt.Errorf("clearing cart for user %q: %w", userID, err)
	}
	return nil
}

// AddItem upserts a (product, size) line into the user's cart, creating the
// cart row on first use. unitPrice is the catalog price at add time and is
// never updated by later adds.
func (r *CartRepository) AddItem(ctx context.Context, userID, productID, size string, quantity int, unitPrice decimal.Decimal) (*cart.LineItem, error) {
	if _, err := r.pool.Exec(ctx, createCartSQL, uuid.New().String(), userID); err != nil {
		return nil, fmt.Errorf("creating cart for user %q: %w", userID, err)
	}
	cartID, err := r.findCartID(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, upsertCartItemSQL,
		uuid.New().String(), cartID, productID, size, quantity, unitPrice,
	)
	if err != nil {
		return nil, fmt.Errorf("adding cart item %s/%s: %w", productID, size, err)
	}
	it, err := pgx.CollectExactlyOneRow(rows, scanCartItem)
	if err != nil {
		return nil, fmt.Errorf("adding cart item %s/%s: %w", productID, size, err)
	}
	return &it, nil
}

// UpdateItemQuantity sets the quantity of an item in the user's own cart.
func (r *CartRepository) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (*cart.LineItem, error) {
	rows, err := r.pool.Query(ctx, updateCartItemSQL, userID, itemID, quantity)
	if err != nil {
		return nil, fmt.Errorf("updating cart item %q: %w", itemID, err)
	}
	it, err := pgx.CollectExactlyOneRow(rows, scanCartItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrItemNotFound
		}
		return nil, fmt.Errorf("updating cart item %q: %w", itemID, err)
	}
	return &it, nil
}

// RemoveItem deletes an item from the user's own cart.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, itemID string) error {
	tag, err := r.pool.Exec(ctx, removeCartItemSQL, userID, itemID)
	if err != nil {
		return fmt.Errorf("removing cart item %q: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

func (r *CartRepository) findCartID(ctx context.Context, userID string) (string, error) {
	var cartID string
	err := r.pool.QueryRow(ctx, findCartSQL, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("finding cart for user %q: %w", userID, err)
	}
	return cartID, nil
}

func scanCartItem(row pgx.CollectableRow) (cart.LineItem, error) {
	var it cart.LineItem
	err := row.Scan(&it.ID, &it.ProductID, &it.Size, &it.Quantity, &it.UnitPrice, &it.CreatedAt)
	return it, err
}
