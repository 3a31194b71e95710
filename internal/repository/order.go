package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmarulanda/shoestore/internal/domain/order"
)

const (
	getOrderSQL = `SELECT id, user_id, status, subtotal, shipping_cost, total, shipping_address, created_at, updated_at
		FROM orders WHERE id = $1`

	listOrderItemsSQL = `SELECT id, order_id, product_id, size, quantity, unit_price, created_at
		FROM order_items WHERE order_id = $1 ORDER BY created_at`

	listOrdersByUserSQL = `SELECT id, user_id, status, subtotal, shipping_cost, total, shipping_address, created_at, updated_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	listOrdersSQL = `SELECT id, user_id, status, subtotal, shipping_cost, total, shipping_address, created_at, updated_at
		FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1
		RETURNING id, user_id, status, subtotal, shipping_cost, total, shipping_address, created_at, updated_at`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Order
// creation happens only through CheckoutStore.Commit; this repository reads
// and transitions status.
type OrderRepository struct {
	pool     *pgxpool.Pool
	payments *PaymentRepository
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool, payments: NewPaymentRepository(pool)}
}

// FindByID loads an order with its items and payment outcome.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	itemRows, err := r.pool.Query(ctx, listOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("listing items for order %q: %w", id, err)
	}
	o.Items, err = pgx.CollectRows(itemRows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("listing items for order %q: %w", id, err)
	}

	o.Payment, err = r.payments.FindByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// FindByUser lists a user's orders, newest first, without items.
func (r *OrderRepository) FindByUser(ctx context.Context, userID string, limit int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// List pages through all orders, newest first.
func (r *OrderRepository) List(ctx context.Context, limit, offset int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// UpdateStatus moves the order to the given (already validated) status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, updateOrderStatusSQL, id, status)
	if err != nil {
		return nil, fmt.Errorf("updating status of order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("updating status of order %q: %w", id, err)
	}
	return &o, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.ShippingCost, &o.Total,
		&o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var it order.Item
	err := row.Scan(
		&it.ID, &it.OrderID, &it.ProductID, &it.Size, &it.Quantity,
		&it.UnitPrice, &it.CreatedAt,
	)
	return it, err
}
