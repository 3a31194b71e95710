package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmarulanda/shoestore/internal/domain/payment"
)

const (
	insertPaymentSQL = `INSERT INTO payments (id, order_id, amount, payment_method, status, external_reference)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	getPaymentByOrderSQL = `SELECT id, order_id, amount, payment_method, status, external_reference, created_at
		FROM payments WHERE order_id = $1`
)

var _ payment.Repository = (*PaymentRepository)(nil)

// PaymentRepository implements payment.Repository backed by PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a PaymentRepository that uses the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create persists a payment outcome. The orders.order_id unique constraint
// enforces the one-to-one relation with the order.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	err := r.pool.QueryRow(ctx, insertPaymentSQL,
		p.ID, p.OrderID, p.Amount, p.Method, p.Status, p.ExternalReference,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating payment for order %q: %w", p.OrderID, err)
	}
	return nil
}

// FindByOrderID returns the payment outcome for an order, or nil when the
// order has none (yet).
func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*payment.Payment, error) {
	var p payment.Payment
	err := r.pool.QueryRow(ctx, getPaymentByOrderSQL, orderID).Scan(
		&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.Status, &p.ExternalReference, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting payment for order %q: %w", orderID, err)
	}
	return &p, nil
}
