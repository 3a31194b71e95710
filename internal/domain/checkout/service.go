package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dmarulanda/shoestore/internal/domain/cart"
	"github.com/dmarulanda/shoestore/internal/domain/order"
	"github.com/dmarulanda/shoestore/internal/domain/payment"
	"github.com/dmarulanda/shoestore/internal/domain/stock"
)

// Service is the checkout orchestrator. Within one invocation the steps run
// strictly sequentially; the only cross-request serialization point is the
// ledger's conditional decrement inside Committer.Commit.
type Service struct {
	carts        cart.Repository
	ledger       stock.Ledger
	committer    Committer
	payments     payment.Repository
	registry     *payment.Registry
	shippingCost decimal.Decimal
}

// NewService creates a checkout Service. shippingCost is the flat fee added
// to every order's subtotal.
func NewService(
	carts cart.Repository,
	ledger stock.Ledger,
	committer Committer,
	payments payment.Repository,
	registry *payment.Registry,
	shippingCost decimal.Decimal,
) *Service {
	return &Service{
		carts:        carts,
		ledger:       ledger,
		committer:    committer,
		payments:     payments,
		registry:     registry,
		shippingCost: shippingCost,
	}
}

// Checkout converts the user's cart into a paid order.
//
// Failure semantics, in step order:
//   - empty cart                   -> ErrEmptyCart, nothing touched
//   - unknown payment method       -> payment.UnsupportedMethodError, nothing touched
//   - advisory pre-check too low   -> stock.InsufficientError, nothing touched
//   - decrement race lost          -> stock.InsufficientError, order rolled back
//   - payment rejected             -> PaymentRejectedError, order and stock kept, cart kept
//
// On success the returned order carries its items and payment outcome, and
// the cart has been cleared.
func (s *Service) Checkout(ctx context.Context, req Request) (*order.Order, error) {
	lg := zctx.From(ctx).With(zap.String("user_id", req.UserID))
	attempt := s.transition(lg, StateStarted)

	snap, err := s.carts.Snapshot(ctx, req.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart snapshot")
	}
	if snap.Empty() {
		attempt(StateAbortedEmptyCart)
		return nil, ErrEmptyCart
	}

	strategy, methodKey, err := s.registry.Resolve(req.PaymentMethod)
	if err != nil {
		attempt(StateAbortedUnsupportedPayment)
		return nil, err
	}

	// Advisory pre-check for fast feedback. The authoritative guarantee is
	// the conditional decrement inside Commit.
	for _, it := range snap.Items {
		available, err := s.ledger.Available(ctx, it.ProductID, it.Size)
		if err != nil {
			return nil, errors.Wrapf(err, "check stock %s/%s", it.ProductID, it.Size)
		}
		if available < it.Quantity {
			attempt(StateAbortedInsufficientStock)
			return nil, &stock.InsufficientError{
				ProductID: it.ProductID,
				Size:      it.Size,
				Available: available,
			}
		}
	}
	attempt(StateValidated)

	subtotal := snap.Subtotal()
	o := &order.Order{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		Status:          order.StatusPending,
		Subtotal:        subtotal,
		ShippingCost:    s.shippingCost,
		Total:           subtotal.Add(s.shippingCost),
		ShippingAddress: req.ShippingAddress,
	}
	items := make([]order.Item, len(snap.Items))
	for i, it := range snap.Items {
		items[i] = order.Item{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			ProductID: it.ProductID,
			Size:      it.Size,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}

	if err := s.committer.Commit(ctx, o, items); err != nil {
		var insErr *stock.InsufficientError
		if errors.As(err, &insErr) {
			attempt(StateAbortedInsufficientStock)
			return nil, insErr
		}
		return nil, errors.Wrap(err, "commit order")
	}
	o.Items = items
	attempt(StateOrderCreated)
	attempt(StateStockCommitted)

	outcome, err := strategy.Process(ctx, o.ID, o.Total)
	if err != nil {
		return nil, errors.Wrapf(err, "process payment for order %s", o.ID)
	}

	status := outcome.Status
	if status == "" {
		if outcome.Success {
			status = payment.StatusApproved
		} else {
			status = payment.StatusRejected
		}
	}

	pay := &payment.Payment{
		ID:      uuid.New().String(),
		OrderID: o.ID,
		Amount:  o.Total,
		Method:  methodKey,
		Status:  status,
	}
	if outcome.ExternalReference != "" {
		ref := outcome.ExternalReference
		pay.ExternalReference = &ref
	}
	if err := s.payments.Create(ctx, pay); err != nil {
		return nil, errors.Wrapf(err, "record payment for order %s", o.ID)
	}
	o.Payment = pay

	if !outcome.Success {
		attempt(StateAbortedPaymentRejected)
		return nil, &PaymentRejectedError{OrderID: o.ID, Status: status}
	}
	attempt(StatePaid)

	if err := s.carts.Clear(ctx, req.UserID); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}
	attempt(StateCompleted)

	return o, nil
}

// transition returns a closure that logs each state the attempt reaches.
func (s *Service) transition(lg *zap.Logger, initial State) func(State) {
	state := initial
	lg.Debug("checkout state", zap.String("state", string(state)))
	return func(next State) {
		lg.Debug("checkout state",
			zap.String("from", string(state)),
			zap.String("state", string(next)),
		)
		state = next
	}
}
