package checkout

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dmarulanda/shoestore/internal/domain/cart"
	"github.com/dmarulanda/shoestore/internal/domain/order"
	"github.com/dmarulanda/shoestore/internal/domain/payment"
	"github.com/dmarulanda/shoestore/internal/domain/stock"
)

// --- Mock implementations ---

// memStore is an in-memory Ledger and Committer sharing one mutex, so Commit
// has the same all-or-nothing semantics as the real transaction: either every
// line's conditional decrement succeeds and the order is stored, or nothing
// changes.
type memStore struct {
	mu     sync.Mutex
	stock  map[string]int
	orders map[string]*order.Order
}

func newMemStore(levels map[string]int) *memStore {
	s := make(map[string]int, len(levels))
	for k, v := range levels {
		s[k] = v
	}
	return &memStore{stock: s, orders: make(map[string]*order.Order)}
}

func stockKey(productID, size string) string {
	return productID + "/" + size
}

func (m *memStore) Available(_ context.Context, productID, size string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[stockKey(productID, size)], nil
}

func (m *memStore) ReserveAndDecrement(_ context.Context, productID, size string, quantity int) (stock.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := stockKey(productID, size)
	if m.stock[key] < quantity {
		return stock.Result{Available: m.stock[key]}, nil
	}
	m.stock[key] -= quantity
	return stock.Result{Committed: true}, nil
}

func (m *memStore) Commit(_ context.Context, o *order.Order, items []order.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, it := range items {
		if available := m.stock[stockKey(it.ProductID, it.Size)]; available < it.Quantity {
			return &stock.InsufficientError{
				ProductID: it.ProductID,
				Size:      it.Size,
				Available: available,
			}
		}
	}
	for _, it := range items {
		m.stock[stockKey(it.ProductID, it.Size)] -= it.Quantity
	}
	m.orders[o.ID] = o
	return nil
}

func (m *memStore) level(productID, size string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[stockKey(productID, size)]
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

type mockCartRepo struct {
	mu        sync.Mutex
	snapshots map[string]cart.Snapshot
	clears    int
}

func newCartRepo() *mockCartRepo {
	return &mockCartRepo{snapshots: make(map[string]cart.Snapshot)}
}

func (m *mockCartRepo) put(userID string, items ...cart.LineItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[userID] = cart.Snapshot{UserID: userID, Items: items}
}

func (m *mockCartRepo) Snapshot(_ context.Context, userID string) (cart.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snapshots[userID]
	if !ok {
		return cart.Snapshot{UserID: userID}, nil
	}
	return snap, nil
}

func (m *mockCartRepo) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.snapshots[userID] = cart.Snapshot{UserID: userID}
	return nil
}

func (m *mockCartRepo) AddItem(context.Context, string, string, string, int, decimal.Decimal) (*cart.LineItem, error) {
	panic("not used")
}

func (m *mockCartRepo) UpdateItemQuantity(context.Context, string, string, int) (*cart.LineItem, error) {
	panic("not used")
}

func (m *mockCartRepo) RemoveItem(context.Context, string, string) error {
	panic("not used")
}

type mockPaymentRepo struct {
	mu       sync.Mutex
	payments []*payment.Payment
	err      error
}

func (m *mockPaymentRepo) Create(_ context.Context, p *payment.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.payments = append(m.payments, p)
	return nil
}

func (m *mockPaymentRepo) FindByOrderID(context.Context, string) (*payment.Payment, error) {
	panic("not used")
}

type rejectingStrategy struct{}

func (rejectingStrategy) Process(context.Context, string, decimal.Decimal) (payment.Outcome, error) {
	return payment.Outcome{Success: false, Status: payment.StatusRejected}, nil
}

// failingCommitter simulates losing the decrement race inside the
// transaction even though the advisory pre-check passed.
type failingCommitter struct {
	err error
}

func (f *failingCommitter) Commit(context.Context, *order.Order, []order.Item) error {
	return f.err
}

// --- Helpers ---

func price(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func lineItem(productID, size string, qty int, unitPrice int64) cart.LineItem {
	return cart.LineItem{
		ProductID: productID,
		Size:      size,
		Quantity:  qty,
		UnitPrice: price(unitPrice),
	}
}

func newRegistry() *payment.Registry {
	r := payment.NewRegistry()
	r.Register(payment.MethodCashOnDelivery, payment.CashOnDelivery{})
	return r
}

// --- Tests ---

func TestCheckout_EmptyCart(t *testing.T) {
	carts := newCartRepo()
	store := newMemStore(map[string]int{stockKey("P1", "M"): 5})
	pays := &mockPaymentRepo{}
	svc := NewService(carts, store, store, pays, newRegistry(), decimal.Zero)

	_, err := svc.Checkout(context.Background(), Request{
		UserID:        "u1",
		PaymentMethod: payment.MethodCashOnDelivery,
	})

	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 5, store.level("P1", "M"))
	assert.Zero(t, store.orderCount())
	assert.Empty(t, pays.payments)
	assert.Zero(t, carts.clears)
}

func TestCheckout_UnsupportedMethod(t *testing.T) {
	carts := newCartRepo()
	carts.put("u1", lineItem("P1", "M", 1, 50000))
	store := newMemStore(map[string]int{stockKey("P1", "M"): 5})
	pays := &mockPaymentRepo{}
	svc := NewService(carts, store, store, pays, newRegistry(), decimal.Zero)

	_, err := svc.Checkout(context.Background(), Request{
		UserID:        "u1",
		PaymentMethod: "BITCOIN",
	})

	var umErr *payment.UnsupportedMethodError
	require.ErrorAs(t, err, &umErr)
	assert.Equal(t, "BITCOIN", umErr.Method)
	assert.Equal(t, []string{payment.MethodCashOnDelivery}, umErr.Supported)

	// No records written.
	assert.Equal(t, 5, store.level("P1", "M"))
	assert.Zero(t, store.orderCount())
	assert.Empty(t, pays.payments)
	assert.Zero(t, carts.clears)
}

func TestCheckout_PreCheckInsufficientStock(t *testing.T) {
	carts := newCartRepo()
	carts.put("u1", lineItem("P1", "M", 3, 50000))
	store := newMemStore(map[string]int{stockKey("P1", "M"): 1})
	pays := &mockPaymentRepo{}
	svc := NewService(carts, store, store, pays, newRegistry(), decimal.Zero)

	_, err := svc.Checkout(context.Background(), Request{
		UserID:        "u1",
		PaymentMethod: payment.MethodCashOnDelivery,
	})

	var insErr *stock.InsufficientError
	require.ErrorAs(t, err, &insErr)
	assert.Equal(t, "P1", insErr.ProductID)
	assert.Equal(t, "M", insErr.Size)
	assert.Equal(t, 1, insErr.Available)

	assert.Equal(t, 1, store.level("P1", "M"))
	assert.Zero(t, store.orderCount())
}

func TestCheckout_HappyPath(t *testing.T) {
	carts := newCartRepo()
	carts.put("u1", lineItem("P1", "M", 2, 50000))
	store := newMemStore(map[string]int{stockKey("P1", "M"): 5})
	pays := &mockPaymentRepo{}
	shipping := price(5000)
	svc := NewService(carts, store, store, pays, newRegistry(), shipping)

	addr := "Calle 10 #43-12"
	o, err := svc.Checkout(context.Background(), Request{
		UserID:          "u1",
		ShippingAddress: &addr,
		PaymentMethod:   "contra-entrega",
	})
	require.NoError(t, err)

	assert.Equal(t, order.StatusPending, o.Status)
	assert.True(t, price(100000).Equal(o.Subtotal))
	assert.True(t, shipping.Equal(o.ShippingCost))
	assert.True(t, price(105000).Equal(o.Total))
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, price(50000).Equal(o.Items[0].UnitPrice))

	require.NotNil(t, o.Payment)
	assert.Equal(t, payment.StatusApproved, o.Payment.Status)
	assert.Equal(t, payment.MethodCashOnDelivery, o.Payment.Method)
	assert.True(t, o.Total.Equal(o.Payment.Amount))

	assert.Equal(t, 3, store.level("P1", "M"))
	assert.Equal(t, 1, store.orderCount())
	assert.Equal(t, 1, carts.clears)

	snap, err := carts.Snapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, snap.Empty())
}

func TestCheckout_MonetaryConsistency(t *testing.T) {
	carts := newCartRepo()
	carts.put("u1",
		lineItem("P1", "M", 2, 50000),
		lineItem("P2", "40", 3, 129900),
	)
	store := newMemStore(map[string]int{
		stockKey("P1", "M"):  10,
		stockKey("P2", "40"): 10,
	})
	pays := &mockPaymentRepo{}
	shipping := price(12000)
	svc := NewService(carts, store, store, pays, newRegistry(), shipping)

	o, err := svc.Checkout(context.Background(), Request{
		UserID:        "u1",
		PaymentMethod: payment.MethodCashOnDelivery,
	})
	require.NoError(t, err)

	wantSubtotal := decimal.Zero
	for _, it := range o.Items {
		wantSubtotal = wantSubtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, wantSubtotal.Equal(o.Subtotal), "subtotal must equal the sum over its own items")
	assert.True(t, o.Subtotal.Add(o.ShippingCost).Equal(o.Total), "total must equal subtotal plus shipping")
}

func TestCheckout_DecrementRaceLost(t *testing.T) {
	carts := newCartRepo()
	carts.put("u1", lineItem("P1", "M", 3, 50000))
	store := newMemStore(map[string]int{stockKey("P1", "M"): 5})
	pays := &mockPaymentRepo{}
	committer := &failingCommitter{err: &stock.InsufficientError{ProductID: "P1", Size: "M", Available: 2}}
	svc := NewService(carts, store, committer, pays, newRegistry(), decimal.Zero)

	_, err := svc.Checkout(context.Background(), Request{
		UserID:        "u1",
		PaymentMethod: payment.MethodCashOnDelivery,
	})

	var insErr *stock.InsufficientError
	require.ErrorAs(t, err, &insErr)
	assert.Equal(t, 2, insErr.Available)

	// The rolled-back commit left no order behind, so no payment was
	// attempted and the cart survives.
	assert.Empty(t, pays.payments)
	assert.Zero(t, carts.clears)
}

func TestCheckout_PaymentRejected(t *testing.T) {
	carts := newCartRepo()
	carts.put("u1", lineItem("P1", "M", 2, 50000))
	store := newMemStore(map[string]int{stockKey("P1", "M"): 5})
	pays := &mockPaymentRepo{}
	registry := newRegistry()
	registry.Register("CREDIT_CARD", rejectingStrategy{})
	svc := NewService(carts, store, store, pays, registry, decimal.Zero)

	_, err := svc.Checkout(context.Background(), Request{
		UserID:        "u1",
		PaymentMethod: "credit-card",
	})

	var prErr *PaymentRejectedError
	require.ErrorAs(t, err, &prErr)
	assert.Equal(t, payment.StatusRejected, prErr.Status)

	// Order and stock commitment persist for audit; the rejected outcome is
	// recorded; the cart is untouched.
	assert.Equal(t, 1, store.orderCount())
	assert.Equal(t, 3, store.level("P1", "M"))
	require.Len(t, pays.payments, 1)
	assert.Equal(t, payment.StatusRejected, pays.payments[0].Status)
	assert.Zero(t, carts.clears)
}

func TestCheckout_RaceExactlyOneWins(t *testing.T) {
	store := newMemStore(map[string]int{stockKey("P1", "M"): 5})
	pays := &mockPaymentRepo{}
	registry := newRegistry()

	carts := newCartRepo()
	carts.put("u1", lineItem("P1", "M", 3, 50000))
	carts.put("u2", lineItem("P1", "M", 3, 50000))
	svc := NewService(carts, store, store, pays, registry, decimal.Zero)

	var g errgroup.Group
	results := make([]error, 2)
	for i, userID := range []string{"u1", "u2"} {
		g.Go(func() error {
			_, err := svc.Checkout(context.Background(), Request{
				UserID:        userID,
				PaymentMethod: payment.MethodCashOnDelivery,
			})
			results[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var wins, losses int
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		var insErr *stock.InsufficientError
		require.ErrorAs(t, err, &insErr)
		assert.Equal(t, 2, insErr.Available)
		losses++
	}
	assert.Equal(t, 1, wins, "exactly one checkout must win")
	assert.Equal(t, 1, losses)
	assert.Equal(t, 2, store.level("P1", "M"))
}

func TestCheckout_NoOversellUnderConcurrency(t *testing.T) {
	const initial = 7
	const attempts = 20

	store := newMemStore(map[string]int{stockKey("P1", "M"): initial})
	pays := &mockPaymentRepo{}
	registry := newRegistry()

	carts := newCartRepo()
	users := make([]string, attempts)
	for i := range users {
		users[i] = "u" + string(rune('a'+i))
		carts.put(users[i], lineItem("P1", "M", 1, 50000))
	}
	svc := NewService(carts, store, store, pays, registry, decimal.Zero)

	var committed atomic.Int64
	var g errgroup.Group
	for _, userID := range users {
		g.Go(func() error {
			_, err := svc.Checkout(context.Background(), Request{
				UserID:        userID,
				PaymentMethod: payment.MethodCashOnDelivery,
			})
			if err == nil {
				committed.Add(1)
				return nil
			}
			var insErr *stock.InsufficientError
			if !errors.As(err, &insErr) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.LessOrEqual(t, committed.Load(), int64(initial), "committed quantity must never exceed initial stock")
	assert.Equal(t, initial-int(committed.Load()), store.level("P1", "M"))
	assert.GreaterOrEqual(t, store.level("P1", "M"), 0, "stock must never go negative")
}
