// Package payment decouples checkout from any specific settlement mechanism.
// Strategies are selected by a normalized method key through a registry; the
// orchestrator never knows which strategy runs.
package payment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses recorded with the outcome row.
const (
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
	StatusPending  = "PENDING"
)

// Outcome is the result of one settlement attempt. A rejected outcome is
// terminal for the checkout attempt; the registry never retries.
type Outcome struct {
	Success           bool
	Status            string
	ExternalReference string
}

// Strategy is a pluggable settlement implementation. Retry policy, if any,
// lives inside a strategy, never in the dispatcher.
type Strategy interface {
	Process(ctx context.Context, orderID string, amount decimal.Decimal) (Outcome, error)
}

// Payment is the persisted one-to-one outcome of an order's settlement
// attempt. Created once, after stock has been committed.
type Payment struct {
	ID                string
	OrderID           string
	Amount            decimal.Decimal
	Method            string
	Status            string
	ExternalReference *string
	CreatedAt         time.Time
}

// Repository persists payment outcomes.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	FindByOrderID(ctx context.Context, orderID string) (*Payment, error)
}

// UnsupportedMethodError reports a payment method with no registered
// strategy, carrying the supported set for the caller to react to.
type UnsupportedMethodError struct {
	Method    string
	Supported []string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported payment method %q (supported: %s)", e.Method, strings.Join(e.Supported, ", "))
}

// NormalizeMethod canonicalizes a method key: uppercase, hyphens folded to
// underscores. "cash-on-delivery" and "CASH_ON_DELIVERY" resolve identically.
func NormalizeMethod(method string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(method)), "-", "_")
}

// Registry resolves normalized method keys to strategies. Adding a strategy
// requires no change to the checkout orchestrator.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry returns an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register binds a strategy to a method key. The key is normalized; a later
// registration for the same key replaces the earlier one.
func (r *Registry) Register(method string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[NormalizeMethod(method)] = s
}

// Resolve returns the strategy for the method along with the canonical key.
// An unknown key fails with UnsupportedMethodError before any state-changing
// work occurs.
func (r *Registry) Resolve(method string) (Strategy, string, error) {
	key := NormalizeMethod(method)

	r.mu.RLock()
	s, ok := r.strategies[key]
	r.mu.RUnlock()

	if !ok {
		return nil, "", &UnsupportedMethodError{Method: method, Supported: r.Supported()}
	}
	return s, key, nil
}

// Supported returns the sorted canonical method keys.
func (r *Registry) Supported() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.strategies))
	for k := range r.strategies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
