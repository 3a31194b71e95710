package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// MethodCashOnDelivery is the canonical key for the cash-on-delivery
// strategy ("contra entrega").
const MethodCashOnDelivery = "CONTRA_ENTREGA"

// CashOnDelivery settles nothing up front: the payment is confirmed and
// collected at delivery, so every attempt is approved.
type CashOnDelivery struct{}

// Process approves the payment unconditionally. No external reference is
// produced because no gateway is involved.
func (CashOnDelivery) Process(_ context.Context, _ string, _ decimal.Decimal) (Outcome, error) {
	return Outcome{Success: true, Status: StatusApproved}, nil
}
