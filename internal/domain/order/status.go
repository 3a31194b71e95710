package order

import (
	"fmt"
	"strings"
)

// Status is the fulfilment position of an order. Any status may move to any
// other; validation is membership only.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusPreparing Status = "PREPARING"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// Statuses lists every valid status, in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// InvalidStatusError reports a status value outside the valid set, carrying
// the original input for the caller's error payload.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid order status %q", e.Value)
}

// ParseStatus canonicalizes and validates a status value. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseStatus(v string) (Status, error) {
	candidate := Status(strings.ToUpper(strings.TrimSpace(v)))
	for _, s := range Statuses {
		if candidate == s {
			return s, nil
		}
	}
	return "", &InvalidStatusError{Value: v}
}
