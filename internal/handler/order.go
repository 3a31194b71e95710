package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/dmarulanda/shoestore/internal/domain/checkout"
	"github.com/dmarulanda/shoestore/internal/domain/order"
	"github.com/dmarulanda/shoestore/internal/domain/payment"
	"github.com/dmarulanda/shoestore/internal/domain/stock"
)

type orderItemResponse struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Size      string  `json:"size"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type paymentResponse struct {
	ID                string  `json:"id"`
	Method            string  `json:"method"`
	Status            string  `json:"status"`
	Amount            float64 `json:"amount"`
	ExternalReference *string `json:"externalReference"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	Status          string              `json:"status"`
	Subtotal        float64             `json:"subtotal"`
	ShippingCost    float64             `json:"shippingCost"`
	Total           float64             `json:"total"`
	ShippingAddress *string             `json:"shippingAddress"`
	Items           []orderItemResponse `json:"items"`
	Payment         *paymentResponse    `json:"payment,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		Status:          string(o.Status),
		Subtotal:        o.Subtotal.InexactFloat64(),
		ShippingCost:    o.ShippingCost.InexactFloat64(),
		Total:           o.Total.InexactFloat64(),
		ShippingAddress: o.ShippingAddress,
		Items:           make([]orderItemResponse, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Size:      it.Size,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.InexactFloat64(),
		})
	}
	if p := o.Payment; p != nil {
		resp.Payment = &paymentResponse{
			ID:                p.ID,
			Method:            p.Method,
			Status:            p.Status,
			Amount:            p.Amount.InexactFloat64(),
			ExternalReference: p.ExternalReference,
		}
	}
	return resp
}

type checkoutRequest struct {
	PaymentMethod   string  `json:"paymentMethod"`
	ShippingAddress *string `json:"shippingAddress"`
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decode(w, r, &req) {
		return
	}

	o, err := h.checkout.Checkout(r.Context(), checkout.Request{
		UserID:          claimsFrom(r.Context()).UserID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		h.respondCheckoutError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, map[string]any{"order": toOrderResponse(o)})
}

// respondCheckoutError maps every checkout abort branch onto its wire code.
func (h *Handler) respondCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		unsupported  *payment.UnsupportedMethodError
		insufficient *stock.InsufficientError
		rejected     *checkout.PaymentRejectedError
	)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, r, http.StatusBadRequest, "CART_EMPTY", nil)
	case errors.As(err, &unsupported):
		respondError(w, r, http.StatusBadRequest, "UNSUPPORTED_PAYMENT_METHOD", map[string]any{
			"method":           unsupported.Method,
			"supportedMethods": unsupported.Supported,
		})
	case errors.As(err, &insufficient):
		respondError(w, r, http.StatusBadRequest, "INSUFFICIENT_STOCK", map[string]any{
			"productId": insufficient.ProductID,
			"size":      insufficient.Size,
			"available": insufficient.Available,
		})
	case errors.As(err, &rejected):
		respondError(w, r, http.StatusPaymentRequired, "PAYMENT_FAILED", map[string]any{
			"orderId": rejected.OrderID,
			"status":  rejected.Status,
		})
	default:
		internalError(w, r, err)
	}
}

func (h *Handler) handleListMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.FindByUser(r.Context(), claimsFrom(r.Context()).UserID, 50)
	if err != nil {
		internalError(w, r, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	respond(w, r, http.StatusOK, map[string]any{"orders": out})
}

func (h *Handler) handleGetMyOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "ORDER_NOT_FOUND", nil)
			return
		}
		internalError(w, r, err)
		return
	}
	// Foreign orders are indistinguishable from missing ones.
	if o.UserID != claimsFrom(r.Context()).UserID {
		respondError(w, r, http.StatusNotFound, "ORDER_NOT_FOUND", nil)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"order": toOrderResponse(o)})
}
