// Package handler exposes the HTTP surface, mapping domain outcomes onto
// the wire contract: structured error codes with enough detail for callers
// to react without string-parsing.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/dmarulanda/shoestore/internal/domain/cart"
	"github.com/dmarulanda/shoestore/internal/domain/catalog"
	"github.com/dmarulanda/shoestore/internal/domain/checkout"
	"github.com/dmarulanda/shoestore/internal/domain/order"
	"github.com/dmarulanda/shoestore/internal/domain/stock"
	"github.com/dmarulanda/shoestore/internal/domain/user"
)

// Handler holds the domain dependencies for all routes.
type Handler struct {
	users    *user.Service
	tokens   *user.TokenIssuer
	products catalog.Repository
	carts    cart.Repository
	stocks   stock.Ledger
	orders   order.Repository
	checkout *checkout.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	users *user.Service,
	tokens *user.TokenIssuer,
	products catalog.Repository,
	carts cart.Repository,
	stocks stock.Ledger,
	orders order.Repository,
	checkoutSvc *checkout.Service,
) *Handler {
	return &Handler{
		users:    users,
		tokens:   tokens,
		products: products,
		carts:    carts,
		stocks:   stocks,
		orders:   orders,
		checkout: checkoutSvc,
	}
}

// Routes registers all API routes on the mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", h.handleLogin)

	mux.HandleFunc("GET /api/v1/products", h.handleListProducts)
	mux.HandleFunc("GET /api/v1/products/{id}", h.handleGetProduct)

	mux.Handle("GET /api/v1/cart", h.authed(h.handleGetCart))
	mux.Handle("POST /api/v1/cart/items", h.authed(h.handleAddCartItem))
	mux.Handle("PATCH /api/v1/cart/items/{id}", h.authed(h.handleUpdateCartItem))
	mux.Handle("DELETE /api/v1/cart/items/{id}", h.authed(h.handleRemoveCartItem))

	mux.Handle("POST /api/v1/orders/checkout", h.authed(h.handleCheckout))
	mux.Handle("GET /api/v1/orders", h.authed(h.handleListMyOrders))
	mux.Handle("GET /api/v1/orders/{id}", h.authed(h.handleGetMyOrder))

	mux.Handle("POST /api/v1/admin/products", h.admin(h.handleCreateProduct))
	mux.Handle("PATCH /api/v1/admin/products/{id}", h.admin(h.handleUpdateProduct))
	mux.Handle("DELETE /api/v1/admin/products/{id}", h.admin(h.handleDeleteProduct))

	mux.Handle("GET /api/v1/admin/orders", h.admin(h.handleListAllOrders))
	mux.Handle("GET /api/v1/admin/orders/{id}", h.admin(h.handleGetOrderAdmin))
	mux.Handle("PATCH /api/v1/admin/orders/{id}/status", h.admin(h.handleUpdateOrderStatus))
}

// respond writes v as JSON with the given status code.
func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Warn("encode response", zap.Error(err))
	}
}

// respondError writes the wire error shape: an error code plus optional
// structured detail fields.
func respondError(w http.ResponseWriter, r *http.Request, status int, code string, details map[string]any) {
	body := map[string]any{"error": code}
	for k, v := range details {
		body[k] = v
	}
	respond(w, r, status, body)
}

// decode parses the request body into v, replying 400 on malformed JSON.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_BODY", nil)
		return false
	}
	return true
}

// internalError logs the error and replies with the opaque 500 body.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", nil)
}
