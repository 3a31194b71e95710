package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/dmarulanda/shoestore/internal/domain/cart"
	"github.com/dmarulanda/shoestore/internal/domain/catalog"
)

type cartItemResponse struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Size      string  `json:"size"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type cartResponse struct {
	Items    []cartItemResponse `json:"items"`
	Subtotal float64            `json:"subtotal"`
}

func toCartItemResponse(it *cart.LineItem) cartItemResponse {
	return cartItemResponse{
		ID:        it.ID,
		ProductID: it.ProductID,
		Size:      it.Size,
		Quantity:  it.Quantity,
		UnitPrice: it.UnitPrice.InexactFloat64(),
	}
}

func toCartResponse(snap cart.Snapshot) cartResponse {
	resp := cartResponse{
		Items:    make([]cartItemResponse, 0, len(snap.Items)),
		Subtotal: snap.Subtotal().InexactFloat64(),
	}
	for i := range snap.Items {
		resp.Items = append(resp.Items, toCartItemResponse(&snap.Items[i]))
	}
	return resp
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.carts.Snapshot(r.Context(), claimsFrom(r.Context()).UserID)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"cart": toCartResponse(snap)})
}

type addCartItemRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		respondError(w, r, http.StatusBadRequest, "INVALID_QUANTITY", nil)
		return
	}

	// The price is captured from the active catalog entry at add time.
	p, err := h.products.GetByID(r.Context(), req.ProductID, false)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "PRODUCT_NOT_FOUND", nil)
			return
		}
		internalError(w, r, err)
		return
	}

	// Advisory stock check: rejects obviously impossible adds, while the
	// checkout commit remains the only authority on oversell.
	available, err := h.stocks.Available(r.Context(), req.ProductID, req.Size)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if available < req.Quantity {
		respondError(w, r, http.StatusBadRequest, "INSUFFICIENT_STOCK", map[string]any{
			"productId": req.ProductID,
			"size":      req.Size,
			"available": available,
		})
		return
	}

	it, err := h.carts.AddItem(r.Context(), claimsFrom(r.Context()).UserID, req.ProductID, req.Size, req.Quantity, p.Price)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, map[string]any{"item": toCartItemResponse(it)})
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateCartItemRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		respondError(w, r, http.StatusBadRequest, "INVALID_QUANTITY", nil)
		return
	}

	it, err := h.carts.UpdateItemQuantity(r.Context(), claimsFrom(r.Context()).UserID, r.PathValue("id"), req.Quantity)
	if err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			respondError(w, r, http.StatusNotFound, "ITEM_NOT_FOUND", nil)
			return
		}
		internalError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"item": toCartItemResponse(it)})
}

func (h *Handler) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	err := h.carts.RemoveItem(r.Context(), claimsFrom(r.Context()).UserID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			respondError(w, r, http.StatusNotFound, "ITEM_NOT_FOUND", nil)
			return
		}
		internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
