package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"

	"github.com/dmarulanda/shoestore/internal/domain/order"
)

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func (h *Handler) handleListAllOrders(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit == 0 || limit > 200 {
		limit = 50
	}
	offset := queryInt(r, "offset", 0)

	orders, err := h.orders.List(r.Context(), limit, offset)
	if err != nil {
		internalError(w, r, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	respond(w, r, http.StatusOK, map[string]any{
		"orders": out,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) handleGetOrderAdmin(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "ORDER_NOT_FOUND", nil)
			return
		}
		internalError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"order": toOrderResponse(o)})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decode(w, r, &req) {
		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_STATUS", map[string]any{
			"status":        req.Status,
			"validStatuses": order.Statuses,
		})
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "ORDER_NOT_FOUND", nil)
			return
		}
		internalError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"order": toOrderResponse(o)})
}
