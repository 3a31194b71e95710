package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmarulanda/shoestore/internal/domain/catalog"
)

type inventoryResponse struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type productResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       float64             `json:"price"`
	Currency    string              `json:"currency"`
	Category    string              `json:"category"`
	ImageURL    *string             `json:"imageUrl"`
	Active      bool                `json:"active"`
	Inventory   []inventoryResponse `json:"inventory,omitempty"`
}

func toProductResponse(p *catalog.Product) productResponse {
	resp := productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Currency:    p.Currency,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Active:      p.Active,
	}
	for _, inv := range p.Inventory {
		resp.Inventory = append(resp.Inventory, inventoryResponse{Size: inv.Size, Quantity: inv.Quantity})
	}
	return resp
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		internalError(w, r, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	respond(w, r, http.StatusOK, map[string]any{"products": out})
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"), false)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "PRODUCT_NOT_FOUND", nil)
			return
		}
		internalError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"product": toProductResponse(p)})
}

type inventoryInput struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type createProductRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	Category    string           `json:"category"`
	ImageURL    *string          `json:"imageUrl"`
	Inventory   []inventoryInput `json:"inventory"`
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.Price.IsNegative() {
		respondError(w, r, http.StatusBadRequest, "INVALID_PRODUCT", nil)
		return
	}

	p := &catalog.Product{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	}
	for _, inv := range req.Inventory {
		p.Inventory = append(p.Inventory, catalog.InventoryRecord{
			ProductID: p.ID,
			Size:      inv.Size,
			Quantity:  inv.Quantity,
		})
	}

	if err := h.products.Create(r.Context(), p); err != nil {
		internalError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, map[string]any{"product": toProductResponse(p)})
}

// updateProductRequest decodes to raw messages first so that an absent field,
// a field set to null, and a field set to a value stay distinguishable.
type updateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	ImageURL    json.RawMessage  `json:"imageUrl"`
	Active      *bool            `json:"active"`
	Inventory   []inventoryInput `json:"inventory"`
}

func (req *updateProductRequest) patch() (catalog.Patch, error) {
	var p catalog.Patch
	if req.Name != nil {
		p.Name = catalog.NewOpt(*req.Name)
	}
	if req.Description != nil {
		p.Description = catalog.NewOpt(*req.Description)
	}
	if req.Price != nil {
		p.Price = catalog.NewOpt(*req.Price)
	}
	if req.Category != nil {
		p.Category = catalog.NewOpt(*req.Category)
	}
	// A nil RawMessage means the key was absent; the literal "null" means it
	// was present with an explicit null.
	if req.ImageURL != nil {
		if string(req.ImageURL) == "null" {
			p.ImageURL = catalog.Null[string]()
		} else {
			var url string
			if err := json.Unmarshal(req.ImageURL, &url); err != nil {
				return p, err
			}
			p.ImageURL = catalog.NewOptNull(url)
		}
	}
	if req.Active != nil {
		p.Active = catalog.NewOpt(*req.Active)
	}
	return p, nil
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if !decode(w, r, &req) {
		return
	}

	patch, err := req.patch()
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_BODY", nil)
		return
	}

	var inventory []catalog.InventoryRecord
	if req.Inventory != nil {
		inventory = make([]catalog.InventoryRecord, 0, len(req.Inventory))
		for _, inv := range req.Inventory {
			inventory = append(inventory, catalog.InventoryRecord{Size: inv.Size, Quantity: inv.Quantity})
		}
	}

	p, err := h.products.Update(r.Context(), r.PathValue("id"), patch, inventory)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "PRODUCT_NOT_FOUND", nil)
			return
		}
		internalError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"product": toProductResponse(p)})
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Deactivate(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "PRODUCT_NOT_FOUND", nil)
			return
		}
		internalError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"product": toProductResponse(p)})
}
