package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Pratikmahatara/Shoe/internal/cart"
	"github.com/Pratikmahatara/Shoe/internal/domain"
	"github.com/Pratikmahatara/Shoe/pkg/httputil"
	"github.com/Pratikmahatara/Shoe/pkg/validator"
)

// ProductSource looks up products to put in the cart.
type ProductSource interface {
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
}

// CartHandler serves the cart surfaces: badge, cart page and mutations.
type CartHandler struct {
	registry *cart.Registry
	products ProductSource
	logger   *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(registry *cart.Registry, products ProductSource, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		registry: registry,
		products: products,
		logger:   logger,
	}
}

// --- Request DTOs ---

// AddItemRequest adds a product. Size and color default to the product's
// first listed option; quantity defaults to 1.
type AddItemRequest struct {
	ProductID int64        `json:"product_id" validate:"required,gt=0"`
	Quantity  int          `json:"quantity" validate:"omitempty,gte=1"`
	Size      *domain.Size `json:"size"`
	Color     *string      `json:"color"`
}

// ItemRequest identifies a line by its variant key.
type ItemRequest struct {
	ProductID int64       `json:"product_id" validate:"required,gt=0"`
	Size      domain.Size `json:"size"`
	Color     string      `json:"color"`
}

// UpdateItemRequest sets the quantity of a line. Quantity must be present;
// zero or less removes the line.
type UpdateItemRequest struct {
	ProductID int64       `json:"product_id" validate:"required,gt=0"`
	Size      domain.Size `json:"size"`
	Color     string      `json:"color"`
	Quantity  *int        `json:"quantity" validate:"required"`
}

type countResponse struct {
	Count int `json:"count"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.writeSummary(w, r, http.StatusOK)
}

// GetCount handles GET /api/v1/cart/count
func (h *CartHandler) GetCount(w http.ResponseWriter, r *http.Request) {
	items, err := h.store(r).Read(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, countResponse{Count: domain.Count(items)})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.products.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	size := product.DefaultSize()
	if req.Size != nil {
		size = *req.Size
	}
	color := product.DefaultColor()
	if req.Color != nil {
		color = *req.Color
	}

	if err := h.store(r).Add(r.Context(), product, quantity, size, color); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeSummary(w, r, http.StatusCreated)
}

// UpdateItem handles PUT /api/v1/cart/items
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.store(r).SetQuantity(r.Context(), req.ProductID, req.Size, req.Color, *req.Quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeSummary(w, r, http.StatusOK)
}

// RemoveItem handles DELETE /api/v1/cart/items
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.store(r).Remove(r.Context(), req.ProductID, req.Size, req.Color); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeSummary(w, r, http.StatusOK)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.store(r).Clear(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	h.writeSummary(w, r, http.StatusOK)
}

func (h *CartHandler) store(r *http.Request) *cart.Store {
	return h.registry.Store(cartIDFromRequest(r))
}

// writeSummary re-reads the cart so the response reflects what is stored.
func (h *CartHandler) writeSummary(w http.ResponseWriter, r *http.Request, status int) {
	summary, err := h.store(r).Summary(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, status, httputil.Response{Data: summary})
}
