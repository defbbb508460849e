package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Pratikmahatara/Shoe/internal/catalog"
	"github.com/Pratikmahatara/Shoe/internal/domain"
	apperrors "github.com/Pratikmahatara/Shoe/pkg/errors"
	"github.com/Pratikmahatara/Shoe/pkg/httputil"
	"github.com/Pratikmahatara/Shoe/pkg/pagination"
)

// Catalog is the read side of the external catalog API.
type Catalog interface {
	ProductSource
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListBrands(ctx context.Context) ([]domain.Brand, error)
	ListProducts(ctx context.Context, f catalog.Filter) (pagination.Page[domain.Product], error)
	CategoryBySlug(ctx context.Context, slug string) (domain.Category, error)
}

// CatalogHandler proxies catalog reads for the product pages.
type CatalogHandler struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(c Catalog, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, logger: logger}
}

type categoryProductsResponse struct {
	Category domain.Category                 `json:"category"`
	Products pagination.Page[domain.Product] `json:"products"`
}

// ListCategories handles GET /api/v1/catalog/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, categories)
}

// ListBrands handles GET /api/v1/catalog/brands
func (h *CatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.catalog.ListBrands(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, brands)
}

// ListProducts handles GET /api/v1/catalog/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	page, err := h.catalog.ListProducts(r.Context(), f)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, page)
}

// CategoryProducts handles GET /api/v1/catalog/categories/{slug}/products
func (h *CatalogHandler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalog.CategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	f, err := filterFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	f.Category = strconv.FormatInt(category.ID, 10)

	page, err := h.catalog.ListProducts(r.Context(), f)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, categoryProductsResponse{Category: category, Products: page})
}

// GetProduct handles GET /api/v1/catalog/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, r, apperrors.InvalidInput("product id must be a positive integer"), h.logger)
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, product)
}

func filterFromRequest(r *http.Request) (catalog.Filter, error) {
	q := r.URL.Query()
	f := catalog.Filter{
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
		Search:   q.Get("search"),
		Ordering: q.Get("ordering"),
		Page:     pagination.FromRequest(r),
	}
	if !catalog.ValidOrdering(f.Ordering) {
		return f, apperrors.InvalidInput("ordering must be one of price, -price, created, -created")
	}
	return f, nil
}
