package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/services"
)

// ProductHandlers serves the read-only catalog view.
type ProductHandlers struct {
	catalog services.CatalogService
}

// NewProductHandlers builds the product handlers.
func NewProductHandlers(catalog services.CatalogService) *ProductHandlers {
	return &ProductHandlers{catalog: catalog}
}

// Register mounts the product routes on the given router.
func (h *ProductHandlers) Register(r chi.Router) {
	r.Get("/{productID}", h.getProduct)
	r.Get("/{productID}/price", h.resolvePrice)
}

func (h *ProductHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderProduct(product))
}

// resolvePrice returns the effective unit price, optionally bound to a colour
// variant via the color_id query parameter.
func (h *ProductHandlers) resolvePrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var colorID *string
	if raw := strings.TrimSpace(r.URL.Query().Get("color_id")); raw != "" {
		colorID = &raw
	}

	price, err := h.catalog.ResolveUnitPrice(ctx, chi.URLParam(r, "productID"), colorID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, unitPriceResponse{UnitPrice: price})
}

type unitPriceResponse struct {
	UnitPrice domain.Money `json:"unit_price"`
}
