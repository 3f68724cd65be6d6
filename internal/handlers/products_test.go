package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/services"
)

func productRouter(svc services.CatalogService) chi.Router {
	r := chi.NewRouter()
	NewProductHandlers(svc).Register(r)
	return r
}

func TestGetProductRendersSalePricing(t *testing.T) {
	sale := domain.MustMoney("850.00")
	svc := &stubCatalogService{
		getProductFn: func(_ context.Context, productID string) (domain.Product, error) {
			return domain.Product{
				ID:           productID,
				Name:         "Aurora 14",
				SKU:          "AUR-14",
				Price:        domain.MustMoney("1000.00"),
				SalePrice:    &sale,
				IsOnSale:     true,
				Availability: domain.AvailabilityInStock,
				IsActive:     true,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/prod_1", nil)
	rec := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if payload["current_price"] != "850.00" {
		t.Fatalf("expected sale price as current, got %v", payload["current_price"])
	}
	if payload["discount_percentage"] != float64(15) {
		t.Fatalf("expected 15%% discount, got %v", payload["discount_percentage"])
	}
}

func TestResolvePriceWithColor(t *testing.T) {
	var capturedColor *string
	svc := &stubCatalogService{
		resolveFn: func(_ context.Context, productID string, colorID *string) (domain.Money, error) {
			capturedColor = colorID
			return domain.MustMoney("1150.00"), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/prod_1/price?color_id=col_1", nil)
	rec := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if capturedColor == nil || *capturedColor != "col_1" {
		t.Fatalf("expected col_1, got %v", capturedColor)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if payload["unit_price"] != "1150.00" {
		t.Fatalf("expected 1150.00, got %v", payload["unit_price"])
	}
}

func TestResolvePriceColorMismatch(t *testing.T) {
	svc := &stubCatalogService{
		resolveFn: func(_ context.Context, productID string, colorID *string) (domain.Money, error) {
			return domain.Money{}, services.ErrColorMismatch
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/prod_1/price?color_id=col_other", nil)
	rec := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if payload["error"] != "color_mismatch" {
		t.Fatalf("expected color_mismatch, got %v", payload["error"])
	}
}
