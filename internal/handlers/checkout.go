package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/services"
)

// CheckoutHandlers serves quoting and order placement.
type CheckoutHandlers struct {
	carts    services.CartService
	checkout services.CheckoutService
}

// NewCheckoutHandlers builds the checkout handlers.
func NewCheckoutHandlers(carts services.CartService, checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{carts: carts, checkout: checkout}
}

// Register mounts the checkout routes on the given router.
func (h *CheckoutHandlers) Register(r chi.Router) {
	r.Post("/quote", h.quote)
	r.Post("/orders", h.placeOrder)
}

type quoteRequest struct {
	CouponCode   string       `json:"coupon_code"`
	ShippingCost domain.Money `json:"shipping_cost"`
	Tax          domain.Money `json:"tax"`
}

func (h *CheckoutHandlers) quote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := resolveOwner(r)
	if err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}

	var req quoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}

	cart, err := h.carts.GetOrCreate(ctx, owner)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	quote, err := h.checkout.QuoteCart(ctx, services.QuoteCartCommand{
		CartID:       cart.ID,
		CouponCode:   req.CouponCode,
		ShippingCost: req.ShippingCost,
		Tax:          req.Tax,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderQuote(quote))
}

type placeOrderRequest struct {
	ShippingAddressID string       `json:"shipping_address_id"`
	BillingAddressID  string       `json:"billing_address_id"`
	CouponCode        string       `json:"coupon_code"`
	ShippingCost      domain.Money `json:"shipping_cost"`
	Tax               domain.Money `json:"tax"`
	CustomerNotes     string       `json:"customer_notes"`
}

func (h *CheckoutHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := resolveOwner(r)
	if err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}

	var req placeOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}
	if strings.TrimSpace(req.ShippingAddressID) == "" {
		writeBadRequest(ctx, w, "shipping_address_id is required")
		return
	}
	if strings.TrimSpace(req.BillingAddressID) == "" {
		writeBadRequest(ctx, w, "billing_address_id is required")
		return
	}

	cart, err := h.carts.GetOrCreate(ctx, owner)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	cmd := services.PlaceOrderCommand{
		CartID:            cart.ID,
		ShippingAddressID: req.ShippingAddressID,
		BillingAddressID:  req.BillingAddressID,
		CouponCode:        req.CouponCode,
		ShippingCost:      req.ShippingCost,
		Tax:               req.Tax,
		CustomerNotes:     req.CustomerNotes,
	}
	if userID, ok := owner.UserID(); ok {
		cmd.UserID = &userID
	}

	order, err := h.checkout.PlaceOrder(ctx, cmd)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderOrder(order))
}
