package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/payments"
	"github.com/laptopstore/api/internal/platform/httpx"
	"github.com/laptopstore/api/internal/services"
)

const maxRequestBodyBytes = 1 << 20

// writeJSON renders the payload with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON parses the request body into dst, rejecting unknown fields and
// oversized payloads.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func writeBadRequest(ctx context.Context, w http.ResponseWriter, message string) {
	httpx.WriteError(ctx, w, httpx.NewError("bad_request", message, http.StatusBadRequest))
}

// writeServiceError maps service sentinels onto the stable error envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	code, status := classifyServiceError(err)
	httpx.WriteError(ctx, w, httpx.NewError(code, err.Error(), status))
}

func classifyServiceError(err error) (string, int) {
	switch {
	case errors.Is(err, services.ErrCartNotFound),
		errors.Is(err, services.ErrCartLineNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrColorNotFound),
		errors.Is(err, services.ErrCouponNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrPaymentNotFound),
		errors.Is(err, services.ErrRefundNotFound),
		errors.Is(err, services.ErrAddressNotFound):
		return "not_found", http.StatusNotFound

	case errors.Is(err, services.ErrCartEmpty):
		return "cart_empty", http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrNegativeQuantity):
		return "negative_quantity", http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidCartOwner):
		return "invalid_cart_owner", http.StatusBadRequest
	case errors.Is(err, services.ErrColorMismatch):
		return "color_mismatch", http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrProductUnavailable):
		return "product_unavailable", http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidAddress):
		return "invalid_address", http.StatusUnprocessableEntity

	case errors.Is(err, services.ErrCouponInactive):
		return "coupon_inactive", http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrCouponNotYetValid):
		return "coupon_not_yet_valid", http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrCouponExpired):
		return "coupon_expired", http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrCouponBelowMinimum):
		return "below_minimum", http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrCouponExhausted):
		return "coupon_exhausted", http.StatusConflict

	case errors.Is(err, services.ErrOutOfStock):
		return "out_of_stock", http.StatusConflict
	case errors.Is(err, services.ErrConflictRetryable):
		return "conflict_retryable", http.StatusConflict

	case errors.Is(err, services.ErrUnknownPaymentMethod):
		return "unknown_payment_method", http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrPaymentAmountInvalid),
		errors.Is(err, services.ErrRefundAmountInvalid):
		return "invalid_amount", http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrRefundNotAllowed):
		return "refund_not_allowed", http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrIllegalTransition):
		return "illegal_transition", http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrPricingInvalidInput):
		return "invalid_pricing_input", http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrMoneyOverflow):
		return "amount_overflow", http.StatusUnprocessableEntity

	case errors.Is(err, payments.ErrGatewayTimeout):
		return "gateway_timeout", http.StatusServiceUnavailable
	case errors.Is(err, payments.ErrGatewayUnavailable):
		return "gateway_unavailable", http.StatusServiceUnavailable

	case errors.Is(err, services.ErrInvariantViolation):
		return "invariant_violation", http.StatusInternalServerError
	}
	return "internal_server_error", http.StatusInternalServerError
}
