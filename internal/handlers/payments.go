package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/services"
)

// PaymentHandlers serves capture recording and settlement.
type PaymentHandlers struct {
	payments services.PaymentService
}

// NewPaymentHandlers builds the payment handlers.
func NewPaymentHandlers(payments services.PaymentService) *PaymentHandlers {
	return &PaymentHandlers{payments: payments}
}

// RegisterOrderRoutes mounts the order-scoped payment routes.
func (h *PaymentHandlers) RegisterOrderRoutes(r chi.Router) {
	r.Post("/{orderID}/payments", h.recordPayment)
}

// Register mounts the payment-scoped routes.
func (h *PaymentHandlers) Register(r chi.Router) {
	r.Post("/{paymentID}/outcome", h.markOutcome)
}

type recordPaymentRequest struct {
	Method          string         `json:"method"`
	Amount          domain.Money   `json:"amount"`
	GatewayOrderID  string         `json:"gateway_order_id"`
	GatewayResponse map[string]any `json:"gateway_response"`
}

func (h *PaymentHandlers) recordPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req recordPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}

	payment, err := h.payments.RecordPayment(ctx, services.RecordPaymentCommand{
		OrderID:         chi.URLParam(r, "orderID"),
		Method:          domain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.Method))),
		Amount:          req.Amount,
		GatewayOrderID:  req.GatewayOrderID,
		GatewayResponse: req.GatewayResponse,
	})
	if err != nil {
		// The failed capture row, when present, still reaches the client so it
		// can retry against the same payment history.
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderPayment(payment))
}

type markOutcomeRequest struct {
	Outcome         string         `json:"outcome"`
	TransactionID   string         `json:"transaction_id"`
	GatewayResponse map[string]any `json:"gateway_response"`
}

func (h *PaymentHandlers) markOutcome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req markOutcomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}

	outcome := services.PaymentOutcome(strings.ToLower(strings.TrimSpace(req.Outcome)))
	if outcome != services.PaymentOutcomeCompleted && outcome != services.PaymentOutcomeFailed {
		writeBadRequest(ctx, w, "outcome must be completed or failed")
		return
	}

	payment, err := h.payments.MarkPaymentOutcome(ctx, services.MarkPaymentOutcomeCommand{
		PaymentID:       chi.URLParam(r, "paymentID"),
		Outcome:         outcome,
		TransactionID:   req.TransactionID,
		GatewayResponse: req.GatewayResponse,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderPayment(payment))
}
