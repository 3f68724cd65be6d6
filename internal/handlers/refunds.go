package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/laptopstore/api/internal/domain"
	"github.com/laptopstore/api/internal/services"
)

// RefundHandlers serves refund requests and their settlement.
type RefundHandlers struct {
	refunds services.RefundService
}

// NewRefundHandlers builds the refund handlers.
func NewRefundHandlers(refunds services.RefundService) *RefundHandlers {
	return &RefundHandlers{refunds: refunds}
}

// RegisterOrderRoutes mounts the order-scoped refund routes.
func (h *RefundHandlers) RegisterOrderRoutes(r chi.Router) {
	r.Post("/{orderID}/refunds", h.requestRefund)
}

// Register mounts the refund-scoped routes.
func (h *RefundHandlers) Register(r chi.Router) {
	r.Post("/{refundID}/settle", h.settleRefund)
}

type requestRefundRequest struct {
	Amount domain.Money `json:"amount"`
	Reason string       `json:"reason"`
}

func (h *RefundHandlers) requestRefund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req requestRefundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}

	refund, err := h.refunds.RequestOrderRefund(ctx, services.RequestOrderRefundCommand{
		OrderID: chi.URLParam(r, "orderID"),
		Amount:  req.Amount,
		Reason:  req.Reason,
		ActorID: actorFrom(r),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderOrderRefund(refund))
}

type settleRefundRequest struct {
	Outcome string `json:"outcome"`
}

func (h *RefundHandlers) settleRefund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req settleRefundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(ctx, w, err.Error())
		return
	}

	outcome := services.RefundOutcome(strings.ToLower(strings.TrimSpace(req.Outcome)))
	if outcome != services.RefundOutcomeApproved && outcome != services.RefundOutcomeRejected {
		writeBadRequest(ctx, w, "outcome must be approved or rejected")
		return
	}

	refund, err := h.refunds.SettleOrderRefund(ctx, services.SettleOrderRefundCommand{
		RefundID: chi.URLParam(r, "refundID"),
		Outcome:  outcome,
		ActorID:  actorFrom(r),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderOrderRefund(refund))
}
